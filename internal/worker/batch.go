package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/factlens/internal/model"
)

// Analyzer runs a single query through the analysis pipeline
type Analyzer interface {
	Analyze(ctx context.Context, query model.RawQuery) model.AnalysisResult
}

// ClaimJob analyzes one claim
type ClaimJob struct {
	Index    int
	Query    model.RawQuery
	Analyzer Analyzer
}

// Execute executes the claim job
func (j *ClaimJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &ClaimResult{Index: j.Index, Claim: j.Query.Text, Error: err}
	}
	result := j.Analyzer.Analyze(ctx, j.Query)
	return &ClaimResult{
		Index:  j.Index,
		Claim:  j.Query.Text,
		Result: &result,
	}
}

// ClaimResult represents the result of a claim job
type ClaimResult struct {
	Index  int
	Claim  string
	Result *model.AnalysisResult
	Error  error
}

// GetError returns the error from the claim result
func (r *ClaimResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many claims concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessClaims analyzes claims concurrently. Results are returned in input order.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string, mode model.Mode) []*ClaimResult {
	if len(claims) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, claim := range claims {
		pool.Submit(&ClaimJob{
			Index:    i,
			Query:    model.RawQuery{Text: claim, Mode: mode},
			Analyzer: b.analyzer,
		})
	}

	ordered := make([]*ClaimResult, len(claims))
	for _, result := range pool.Wait() {
		cr := result.(*ClaimResult)
		ordered[cr.Index] = cr
	}

	// Jobs never started because the batch context ended
	for i, cr := range ordered {
		if cr == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("claim not processed")
			}
			ordered[i] = &ClaimResult{Index: i, Claim: claims[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads claims from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, mode model.Mode) ([]*ClaimResult, error) {
	claims, err := ReadLinesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims, mode), nil
}

// ReadLinesFromFile reads non-empty, non-comment lines (one claim per line)
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
