package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputPath   string
	batchMode    string
	batchTimeout time.Duration
)

// batchRecord is one line of batch output
type batchRecord struct {
	Claim  string                `json:"claim"`
	Result *model.AnalysisResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many claims from a file in parallel",
	Long: `Batch analyzes claims concurrently:
- Read claims from input file (one per line, # for comments)
- Process claims in parallel with configurable worker count
- Write one JSON record per claim, in input order

Example:
  factlens batch claims.txt
  factlens batch claims.txt --concurrency 8 --output results.jsonl
  factlens batch topics.txt --mode crowd_analysis --timeout 20m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent analyses (default from config)")
	batchCmd.Flags().StringVar(&outputPath, "output", "", "output JSON lines path (default stdout)")
	batchCmd.Flags().StringVar(&batchMode, "mode", string(model.ModeFakeDetection), "analysis mode (fake_detection, crowd_analysis)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.Concurrency.BatchWorkers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  factlens batch\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Mode:         %s\n", model.ParseMode(batchMode))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	out := os.Stdout
	if outputPath != "" {
		f, createErr := os.Create(outputPath)
		if createErr != nil {
			return fmt.Errorf("create output: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}()
		out = f
	}

	p, _ := buildPipeline(cfg)
	processor := worker.NewBatchProcessor(p, concurrency)

	results, err := processor.ProcessFile(ctx, file, model.ParseMode(batchMode))
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	counts := map[string]int{}
	for _, res := range results {
		record := batchRecord{Claim: res.Claim}
		if res.Error != nil {
			record.Error = res.Error.Error()
			counts["failed"]++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Claim, res.Error)
		} else {
			r := res.Result.WithSources()
			record.Result = &r
			counts[string(r.Verdict)]++
			fmt.Fprintf(os.Stderr, "✓ %s → %s (%d)\n", res.Claim, r.Verdict, r.Score)
		}
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:          %d claims\n", len(results))
	fmt.Fprintf(os.Stderr, "  True:           %d\n", counts[string(model.VerdictTrue)])
	fmt.Fprintf(os.Stderr, "  False:          %d\n", counts[string(model.VerdictFalse)])
	fmt.Fprintf(os.Stderr, "  Controversial:  %d\n", counts[string(model.VerdictControversial)])
	fmt.Fprintf(os.Stderr, "  Failures:       %d\n", counts["failed"])
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
