package worker

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/factlens/internal/model"
)

// MockAnalyzer implements Analyzer
type MockAnalyzer struct {
	calls atomic.Int32
	delay time.Duration
}

func (m *MockAnalyzer) Analyze(ctx context.Context, query model.RawQuery) model.AnalysisResult {
	m.calls.Add(1)
	time.Sleep(m.delay) // Simulate work
	verdict := model.VerdictTrue
	if query.Mode == model.ModeCrowdAnalysis {
		verdict = model.VerdictControversial
	}
	return model.AnalysisResult{Verdict: verdict, Score: 70, Summary: query.Text}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "claims")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	analyzer := &MockAnalyzer{delay: 5 * time.Millisecond}
	processor := NewBatchProcessor(analyzer, 2)

	claims := []string{"첫 번째 주장", "두 번째 주장", "세 번째 주장", "네 번째 주장", "다섯 번째 주장"}
	results := processor.ProcessClaims(context.Background(), claims, model.ModeFakeDetection)

	if len(results) != len(claims) {
		t.Fatalf("expected %d results, got %d", len(claims), len(results))
	}

	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Claim, res.Error)
			continue
		}
		if res.Claim != claims[i] {
			t.Errorf("expected result %d for %q, got %q", i, claims[i], res.Claim)
		}
		if res.Result == nil || res.Result.Summary != claims[i] {
			t.Errorf("expected analysis for %q, got %+v", claims[i], res.Result)
		}
	}

	if analyzer.calls.Load() != int32(len(claims)) {
		t.Errorf("expected %d analyses, got %d", len(claims), analyzer.calls.Load())
	}
}

func TestBatchProcessor_ProcessClaims_ModePropagated(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 2)

	results := processor.ProcessClaims(context.Background(), []string{"여론"}, model.ModeCrowdAnalysis)
	if results[0].Result.Verdict != model.VerdictControversial {
		t.Errorf("expected crowd mode to reach analyzer, got %s", results[0].Result.Verdict)
	}
}

func TestBatchProcessor_ProcessClaims_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 2)

	results := processor.ProcessClaims(context.Background(), []string{}, model.ModeFakeDetection)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessClaims_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&MockAnalyzer{}, 1)
	results := processor.ProcessClaims(ctx, []string{"a", "b", "c"}, model.ModeFakeDetection)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Error == nil {
			t.Errorf("expected error for %q after cancellation", res.Claim)
		}
	}
}

func TestReadLinesFromFile(t *testing.T) {
	content := `백신이 자폐증을 유발한다
# comment
달 착륙은 조작되었다

백신이 자폐증을 유발한다
지구는 평평하다   `

	lines, err := ReadLinesFromFile(writeTempFile(t, content))
	if err != nil {
		t.Fatalf("ReadLinesFromFile failed: %v", err)
	}

	expected := []string{"백신이 자폐증을 유발한다", "달 착륙은 조작되었다", "지구는 평평하다"}
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(lines))
	}

	for i, line := range lines {
		if line != expected[i] {
			t.Errorf("expected line %s at index %d, got %s", expected[i], i, line)
		}
	}
}

func TestReadLinesFromFile_NonExistent(t *testing.T) {
	_, err := ReadLinesFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestClaimResult_GetError(t *testing.T) {
	r1 := &ClaimResult{Claim: "a", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("analysis failed")
	r2 := &ClaimResult{Claim: "a", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTempFile(t, "주장 하나\n주장 둘\n# comment\n\n주장 셋\n")

	processor := NewBatchProcessor(&MockAnalyzer{}, 2)
	results, err := processor.ProcessFile(context.Background(), path, model.ModeFakeDetection)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt", model.ModeFakeDetection)
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
