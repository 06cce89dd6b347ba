package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/factlens/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	analyzeMode    string
	analyzeURLs    []string
	analyzeTimeout time.Duration
	chatShape      bool
	streamOutput   bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <text>",
	Short: "Analyze a single claim or topic",
	Long: `Analyze runs one query through the pipeline:
- Refuse prompt-injection attempts
- Extract search keywords (fact-check mode)
- Retrieve news and encyclopedia evidence (fact-check mode)
- Ask the backend or completion provider for a verdict

Example:
  factlens analyze "백신이 자폐증을 유발한다"
  factlens analyze "선거 여론" --mode crowd_analysis
  factlens analyze "비트코인 상폐설" --url https://example.com/article --chat`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", string(model.ModeFakeDetection), "analysis mode (fake_detection, crowd_analysis)")
	analyzeCmd.Flags().StringSliceVar(&analyzeURLs, "url", nil, "reference URL to include as evidence (repeatable)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 60*time.Second, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&chatShape, "chat", false, "print the backend-compatible chat response shape")
	analyzeCmd.Flags().BoolVar(&streamOutput, "stream", false, "print completion chunks as they arrive")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if n := len([]rune(text)); n > cfg.Retrieval.MaxInputLength {
		return fmt.Errorf("text is %d characters; the limit is %d", n, cfg.Retrieval.MaxInputLength)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	p, _ := buildPipeline(cfg)
	q := model.RawQuery{Text: text, Mode: model.ParseMode(analyzeMode), URLs: analyzeURLs}

	logger.Debug("analyzing", zap.String("mode", string(q.Mode)), zap.Int("urls", len(q.URLs)))

	if streamOutput {
		err := p.AnalyzeStream(ctx, q, func(chunk string) error {
			_, err := fmt.Fprint(os.Stdout, chunk)
			return err
		})
		fmt.Println()
		if err != nil {
			return fmt.Errorf("stream failed: %w", err)
		}
		return nil
	}

	result := p.Analyze(ctx, q)

	var out any = result.WithSources()
	if chatShape {
		out = result.ToChatResponse()
	}
	return printJSON(out)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
