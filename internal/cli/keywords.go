package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/factlens/internal/pipeline"
	"github.com/spf13/cobra"
)

// keywordsCmd represents the keywords command
var keywordsCmd = &cobra.Command{
	Use:   "keywords <text>",
	Short: "Print the search keywords extracted from text",
	Long: `Keywords shows the 1-3 search terms the pipeline would use for a fact check.

Example:
  factlens keywords "백신이 자폐증을 유발한다"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		p, _ := buildPipeline(cfg)
		kws, err := p.ExtractKeywords(cmd.Context(), strings.Join(args, " "))
		if errors.Is(err, pipeline.ErrBlocked) {
			fmt.Fprintln(os.Stderr, "✗ Request refused by the security filter")
			return err
		}
		if err != nil {
			return fmt.Errorf("extract keywords: %w", err)
		}

		return printJSON(map[string][]string{"keywords": kws})
	},
}

func init() {
	rootCmd.AddCommand(keywordsCmd)
}
