package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/web3guy0/autobid/internal/sdlc"
)

var (
	sdlcTitle       string
	sdlcDescription string
	sdlcFile        string
	sdlcBudget      float64
	sdlcFormat      string
	sdlcOutDir      string
)

var sdlcCmd = &cobra.Command{
	Use:   "sdlc",
	Short: "Generate SRS, design and implementation plan documents",
	Long: `Analyze a project description and write a software requirements
specification, system design and implementation plan.

The description comes from --description, --file, or stdin when neither is set.`,
	RunE: runSDLC,
}

func init() {
	sdlcCmd.Flags().StringVar(&sdlcTitle, "title", "", "Project title")
	sdlcCmd.Flags().StringVarP(&sdlcDescription, "description", "d", "", "Project description")
	sdlcCmd.Flags().StringVarP(&sdlcFile, "file", "f", "", "Read the description from a file")
	sdlcCmd.Flags().Float64Var(&sdlcBudget, "budget", 0, "Budget in USD")
	sdlcCmd.Flags().StringVar(&sdlcFormat, "format", sdlc.FormatMarkdown, "Output format: markdown or json")
	sdlcCmd.Flags().StringVarP(&sdlcOutDir, "out", "o", ".", "Directory for the generated documents")
	rootCmd.AddCommand(sdlcCmd)
}

func runSDLC(cmd *cobra.Command, _ []string) error {
	description, err := readDescription(cmd)
	if err != nil {
		return err
	}

	var extractor sdlc.FeatureExtractor
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		g, err := sdlc.NewGeminiExtractor(cmd.Context(), key, "")
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ Gemini unavailable, using pattern feature extraction")
		} else {
			defer g.Close()
			extractor = g
		}
	}

	svc := sdlc.NewService(sdlc.NewAnalyzer(extractor), nil, decimal.Zero, "")
	docs := svc.Generate(cmd.Context(), sdlcTitle, description, sdlcBudget)

	files, err := sdlc.Export(docs, sdlcOutDir, sdlcFormat, time.Now())
	if err != nil {
		return err
	}

	an := docs.Analysis
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📄 %s\n", docs.Title)
	fmt.Fprintf(out, "   Type: %s  Complexity: %s  Hours: %d  Weeks: %d\n",
		an.ProjectType, an.Complexity, an.EstimatedHours, docs.Plan.Timeline.TotalWeeks)
	for _, key := range []string{"srs", "design", "plan"} {
		fmt.Fprintf(out, "   %-7s %s\n", key, files[key])
	}
	return nil
}

func readDescription(cmd *cobra.Command) (string, error) {
	switch {
	case sdlcDescription != "":
		return sdlcDescription, nil
	case sdlcFile != "":
		data, err := os.ReadFile(sdlcFile)
		if err != nil {
			return "", fmt.Errorf("read description: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("a project description is required (--description, --file or stdin)")
	}
	return text, nil
}
