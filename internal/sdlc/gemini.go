package sdlc

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiExtractor extracts features with Google Gemini
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor connects with an API key. An empty model selects the
// default.
func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

func (g *GeminiExtractor) ExtractFeatures(ctx context.Context, description string) ([]string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.2)

	prompt := "Extract the key features and requirements from this project description.\n" +
		"List only the main features, one per line, without numbering:\n\n" +
		description + "\n\nFeatures:"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates in response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return parseFeatureLines(text.String()), nil
}

func (g *GeminiExtractor) Close() error {
	return g.client.Close()
}

func parseFeatureLines(text string) []string {
	var features []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•0123456789.) "))
		if line == "" {
			continue
		}
		features = append(features, line)
		if len(features) == maxFeatures {
			break
		}
	}
	return features
}
