package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// maxPromptContent bounds how much rendered text goes to the model.
const maxPromptContent = 4000

// ErrModelOutput indicates the model responded but the response could
// not be used as a posting record.
var ErrModelOutput = errors.New("unusable model output")

// GeminiParser extracts structured postings with a Gemini model on
// Vertex AI.
type GeminiParser struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// GeminiOptions configures the Vertex AI client.
type GeminiOptions struct {
	ProjectID string
	// Location is the Vertex AI region, e.g. "us-central1".
	Location string
	// Model defaults to "gemini-2.0-flash".
	Model string
}

// NewGeminiParser connects to Vertex AI using ambient application
// credentials.
func NewGeminiParser(ctx context.Context, opts GeminiOptions) (*GeminiParser, error) {
	if opts.ProjectID == "" {
		return nil, errors.New("gemini: project id required")
	}
	if opts.Location == "" {
		opts.Location = "us-central1"
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, opts.ProjectID, opts.Location)
	if err != nil {
		return nil, fmt.Errorf("creating vertex client: %w", err)
	}

	model := client.GenerativeModel(opts.Model)
	model.SetTemperature(0.1)
	model.SetMaxOutputTokens(1024)

	return &GeminiParser{client: client, model: model}, nil
}

// Close releases the underlying Vertex AI connection.
func (g *GeminiParser) Close() error {
	return g.client.Close()
}

// Parse sends the posting text to the model and decodes its JSON reply.
func (g *GeminiParser) Parse(ctx context.Context, content, jobURL string) (*Parsed, error) {
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(buildPrompt(content, jobURL)))
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	var parsed Parsed
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}
	if strings.TrimSpace(parsed.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", ErrModelOutput)
	}
	return &parsed, nil
}

func buildPrompt(content, jobURL string) string {
	return fmt.Sprintf(`You are an expert at parsing job postings. Extract structured information from this job posting.

Job URL: %s
Raw Content: %s

Extract and return ONLY a JSON object with these exact fields:
{
    "title": "Job title (clean, no extra text)",
    "company": "Company name (clean, no extra text)",
    "about_company": "Short company overview if present (or null)",
    "location": "Primary location (city, state/country)",
    "alternate_locations": "Other locations as comma-separated string (or null if none)",
    "employment_type": "Full-time, Part-time, Contract, Internship, etc.",
    "description": "Clean job description (remove navigation, forms, etc.)",
    "requirements": "Required qualifications and skills",
    "responsibilities": "Job duties and responsibilities",
    "benefits": "Benefits and perks offered",
    "salary_range": "Salary information if mentioned (or null)",
    "experience_level": "Entry, Mid, Senior, Executive, or null if unclear",
    "work_environment": "Remote, Hybrid, Onsite, or null if unclear"
}

Rules:
- Return ONLY valid JSON, no other text
- Use null for missing information
- Clean up text (remove extra whitespace, navigation elements)
- For location: extract the main location, put others in alternate_locations
- For description: remove company boilerplate, focus on actual job content
- Be precise and accurate`, jobURL, content)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty response", ErrModelOutput)
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: no text parts", ErrModelOutput)
	}
	return b.String(), nil
}

// stripCodeFences trims markdown fencing and surrounding prose so only
// the JSON object remains.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
