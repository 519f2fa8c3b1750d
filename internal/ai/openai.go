package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsdesk/internal/apperr"

	openai "github.com/sashabaranov/go-openai"
)

// Sentiment labels accepted from the model.
const (
	Positive = "Positive"
	Neutral  = "Neutral"
	Negative = "Negative"
)

// Analysis is the combined summary and sentiment of one article.
type Analysis struct {
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment"`
}

// Summarizer defines the AI operations used by ingestion and the newsroom.
type Summarizer interface {
	// Summarize creates a concise 1-3 sentence description of an article.
	Summarize(ctx context.Context, title, content string) (string, error)
	// Analyze returns a short summary plus a Positive/Neutral/Negative sentiment.
	Analyze(ctx context.Context, title, content string) (Analysis, error)
}

// OpenAIClient implements Summarizer using OpenAI Chat Completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional
}

// NewOpenAI returns nil when no API key is configured.
func NewOpenAI(cfg Config) *OpenAIClient {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cc), model: model}
}

var errIncomplete = apperr.New(apperr.Unavailable, "ai", "incomplete AI response")

func (o *OpenAIClient) Summarize(ctx context.Context, title, content string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	sys := `
		Rewrite the news article into a summary, write in English, return 1–3 sentences (30–120 words).
		Stay factual. Do not add information that is not in the text.
		Output the summary only, plain text, no links.
		`
	out, err := o.create(ctx, sys, userPrompt(title, content))
	if err != nil {
		slog.Error("openai: summarize error", "err", err)
		return "", apperr.Wrap(apperr.Unavailable, "ai summarize", "AI request failed", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errIncomplete
	}
	return out, nil
}

func (o *OpenAIClient) Analyze(ctx context.Context, title, content string) (Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	sys := `
		Read the news article and answer with a JSON object only:
		{"summary": "<1-2 sentence summary>", "sentiment": "Positive" | "Neutral" | "Negative"}
		The sentiment describes the overall tone of the news for a general reader.
		`
	out, err := o.create(ctx, sys, userPrompt(title, content))
	if err != nil {
		slog.Error("openai: analyze error", "err", err)
		return Analysis{}, apperr.Wrap(apperr.Unavailable, "ai analyze", "AI request failed", err)
	}
	return ParseAnalysis(out)
}

// ParseAnalysis decodes the model answer, tolerating a fenced code block.
func ParseAnalysis(raw string) (Analysis, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	var a Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &a); err != nil {
		return Analysis{}, apperr.Wrap(apperr.Unavailable, "ai analyze", "incomplete AI response", err)
	}
	a.Summary = strings.TrimSpace(a.Summary)
	a.Sentiment = normalizeSentiment(a.Sentiment)
	if a.Summary == "" || a.Sentiment == "" {
		return Analysis{}, errIncomplete
	}
	return a, nil
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return Positive
	case "neutral":
		return Neutral
	case "negative":
		return Negative
	}
	return ""
}

func userPrompt(title, content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		content = title
	}
	// Trim inputs to keep tokens reasonable
	if len([]rune(content)) > 1000 {
		content = string([]rune(content)[:1000])
	}
	return fmt.Sprintf("Title: %s\nContent: %s", title, content)
}

func (o *OpenAIClient) create(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
