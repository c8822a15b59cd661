// Package tagger generates tags for a saved article by asking a hosted
// language model (Gemini, via google.golang.org/genai).
//
// The model's reply is free text, not a schema, everything downstream of
// the API call is a best-effort heuristic parse with a deterministic
// fallback, so a bad model day degrades to mediocre tags instead of a 500.
package tagger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/sakif/wikishelf/internal/wiki"
)

// DefaultModel is the completion model used when config doesn't override it.
const DefaultModel = "gemini-2.0-flash"

// systemInstruction is the fixed role prompt. Kept word-stable: tag quality
// was tuned against this exact phrasing.
const systemInstruction = "You are an expert article categorizer. Your task is to provide " +
	"3-5 relevant, comma-separated tags for the given article content. " +
	"Be concise and use single words or short phrases."

// summarySentences is how much context we fetch for the model. Three
// sentences is enough to categorise; whole pages waste tokens.
const summarySentences = 3

// SummaryProvider is the slice of the wiki client we need. An interface so
// tests can stub the summary lookup.
type SummaryProvider interface {
	Summary(ctx context.Context, title string, sentences int) (*wiki.Summary, error)
}

// contentGenerator is the single genai call we make, as an interface.
// Satisfied by *genai.Models; stubbed in tests so the parse-and-fallback
// chain can be exercised without the real API.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client generates normalised tag lists for articles.
type Client struct {
	llm    contentGenerator
	model  string
	wiki   SummaryProvider
	logger *slog.Logger
}

// New creates a tagging client. The API key is required; model may be empty
// to use DefaultModel.
func New(ctx context.Context, apiKey, model string, summaries SummaryProvider, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("tagger: API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	llm, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("tagger: creating genai client: %w", err)
	}

	return &Client{
		llm:    llm.Models,
		model:  model,
		wiki:   summaries,
		logger: logger,
	}, nil
}

// GenerateTags produces 1-5 normalised tags for the given article.
//
// Steps:
//  1. Fetch a short summary of the title for context. ANY summary failure
//     (missing page, disambiguation, network) falls back to title+URL only,
//     the summary is an enrichment, never a requirement.
//  2. Ask the model with the fixed system instruction.
//  3. Parse the raw text into tags; if that yields nothing, fall back to
//     the first three words of the title.
//
// Only the model call itself can fail; callers should surface that as an
// upstream-service error.
func (c *Client) GenerateTags(ctx context.Context, title, articleURL string) ([]string, error) {
	content := fmt.Sprintf("Title: %s\nURL: %s", title, articleURL)
	if summary, err := c.wiki.Summary(ctx, title, summarySentences); err == nil {
		content = fmt.Sprintf("Title: %s\nURL: %s\nSummary: %s", title, articleURL, summary.Extract)
	} else {
		c.logger.Debug("tagging without summary",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
	}

	resp, err := c.llm.GenerateContent(ctx, c.model,
		genai.Text(fmt.Sprintf("Article content: %s\nTags:", content)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("tagger: generating tags for %q: %w", title, err)
	}

	tags := parseTags(resp.Text())
	if len(tags) == 0 {
		tags = fallbackTags(title)
	}

	c.logger.Info("tags generated",
		slog.String("title", title),
		slog.Int("count", len(tags)),
	)

	return tags, nil
}

// parseTags turns the model's free-text reply into a normalised tag list:
// newlines count as separators, fragments are trimmed and lower-cased,
// empties dropped. Order preserved.
func parseTags(raw string) []string {
	fragments := strings.Split(strings.ReplaceAll(raw, "\n", ","), ",")

	tags := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if tag := strings.ToLower(strings.TrimSpace(f)); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// fallbackTags derives tags from the title alone: its first three
// whitespace-separated words, lower-cased. strings.Fields never yields
// empty strings, and the slice bound tracks the actual word count, so a
// one-word or empty title is safe.
func fallbackTags(title string) []string {
	words := strings.Fields(strings.ToLower(title))
	if len(words) > 3 {
		words = words[:3]
	}
	return words
}
