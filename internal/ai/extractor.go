package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/sundarv/expense-bot/internal/extract"
)

// FallbackExtractor asks a chat model to pull receipt fields out of OCR
// text when the pattern-based extractors come up empty.
type FallbackExtractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewFallbackExtractor(apiKey, model string, logger *zap.Logger) *FallbackExtractor {
	return &FallbackExtractor{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

type extractedFields struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Place    string `json:"place"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

// Extract sends the OCR text to the model and parses its JSON answer.
func (e *FallbackExtractor) Extract(ctx context.Context, text string) (extract.Record, error) {
	var rec extract.Record

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You read noisy OCR text from shop receipts and extract structured fields. " +
					"Answer with a JSON object with keys date (DD-MM-YYYY), time (HH:MM), place, category and amount. " +
					"Use an empty string for anything you cannot find.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Receipt text:\n\n" + text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return rec, fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return rec, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	var fields extractedFields
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		e.logger.Error("Failed to parse extraction result",
			zap.Error(err),
			zap.String("content", content))
		return rec, fmt.Errorf("failed to parse extraction result: %w", err)
	}

	rec = extract.Record{
		Date:     strings.TrimSpace(fields.Date),
		Time:     strings.TrimSpace(fields.Time),
		Place:    strings.TrimSpace(fields.Place),
		Category: strings.TrimSpace(fields.Category),
		Amount:   strings.TrimSpace(fields.Amount),
	}

	e.logger.Debug("AI fallback extraction completed",
		zap.String("place", rec.Place),
		zap.String("amount", rec.Amount))

	return rec, nil
}
