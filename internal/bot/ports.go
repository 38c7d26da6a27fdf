package bot

import (
	"context"

	"github.com/sundarv/expense-bot/internal/extract"
	"github.com/sundarv/expense-bot/internal/models"
	"github.com/sundarv/expense-bot/internal/worker"
)

// Messenger sends outbound chat messages. Implemented by the Lark
// adapter; tests substitute a mock.
type Messenger interface {
	// SendText sends a plain text message to a chat.
	SendText(ctx context.Context, chatID, text string) error

	// SendCard sends an interactive card (buttons) to a chat.
	SendCard(ctx context.Context, chatID string, card map[string]interface{}) error

	// SendFile uploads data and delivers it to the chat as a file.
	SendFile(ctx context.Context, chatID, fileName string, data []byte) error
}

// MediaFetcher downloads an image resource attached to an inbound
// message. Returns the raw bytes and the reported MIME type.
type MediaFetcher interface {
	Fetch(ctx context.Context, messageID, fileKey string) ([]byte, string, error)
}

// ExpenseStore is the persistence collaborator for confirmed records.
type ExpenseStore interface {
	Append(ctx context.Context, expense *models.Expense) error
	ListAll(ctx context.Context, chatID string) ([]*models.Expense, error)
	Sum(ctx context.Context, chatID string) (float64, error)
	Reset(ctx context.Context, chatID string) error
}

// PhotoQueue accepts receipt photos for asynchronous recognition.
type PhotoQueue interface {
	Submit(job worker.PhotoJob) error
}

// FallbackExtractor supplies a second opinion when the heuristic
// pipeline finds neither amount nor place. Optional.
type FallbackExtractor interface {
	Extract(ctx context.Context, text string) (extract.Record, error)
}
