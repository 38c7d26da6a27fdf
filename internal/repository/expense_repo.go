package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sundarv/expense-bot/internal/models"
	"go.uber.org/zap"
)

// ExpenseRepository handles expense database operations. The expense
// list is append-only per chat: rows are inserted and listed in
// insertion order, and the only delete is a whole-chat reset.
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository.
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts a confirmed expense for the chat.
func (r *ExpenseRepository) Append(ctx context.Context, expense *models.Expense) error {
	query := `
		INSERT INTO expenses (chat_id, date, time, place, category, amount)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		expense.ChatID,
		expense.Date,
		expense.Time,
		expense.Place,
		expense.Category,
		expense.Amount,
	)
	if err != nil {
		r.logger.Error("Failed to append expense",
			zap.String("chat_id", expense.ChatID),
			zap.Error(err))
		return fmt.Errorf("failed to append expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	expense.ID = id

	r.logger.Info("Expense saved",
		zap.Int64("id", id),
		zap.String("chat_id", expense.ChatID),
		zap.Float64("amount", expense.Amount))

	return nil
}

// ListAll returns the chat's expenses in insertion order.
func (r *ExpenseRepository) ListAll(ctx context.Context, chatID string) ([]*models.Expense, error) {
	query := `
		SELECT id, chat_id, date, time, place, category, amount, created_at
		FROM expenses
		WHERE chat_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.String("chat_id", chatID), zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.ChatID, &e.Date, &e.Time, &e.Place, &e.Category, &e.Amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, nil
}

// Sum returns the total of all amounts recorded for the chat.
func (r *ExpenseRepository) Sum(ctx context.Context, chatID string) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE chat_id = ?`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, chatID).Scan(&total); err != nil {
		r.logger.Error("Failed to sum expenses", zap.String("chat_id", chatID), zap.Error(err))
		return 0, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return total, nil
}

// Reset deletes every expense recorded for the chat.
func (r *ExpenseRepository) Reset(ctx context.Context, chatID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE chat_id = ?`, chatID)
	if err != nil {
		r.logger.Error("Failed to reset expenses", zap.String("chat_id", chatID), zap.Error(err))
		return fmt.Errorf("failed to reset expenses: %w", err)
	}

	deleted, _ := result.RowsAffected()
	r.logger.Info("Expenses reset",
		zap.String("chat_id", chatID),
		zap.Int64("deleted", deleted))

	return nil
}
