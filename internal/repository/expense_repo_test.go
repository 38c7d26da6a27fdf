package repository

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sundarv/expense-bot/internal/models"
)

func newTestRepo(t *testing.T) *ExpenseRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT NOT NULL,
			date TEXT NOT NULL DEFAULT '',
			time TEXT NOT NULL DEFAULT '',
			place TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			amount REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	require.NoError(t, err)

	return NewExpenseRepository(db, zap.NewNop())
}

func TestAppendAssignsID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := &models.Expense{ChatID: "chat-1", Date: "05-01-2024", Amount: 120}
	require.NoError(t, repo.Append(ctx, e))
	assert.Equal(t, int64(1), e.ID)

	e2 := &models.Expense{ChatID: "chat-1", Amount: 80}
	require.NoError(t, repo.Append(ctx, e2))
	assert.Equal(t, int64(2), e2.ID)
}

func TestListAllInsertionOrderAndIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, &models.Expense{ChatID: "chat-1", Place: "first", Amount: 10}))
	require.NoError(t, repo.Append(ctx, &models.Expense{ChatID: "chat-2", Place: "other", Amount: 20}))
	require.NoError(t, repo.Append(ctx, &models.Expense{ChatID: "chat-1", Place: "second", Amount: 30}))

	expenses, err := repo.ListAll(ctx, "chat-1")
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "first", expenses[0].Place)
	assert.Equal(t, "second", expenses[1].Place)
}

func TestListAllEmpty(t *testing.T) {
	repo := newTestRepo(t)

	expenses, err := repo.ListAll(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestSum(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	total, err := repo.Sum(ctx, "chat-1")
	require.NoError(t, err)
	assert.Zero(t, total, "sum over no rows is zero, not an error")

	require.NoError(t, repo.Append(ctx, &models.Expense{ChatID: "chat-1", Amount: 1998}))
	require.NoError(t, repo.Append(ctx, &models.Expense{ChatID: "chat-1", Amount: 236.5}))
	require.NoError(t, repo.Append(ctx, &models.Expense{ChatID: "chat-2", Amount: 5000}))

	total, err = repo.Sum(ctx, "chat-1")
	require.NoError(t, err)
	assert.InDelta(t, 2234.5, total, 1e-9)
}

func TestResetOnlyClearsOneChat(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, &models.Expense{ChatID: "chat-1", Amount: 100}))
	require.NoError(t, repo.Append(ctx, &models.Expense{ChatID: "chat-2", Amount: 200}))

	require.NoError(t, repo.Reset(ctx, "chat-1"))

	gone, err := repo.ListAll(ctx, "chat-1")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := repo.ListAll(ctx, "chat-2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
