package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sundarv/expense-bot/internal/conversation"
	"github.com/sundarv/expense-bot/internal/export"
	"github.com/sundarv/expense-bot/internal/extract"
	"github.com/sundarv/expense-bot/internal/models"
	"github.com/sundarv/expense-bot/internal/ocr"
	"github.com/sundarv/expense-bot/internal/session"
	"github.com/sundarv/expense-bot/internal/worker"
)

type mockMessenger struct {
	texts []string
	cards []map[string]interface{}
	files []string
}

func (m *mockMessenger) SendText(ctx context.Context, chatID, text string) error {
	m.texts = append(m.texts, text)
	return nil
}

func (m *mockMessenger) SendCard(ctx context.Context, chatID string, card map[string]interface{}) error {
	m.cards = append(m.cards, card)
	return nil
}

func (m *mockMessenger) SendFile(ctx context.Context, chatID, fileName string, data []byte) error {
	m.files = append(m.files, fileName)
	return nil
}

func (m *mockMessenger) lastText() string {
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

type mockExpenseStore struct {
	appended []*models.Expense
	listed   []*models.Expense
	sum      float64
	resets   int
}

func (m *mockExpenseStore) Append(ctx context.Context, e *models.Expense) error {
	m.appended = append(m.appended, e)
	return nil
}

func (m *mockExpenseStore) ListAll(ctx context.Context, chatID string) ([]*models.Expense, error) {
	return m.listed, nil
}

func (m *mockExpenseStore) Sum(ctx context.Context, chatID string) (float64, error) {
	return m.sum, nil
}

func (m *mockExpenseStore) Reset(ctx context.Context, chatID string) error {
	m.resets++
	return nil
}

type mockMediaFetcher struct {
	data  []byte
	mime  string
	err   error
	calls int
}

func (m *mockMediaFetcher) Fetch(ctx context.Context, messageID, fileKey string) ([]byte, string, error) {
	m.calls++
	return m.data, m.mime, m.err
}

type mockPhotoQueue struct {
	jobs []worker.PhotoJob
	err  error
}

func (m *mockPhotoQueue) Submit(job worker.PhotoJob) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

type fixture struct {
	svc       *Service
	sessions  *session.MemoryStore
	messenger *mockMessenger
	expenses  *mockExpenseStore
	media     *mockMediaFetcher
	photos    *mockPhotoQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fixed := time.Date(2024, 8, 12, 14, 30, 0, 0, time.UTC)
	assembler := extract.NewAssembler(extract.DefaultLexicon(), 50, zap.NewNop(),
		extract.WithClock(func() time.Time { return fixed }))

	f := &fixture{
		sessions:  session.NewMemoryStore(),
		messenger: &mockMessenger{},
		expenses:  &mockExpenseStore{},
		media:     &mockMediaFetcher{data: []byte("img"), mime: "image/png"},
		photos:    &mockPhotoQueue{},
	}
	f.svc = NewService(
		f.sessions,
		f.expenses,
		assembler,
		f.messenger,
		f.media,
		f.photos,
		export.NewExcelWriter(zap.NewNop()),
		zap.NewNop(),
		WithClock(func() time.Time { return fixed }),
	)
	return f
}

func (f *fixture) state(t *testing.T, chatID string) conversation.State {
	t.Helper()
	entry, ok := f.sessions.Get(chatID)
	require.True(t, ok, "expected a pending entry for %s", chatID)
	return entry.State
}

const chatID = "oc_test_chat"

func TestManualFlowEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.HandleText(ctx, chatID, "Sundar", cmdManual)
	assert.Equal(t, conversation.StateManualAmount, f.state(t, chatID))
	assert.Equal(t, msgEnterAmount, f.messenger.lastText())

	f.svc.HandleText(ctx, chatID, "Sundar", "1,250/-")
	assert.Equal(t, conversation.StateManualDateChoice, f.state(t, chatID))

	f.svc.HandleText(ctx, chatID, "Sundar", "📅 Use Current Date")
	assert.Equal(t, conversation.StateManualTimeChoice, f.state(t, chatID))

	f.svc.HandleText(ctx, chatID, "Sundar", "✏️ Enter Time Manually")
	assert.Equal(t, conversation.StateManualTimeValue, f.state(t, chatID))

	f.svc.HandleText(ctx, chatID, "Sundar", "09:15")
	assert.Equal(t, conversation.StateManualPlace, f.state(t, chatID))

	f.svc.HandleText(ctx, chatID, "Sundar", "Anand Bakery")
	assert.Equal(t, conversation.StateManualCategory, f.state(t, chatID))

	f.svc.HandleText(ctx, chatID, "Sundar", "🍔 Food")
	assert.Equal(t, conversation.StateConfirm, f.state(t, chatID))
	require.NotEmpty(t, f.messenger.cards, "confirm card expected")

	entry, _ := f.sessions.Get(chatID)
	assert.Equal(t, "1250", entry.Data.Amount, "amount input must be sanitized")
	assert.Equal(t, "12-08-2024", entry.Data.Date, "current date choice uses the clock")
	assert.Equal(t, "09:15", entry.Data.Time)
	assert.Equal(t, "Anand Bakery", entry.Data.Place)
	assert.Equal(t, "Food", entry.Data.Category, "leading emoji must be stripped")

	f.svc.HandleAction(ctx, chatID, actionConfirmYes)

	require.Len(t, f.expenses.appended, 1)
	saved := f.expenses.appended[0]
	assert.Equal(t, chatID, saved.ChatID)
	assert.Equal(t, 1250.0, saved.Amount)
	assert.Equal(t, "Food", saved.Category)

	_, ok := f.sessions.Get(chatID)
	assert.False(t, ok, "accepting must clear the pending entry")
}

func TestPhotoFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.HandleText(ctx, chatID, "", cmdPhoto)
	assert.Equal(t, conversation.StateAwaitingPhoto, f.state(t, chatID))

	f.svc.HandleImage(ctx, chatID, "om_msg", "file-key")
	require.Len(t, f.photos.jobs, 1)
	job := f.photos.jobs[0]
	assert.Equal(t, chatID, job.ChatID)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, 1, f.media.calls)

	f.svc.OnPhotoProcessed(ctx, worker.PhotoResult{
		Job: job,
		Lines: []string{
			"SRI MURUGAN TEXTILES",
			"05-01-2024 18:45",
			"total: rs. 1,998.00",
		},
	})

	entry, ok := f.sessions.Get(chatID)
	require.True(t, ok)
	assert.Equal(t, conversation.StateConfirm, entry.State)
	assert.Equal(t, "1998", entry.Data.Amount)
	assert.Equal(t, "Sri Murugan Textiles", entry.Data.Place)
	require.NotEmpty(t, f.messenger.cards)
}

func TestPhotoRejectedOutsideAwaitingState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.HandleImage(ctx, chatID, "om_msg", "file-key")

	assert.Empty(t, f.photos.jobs, "images outside the photo flow are not processed")
	assert.Zero(t, f.media.calls)
}

func TestUnreadablePhotoEndsFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.HandleText(ctx, chatID, "", cmdPhoto)
	f.svc.OnPhotoProcessed(ctx, worker.PhotoResult{
		Job: worker.PhotoJob{ID: "j1", ChatID: chatID},
		Err: ocr.ErrEmptyText,
	})

	_, ok := f.sessions.Get(chatID)
	assert.False(t, ok, "failed recognition must clear the pending entry")
	assert.Equal(t, msgUnreadable, f.messenger.lastText())
	assert.Empty(t, f.expenses.appended)
}

func TestStalePhotoResultDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The user cancelled while OCR was still running.
	f.svc.HandleText(ctx, chatID, "", cmdPhoto)
	f.svc.HandleText(ctx, chatID, "", cmdCancel)
	cards := len(f.messenger.cards)

	f.svc.OnPhotoProcessed(ctx, worker.PhotoResult{
		Job:   worker.PhotoJob{ID: "j1", ChatID: chatID},
		Lines: []string{"total rs 500"},
	})

	_, ok := f.sessions.Get(chatID)
	assert.False(t, ok)
	assert.Len(t, f.messenger.cards, cards, "no confirm card for a stale result")
}

func TestStaleFailedPhotoResultDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// OCR failure arrives after the user gave up on the photo and
	// started entering the expense by hand.
	f.svc.HandleText(ctx, chatID, "", cmdPhoto)
	f.svc.HandleText(ctx, chatID, "", cmdCancel)
	f.svc.HandleText(ctx, chatID, "", cmdManual)
	texts := len(f.messenger.texts)

	f.svc.OnPhotoProcessed(ctx, worker.PhotoResult{
		Job: worker.PhotoJob{ID: "j1", ChatID: chatID},
		Err: ocr.ErrEmptyText,
	})

	assert.Equal(t, conversation.StateManualAmount, f.state(t, chatID),
		"manual entry must survive a stale failure")
	assert.Len(t, f.messenger.texts, texts, "no failure message for a stale result")
}

func TestEditSingleFieldLeavesOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.sessions.Put(chatID, &session.PendingEntry{
		State: conversation.StateConfirm,
		Data: extract.Record{
			Date:     "05-01-2024",
			Time:     "18:45",
			Place:    "Zudio",
			Category: "Shopping",
			Amount:   "1998",
		},
	})

	f.svc.HandleAction(ctx, chatID, actionConfirmNo)
	assert.Equal(t, conversation.StateChoosingField, f.state(t, chatID))

	f.svc.HandleAction(ctx, chatID, actionEditPrefix+"place")
	assert.Equal(t, conversation.StateEditingField, f.state(t, chatID))

	f.svc.HandleText(ctx, chatID, "", "Westside")

	entry, _ := f.sessions.Get(chatID)
	assert.Equal(t, conversation.StateConfirm, entry.State)
	assert.Equal(t, "Westside", entry.Data.Place)
	assert.Equal(t, "05-01-2024", entry.Data.Date)
	assert.Equal(t, "18:45", entry.Data.Time)
	assert.Equal(t, "Shopping", entry.Data.Category)
	assert.Equal(t, "1998", entry.Data.Amount)
	assert.Empty(t, entry.EditingField)
}

func TestEditKeepsMultiWordValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.sessions.Put(chatID, &session.PendingEntry{
		State:        conversation.StateEditingField,
		EditingField: extract.FieldPlace,
	})

	f.svc.HandleText(ctx, chatID, "", "  ABC Store  ")

	entry, _ := f.sessions.Get(chatID)
	assert.Equal(t, "ABC Store", entry.Data.Place, "the full reply is the new value")
}

func TestEditAmountSanitized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.sessions.Put(chatID, &session.PendingEntry{
		State:        conversation.StateEditingField,
		EditingField: extract.FieldAmount,
	})

	f.svc.HandleText(ctx, chatID, "", "₹2,050/-")

	entry, _ := f.sessions.Get(chatID)
	assert.Equal(t, "2050", entry.Data.Amount)
}

func TestCancelClearsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.HandleText(ctx, chatID, "", cmdManual)
	f.svc.HandleText(ctx, chatID, "", cmdCancel)

	_, ok := f.sessions.Get(chatID)
	assert.False(t, ok)
	assert.Contains(t, f.messenger.texts, msgCancelled)
}

func TestTotalCommand(t *testing.T) {
	f := newFixture(t)
	f.expenses.sum = 2234.5

	f.svc.HandleText(context.Background(), chatID, "", cmdTotal)

	assert.Equal(t, totalMessage(2234.5), f.messenger.lastText())
}

func TestTotalMessagePlainDecimal(t *testing.T) {
	assert.Equal(t, "💰 Total: ₹2234.5", totalMessage(2234.5))
	assert.Equal(t, "💰 Total: ₹1234567.89", totalMessage(1234567.89), "large totals stay in plain notation")
	assert.Equal(t, "💰 Total: ₹0", totalMessage(0))
}

func TestCSVCommandSendsFile(t *testing.T) {
	f := newFixture(t)
	f.expenses.listed = []*models.Expense{{ChatID: chatID, Amount: 100}}

	f.svc.HandleText(context.Background(), chatID, "", cmdCSV)

	require.Len(t, f.messenger.files, 1)
	assert.Equal(t, "expenses.csv", f.messenger.files[0])
}

func TestExportWithNoData(t *testing.T) {
	f := newFixture(t)

	f.svc.HandleText(context.Background(), chatID, "", cmdExcel)

	assert.Empty(t, f.messenger.files)
	assert.Equal(t, msgNoData, f.messenger.lastText())
}

func TestResetCommand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.HandleText(ctx, chatID, "", cmdManual)
	f.svc.HandleText(ctx, chatID, "", cmdReset)

	assert.Equal(t, 1, f.expenses.resets)
	_, ok := f.sessions.Get(chatID)
	assert.False(t, ok, "reset also discards the pending entry")
	assert.Equal(t, msgDataCleared, f.messenger.lastText())
}

func TestStartCommandShowsMenu(t *testing.T) {
	f := newFixture(t)

	f.svc.HandleText(context.Background(), chatID, "Sundar", "/start")

	require.NotEmpty(t, f.messenger.texts)
	assert.Contains(t, f.messenger.texts[0], "Sundar")
	assert.NotEmpty(t, f.messenger.cards)
}

func TestFreeTextOutsideFlowShowsMenu(t *testing.T) {
	f := newFixture(t)

	f.svc.HandleText(context.Background(), chatID, "", "hello there")

	assert.NotEmpty(t, f.messenger.cards)
	assert.Empty(t, f.expenses.appended)
}

func TestQueueFullReportsError(t *testing.T) {
	f := newFixture(t)
	f.photos.err = errors.New("queue full")
	ctx := context.Background()

	f.svc.HandleText(ctx, chatID, "", cmdPhoto)
	f.svc.HandleImage(ctx, chatID, "om_msg", "file-key")

	assert.Equal(t, msgRetry, f.messenger.lastText())
}
