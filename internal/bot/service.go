package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sundarv/expense-bot/internal/conversation"
	"github.com/sundarv/expense-bot/internal/export"
	"github.com/sundarv/expense-bot/internal/extract"
	"github.com/sundarv/expense-bot/internal/models"
	"github.com/sundarv/expense-bot/internal/ocr"
	"github.com/sundarv/expense-bot/internal/session"
	"github.com/sundarv/expense-bot/internal/worker"
)

var nonAmountChars = regexp.MustCompile(`[^\d.]`)

// Service routes incoming chat events through the conversation flow.
// All per-chat state lives in the session store; the service itself is
// stateless and safe for concurrent use.
type Service struct {
	sessions  session.Store
	expenses  ExpenseStore
	assembler *extract.Assembler
	messenger Messenger
	media     MediaFetcher
	photos    PhotoQueue
	fallback  FallbackExtractor
	excel     ExcelWriter
	now       func() time.Time
	logger    *zap.Logger
}

// ExcelWriter renders expenses as a spreadsheet.
type ExcelWriter interface {
	Write(expenses []*models.Expense) ([]byte, error)
}

type ServiceOption func(*Service)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithFallbackExtractor enables a secondary extractor consulted when
// the heuristics recover neither amount nor place from a photo.
func WithFallbackExtractor(f FallbackExtractor) ServiceOption {
	return func(s *Service) { s.fallback = f }
}

func NewService(
	sessions session.Store,
	expenses ExpenseStore,
	assembler *extract.Assembler,
	messenger Messenger,
	media MediaFetcher,
	photos PhotoQueue,
	excel ExcelWriter,
	logger *zap.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		sessions:  sessions,
		expenses:  expenses,
		assembler: assembler,
		messenger: messenger,
		media:     media,
		photos:    photos,
		excel:     excel,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleText processes a plain text message from a chat.
func (s *Service) HandleText(ctx context.Context, chatID, senderName, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/start") {
		s.sessions.Delete(chatID)
		s.send(ctx, chatID, welcomeMessage(senderName))
		s.sendCard(ctx, chatID, mainMenuCard())
		return
	}

	switch {
	case equalsCommand(text, cmdCancel, "cancel"):
		s.cancel(ctx, chatID)
		return
	case equalsCommand(text, cmdPhoto):
		s.startPhoto(ctx, chatID)
		return
	case equalsCommand(text, cmdManual):
		s.startManual(ctx, chatID)
		return
	case equalsCommand(text, cmdTotal, "total expense"):
		s.sendTotal(ctx, chatID)
		return
	case equalsCommand(text, cmdCSV):
		s.sendCSV(ctx, chatID)
		return
	case equalsCommand(text, cmdExcel):
		s.sendExcel(ctx, chatID)
		return
	case equalsCommand(text, cmdReset):
		s.reset(ctx, chatID)
		return
	}

	s.continueFlow(ctx, chatID, text)
}

// HandleImage processes an incoming photo message. The image is only
// accepted while the chat is waiting for one; binary fetch and OCR run
// on the photo pool so webhook dispatch stays fast.
func (s *Service) HandleImage(ctx context.Context, chatID, messageID, fileKey string) {
	var accepted bool
	err := s.sessions.Mutate(chatID, func(cur *session.PendingEntry) (*session.PendingEntry, error) {
		if cur == nil || cur.State != conversation.StateAwaitingPhoto {
			return cur, nil
		}
		accepted = true
		return cur, nil
	})
	if err != nil {
		s.logger.Error("session mutate failed", zap.String("chat_id", chatID), zap.Error(err))
		return
	}
	if !accepted {
		s.send(ctx, chatID, "Use "+cmdPhoto+" first, then send the photo.")
		return
	}

	s.send(ctx, chatID, msgProcessing)

	data, mimeType, err := s.media.Fetch(ctx, messageID, fileKey)
	if err != nil {
		s.logger.Error("media fetch failed",
			zap.String("chat_id", chatID),
			zap.String("message_id", messageID),
			zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}

	job := worker.PhotoJob{
		ID:       uuid.NewString(),
		ChatID:   chatID,
		Data:     data,
		MimeType: mimeType,
	}
	if err := s.photos.Submit(job); err != nil {
		s.logger.Error("photo queue full", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
	}
}

// HandleAction processes a card button press.
func (s *Service) HandleAction(ctx context.Context, chatID, action string) {
	switch action {
	case actionMenuPrefix + "photo":
		s.startPhoto(ctx, chatID)
	case actionMenuPrefix + "manual":
		s.startManual(ctx, chatID)
	case actionMenuPrefix + "total":
		s.sendTotal(ctx, chatID)
	case actionMenuPrefix + "csv":
		s.sendCSV(ctx, chatID)
	case actionMenuPrefix + "excel":
		s.sendExcel(ctx, chatID)
	case actionMenuPrefix + "reset":
		s.reset(ctx, chatID)
	case actionMenuPrefix + "cancel":
		s.cancel(ctx, chatID)
	case actionConfirmYes:
		s.accept(ctx, chatID)
	case actionConfirmNo:
		s.reject(ctx, chatID)
	default:
		if field, ok := strings.CutPrefix(action, actionEditPrefix); ok {
			s.selectField(ctx, chatID, strings.ToLower(field))
			return
		}
		s.logger.Warn("unknown card action", zap.String("chat_id", chatID), zap.String("action", action))
	}
}

// OnPhotoProcessed consumes OCR results from the photo pool. The entry
// is re-checked under the session lock so a cancel that raced the OCR
// drops the stale result instead of resurrecting the flow.
func (s *Service) OnPhotoProcessed(ctx context.Context, res worker.PhotoResult) {
	chatID := res.Job.ChatID

	if res.Err != nil {
		s.logger.Warn("photo processing failed",
			zap.String("chat_id", chatID),
			zap.String("job_id", res.Job.ID),
			zap.Error(res.Err))
		var ended bool
		err := s.sessions.Mutate(chatID, func(cur *session.PendingEntry) (*session.PendingEntry, error) {
			if cur == nil || cur.State != conversation.StateAwaitingPhoto {
				return cur, nil
			}
			ended = true
			return nil, nil
		})
		if err != nil {
			s.logger.Error("photo failure handling failed", zap.String("chat_id", chatID), zap.Error(err))
			return
		}
		if !ended {
			return
		}
		if errors.Is(res.Err, ocr.ErrEmptyText) {
			s.send(ctx, chatID, msgUnreadable)
		} else {
			s.send(ctx, chatID, msgRetry)
		}
		return
	}

	var rec extract.Record
	var advanced bool
	err := s.sessions.Mutate(chatID, func(cur *session.PendingEntry) (*session.PendingEntry, error) {
		if cur == nil || cur.State != conversation.StateAwaitingPhoto {
			return cur, nil
		}
		rec = s.assembler.Assemble(res.Lines)
		if s.fallback != nil && rec.Amount == "" && rec.Place == "" {
			if aiRec, aiErr := s.fallback.Extract(ctx, strings.Join(res.Lines, "\n")); aiErr == nil {
				rec = mergeRecords(rec, aiRec)
			} else {
				s.logger.Warn("fallback extraction failed", zap.String("chat_id", chatID), zap.Error(aiErr))
			}
		}
		next, ferr := advanceState(cur.State, conversation.TriggerPhotoReceived)
		if ferr != nil {
			return cur, ferr
		}
		cur.State = next
		cur.Data = rec
		advanced = true
		return cur, nil
	})
	if err != nil {
		s.logger.Error("photo result handling failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	if !advanced {
		s.logger.Debug("dropping stale photo result",
			zap.String("chat_id", chatID),
			zap.String("job_id", res.Job.ID))
		return
	}

	s.sendCard(ctx, chatID, confirmCard("🧾 Details extracted. Correct?", rec))
}

func (s *Service) startPhoto(ctx context.Context, chatID string) {
	err := s.sessions.Mutate(chatID, func(cur *session.PendingEntry) (*session.PendingEntry, error) {
		return &session.PendingEntry{State: conversation.StateAwaitingPhoto}, nil
	})
	if err != nil {
		s.logger.Error("start photo failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	s.send(ctx, chatID, msgSendPhoto)
}

func (s *Service) startManual(ctx context.Context, chatID string) {
	err := s.sessions.Mutate(chatID, func(cur *session.PendingEntry) (*session.PendingEntry, error) {
		return &session.PendingEntry{State: conversation.StateManualAmount}, nil
	})
	if err != nil {
		s.logger.Error("start manual failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	s.send(ctx, chatID, msgEnterAmount)
}

func (s *Service) cancel(ctx context.Context, chatID string) {
	s.sessions.Delete(chatID)
	s.send(ctx, chatID, msgCancelled)
	s.sendCard(ctx, chatID, mainMenuCard())
}

func (s *Service) accept(ctx context.Context, chatID string) {
	var rec extract.Record
	var confirmed bool
	err := s.sessions.Mutate(chatID, func(cur *session.PendingEntry) (*session.PendingEntry, error) {
		if cur == nil || cur.State != conversation.StateConfirm {
			return cur, nil
		}
		rec = cur.Data
		confirmed = true
		return nil, nil
	})
	if err != nil {
		s.logger.Error("accept failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	if !confirmed {
		return
	}

	amount, _ := strconv.ParseFloat(sanitizeAmount(rec.Amount), 64)
	expense := &models.Expense{
		ChatID:   chatID,
		Date:     rec.Date,
		Time:     rec.Time,
		Place:    rec.Place,
		Category: rec.Category,
		Amount:   amount,
	}
	if err := s.expenses.Append(ctx, expense); err != nil {
		s.logger.Error("expense append failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}

	s.send(ctx, chatID, msgSaved+"\n\n"+recordSummary(rec))
	s.sendCard(ctx, chatID, mainMenuCard())
}

func (s *Service) reject(ctx context.Context, chatID string) {
	var moved bool
	err := s.sessions.Mutate(chatID, func(cur *session.PendingEntry) (*session.PendingEntry, error) {
		if cur == nil || cur.State != conversation.StateConfirm {
			return cur, nil
		}
		next, ferr := advanceState(cur.State, conversation.TriggerReject)
		if ferr != nil {
			return cur, ferr
		}
		cur.State = next
		moved = true
		return cur, nil
	})
	if err != nil {
		s.logger.Error("reject failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	if moved {
		s.sendCard(ctx, chatID, editMenuCard())
	}
}

func (s *Service) selectField(ctx context.Context, chatID, field string) {
	if !extract.IsEditableField(field) {
		s.logger.Warn("unknown edit field", zap.String("chat_id", chatID), zap.String("field", field))
		return
	}
	var moved bool
	err := s.sessions.Mutate(chatID, func(cur *session.PendingEntry) (*session.PendingEntry, error) {
		if cur == nil || cur.State != conversation.StateChoosingField {
			return cur, nil
		}
		next, ferr := advanceState(cur.State, conversation.TriggerSelectField)
		if ferr != nil {
			return cur, ferr
		}
		cur.State = next
		cur.EditingField = field
		moved = true
		return cur, nil
	})
	if err != nil {
		s.logger.Error("select field failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	if moved {
		s.send(ctx, chatID, editPrompt(field))
	}
}

// continueFlow feeds free text into whichever step the chat is on.
func (s *Service) continueFlow(ctx context.Context, chatID, text string) {
	var reply string
	var confirm *extract.Record
	var handled bool

	err := s.sessions.Mutate(chatID, func(cur *session.PendingEntry) (*session.PendingEntry, error) {
		if cur == nil {
			return nil, nil
		}
		handled = true

		switch cur.State {
		case conversation.StateEditingField:
			// Edits take the reply verbatim; only amounts get cleaned.
			value := strings.TrimSpace(text)
			if cur.EditingField == extract.FieldAmount {
				value = sanitizeAmount(value)
			}
			cur.Data.SetField(cur.EditingField, value)
			cur.EditingField = ""
			return s.step(cur, conversation.TriggerSubmitValue, func() {
				rec := cur.Data
				confirm = &rec
			})

		case conversation.StateManualAmount:
			cur.Data.Amount = sanitizeAmount(text)
			return s.step(cur, conversation.TriggerNext, func() { reply = msgDateChoice })

		case conversation.StateManualDateChoice:
			if isUseCurrent(text) {
				cur.Data.Date = s.now().Format(extract.DateLayout)
				return s.step(cur, conversation.TriggerUseCurrent, func() { reply = msgTimeChoice })
			}
			return s.step(cur, conversation.TriggerNext, func() { reply = msgEnterDate })

		case conversation.StateManualDateValue:
			cur.Data.Date = strings.TrimSpace(text)
			return s.step(cur, conversation.TriggerNext, func() { reply = msgTimeChoice })

		case conversation.StateManualTimeChoice:
			if isUseCurrent(text) {
				cur.Data.Time = s.now().Format(extract.TimeLayout)
				return s.step(cur, conversation.TriggerUseCurrent, func() { reply = msgEnterPlace })
			}
			return s.step(cur, conversation.TriggerNext, func() { reply = msgEnterTime })

		case conversation.StateManualTimeValue:
			cur.Data.Time = strings.TrimSpace(text)
			return s.step(cur, conversation.TriggerNext, func() { reply = msgEnterPlace })

		case conversation.StateManualPlace:
			cur.Data.Place = strings.TrimSpace(text)
			return s.step(cur, conversation.TriggerNext, func() { reply = categoryPrompt() })

		case conversation.StateManualCategory:
			cur.Data.Category = stripLabel(text)
			return s.step(cur, conversation.TriggerNext, func() {
				rec := cur.Data
				confirm = &rec
			})

		case conversation.StateAwaitingPhoto:
			reply = msgSendPhoto
			return cur, nil

		case conversation.StateConfirm:
			reply = "Please use the ✅ / ❌ buttons above."
			return cur, nil

		case conversation.StateChoosingField:
			reply = "Please pick the field to fix using the buttons above."
			return cur, nil
		}

		return cur, nil
	})
	if err != nil {
		s.logger.Error("flow step failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}

	if !handled {
		s.sendCard(ctx, chatID, mainMenuCard())
		return
	}
	if reply != "" {
		s.send(ctx, chatID, reply)
	}
	if confirm != nil {
		s.sendCard(ctx, chatID, confirmCard("🧾 Confirm details?", *confirm))
	}
}

// step fires trigger on the entry's state, runs onOK once the
// transition succeeds, and returns the updated entry.
func (s *Service) step(cur *session.PendingEntry, trigger conversation.Trigger, onOK func()) (*session.PendingEntry, error) {
	next, err := advanceState(cur.State, trigger)
	if err != nil {
		return cur, err
	}
	cur.State = next
	if onOK != nil {
		onOK()
	}
	return cur, nil
}

func (s *Service) sendTotal(ctx context.Context, chatID string) {
	total, err := s.expenses.Sum(ctx, chatID)
	if err != nil {
		s.logger.Error("sum failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	s.send(ctx, chatID, totalMessage(total))
}

func (s *Service) sendCSV(ctx context.Context, chatID string) {
	expenses, err := s.expenses.ListAll(ctx, chatID)
	if err != nil {
		s.logger.Error("list failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	if len(expenses) == 0 {
		s.send(ctx, chatID, msgNoData)
		return
	}
	data, err := export.WriteCSV(expenses)
	if err != nil {
		s.logger.Error("csv export failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	s.sendFile(ctx, chatID, "expenses.csv", data)
}

func (s *Service) sendExcel(ctx context.Context, chatID string) {
	expenses, err := s.expenses.ListAll(ctx, chatID)
	if err != nil {
		s.logger.Error("list failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	if len(expenses) == 0 {
		s.send(ctx, chatID, msgNoData)
		return
	}
	data, err := s.excel.Write(expenses)
	if err != nil {
		s.logger.Error("excel export failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	s.sendFile(ctx, chatID, "expenses.xlsx", data)
}

func (s *Service) reset(ctx context.Context, chatID string) {
	s.sessions.Delete(chatID)
	if err := s.expenses.Reset(ctx, chatID); err != nil {
		s.logger.Error("reset failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
		return
	}
	s.send(ctx, chatID, msgDataCleared)
}

func (s *Service) send(ctx context.Context, chatID, text string) {
	if err := s.messenger.SendText(ctx, chatID, text); err != nil {
		s.logger.Error("send text failed", zap.String("chat_id", chatID), zap.Error(err))
	}
}

func (s *Service) sendCard(ctx context.Context, chatID string, card map[string]interface{}) {
	if err := s.messenger.SendCard(ctx, chatID, card); err != nil {
		s.logger.Error("send card failed", zap.String("chat_id", chatID), zap.Error(err))
	}
}

func (s *Service) sendFile(ctx context.Context, chatID, name string, data []byte) {
	if err := s.messenger.SendFile(ctx, chatID, name, data); err != nil {
		s.logger.Error("send file failed", zap.String("chat_id", chatID), zap.Error(err))
		s.send(ctx, chatID, msgRetry)
	}
}

func advanceState(from conversation.State, trigger conversation.Trigger) (conversation.State, error) {
	m, err := conversation.NewFlow(from)
	if err != nil {
		return from, err
	}
	if err := m.Fire(trigger); err != nil {
		return from, fmt.Errorf("advancing from %s: %w", from, err)
	}
	return m.State(), nil
}

func mergeRecords(base, extra extract.Record) extract.Record {
	for _, f := range extract.Fields {
		if base.Field(f) == "" && extra.Field(f) != "" {
			base.SetField(f, extra.Field(f))
		}
	}
	return base
}

// sanitizeAmount strips everything except digits and the decimal point,
// so "Rs. 1,250/-" and "₹1250 only" both come out parseable.
func sanitizeAmount(s string) string {
	return nonAmountChars.ReplaceAllString(s, "")
}

// stripLabel drops a leading emoji or label token, keeping the value:
// "🍔 Food" becomes "Food". Single-token input passes through.
func stripLabel(text string) string {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	return parts[len(parts)-1]
}

func isUseCurrent(text string) bool {
	return strings.Contains(text, "Current")
}

func equalsCommand(text string, variants ...string) bool {
	for _, v := range variants {
		if strings.EqualFold(strings.TrimSpace(text), v) {
			return true
		}
	}
	return false
}
