package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sundarv/expense-bot/internal/bot"
)

const processTimeout = 30 * time.Second

// Handler handles webhook requests
type Handler struct {
	verifier *Verifier
	service  *bot.Service
	logger   *zap.Logger
}

// NewHandler creates a new webhook handler
func NewHandler(verifier *Verifier, service *bot.Service, logger *zap.Logger) *Handler {
	return &Handler{
		verifier: verifier,
		service:  service,
		logger:   logger,
	}
}

// Event represents a Lark event envelope
type Event struct {
	Schema string          `json:"schema"`
	Header EventHeader     `json:"header"`
	Event  json.RawMessage `json:"event"`
}

// EventHeader contains event metadata
type EventHeader struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	CreateTime string `json:"create_time"`
	Token      string `json:"token"`
	AppID      string `json:"app_id"`
	TenantKey  string `json:"tenant_key"`
}

type messageEvent struct {
	Sender struct {
		SenderID struct {
			OpenID string `json:"open_id"`
		} `json:"sender_id"`
	} `json:"sender"`
	Message struct {
		MessageID   string `json:"message_id"`
		ChatID      string `json:"chat_id"`
		MessageType string `json:"message_type"`
		Content     string `json:"content"`
	} `json:"message"`
}

type cardActionEvent struct {
	Operator struct {
		OpenID string `json:"open_id"`
	} `json:"operator"`
	Context struct {
		OpenChatID    string `json:"open_chat_id"`
		OpenMessageID string `json:"open_message_id"`
	} `json:"context"`
	Action struct {
		Value map[string]interface{} `json:"value"`
		Tag   string                 `json:"tag"`
	} `json:"action"`
}

// Handle processes incoming webhook requests
func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("Failed to read request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	timestamp := c.GetHeader("X-Lark-Request-Timestamp")
	nonce := c.GetHeader("X-Lark-Request-Nonce")
	signature := c.GetHeader("X-Lark-Signature")

	// Lark signs the body as received, before any decryption
	rawBody := string(body)

	// Encrypted payloads carry a single "encrypt" field
	var encrypted struct {
		Encrypt string `json:"encrypt"`
	}
	if err := json.Unmarshal(body, &encrypted); err == nil && encrypted.Encrypt != "" {
		plain, err := h.verifier.DecryptData(encrypted.Encrypt)
		if err != nil {
			h.logger.Error("Failed to decrypt event", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to decrypt event"})
			return
		}
		body = []byte(plain)
	}

	// Check if this is a challenge request
	var challengeCheck struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &challengeCheck); err == nil && challengeCheck.Type == "url_verification" {
		challenge, err := h.verifier.VerifyChallenge(body)
		if err != nil {
			h.logger.Error("Challenge verification failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Challenge verification failed"})
			return
		}

		h.logger.Info("Challenge verified successfully")
		c.JSON(http.StatusOK, gin.H{"challenge": challenge})
		return
	}

	if !h.verifier.VerifySignature(timestamp, nonce, signature, rawBody) {
		h.logger.Warn("Invalid webhook signature",
			zap.String("timestamp", timestamp),
			zap.String("nonce", nonce))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("Failed to parse event", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event"})
		return
	}

	if !h.verifier.VerifyToken(event.Header.Token) {
		h.logger.Warn("Invalid event token", zap.String("event_id", event.Header.EventID))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	if !h.verifier.ValidateEventType(event.Header.EventType) {
		h.logger.Debug("Ignoring event type", zap.String("event_type", event.Header.EventType))
		c.JSON(http.StatusOK, gin.H{"message": "Event type not supported"})
		return
	}

	h.logger.Info("Received event",
		zap.String("event_id", event.Header.EventID),
		zap.String("event_type", event.Header.EventType))

	// Process asynchronously to respond to Lark within its deadline
	go h.processEvent(&event)

	c.JSON(http.StatusOK, gin.H{"message": "Event received"})
}

// processEvent dispatches the event to the bot service
func (h *Handler) processEvent(event *Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic in event processing", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	requestID := uuid.NewString()
	logger := h.logger.With(
		zap.String("request_id", requestID),
		zap.String("event_id", event.Header.EventID))

	switch {
	case strings.Contains(event.Header.EventType, "im.message.receive"):
		h.handleMessage(ctx, logger, event.Event)
	case strings.Contains(event.Header.EventType, "card.action"):
		h.handleCardAction(ctx, logger, event.Event)
	default:
		logger.Info("Unhandled event type", zap.String("event_type", event.Header.EventType))
	}
}

func (h *Handler) handleMessage(ctx context.Context, logger *zap.Logger, raw json.RawMessage) {
	var msg messageEvent
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Error("Failed to parse message event", zap.Error(err))
		return
	}

	chatID := msg.Message.ChatID
	if chatID == "" {
		logger.Warn("Message event without chat id")
		return
	}

	switch msg.Message.MessageType {
	case "text":
		var content struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(msg.Message.Content), &content); err != nil {
			logger.Error("Failed to parse text content", zap.Error(err))
			return
		}
		h.service.HandleText(ctx, chatID, msg.Sender.SenderID.OpenID, content.Text)

	case "image":
		var content struct {
			ImageKey string `json:"image_key"`
		}
		if err := json.Unmarshal([]byte(msg.Message.Content), &content); err != nil {
			logger.Error("Failed to parse image content", zap.Error(err))
			return
		}
		h.service.HandleImage(ctx, chatID, msg.Message.MessageID, content.ImageKey)

	default:
		logger.Debug("Ignoring message type", zap.String("message_type", msg.Message.MessageType))
	}
}

func (h *Handler) handleCardAction(ctx context.Context, logger *zap.Logger, raw json.RawMessage) {
	var evt cardActionEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		logger.Error("Failed to parse card action event", zap.Error(err))
		return
	}

	chatID := evt.Context.OpenChatID
	if chatID == "" {
		logger.Warn("Card action without chat id")
		return
	}

	action, _ := evt.Action.Value["action"].(string)
	if action == "" {
		logger.Warn("Card action without action value")
		return
	}

	h.service.HandleAction(ctx, chatID, action)
}
