package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// Messenger sends chat messages through the Lark IM API.
type Messenger struct {
	client *Client
	logger *zap.Logger
}

// NewMessenger creates a new messenger
func NewMessenger(client *Client, logger *zap.Logger) *Messenger {
	return &Messenger{
		client: client,
		logger: logger,
	}
}

// SendText sends a plain text message to a chat.
func (m *Messenger) SendText(ctx context.Context, chatID, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode text content: %w", err)
	}
	return m.send(ctx, chatID, larkIm.MsgTypeText, string(content))
}

// SendCard sends an interactive card to a chat.
func (m *Messenger) SendCard(ctx context.Context, chatID string, card map[string]interface{}) error {
	content, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to encode card content: %w", err)
	}
	return m.send(ctx, chatID, larkIm.MsgTypeInteractive, string(content))
}

// SendFile uploads data as a file and sends it to a chat.
func (m *Messenger) SendFile(ctx context.Context, chatID, fileName string, data []byte) error {
	uploadReq := larkIm.NewCreateFileReqBuilder().
		Body(larkIm.NewCreateFileReqBodyBuilder().
			FileType(larkIm.FileTypeStream).
			FileName(fileName).
			File(bytes.NewReader(data)).
			Build()).
		Build()

	uploadResp, err := m.client.client.Im.File.Create(ctx, uploadReq)
	if err != nil {
		m.logger.Error("Failed to upload file",
			zap.String("file_name", fileName),
			zap.Error(err))
		return fmt.Errorf("failed to upload file: %w", err)
	}
	if !uploadResp.Success() {
		m.logger.Error("File upload returned failure",
			zap.String("file_name", fileName),
			zap.Int("code", uploadResp.Code),
			zap.String("msg", uploadResp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", uploadResp.Code, uploadResp.Msg)
	}
	if uploadResp.Data == nil || uploadResp.Data.FileKey == nil {
		return fmt.Errorf("file upload returned no file key")
	}

	content, err := json.Marshal(map[string]string{"file_key": *uploadResp.Data.FileKey})
	if err != nil {
		return fmt.Errorf("failed to encode file content: %w", err)
	}
	return m.send(ctx, chatID, larkIm.MsgTypeFile, string(content))
}

func (m *Messenger) send(ctx context.Context, chatID, msgType, content string) error {
	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType(larkIm.ReceiveIdTypeChatId).
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := m.client.client.Im.Message.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("chat_id", chatID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("chat_id", chatID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	m.logger.Debug("Message sent",
		zap.String("chat_id", chatID),
		zap.String("msg_type", msgType))

	return nil
}
