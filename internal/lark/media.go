package lark

import (
	"context"
	"fmt"
	"io"
	"net/http"

	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// MediaFetcher downloads binary resources attached to messages.
type MediaFetcher struct {
	client *Client
	logger *zap.Logger
}

// NewMediaFetcher creates a new media fetcher
func NewMediaFetcher(client *Client, logger *zap.Logger) *MediaFetcher {
	return &MediaFetcher{
		client: client,
		logger: logger,
	}
}

// Fetch downloads an image attached to a message and reports its
// detected content type.
func (f *MediaFetcher) Fetch(ctx context.Context, messageID, fileKey string) ([]byte, string, error) {
	req := larkIm.NewGetMessageResourceReqBuilder().
		MessageId(messageID).
		FileKey(fileKey).
		Type("image").
		Build()

	resp, err := f.client.client.Im.MessageResource.Get(ctx, req)
	if err != nil {
		f.logger.Error("Failed to download message resource",
			zap.String("message_id", messageID),
			zap.String("file_key", fileKey),
			zap.Error(err))
		return nil, "", fmt.Errorf("failed to download message resource: %w", err)
	}

	if !resp.Success() {
		f.logger.Error("API returned failure",
			zap.String("message_id", messageID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return nil, "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	data, err := io.ReadAll(resp.File)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read resource body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty resource body for message %s", messageID)
	}

	mimeType := http.DetectContentType(data)

	f.logger.Debug("Message resource downloaded",
		zap.String("message_id", messageID),
		zap.String("mime_type", mimeType),
		zap.Int("size", len(data)))

	return data, mimeType, nil
}
