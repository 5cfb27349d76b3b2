package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// offloadMedia uploads a base64 data URL to the media store and returns the
// object URL and key. Any other value, or a nil media store, is returned
// unchanged with an empty key.
func (uc *postUseCase) offloadMedia(ctx context.Context, selectedFile string) (string, string, error) {
	if uc.media == nil {
		return selectedFile, "", nil
	}

	contentType, body, ok, err := decodeDataURL(selectedFile)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return selectedFile, "", nil
	}

	key := fmt.Sprintf("posts/%s%s", uuid.New().String(), extensionFor(contentType))
	url, err := uc.media.Upload(ctx, key, body, contentType)
	if err != nil {
		return "", "", fmt.Errorf("failed to store selected file: %w", err)
	}
	return url, key, nil
}

// discardMedia removes an object uploaded for a write that did not persist.
func (uc *postUseCase) discardMedia(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := uc.media.Delete(ctx, key); err != nil {
		uc.logger.Error("Failed to remove orphaned media %s: %v", key, err)
	}
}

// decodeDataURL parses "data:<type>;base64,<payload>". ok is false when s is
// not a base64 data URL.
func decodeDataURL(s string) (contentType string, body []byte, ok bool, err error) {
	rest, found := strings.CutPrefix(s, "data:")
	if !found {
		return "", nil, false, nil
	}

	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, false, nil
	}

	contentType, found = strings.CutSuffix(meta, ";base64")
	if !found {
		return "", nil, false, nil
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false, fmt.Errorf("invalid selected file encoding: %w", err)
	}
	return contentType, body, true, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
