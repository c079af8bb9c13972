package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/thanhpq/chatbot-be/internal/api/storage"
)

func DecodeDialogCursor(cursorStr string) (*storage.DialogCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	decodedParts := strings.Split(string(decoded), "|")
	if len(decodedParts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	var createdAt int64
	_, err = fmt.Sscanf(decodedParts[0], "%d", &createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid createdAt in cursor: %w", err)
	}

	return &storage.DialogCursor{
		CreatedAt: time.Unix(0, createdAt),
		DialogID:  decodedParts[1],
	}, nil
}

func EncodeDialogCursor(cursor *storage.DialogCursor) string {
	cs := fmt.Sprintf("%d|%s", cursor.CreatedAt.UnixNano(), cursor.DialogID)
	return base64.StdEncoding.EncodeToString([]byte(cs))
}
