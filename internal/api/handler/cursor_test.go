package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhpq/chatbot-be/internal/api/storage"
)

func TestDialogCursorRoundTrip(t *testing.T) {
	original := &storage.DialogCursor{
		CreatedAt: time.Unix(0, 1724500000000000000),
		DialogID:  "0b8e7a1c-9a43-4a6e-8a6f-2f1d3c4b5a69",
	}

	encoded := EncodeDialogCursor(original)
	decoded, err := DecodeDialogCursor(encoded)
	require.NoError(t, err)

	assert.True(t, original.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, original.DialogID, decoded.DialogID)
}

func TestDecodeDialogCursor(t *testing.T) {
	t.Run("empty cursor", func(t *testing.T) {
		cursor, err := DecodeDialogCursor("")
		require.NoError(t, err)
		assert.Nil(t, cursor)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := DecodeDialogCursor("not-base64!!!")
		require.Error(t, err)
	})

	t.Run("wrong part count", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte("only-one-part"))
		_, err := DecodeDialogCursor(encoded)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid cursor format")
	})

	t.Run("non-numeric timestamp", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte("abc|some-id"))
		_, err := DecodeDialogCursor(encoded)
		require.Error(t, err)
	})
}
