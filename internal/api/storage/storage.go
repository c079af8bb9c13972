package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/thanhpq/chatbot-be/internal/api/model"
	"github.com/thanhpq/chatbot-be/shared/postgresql"
)

// ErrDialogNotFound is returned when a dialog id has no row
var ErrDialogNotFound = errors.New("dialog not found")

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

func (s *Storage) CreateDialog(ctx context.Context, dialog *model.Dialog) error {
	query := `
		INSERT INTO dialogs (
			dialog_id, user_id, persona, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		dialog.DialogID,
		dialog.UserID,
		dialog.Persona,
		dialog.CreatedAt,
		dialog.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create dialog: %w", err)
	}

	return nil
}

func (s *Storage) GetDialogByID(ctx context.Context, dialogID string) (*model.Dialog, error) {
	var dialog model.Dialog
	query := `
		SELECT dialog_id, user_id, persona, created_at, updated_at
		FROM dialogs
		WHERE dialog_id = $1
	`

	err := s.db.GetContext(ctx, &dialog, query, dialogID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrDialogNotFound, dialogID)
		}
		return nil, fmt.Errorf("failed to get dialog: %w", err)
	}

	return &dialog, nil
}

type DialogFilter struct {
	UserID   string
	Persona  string
	PageSize int
	Cursor   *DialogCursor
}

type DialogCursor struct {
	CreatedAt time.Time
	DialogID  string
}

func (s *Storage) ListDialogs(ctx context.Context, filter DialogFilter) ([]model.Dialog, error) {
	query := `
		SELECT dialog_id, user_id, persona, created_at, updated_at
		FROM dialogs
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}

	if filter.Persona != "" {
		query += fmt.Sprintf(" AND persona = $%d", argIdx)
		args = append(args, filter.Persona)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, dialog_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.DialogID)
		argIdx += 2
	}

	// Order by created_at DESC, dialog_id DESC for consistent pagination
	query += " ORDER BY created_at DESC, dialog_id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var dialogs []model.Dialog
	err := s.db.SelectContext(ctx, &dialogs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dialogs: %w", err)
	}

	return dialogs, nil
}

func (s *Storage) CreateMessage(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (
			message_id, dialog_id, sender, content, created_at
		) VALUES (
			$1, $2, $3, $4, $5
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		msg.MessageID,
		msg.DialogID,
		msg.Sender,
		msg.Content,
		msg.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (s *Storage) ListMessages(ctx context.Context, dialogID string, limit int) ([]model.Message, error) {
	query := `
		SELECT message_id, dialog_id, sender, content, created_at
		FROM messages
		WHERE dialog_id = $1
		ORDER BY created_at ASC, message_id ASC
		LIMIT $2
	`

	var messages []model.Message
	err := s.db.SelectContext(ctx, &messages, query, dialogID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}
