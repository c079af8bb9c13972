package model

import "time"

// Sender values for Message.Sender
const (
	SenderUser      = "user"
	SenderCharacter = "character"
)

// Dialog is one conversation between a user and a character persona
type Dialog struct {
	DialogID  string    `db:"dialog_id"`
	UserID    string    `db:"user_id"`
	Persona   string    `db:"persona"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Message is one utterance within a dialog
type Message struct {
	MessageID string    `db:"message_id"`
	DialogID  string    `db:"dialog_id"`
	Sender    string    `db:"sender"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}
