package handler

import (
	"log/slog"

	"github.com/thanhpq/chatbot-be/internal/api/storage"
	"github.com/thanhpq/chatbot-be/internal/character"
	"github.com/thanhpq/chatbot-be/internal/queue"
	"github.com/thanhpq/chatbot-be/shared/postgresql"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	DBClient   *postgresql.Client
	Queue      *queue.Queue
	Characters *character.Service
}

// DialogHandler handles dialog and chat HTTP requests
type DialogHandler struct {
	logger     *slog.Logger
	storage    *storage.Storage
	queue      *queue.Queue
	characters *character.Service
}

// NewDialogHandler creates a new DialogHandler instance
func NewDialogHandler(deps *Dependencies) *DialogHandler {
	return &DialogHandler{
		logger:     deps.Logger,
		storage:    storage.NewStorage(deps.DBClient),
		queue:      deps.Queue,
		characters: deps.Characters,
	}
}

// QueueHandler exposes the task queue's introspection surface
type QueueHandler struct {
	logger *slog.Logger
	queue  *queue.Queue
}

// NewQueueHandler creates a new QueueHandler instance
func NewQueueHandler(deps *Dependencies) *QueueHandler {
	return &QueueHandler{
		logger: deps.Logger,
		queue:  deps.Queue,
	}
}
