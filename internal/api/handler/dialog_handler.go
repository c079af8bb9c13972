package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thanhpq/chatbot-be/internal/api/dto"
	"github.com/thanhpq/chatbot-be/internal/api/model"
	"github.com/thanhpq/chatbot-be/internal/api/storage"
	"github.com/thanhpq/chatbot-be/internal/character"
	"github.com/thanhpq/chatbot-be/internal/queue"
)

// CreateDialog handles POST /api/v1/dialogs
func (h *DialogHandler) CreateDialog(c *gin.Context) {
	var req dto.CreateDialogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if _, err := h.characters.Persona(req.Persona); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "Unknown persona",
			"personas": h.characters.Personas(),
		})
		return
	}

	now := time.Now()
	dialog := model.Dialog{
		DialogID:  uuid.New().String(),
		UserID:    req.UserID,
		Persona:   req.Persona,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.storage.CreateDialog(c.Request.Context(), &dialog); err != nil {
		h.logger.Error("Failed to create dialog", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create dialog",
		})
		return
	}

	c.JSON(http.StatusCreated, dialogToDTO(&dialog))
}

// GetDialog handles GET /api/v1/dialogs/:dialog_id
func (h *DialogHandler) GetDialog(c *gin.Context) {
	dialogID := c.Param("dialog_id")
	if _, err := uuid.Parse(dialogID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "dialog_id must be a valid UUID",
		})
		return
	}

	dialog, err := h.storage.GetDialogByID(c.Request.Context(), dialogID)
	if err != nil {
		if errors.Is(err, storage.ErrDialogNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Dialog not found",
			})
			return
		}
		h.logger.Error("Failed to get dialog", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get dialog",
		})
		return
	}

	c.JSON(http.StatusOK, dialogToDTO(dialog))
}

// ListDialogs handles GET /api/v1/dialogs
func (h *DialogHandler) ListDialogs(c *gin.Context) {
	var req dto.ListDialogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeDialogCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.DialogFilter{
		UserID:   req.UserID,
		Persona:  req.Persona,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	dialogs, err := h.storage.ListDialogs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list dialogs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list dialogs",
		})
		return
	}

	hasMore := len(dialogs) > req.PageSize
	if hasMore {
		dialogs = dialogs[:req.PageSize]
	}

	out := make([]dto.DialogDTO, len(dialogs))
	for i := range dialogs {
		out[i] = dialogToDTO(&dialogs[i])
	}

	var nextCursor string
	if hasMore {
		last := dialogs[len(dialogs)-1]
		nextCursor = EncodeDialogCursor(&storage.DialogCursor{
			CreatedAt: last.CreatedAt,
			DialogID:  last.DialogID,
		})
	}

	c.JSON(http.StatusOK, dto.ListDialogsResponse{
		Dialogs:    out,
		NextCursor: nextCursor,
	})
}

// SendMessage handles POST /api/v1/dialogs/:dialog_id/messages.
// The inbound message is persisted, reply generation is admitted to the
// task queue, and the handler waits on the item's ticket so the caller
// gets the reply in the same request.
func (h *DialogHandler) SendMessage(c *gin.Context) {
	dialogID := c.Param("dialog_id")
	if _, err := uuid.Parse(dialogID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "dialog_id must be a valid UUID",
		})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	dialog, err := h.storage.GetDialogByID(c.Request.Context(), dialogID)
	if err != nil {
		if errors.Is(err, storage.ErrDialogNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Dialog not found",
			})
			return
		}
		h.logger.Error("Failed to get dialog", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get dialog",
		})
		return
	}

	userMsg := model.Message{
		MessageID: uuid.New().String(),
		DialogID:  dialog.DialogID,
		Sender:    model.SenderUser,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	if err := h.storage.CreateMessage(c.Request.Context(), &userMsg); err != nil {
		h.logger.Error("Failed to store message", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store message",
		})
		return
	}

	// Commands jump the queue ahead of ordinary chat traffic
	priority := queue.PriorityNormal
	if character.IsCommand(req.Content) {
		priority = queue.PriorityUrgent
	}

	ticket, err := h.queue.Enqueue(
		req.Content,
		h.characters.ReplyProcessor(dialog.Persona),
		queue.WithPriority(priority),
		queue.WithMetadata(map[string]string{
			"dialog_id": dialog.DialogID,
			"user_id":   dialog.UserID,
		}),
	)
	if err != nil {
		h.logger.Error("Failed to enqueue reply", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue reply",
		})
		return
	}

	result, err := ticket.Wait(c.Request.Context())
	if err != nil {
		if c.Request.Context().Err() != nil {
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Reply generation did not finish in time",
			})
			return
		}
		h.logger.Error("Reply generation failed",
			slog.String("dialog_id", dialog.DialogID),
			slog.String("item_id", ticket.ID().String()),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Reply generation failed",
		})
		return
	}

	reply, ok := result.(character.Reply)
	if !ok {
		h.logger.Error("Unexpected reply type", slog.String("item_id", ticket.ID().String()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Reply generation failed",
		})
		return
	}

	replyMsg := model.Message{
		MessageID: uuid.New().String(),
		DialogID:  dialog.DialogID,
		Sender:    model.SenderCharacter,
		Content:   reply.Text,
		CreatedAt: time.Now(),
	}

	if err := h.storage.CreateMessage(c.Request.Context(), &replyMsg); err != nil {
		h.logger.Error("Failed to store reply", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store reply",
		})
		return
	}

	c.JSON(http.StatusOK, dto.SendMessageResponse{
		UserMessage: messageToDTO(&userMsg),
		Reply:       messageToDTO(&replyMsg),
		QueueItemID: ticket.ID().String(),
	})
}

// ListMessages handles GET /api/v1/dialogs/:dialog_id/messages
func (h *DialogHandler) ListMessages(c *gin.Context) {
	dialogID := c.Param("dialog_id")
	if _, err := uuid.Parse(dialogID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "dialog_id must be a valid UUID",
		})
		return
	}

	messages, err := h.storage.ListMessages(c.Request.Context(), dialogID, 200)
	if err != nil {
		h.logger.Error("Failed to list messages", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list messages",
		})
		return
	}

	out := make([]dto.MessageDTO, len(messages))
	for i := range messages {
		out[i] = messageToDTO(&messages[i])
	}

	c.JSON(http.StatusOK, dto.ListMessagesResponse{Messages: out})
}

func dialogToDTO(d *model.Dialog) dto.DialogDTO {
	return dto.DialogDTO{
		DialogID:  d.DialogID,
		UserID:    d.UserID,
		Persona:   d.Persona,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
	}
}

func messageToDTO(m *model.Message) dto.MessageDTO {
	return dto.MessageDTO{
		MessageID: m.MessageID,
		DialogID:  m.DialogID,
		Sender:    m.Sender,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}
