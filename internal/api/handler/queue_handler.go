package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thanhpq/chatbot-be/internal/queue"
)

// GetStats handles GET /api/v1/queue/stats. The response shape is what
// downstream monitoring republishes as metrics.
func (h *QueueHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.queue.Stats())
}

// ListItems handles GET /api/v1/queue/items with an optional status filter
func (h *QueueHandler) ListItems(c *gin.Context) {
	statusParam := c.Query("status")
	if statusParam == "" {
		c.JSON(http.StatusOK, gin.H{
			"items": h.queue.Items(),
		})
		return
	}

	status := queue.Status(statusParam)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": h.queue.ItemsByStatus(status),
	})
}

// GetItem handles GET /api/v1/queue/items/:item_id
func (h *QueueHandler) GetItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "item_id must be a valid UUID",
		})
		return
	}

	item, err := h.queue.Find(itemID)
	if err != nil {
		if errors.Is(err, queue.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Item not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to look up item",
		})
		return
	}

	c.JSON(http.StatusOK, item)
}

// PurgeItems handles DELETE /api/v1/queue/items. With only_queued=true
// (the default) items already processing are left alone.
func (h *QueueHandler) PurgeItems(c *gin.Context) {
	onlyQueued := true
	if raw := c.Query("only_queued"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "only_queued must be a boolean",
			})
			return
		}
		onlyQueued = parsed
	}

	removed := h.queue.Clear(onlyQueued)

	c.JSON(http.StatusOK, gin.H{
		"removed":     removed,
		"only_queued": onlyQueued,
	})
}
