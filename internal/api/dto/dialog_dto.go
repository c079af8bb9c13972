package dto

type CreateDialogRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Persona string `json:"persona" binding:"required"`
}

type ListDialogsRequest struct {
	UserID   string `form:"user_id"`
	Persona  string `form:"persona"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListDialogsResponse struct {
	Dialogs    []DialogDTO `json:"dialogs"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type DialogDTO struct {
	DialogID  string `json:"dialog_id"`
	UserID    string `json:"user_id"`
	Persona   string `json:"persona"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type SendMessageResponse struct {
	UserMessage MessageDTO `json:"user_message"`
	Reply       MessageDTO `json:"reply"`
	QueueItemID string     `json:"queue_item_id"`
}

type MessageDTO struct {
	MessageID string `json:"message_id"`
	DialogID  string `json:"dialog_id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type ListMessagesResponse struct {
	Messages []MessageDTO `json:"messages"`
}
