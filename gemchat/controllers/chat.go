// gemchat/controllers/chat.go
package controllers

import (
	"context"
	"time"

	"gemchat/gemchat/services/gemini"
	"gemchat/gemchat/sources/filestore"
	"gemchat/gemchat/sources/filestore/models"
	"gemchat/gemchat/types"
)

// Generator is the outbound model boundary; the Gemini client satisfies
// it, and tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, history []gemini.Turn, message string) (string, error)
}

type ChatController struct {
	store   *filestore.ChatStore
	gateway Generator
}

func NewChatController(store *filestore.ChatStore, gateway Generator) *ChatController {
	return &ChatController{store: store, gateway: gateway}
}

func (c *ChatController) History(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	return c.store.ListChats(ctx, userID)
}

func (c *ChatController) New(ctx context.Context, userID string) (*models.Chat, error) {
	return c.store.CreateChat(ctx, userID)
}

func (c *ChatController) Get(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	return c.store.GetChat(ctx, userID, chatID)
}

func (c *ChatController) Delete(ctx context.Context, userID, chatID string) error {
	return c.store.DeleteChat(ctx, userID, chatID)
}

func (c *ChatController) Rename(ctx context.Context, userID, chatID, title string) error {
	return c.store.RenameChat(ctx, userID, chatID, title)
}

// Send appends and persists the user turn, calls the model with the full
// replayed history, then appends the reply. The user turn is written in
// its own pass first, so a failed model call never loses the input — the
// chat just ends on an unanswered user message until the next send.
func (c *ChatController) Send(ctx context.Context, userID, chatID, message string) (*types.SendResult, error) {
	chat, err := c.store.AppendMessages(ctx, userID, chatID, []models.Message{{
		Role:      models.RoleUser,
		Content:   message,
		Timestamp: time.Now().UTC(),
	}}, "")
	if err != nil {
		return nil, err
	}

	// Everything before the message just appended, in original order.
	history := make([]gemini.Turn, 0, len(chat.Messages)-1)
	for _, m := range chat.Messages[:len(chat.Messages)-1] {
		history = append(history, gemini.Turn{Role: m.Role, Content: m.Content})
	}

	reply, err := c.gateway.Generate(ctx, history, message)
	if err != nil {
		return nil, err
	}

	// Title derivation fires once: only while the title is still the
	// default and the first exchange is completing.
	newTitle := ""
	if chat.Title == models.DefaultTitle && len(chat.Messages)+1 >= 2 {
		newTitle = deriveTitle(message)
	}

	updated, err := c.store.AppendMessages(ctx, userID, chatID, []models.Message{{
		Role:      models.RoleModel,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	}}, newTitle)
	if err != nil {
		return nil, err
	}

	return &types.SendResult{Response: reply, Title: updated.Title}, nil
}

func deriveTitle(message string) string {
	runes := []rune(message)
	if len(runes) > 40 {
		return string(runes[:40]) + "..."
	}
	return message
}
