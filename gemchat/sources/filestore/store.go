package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gemchat/gemchat/sources/filestore/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no file exists for a (userId, chatId) pair.
var ErrNotFound = errors.New("chat not found")

// ChatStore persists one pretty-printed JSON document per chat under dir.
// Every mutation is a full read-modify-write of the document; there is no
// lock around it, so two concurrent writers to the same chat can race and
// the second write wins.
type ChatStore struct {
	dir string
}

func NewChatStore(dir string) (*ChatStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chats directory: %w", err)
	}
	return &ChatStore{dir: dir}, nil
}

func (s *ChatStore) chatPath(userID, chatID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", userID, chatID))
}

// ListChats scans every file prefixed by the user's id and returns their
// summaries sorted by updatedAt descending. O(n) in the user's chat count
// on every call, which is fine at the expected scale.
func (s *ChatStore) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan chats directory: %w", err)
	}

	prefix := userID + "_"
	summaries := make([]models.ChatSummary, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		chat, err := s.readChat(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, chat.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func (s *ChatStore) CreateChat(ctx context.Context, userID string) (*models.Chat, error) {
	now := time.Now().UTC()
	chat := &models.Chat{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     models.DefaultTitle,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.writeChat(chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *ChatStore) GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	chat, err := s.readChat(s.chatPath(userID, chatID))
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// DeleteChat is idempotent: deleting an absent chat is not an error.
func (s *ChatStore) DeleteChat(ctx context.Context, userID, chatID string) error {
	err := os.Remove(s.chatPath(userID, chatID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete chat file: %w", err)
	}
	return nil
}

// AppendMessages loads the chat, appends msgs in order, optionally
// replaces the title when newTitle is non-empty, bumps updatedAt and
// rewrites the whole file. Returns the updated document.
func (s *ChatStore) AppendMessages(ctx context.Context, userID, chatID string, msgs []models.Message, newTitle string) (*models.Chat, error) {
	chat, err := s.GetChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	chat.Messages = append(chat.Messages, msgs...)
	if newTitle != "" {
		chat.Title = newTitle
	}
	chat.UpdatedAt = time.Now().UTC()
	if err := s.writeChat(chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// RenameChat overwrites the title; an empty title keeps the current one.
func (s *ChatStore) RenameChat(ctx context.Context, userID, chatID, title string) error {
	chat, err := s.GetChat(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if title != "" {
		chat.Title = title
	}
	chat.UpdatedAt = time.Now().UTC()
	return s.writeChat(chat)
}

func (s *ChatStore) readChat(path string) (*models.Chat, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read chat file: %w", err)
	}
	var chat models.Chat
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("parse chat file %s: %w", filepath.Base(path), err)
	}
	return &chat, nil
}

func (s *ChatStore) writeChat(chat *models.Chat) error {
	raw, err := json.MarshalIndent(chat, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chat: %w", err)
	}
	if err := os.WriteFile(s.chatPath(chat.UserID, chat.ID), raw, 0o644); err != nil {
		return fmt.Errorf("write chat file: %w", err)
	}
	return nil
}
