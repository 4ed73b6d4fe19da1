// Package store persists conversations and their council runs in sqlite.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BaSui01/councilflow/council"
)

// Conversation is one stored deliberation thread.
type Conversation struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// Message is one turn of a conversation. Assistant turns carry the
// serialized council result alongside the final synthesized answer.
type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"index;size:36" json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Payload        string    `gorm:"type:text" json:"payload,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store wraps the sqlite database.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) the sqlite database at path and migrates the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&Conversation{}, &Message{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	log.Info("conversation store opened", zap.String("path", path))
	return &Store{db: db, logger: log.With(zap.String("component", "store"))}, nil
}

// CreateConversation creates a new empty conversation.
func (s *Store) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	conv := &Conversation{
		ID:    uuid.NewString(),
		Title: title,
	}
	if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// SetTitle updates a conversation's title.
func (s *Store) SetTitle(ctx context.Context, conversationID, title string) error {
	res := s.db.WithContext(ctx).Model(&Conversation{}).
		Where("id = ?", conversationID).
		Update("title", title)
	if res.Error != nil {
		return fmt.Errorf("set title: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendUserMessage stores one user turn.
func (s *Store) AppendUserMessage(ctx context.Context, conversationID, content string) error {
	msg := &Message{
		ConversationID: conversationID,
		Role:           "user",
		Content:        content,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("append user message: %w", err)
	}
	return nil
}

// AppendResult stores one assistant turn carrying the full council result.
func (s *Store) AppendResult(ctx context.Context, conversationID string, result *council.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	msg := &Message{
		ConversationID: conversationID,
		Role:           "assistant",
		Content:        result.Stage4.Response,
		Payload:        string(payload),
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	return nil
}

// GetConversation loads a conversation with its messages in insertion order.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.id ASC")
		}).
		First(&conv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns all conversations, most recently updated first,
// without their messages.
func (s *Store) ListConversations(ctx context.Context) ([]Conversation, error) {
	var convs []Conversation
	err := s.db.WithContext(ctx).
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Message{}, "conversation_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&Conversation{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DecodeResult unpacks the council result stored on an assistant message.
func DecodeResult(msg Message) (*council.Result, error) {
	if msg.Payload == "" {
		return nil, fmt.Errorf("message %d has no result payload", msg.ID)
	}
	var result council.Result
	if err := json.Unmarshal([]byte(msg.Payload), &result); err != nil {
		return nil, fmt.Errorf("decode result payload: %w", err)
	}
	return &result, nil
}
