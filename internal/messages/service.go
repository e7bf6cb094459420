package messages

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/friends"
	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/campusconecto/campusconecto/backend/api/internal/relay"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidID         = errors.New("invalid recipient id")
	ErrEmptyText         = errors.New("message text is required")
	ErrRecipientNotFound = errors.New("recipient not found")
)

// NewMessageEvent is the payload pushed to the recipient's room.
type NewMessageEvent struct {
	From      string    `json:"from"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service implements direct messaging between users.
type Service struct {
	repo     Repository
	users    users.UserRepository
	notifier friends.Notifier
}

func NewService(repo Repository, userRepo users.UserRepository, notifier friends.Notifier) *Service {
	return &Service{repo: repo, users: userRepo, notifier: notifier}
}

// Conversation returns the messages between requester and friendID,
// newest first.
func (s *Service) Conversation(ctx context.Context, requester primitive.ObjectID, friendID string) ([]*models.Message, error) {
	fid, ok := models.ParseID(friendID)
	if !ok {
		return nil, ErrInvalidID
	}
	return s.repo.Between(ctx, requester, fid)
}

// Send stores a message and pushes newMessage and notification events to
// the recipient.
func (s *Service) Send(ctx context.Context, sender primitive.ObjectID, friendID, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	to, ok := models.ParseID(friendID)
	if !ok {
		return nil, ErrInvalidID
	}
	recipient, err := s.users.GetByID(ctx, to)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrRecipientNotFound
	}

	m := &models.Message{From: sender, To: to, Text: text}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	room := to.Hex()
	s.notifier.Emit(ctx, room, relay.EventNewMessage, NewMessageEvent{From: sender.Hex(), Text: m.Text, CreatedAt: m.CreatedAt})
	from, err := s.users.GetByID(ctx, sender)
	if err == nil && from != nil {
		s.notifier.Emit(ctx, room, relay.EventNotification, friends.Notification{Message: "New message from " + from.FullName})
	}
	return m, nil
}
