package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/campusconecto/campusconecto/backend/api/internal/relay"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidID         = errors.New("friendId required")
	ErrAddSelf           = errors.New("cannot add yourself")
	ErrRemoveSelf        = errors.New("cannot remove yourself")
	ErrFriendNotFound    = errors.New("friend not found")
	ErrRequesterNotFound = errors.New("requester not found")
)

// Notifier pushes realtime events into a user's room.
type Notifier interface {
	Emit(ctx context.Context, room, event string, payload interface{})
}

// Notification is the payload of a notification event.
type Notification struct {
	Message string `json:"message"`
}

// FriendAdded is the payload of a friendAdded event.
type FriendAdded struct {
	Friend models.PublicUser `json:"friend"`
}

// Service mediates symmetric friend list changes between two users.
type Service struct {
	users    users.UserRepository
	notifier Notifier
}

func NewService(repo users.UserRepository, notifier Notifier) *Service {
	return &Service{users: repo, notifier: notifier}
}

func (s *Service) resolve(ctx context.Context, requester primitive.ObjectID, friendID string, self error) (*models.User, *models.User, error) {
	fid, ok := models.ParseID(friendID)
	if !ok {
		return nil, nil, ErrInvalidID
	}
	if fid == requester {
		return nil, nil, self
	}
	me, err := s.users.GetByID(ctx, requester)
	if err != nil {
		return nil, nil, err
	}
	if me == nil {
		return nil, nil, ErrRequesterNotFound
	}
	friend, err := s.users.GetByID(ctx, fid)
	if err != nil {
		return nil, nil, err
	}
	if friend == nil {
		return nil, nil, ErrFriendNotFound
	}
	return me, friend, nil
}

// Add makes requester and friendID friends of each other. Adding an
// existing friend changes nothing but still notifies both sides. Returns
// the requester's friend ids.
func (s *Service) Add(ctx context.Context, requester primitive.ObjectID, friendID string) ([]primitive.ObjectID, error) {
	me, friend, err := s.resolve(ctx, requester, friendID, ErrAddSelf)
	if err != nil {
		return nil, err
	}
	if err := s.users.AddFriendPair(ctx, me.ID, friend.ID); err != nil {
		return nil, fmt.Errorf("add friend pair: %w", err)
	}

	meRoom, friendRoom := me.ID.Hex(), friend.ID.Hex()
	s.notifier.Emit(ctx, friendRoom, relay.EventNotification, Notification{Message: me.FullName + " added you as a friend!"})
	s.notifier.Emit(ctx, meRoom, relay.EventNotification, Notification{Message: "You are now friends with " + friend.FullName + "!"})
	s.notifier.Emit(ctx, friendRoom, relay.EventFriendAdded, FriendAdded{Friend: me.Public()})
	s.notifier.Emit(ctx, meRoom, relay.EventFriendAdded, FriendAdded{Friend: friend.Public()})

	return s.friendIDs(ctx, me.ID)
}

// Remove ends the friendship on both sides. Returns the requester's
// friend ids.
func (s *Service) Remove(ctx context.Context, requester primitive.ObjectID, friendID string) ([]primitive.ObjectID, error) {
	me, friend, err := s.resolve(ctx, requester, friendID, ErrRemoveSelf)
	if err != nil {
		return nil, err
	}
	if err := s.users.RemoveFriendPair(ctx, me.ID, friend.ID); err != nil {
		return nil, fmt.Errorf("remove friend pair: %w", err)
	}

	s.notifier.Emit(ctx, friend.ID.Hex(), relay.EventNotification, Notification{Message: me.FullName + " removed you from friends."})
	s.notifier.Emit(ctx, me.ID.Hex(), relay.EventNotification, Notification{Message: "You removed " + friend.FullName + " from friends."})

	return s.friendIDs(ctx, me.ID)
}

func (s *Service) friendIDs(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrRequesterNotFound
	}
	if u.Friends == nil {
		return []primitive.ObjectID{}, nil
	}
	return u.Friends, nil
}
