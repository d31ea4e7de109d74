package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// MessageStore persists family conversations and messages.
type MessageStore interface {
	HasRelationship(ctx context.Context, parentID, childID uuid.UUID) (bool, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]model.FamilyMember, error)
	ListParents(ctx context.Context, childID uuid.UUID) ([]model.FamilyMember, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*model.FamilyConversation, error)
	EnsureConversation(ctx context.Context, parentID, childID uuid.UUID) (*model.FamilyConversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]model.ConversationSummary, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, since time.Time, limit int) ([]model.FamilyMessage, error)
	InsertMessage(ctx context.Context, m *model.FamilyMessage) error
	MarkRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error)
}

// UserLookup resolves a user inside a school.
type UserLookup interface {
	GetByID(ctx context.Context, schoolID, id uuid.UUID) (*model.User, error)
}

// Publisher announces new messages to stream subscribers.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// MessageEvent is published on a conversation channel after a send.
type MessageEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	SenderID       uuid.UUID `json:"sender_id"`
}

// MessagingOptions bounds the message window.
type MessagingOptions struct {
	Window       time.Duration
	PageLimit    int
	PollInterval time.Duration
}

// FamilyPair orders two users as (parent, child). Only a parent and a
// student may converse.
func FamilyPair(a, b *model.User) (parentID, childID uuid.UUID, err error) {
	switch {
	case a.Role == model.RoleParent && b.Role == model.RoleStudent:
		return a.ID, b.ID, nil
	case a.Role == model.RoleStudent && b.Role == model.RoleParent:
		return b.ID, a.ID, nil
	}
	return uuid.Nil, uuid.Nil, ErrInvalidRoleCombination
}

// MessagesAfter returns the messages following the one with id after. An
// unknown id yields the whole slice.
func MessagesAfter(msgs []model.FamilyMessage, after uuid.UUID) []model.FamilyMessage {
	for i := range msgs {
		if msgs[i].ID == after {
			return msgs[i+1:]
		}
	}
	return msgs
}

// FamilyMessagingService handles parent/child messaging.
type FamilyMessagingService struct {
	store MessageStore
	users UserLookup
	pub   Publisher
	opts  MessagingOptions
	log   zerolog.Logger
	now   func() time.Time
}

// NewFamilyMessagingService creates a new FamilyMessagingService.
func NewFamilyMessagingService(store MessageStore, users UserLookup, pub Publisher, opts MessagingOptions, log zerolog.Logger) *FamilyMessagingService {
	return &FamilyMessagingService{
		store: store,
		users: users,
		pub:   pub,
		opts:  opts,
		log:   log.With().Str("component", "family_messaging_service").Logger(),
		now:   time.Now,
	}
}

func (s *FamilyMessagingService) requireFamilyRole(actor Actor) error {
	if actor.Role != model.RoleParent && actor.Role != model.RoleStudent {
		return ErrInvalidRoleCombination
	}
	return nil
}

// Overview returns the caller's conversations and linked family members.
func (s *FamilyMessagingService) Overview(ctx context.Context, actor Actor) (*model.FamilyOverview, error) {
	if err := s.requireFamilyRole(actor); err != nil {
		return nil, err
	}
	convs, err := s.store.ListConversations(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	out := &model.FamilyOverview{
		Conversations: convs,
		Children:      []model.FamilyMember{},
		Parents:       []model.FamilyMember{},
		UserRole:      actor.Role,
	}
	if actor.Role == model.RoleParent {
		out.Children, err = s.store.ListChildren(ctx, actor.UserID)
	} else {
		out.Parents, err = s.store.ListParents(ctx, actor.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list family: %w", err)
	}
	return out, nil
}

// related resolves the other party and checks the family link.
func (s *FamilyMessagingService) related(ctx context.Context, actor Actor, otherID uuid.UUID) (parentID, childID uuid.UUID, err error) {
	me, err := s.users.GetByID(ctx, actor.SchoolID, actor.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	other, err := s.users.GetByID(ctx, actor.SchoolID, otherID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	parentID, childID, err = FamilyPair(me, other)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	ok, err := s.store.HasRelationship(ctx, parentID, childID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("check relationship: %w", err)
	}
	if !ok {
		return uuid.Nil, uuid.Nil, ErrNoRelationship
	}
	return parentID, childID, nil
}

// StartConversation returns the conversation with a family member, creating it if needed.
func (s *FamilyMessagingService) StartConversation(ctx context.Context, actor Actor, participantID uuid.UUID) (*model.FamilyConversation, error) {
	parentID, childID, err := s.related(ctx, actor, participantID)
	if err != nil {
		return nil, err
	}
	return s.store.EnsureConversation(ctx, parentID, childID)
}

// Authorize loads a conversation the actor takes part in.
func (s *FamilyMessagingService) Authorize(ctx context.Context, actor Actor, conversationID uuid.UUID) (*model.FamilyConversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.ParentID != actor.UserID && conv.ChildID != actor.UserID {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

// window loads the recent messages of a conversation.
func (s *FamilyMessagingService) window(ctx context.Context, conversationID uuid.UUID) ([]model.FamilyMessage, error) {
	return s.store.ListMessages(ctx, conversationID, s.now().Add(-s.opts.Window), s.opts.PageLimit)
}

// Messages returns the conversation's recent messages in ascending order,
// optionally only those after a known message id.
func (s *FamilyMessagingService) Messages(ctx context.Context, actor Actor, conversationID uuid.UUID, after *uuid.UUID) ([]model.FamilyMessage, error) {
	if _, err := s.Authorize(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.window(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if after != nil {
		msgs = MessagesAfter(msgs, *after)
	}
	return msgs, nil
}

// Send stores a message to a family member and notifies stream subscribers.
func (s *FamilyMessagingService) Send(ctx context.Context, actor Actor, req *model.SendMessageRequest) (*model.FamilyMessage, error) {
	parentID, childID, err := s.related(ctx, actor, req.ReceiverID)
	if err != nil {
		return nil, err
	}

	var conv *model.FamilyConversation
	if req.ConversationID != nil {
		conv, err = s.Authorize(ctx, actor, *req.ConversationID)
		if err != nil {
			return nil, err
		}
		if conv.ParentID != parentID || conv.ChildID != childID {
			return nil, ErrNotParticipant
		}
	} else {
		conv, err = s.store.EnsureConversation(ctx, parentID, childID)
		if err != nil {
			return nil, err
		}
	}

	msgType := req.MessageType
	if msgType == "" {
		msgType = "text"
	}
	msg := &model.FamilyMessage{
		ConversationID: conv.ID,
		SenderID:       actor.UserID,
		ReceiverID:     req.ReceiverID,
		MessageText:    req.MessageText,
		MessageType:    msgType,
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.announce(ctx, MessageEvent{ConversationID: conv.ID, MessageID: msg.ID, SenderID: actor.UserID})
	return msg, nil
}

// announce publishes a message event. Failures are logged only; stream
// subscribers still pick the message up on their next poll.
func (s *FamilyMessagingService) announce(ctx context.Context, ev MessageEvent) {
	log := s.log.With().Str("conversation_id", ev.ConversationID.String()).Logger()
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode message event")
		return
	}
	if err := s.pub.Publish(ctx, config.CacheKey.ConversationChannel(ev.ConversationID), payload); err != nil {
		log.Warn().Err(err).Msg("Failed to publish message event")
	}
}

// MarkRead marks messages as read where the caller is the receiver.
func (s *FamilyMessagingService) MarkRead(ctx context.Context, actor Actor, ids []uuid.UUID) (int64, error) {
	return s.store.MarkRead(ctx, actor.UserID, ids)
}

// NewStream authorizes the actor and returns a poller over the conversation.
// trigger forces an immediate poll, typically wired to the conversation channel.
func (s *FamilyMessagingService) NewStream(ctx context.Context, actor Actor, conversationID uuid.UUID, trigger <-chan struct{}) (*Poller, error) {
	if _, err := s.Authorize(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context) ([]model.FamilyMessage, error) {
		return s.window(ctx, conversationID)
	}
	return NewPoller(s.opts.PollInterval, fetch, trigger), nil
}
