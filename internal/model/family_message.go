package model

import (
	"time"

	"github.com/google/uuid"
)

// FamilyConversation is the single chat thread between a parent and a child.
type FamilyConversation struct {
	ID        uuid.UUID `json:"id"`
	ParentID  uuid.UUID `json:"parent_id"`
	ChildID   uuid.UUID `json:"child_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FamilyMessage is a text message inside a family conversation.
type FamilyMessage struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	ReceiverID     uuid.UUID `json:"receiver_id"`
	MessageText    string    `json:"message_text"`
	MessageType    string    `json:"message_type"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationSummary is a row of the conversation list.
type ConversationSummary struct {
	ID              uuid.UUID      `json:"id"`
	ParticipantID   uuid.UUID      `json:"participant_id"`
	ParticipantName string         `json:"participant_name"`
	ParticipantRole Role           `json:"participant_role"`
	LastMessage     *FamilyMessage `json:"last_message"`
	UnreadCount     int            `json:"unread_count"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// FamilyMember is a linked parent or child shown next to the conversations.
type FamilyMember struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	GradeLevel     string    `json:"grade,omitempty"`
	RelationshipID uuid.UUID `json:"relationship_id"`
}

// FamilyOverview is the landing payload of the family messaging page.
type FamilyOverview struct {
	Conversations []ConversationSummary `json:"conversations"`
	Children      []FamilyMember        `json:"children"`
	Parents       []FamilyMember        `json:"parents"`
	UserRole      Role                  `json:"user_role"`
}

// StartConversationRequest opens (or returns) the thread with a family member.
type StartConversationRequest struct {
	ParticipantID uuid.UUID `json:"participant_id" binding:"required"`
}

// SendMessageRequest posts a message to a family member.
type SendMessageRequest struct {
	ReceiverID     uuid.UUID  `json:"receiver_id" binding:"required"`
	ConversationID *uuid.UUID `json:"conversation_id"`
	MessageText    string     `json:"message_text" binding:"required,min=1,max=4000"`
	MessageType    string     `json:"message_type" binding:"omitempty,oneof=text emoji"`
}

// MarkReadRequest marks received messages as read.
type MarkReadRequest struct {
	MessageIDs []uuid.UUID `json:"message_ids" binding:"required,min=1,max=500"`
}
