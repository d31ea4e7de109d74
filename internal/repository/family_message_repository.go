package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// FamilyMessageRepository handles parent/child conversations and messages.
type FamilyMessageRepository struct {
	pool *pgxpool.Pool
}

// NewFamilyMessageRepository creates a new FamilyMessageRepository.
func NewFamilyMessageRepository(pool *pgxpool.Pool) *FamilyMessageRepository {
	return &FamilyMessageRepository{pool: pool}
}

// HasRelationship reports whether parentID is linked to childID.
func (r *FamilyMessageRepository) HasRelationship(ctx context.Context, parentID, childID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM parent_child_relationships WHERE parent_id = $1 AND child_id = $2)`,
		parentID, childID).Scan(&ok)
	return ok, err
}

// LinkParent records a parent/child relationship. Linking twice is a no-op.
func (r *FamilyMessageRepository) LinkParent(ctx context.Context, parentID, childID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO parent_child_relationships (parent_id, child_id) VALUES ($1, $2)
		 ON CONFLICT (parent_id, child_id) DO NOTHING`, parentID, childID)
	return translate(err)
}

// ListChildren returns the children linked to a parent.
func (r *FamilyMessageRepository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]model.FamilyMember, error) {
	return r.members(ctx,
		`SELECT u.id, u.first_name || ' ' || u.last_name, u.email, COALESCE(u.grade_level, ''), p.id
		 FROM parent_child_relationships p JOIN users u ON u.id = p.child_id
		 WHERE p.parent_id = $1 ORDER BY u.first_name`, parentID)
}

// ListParents returns the parents linked to a child.
func (r *FamilyMessageRepository) ListParents(ctx context.Context, childID uuid.UUID) ([]model.FamilyMember, error) {
	return r.members(ctx,
		`SELECT u.id, u.first_name || ' ' || u.last_name, u.email, '', p.id
		 FROM parent_child_relationships p JOIN users u ON u.id = p.parent_id
		 WHERE p.child_id = $1 ORDER BY u.first_name`, childID)
}

func (r *FamilyMessageRepository) members(ctx context.Context, sql string, id uuid.UUID) ([]model.FamilyMember, error) {
	rows, err := r.pool.Query(ctx, sql, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.FamilyMember, 0)
	for rows.Next() {
		var m model.FamilyMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.GradeLevel, &m.RelationshipID); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// GetConversation retrieves a conversation by id.
func (r *FamilyMessageRepository) GetConversation(ctx context.Context, id uuid.UUID) (*model.FamilyConversation, error) {
	c := &model.FamilyConversation{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, parent_id, child_id, created_at, updated_at FROM family_conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.ParentID, &c.ChildID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// EnsureConversation returns the parent/child conversation, creating it if needed.
func (r *FamilyMessageRepository) EnsureConversation(ctx context.Context, parentID, childID uuid.UUID) (*model.FamilyConversation, error) {
	c := &model.FamilyConversation{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO family_conversations (parent_id, child_id) VALUES ($1, $2)
		 ON CONFLICT (parent_id, child_id) DO UPDATE SET parent_id = EXCLUDED.parent_id
		 RETURNING id, parent_id, child_id, created_at, updated_at`, parentID, childID,
	).Scan(&c.ID, &c.ParentID, &c.ChildID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// ListConversations returns the user's conversations, most recently active first.
func (r *FamilyMessageRepository) ListConversations(ctx context.Context, userID uuid.UUID) ([]model.ConversationSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT fc.id, o.id, o.first_name || ' ' || o.last_name, o.role, fc.updated_at,
		        (SELECT COUNT(*) FROM family_messages m
		          WHERE m.conversation_id = fc.id AND m.receiver_id = $1 AND NOT m.is_read),
		        lm.id, lm.sender_id, lm.receiver_id, lm.message_text, lm.message_type, lm.is_read, lm.created_at
		 FROM family_conversations fc
		 JOIN users o ON o.id = CASE WHEN fc.parent_id = $1 THEN fc.child_id ELSE fc.parent_id END
		 LEFT JOIN LATERAL (
		     SELECT id, sender_id, receiver_id, message_text, message_type, is_read, created_at
		     FROM family_messages WHERE conversation_id = fc.id
		     ORDER BY created_at DESC, id DESC LIMIT 1
		 ) lm ON TRUE
		 WHERE fc.parent_id = $1 OR fc.child_id = $1
		 ORDER BY fc.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]model.ConversationSummary, 0)
	for rows.Next() {
		var s model.ConversationSummary
		var (
			msgID            *uuid.UUID
			senderID, recvID *uuid.UUID
			text, msgType    *string
			isRead           *bool
			createdAt        *time.Time
		)
		if err := rows.Scan(&s.ID, &s.ParticipantID, &s.ParticipantName, &s.ParticipantRole, &s.UpdatedAt,
			&s.UnreadCount, &msgID, &senderID, &recvID, &text, &msgType, &isRead, &createdAt); err != nil {
			return nil, err
		}
		if msgID != nil {
			s.LastMessage = &model.FamilyMessage{
				ID: *msgID, ConversationID: s.ID, SenderID: *senderID, ReceiverID: *recvID,
				MessageText: *text, MessageType: *msgType, IsRead: *isRead, CreatedAt: *createdAt,
			}
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ListMessages returns up to limit of the most recent messages created at or
// after since, in ascending order.
func (r *FamilyMessageRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, since time.Time, limit int) ([]model.FamilyMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM (
		     SELECT id, conversation_id, sender_id, receiver_id, message_text, message_type, is_read, created_at
		     FROM family_messages
		     WHERE conversation_id = $1 AND created_at >= $2
		     ORDER BY created_at DESC, id DESC LIMIT $3
		 ) recent ORDER BY created_at, id`, conversationID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]model.FamilyMessage, 0)
	for rows.Next() {
		var m model.FamilyMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.MessageText,
			&m.MessageType, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// InsertMessage stores a message and bumps the conversation's updated_at.
func (r *FamilyMessageRepository) InsertMessage(ctx context.Context, m *model.FamilyMessage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO family_messages (conversation_id, sender_id, receiver_id, message_text, message_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, is_read, created_at`,
		m.ConversationID, m.SenderID, m.ReceiverID, m.MessageText, m.MessageType,
	).Scan(&m.ID, &m.IsRead, &m.CreatedAt)
	if err != nil {
		return translate(err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE family_conversations SET updated_at = $2 WHERE id = $1`, m.ConversationID, m.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MarkRead flags the given messages as read, restricted to those the
// receiver actually received. Returns the number of rows changed.
func (r *FamilyMessageRepository) MarkRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE family_messages SET is_read = TRUE
		 WHERE receiver_id = $1 AND id = ANY($2) AND NOT is_read`, receiverID, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteOlderThan purges messages created before cutoff.
func (r *FamilyMessageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM family_messages WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
