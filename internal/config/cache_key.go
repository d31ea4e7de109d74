package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RevokedTokenKey marks a logged-out JWT (by JTI) until the token expires.
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// SuspendedUserKey marks a deactivated or deleted user whose issued tokens
// must stop working before they expire.
func (r *CacheKeyStruct) SuspendedUserKey(userID uuid.UUID) string {
	return fmt.Sprintf("auth:suspended:%s", userID)
}

// LoginAttemptsKey counts login attempts from one client IP in the current window.
func (r *CacheKeyStruct) LoginAttemptsKey(ip string, window int64) string {
	return fmt.Sprintf("ratelimit:login:%s:%d", ip, window)
}

// ScheduleKey returns the cache key for a school's academic event list.
func (r *CacheKeyStruct) ScheduleKey(schoolID uuid.UUID) string {
	return fmt.Sprintf("school:%s:schedule", schoolID)
}

// UsersKey returns the cache key for a school's user directory.
func (r *CacheKeyStruct) UsersKey(schoolID uuid.UUID) string {
	return fmt.Sprintf("school:%s:users", schoolID)
}

// ConversationChannel returns the Redis PubSub channel announcing new messages
// in a family conversation.
func (r *CacheKeyStruct) ConversationChannel(conversationID uuid.UUID) string {
	return fmt.Sprintf("family:conversation:%s:messages", conversationID)
}

var CacheKey = NewCacheKeyStruct()
