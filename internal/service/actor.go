package service

import (
	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// Actor is the authenticated caller on whose behalf a service acts.
type Actor struct {
	UserID   uuid.UUID
	SchoolID uuid.UUID
	Role     model.Role
}

// IsAdmin reports whether the actor administers the school.
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}
