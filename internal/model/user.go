package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies what a user can do inside a school.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
)

// AllRoles lists roles in display order.
var AllRoles = []Role{RoleStudent, RoleTeacher, RoleParent, RoleAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleParent, RoleAdmin:
		return true
	}
	return false
}

// UserStatus is the account state toggled from the admin directory.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is a member of a school: student, teacher, parent or admin.
type User struct {
	ID               uuid.UUID  `json:"id"`
	SchoolID         uuid.UUID  `json:"school_id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Role             Role       `json:"role"`
	Status           UserStatus `json:"status"`
	GradeLevel       string     `json:"grade_level,omitempty"`
	ClassName        string     `json:"class_name,omitempty"`
	XP               int        `json:"xp"`
	Level            int        `json:"level"`
	Gems             int        `json:"gems"`
	CurrentStreak    int        `json:"current_streak"`
	Phone            string     `json:"phone,omitempty"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	Address          string     `json:"address,omitempty"`
	EmergencyContact string     `json:"emergency_contact,omitempty"`
	AvatarURL        string     `json:"avatar_url,omitempty"`
	LastSignInAt     *time.Time `json:"last_sign_in_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// LoginRequest is the payload for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UpdateUserRequest is a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	FirstName        *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName         *string `json:"last_name" binding:"omitempty,max=100"`
	Email            *string `json:"email" binding:"omitempty,email,max=255"`
	Role             *Role   `json:"role" binding:"omitempty,oneof=student teacher parent admin"`
	GradeLevel       *string `json:"grade_level" binding:"omitempty,max=50"`
	Phone            *string `json:"phone" binding:"omitempty,max=30"`
	DateOfBirth      *string `json:"date_of_birth" binding:"omitempty,ymd"`
	Address          *string `json:"address" binding:"omitempty,max=255"`
	EmergencyContact *string `json:"emergency_contact" binding:"omitempty,max=255"`
	AvatarURL        *string `json:"avatar_url" binding:"omitempty,url,max=500"`
	XP               *int    `json:"xp" binding:"omitempty,min=0"`
	Level            *int    `json:"level" binding:"omitempty,min=0"`
	Gems             *int    `json:"gems" binding:"omitempty,min=0"`
}

// UserStats summarises a school's user directory for the admin dashboard.
type UserStats struct {
	Total          int `json:"total"`
	Students       int `json:"students"`
	Teachers       int `json:"teachers"`
	Parents        int `json:"parents"`
	Admins         int `json:"admins"`
	Active         int `json:"active"`
	Inactive       int `json:"inactive"`
	NewThisMonth   int `json:"new_this_month"`
	EngagementRate int `json:"engagement_rate"`
	AverageXP      int `json:"average_xp"`
	TopPerformers  int `json:"top_performers"`
}

// UserGroup is one bucket of the organised user directory.
type UserGroup struct {
	Key   string `json:"key"`
	Users []User `json:"users"`
}
