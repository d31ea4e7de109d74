package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/response"
)

// UserStore is the persistence the user directory needs.
type UserStore interface {
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.User, error)
	GetByID(ctx context.Context, schoolID, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	SetStatus(ctx context.Context, schoolID, id uuid.UUID, status model.UserStatus) error
	Delete(ctx context.Context, schoolID, id uuid.UUID) error
}

// PasswordHasher hashes initial passwords for imported users.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// AccessRevoker ends and restores the sessions of managed users.
type AccessRevoker interface {
	SuspendUser(ctx context.Context, userID uuid.UUID) error
	RestoreUser(ctx context.Context, userID uuid.UUID) error
}

// UserPage is the directory result: a page of users, or groups when grouped.
type UserPage struct {
	Users      []model.User
	Groups     []model.UserGroup
	Pagination *response.Pagination
}

// UserService manages a school's user directory.
type UserService struct {
	users  UserStore
	cache  JSONCache
	hasher PasswordHasher
	access AccessRevoker
	ttl    time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, cache JSONCache, hasher PasswordHasher, access AccessRevoker, ttl time.Duration, log zerolog.Logger) *UserService {
	return &UserService{
		users:  users,
		cache:  cache,
		hasher: hasher,
		access: access,
		ttl:    ttl,
		log:    log.With().Str("component", "user_service").Logger(),
		now:    time.Now,
	}
}

func (s *UserService) all(ctx context.Context, schoolID uuid.UUID) ([]model.User, error) {
	key := config.CacheKey.UsersKey(schoolID)

	var cached []model.User
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("school_id", schoolID.String()).Msg("User cache read failed")
	}
	if hit {
		return cached, nil
	}

	users, err := s.users.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if err := s.cache.SetJSON(ctx, key, users, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("school_id", schoolID.String()).Msg("User cache write failed")
	}
	return users, nil
}

func (s *UserService) invalidate(ctx context.Context, schoolID uuid.UUID) {
	if err := s.cache.Delete(ctx, config.CacheKey.UsersKey(schoolID)); err != nil {
		s.log.Error().Err(err).Str("school_id", schoolID.String()).Msg("User cache invalidation failed")
	}
}

// List filters, sorts and either paginates or groups the directory.
func (s *UserService) List(ctx context.Context, schoolID uuid.UUID, q UserQuery) (*UserPage, error) {
	users, err := s.all(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	filtered := ApplyFilters(users, q.Filters()...)
	sortKey, order := q.Sort, q.Order
	if sortKey == "" {
		sortKey, order = "created_at", "desc"
	}
	SortUsers(filtered, sortKey, order)

	if q.GroupBy != "" {
		return &UserPage{Groups: GroupUsers(filtered, q.GroupBy)}, nil
	}

	page, perPage := q.Page, q.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	start, end := pageBounds(page, perPage, len(filtered))

	return &UserPage{
		Users:      filtered[start:end],
		Pagination: response.NewPagination(page, perPage, len(filtered)),
	}, nil
}

// Stats returns the dashboard counters.
func (s *UserService) Stats(ctx context.Context, schoolID uuid.UUID) (model.UserStats, error) {
	users, err := s.all(ctx, schoolID)
	if err != nil {
		return model.UserStats{}, err
	}
	return ComputeUserStats(users, s.now()), nil
}

// Facets returns the distinct grades and classes of the school.
func (s *UserService) Facets(ctx context.Context, schoolID uuid.UUID) (UserFacets, error) {
	users, err := s.all(ctx, schoolID)
	if err != nil {
		return UserFacets{}, err
	}
	return ComputeFacets(users), nil
}

// Update applies a partial update.
func (s *UserService) Update(ctx context.Context, schoolID, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	u, err := s.users.GetByID(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}

	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setString(&u.FirstName, req.FirstName)
	setString(&u.LastName, req.LastName)
	setString(&u.Email, req.Email)
	setString(&u.GradeLevel, req.GradeLevel)
	setString(&u.Phone, req.Phone)
	setString(&u.Address, req.Address)
	setString(&u.EmergencyContact, req.EmergencyContact)
	setString(&u.AvatarURL, req.AvatarURL)
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth == "" {
			u.DateOfBirth = nil
		} else {
			d, err := ParseDay(*req.DateOfBirth)
			if err != nil {
				return nil, err
			}
			u.DateOfBirth = &d
		}
	}
	if req.XP != nil {
		u.XP = *req.XP
	}
	if req.Level != nil {
		u.Level = *req.Level
	}
	if req.Gems != nil {
		u.Gems = *req.Gems
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.invalidate(ctx, schoolID)
	return u, nil
}

// ToggleStatus flips a user between active and inactive.
func (s *UserService) ToggleStatus(ctx context.Context, actor Actor, id uuid.UUID) (*model.User, error) {
	if id == actor.UserID {
		return nil, ErrSelfAction
	}
	u, err := s.users.GetByID(ctx, actor.SchoolID, id)
	if err != nil {
		return nil, err
	}

	next := model.UserStatusInactive
	if u.Status == model.UserStatusInactive {
		next = model.UserStatusActive
	}
	if err := s.users.SetStatus(ctx, actor.SchoolID, id, next); err != nil {
		return nil, err
	}
	if next == model.UserStatusInactive {
		err = s.access.SuspendUser(ctx, id)
	} else {
		err = s.access.RestoreUser(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update sessions: %w", err)
	}
	u.Status = next
	s.invalidate(ctx, actor.SchoolID)

	s.log.Info().Str("user_id", id.String()).Str("status", string(next)).Msg("User status changed")
	return u, nil
}

// Delete removes a user. Admins cannot remove themselves.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if id == actor.UserID {
		return ErrSelfAction
	}
	if err := s.users.Delete(ctx, actor.SchoolID, id); err != nil {
		return err
	}
	s.invalidate(ctx, actor.SchoolID)
	if err := s.access.SuspendUser(ctx, id); err != nil {
		return fmt.Errorf("end sessions: %w", err)
	}

	s.log.Info().Str("school_id", actor.SchoolID.String()).Str("user_id", id.String()).Msg("User deleted")
	return nil
}

// createImported inserts one imported user, skipping existing emails.
func (s *UserService) createImported(ctx context.Context, u *model.User, password string) (bool, error) {
	if _, err := s.users.GetByEmail(ctx, u.Email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
