package service

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users []model.User
	lists int
}

func (f *fakeUserStore) ListBySchool(_ context.Context, schoolID uuid.UUID) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	out := make([]model.User, 0)
	for _, u := range f.users {
		if u.SchoolID == schoolID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) find(match func(*model.User) bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if match(&f.users[i]) {
			cp := f.users[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, schoolID, id uuid.UUID) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.SchoolID == schoolID && u.ID == id })
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (f *fakeUserStore) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = uuid.New()
	f.users = append(f.users, *u)
	return nil
}

func (f *fakeUserStore) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].ID == u.ID {
			f.users[i] = *u
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeUserStore) SetStatus(_ context.Context, schoolID, id uuid.UUID, status model.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].SchoolID == schoolID && f.users[i].ID == id {
			f.users[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeUserStore) Delete(_ context.Context, schoolID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].SchoolID == schoolID && f.users[i].ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type plainHasher struct{}

func (plainHasher) HashPassword(p string) (string, error) { return "hashed:" + p, nil }

type fakeAccess struct {
	suspended map[uuid.UUID]bool
}

func (f *fakeAccess) SuspendUser(_ context.Context, id uuid.UUID) error {
	f.suspended[id] = true
	return nil
}

func (f *fakeAccess) RestoreUser(_ context.Context, id uuid.UUID) error {
	delete(f.suspended, id)
	return nil
}

func newUserFixture() (*UserService, *fakeUserStore, Actor) {
	schoolID := uuid.New()
	store := &fakeUserStore{}
	for _, u := range directory() {
		u.SchoolID = schoolID
		store.users = append(store.users, u)
	}
	svc := NewUserService(store, newMemoryCache(), plainHasher{}, &fakeAccess{suspended: map[uuid.UUID]bool{}}, 0, zerolog.Nop())
	svc.now = func() time.Time { return queryNow }
	admin := Actor{UserID: store.users[5].ID, SchoolID: schoolID, Role: model.RoleAdmin}
	return svc, store, admin
}

func TestUserService_ListPaginates(t *testing.T) {
	svc, _, admin := newUserFixture()

	page, err := svc.List(context.Background(), admin.SchoolID, UserQuery{Sort: "name", Order: "asc", Page: 2, PerPage: 3})
	require.NoError(t, err)

	require.Len(t, page.Users, 3)
	assert.Equal(t, "dan", page.Users[0].FirstName)
	assert.Equal(t, 7, page.Pagination.TotalItems)
	assert.Equal(t, 3, page.Pagination.TotalPages)
}

func TestUserService_ListPageBeyondEnd(t *testing.T) {
	svc, _, admin := newUserFixture()

	for _, page := range []int{4, 1 << 62} {
		res, err := svc.List(context.Background(), admin.SchoolID, UserQuery{Page: page, PerPage: 3})
		require.NoError(t, err)
		assert.Empty(t, res.Users)
		assert.Equal(t, 7, res.Pagination.TotalItems)
	}
}

func TestPageBounds(t *testing.T) {
	cases := []struct{ page, perPage, n, start, end int }{
		{1, 3, 7, 0, 3},
		{3, 3, 7, 6, 7},
		{3, 3, 6, 6, 6},
		{4, 3, 7, 7, 7},
		{1, 10, 0, 0, 0},
		{1 << 62, 4, 9, 9, 9},
	}
	for _, tc := range cases {
		start, end := pageBounds(tc.page, tc.perPage, tc.n)
		assert.Equal(t, tc.start, start, "page %d", tc.page)
		assert.Equal(t, tc.end, end, "page %d", tc.page)
	}
}

func TestUserService_ListGroups(t *testing.T) {
	svc, _, admin := newUserFixture()

	page, err := svc.List(context.Background(), admin.SchoolID, UserQuery{Role: "student", GroupBy: "grade"})
	require.NoError(t, err)

	assert.Nil(t, page.Pagination)
	require.Len(t, page.Groups, 3)
	assert.Equal(t, "Grade 9", page.Groups[0].Key)
}

func TestUserService_ToggleStatusInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, store, admin := newUserFixture()
	target := store.users[0]

	st, err := svc.Stats(ctx, admin.SchoolID)
	require.NoError(t, err)
	require.Equal(t, 7, st.Total)

	u, err := svc.ToggleStatus(ctx, admin, target.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusInactive, u.Status)

	page, err := svc.List(ctx, admin.SchoolID, UserQuery{Status: "inactive"})
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)
	assert.Equal(t, 2, store.lists)
}

func TestUserService_DeactivateAndDeleteEndSessions(t *testing.T) {
	ctx := context.Background()
	svc, store, admin := newUserFixture()
	access := svc.access.(*fakeAccess)
	target, removed := store.users[0], store.users[1]

	_, err := svc.ToggleStatus(ctx, admin, target.ID)
	require.NoError(t, err)
	assert.True(t, access.suspended[target.ID])

	u, err := svc.ToggleStatus(ctx, admin, target.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, u.Status)
	assert.False(t, access.suspended[target.ID])

	require.NoError(t, svc.Delete(ctx, admin, removed.ID))
	assert.True(t, access.suspended[removed.ID])
}

func TestUserService_SelfActionsRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, admin := newUserFixture()

	_, err := svc.ToggleStatus(ctx, admin, admin.UserID)
	assert.ErrorIs(t, err, ErrSelfAction)
	assert.ErrorIs(t, svc.Delete(ctx, admin, admin.UserID), ErrSelfAction)
}

func TestUserService_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	svc, store, admin := newUserFixture()
	target := store.users[0]

	phone := " +62 811 "
	dob := "2012-04-01"
	u, err := svc.Update(ctx, admin.SchoolID, target.ID, &model.UpdateUserRequest{Phone: &phone, DateOfBirth: &dob})
	require.NoError(t, err)

	assert.Equal(t, "+62 811", u.Phone)
	assert.Equal(t, target.FirstName, u.FirstName)
	require.NotNil(t, u.DateOfBirth)
	assert.Equal(t, "2012-04-01", u.DateOfBirth.Format("2006-01-02"))
}

func TestParseExportFields(t *testing.T) {
	fields, err := ParseExportFields("")
	require.NoError(t, err)
	assert.Equal(t, DefaultExportFields, fields)

	fields, err = ParseExportFields("email, xp,email")
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "xp"}, fields)

	_, err = ParseExportFields("password_hash")
	assert.Error(t, err)
}

func TestExportThenReadImportRows(t *testing.T) {
	users := directory()[:3]

	var buf bytes.Buffer
	require.NoError(t, WriteUsersXLSX(&buf, users, []string{"email", "first_name", "last_name", "role", "grade_level", "xp"}))

	rows, rejected, err := ReadImportRows(&buf)
	require.NoError(t, err)
	assert.Empty(t, rejected)
	require.Len(t, rows, 3)
	assert.Equal(t, users[0].Email, rows[0].Email)
	assert.Equal(t, model.RoleTeacher, rows[2].Role)
	assert.Equal(t, "Grade 10", rows[0].GradeLevel)
	assert.Equal(t, 2, rows[0].Line)
}

func importSheet(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestReadImportRows_RejectsBadRowsAndHeaders(t *testing.T) {
	buf := importSheet(t, [][]any{
		{"Role", "EMAIL", "First_Name", "Last_Name"},
		{"student", "new@school.test", "Nia", "Putri"},
		{"student", "not-an-email", "Bad", "Row"},
		{"janitor", "x@school.test", "Odd", "Role"},
		{"", "", "", ""},
	})

	rows, rejected, err := ReadImportRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new@school.test", rows[0].Email)
	require.Len(t, rejected, 2)
	assert.Equal(t, 3, rejected[0].Line)
	assert.Equal(t, 4, rejected[1].Line)

	_, _, err = ReadImportRows(importSheet(t, [][]any{{"email", "first_name"}}))
	assert.ErrorIs(t, err, ErrSpreadsheetInvalid)

	_, _, err = ReadImportRows(strings.NewReader("not a workbook"))
	assert.ErrorIs(t, err, ErrSpreadsheetInvalid)
}

func TestReadImportRows_RejectsMalformedEmails(t *testing.T) {
	buf := importSheet(t, [][]any{
		{"email", "first_name", "last_name", "role"},
		{"@", "Ayu", "Lestari", "student"},
		{"x@ y", "Budi", "Santoso", "student"},
		{"citra@school.test", "Citra", "Dewi", "student"},
	})

	rows, rejected, err := ReadImportRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "citra@school.test", rows[0].Email)
	require.Len(t, rejected, 2)
	for _, r := range rejected {
		assert.Equal(t, "invalid email", r.Reason)
	}
	assert.Equal(t, 2, rejected[0].Line)
	assert.Equal(t, 3, rejected[1].Line)
}

func TestUserService_ImportSkipsExisting(t *testing.T) {
	ctx := context.Background()
	svc, store, admin := newUserFixture()

	buf := importSheet(t, [][]any{
		{"email", "first_name", "last_name", "role"},
		{"ana@school.test", "Ana", "Lee", "student"},
		{"new@school.test", "Nia", "Putri", "student"},
		{"bad", "Bad", "Row", "student"},
	})

	res, err := svc.Import(ctx, admin.SchoolID, buf)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Skipped)
	assert.Len(t, res.Errors, 1)

	created, err := store.GetByEmail(ctx, "new@school.test")
	require.NoError(t, err)
	assert.Equal(t, admin.SchoolID, created.SchoolID)
	assert.True(t, strings.HasPrefix(created.PasswordHash, "hashed:"))
}
