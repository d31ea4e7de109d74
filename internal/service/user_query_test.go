package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

var queryNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func directory() []model.User {
	old := queryNow.AddDate(0, -6, 0)
	mk := func(first, last string, role model.Role, grade, class string, status model.UserStatus, xp int) model.User {
		return model.User{
			ID: uuid.New(), FirstName: first, LastName: last, Email: first + "@school.test",
			Role: role, GradeLevel: grade, ClassName: class, Status: status, XP: xp,
			CreatedAt: old, UpdatedAt: old,
		}
	}
	return []model.User{
		mk("ana", "lee", model.RoleStudent, "Grade 10", "10A", model.UserStatusActive, 120),
		mk("ben", "kim", model.RoleStudent, "Grade 9", "9B", model.UserStatusInactive, 0),
		mk("cara", "lee", model.RoleTeacher, "", "10A", model.UserStatusActive, 0),
		mk("dan", "ortiz", model.RoleParent, "", "", model.UserStatusActive, 0),
		mk("eve", "lee", model.RoleStudent, "Grade 10", "10B", model.UserStatusActive, 40),
		mk("finn", "ray", model.RoleAdmin, "", "", model.UserStatusActive, 0),
		mk("gus", "lee", model.RoleStudent, "Kindergarten", "", model.UserStatusActive, 0),
	}
}

func ids(users []model.User) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func permutations(fs []UserFilter) [][]UserFilter {
	if len(fs) <= 1 {
		return [][]UserFilter{fs}
	}
	var out [][]UserFilter
	for i := range fs {
		rest := make([]UserFilter, 0, len(fs)-1)
		rest = append(rest, fs[:i]...)
		rest = append(rest, fs[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]UserFilter{fs[i]}, p...))
		}
	}
	return out
}

func TestApplyFilters_OrderDoesNotMatter(t *testing.T) {
	users := directory()
	q := UserQuery{Search: "lee", Role: "student", Grade: "Grade 10", Class: "all", Status: "active"}
	want := ids(ApplyFilters(users, q.Filters()...))
	assert.Len(t, want, 2)

	for _, perm := range permutations(q.Filters()) {
		assert.Equal(t, want, ids(ApplyFilters(users, perm...)))
	}

	// Filtering step by step equals filtering at once.
	stepwise := users
	for _, f := range q.Filters() {
		stepwise = ApplyFilters(stepwise, f)
	}
	assert.Equal(t, want, ids(stepwise))
}

func TestSearchFilter(t *testing.T) {
	users := directory()

	assert.Len(t, ApplyFilters(users, SearchFilter("LEE")), 4)
	assert.Len(t, ApplyFilters(users, SearchFilter("9b")), 1)
	assert.Len(t, ApplyFilters(users, SearchFilter("grade 10")), 2)
	assert.Len(t, ApplyFilters(users, SearchFilter("  ")), len(users))
	assert.Empty(t, ApplyFilters(users, SearchFilter("zzz")))
}

func TestSortUsers(t *testing.T) {
	users := directory()

	SortUsers(users, "xp", "desc")
	assert.Equal(t, "ana", users[0].FirstName)
	assert.Equal(t, "eve", users[1].FirstName)

	SortUsers(users, "name", "asc")
	assert.Equal(t, "ana", users[0].FirstName)
	assert.Equal(t, "gus", users[len(users)-1].FirstName)
}

func TestGroupUsers_ByGrade(t *testing.T) {
	groups := GroupUsers(directory(), "grade")

	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"Grade 9", "Grade 10", "Kindergarten", "No Grade"}, keys)
	assert.Len(t, groups[1].Users, 2)
	assert.Len(t, groups[3].Users, 3)
}

func TestGroupUsers_ByRoleAndClass(t *testing.T) {
	byRole := GroupUsers(directory(), "role")
	keys := make([]string, 0, len(byRole))
	for _, g := range byRole {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"Admins", "Parents", "Students", "Teachers"}, keys)

	byClass := GroupUsers(directory(), "class")
	assert.Equal(t, "10A", byClass[0].Key)
	assert.Len(t, byClass[0].Users, 2)
	assert.Equal(t, "No Class", byClass[len(byClass)-1].Key)
}

func TestComputeUserStats(t *testing.T) {
	users := directory()
	users = append(users, model.User{
		ID: uuid.New(), Role: model.RoleTeacher, CreatedAt: queryNow.Add(-time.Hour), UpdatedAt: queryNow.Add(-time.Hour),
	})

	st := ComputeUserStats(users, queryNow)

	assert.Equal(t, 8, st.Total)
	assert.Equal(t, 4, st.Students)
	assert.Equal(t, 2, st.Teachers)
	assert.Equal(t, 1, st.Parents)
	assert.Equal(t, 1, st.Admins)
	// ana and eve earned XP, the new teacher joined this week.
	assert.Equal(t, 3, st.Active)
	assert.Equal(t, 5, st.Inactive)
	assert.Equal(t, 1, st.NewThisMonth)
	assert.Equal(t, 38, st.EngagementRate)
	assert.Equal(t, 40, st.AverageXP)
	assert.Equal(t, 4, st.TopPerformers)
}

func TestComputeUserStats_Empty(t *testing.T) {
	st := ComputeUserStats(nil, queryNow)
	assert.Zero(t, st.EngagementRate)
	assert.Zero(t, st.AverageXP)
}

func TestComputeFacets(t *testing.T) {
	f := ComputeFacets(directory())

	assert.Equal(t, []string{"Grade 9", "Grade 10", "Kindergarten"}, f.Grades)
	assert.Equal(t, []string{"10A", "10B", "9B"}, f.Classes)
}
