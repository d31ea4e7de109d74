package service

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/stemsi/schoolhub-backend/internal/model"
)

// UserQuery is the admin directory query. Filters are conjunctive, so their
// application order never changes the result.
type UserQuery struct {
	Search  string `form:"search" binding:"max=200"`
	Role    string `form:"role" binding:"omitempty,oneof=all student teacher parent admin"`
	Grade   string `form:"grade" binding:"max=50"`
	Class   string `form:"class" binding:"max=100"`
	Status  string `form:"status" binding:"omitempty,oneof=all active inactive"`
	Sort    string `form:"sort" binding:"omitempty,oneof=name email role created_at xp level"`
	Order   string `form:"order" binding:"omitempty,oneof=asc desc"`
	GroupBy string `form:"group_by" binding:"omitempty,oneof=grade class role"`
	Page    int    `form:"page" binding:"omitempty,min=1,max=100000"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=500"`
}

// UserFilter is a single predicate over users.
type UserFilter func(*model.User) bool

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

// SearchFilter matches name, email, grade or class case-insensitively.
func SearchFilter(term string) UserFilter {
	q := strings.ToLower(strings.TrimSpace(term))
	return func(u *model.User) bool {
		if q == "" {
			return true
		}
		for _, field := range []string{u.FullName(), u.Email, u.GradeLevel, u.ClassName} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
}

// RoleFilter matches one role, or any for "all".
func RoleFilter(role string) UserFilter {
	return func(u *model.User) bool { return isAll(role) || string(u.Role) == role }
}

// GradeFilter matches one grade level, or any for "all".
func GradeFilter(grade string) UserFilter {
	return func(u *model.User) bool { return isAll(grade) || u.GradeLevel == grade }
}

// ClassFilter matches one class name, or any for "all".
func ClassFilter(class string) UserFilter {
	return func(u *model.User) bool { return isAll(class) || u.ClassName == class }
}

// StatusFilter matches one account status, or any for "all".
func StatusFilter(status string) UserFilter {
	return func(u *model.User) bool { return isAll(status) || string(u.Status) == status }
}

// Filters returns the query's predicates.
func (q UserQuery) Filters() []UserFilter {
	return []UserFilter{
		SearchFilter(q.Search),
		RoleFilter(q.Role),
		GradeFilter(q.Grade),
		ClassFilter(q.Class),
		StatusFilter(q.Status),
	}
}

// ApplyFilters keeps the users matching every filter, preserving order.
func ApplyFilters(users []model.User, filters ...UserFilter) []model.User {
	out := make([]model.User, 0, len(users))
next:
	for i := range users {
		for _, f := range filters {
			if !f(&users[i]) {
				continue next
			}
		}
		out = append(out, users[i])
	}
	return out
}

// SortUsers sorts in place by the given key. Unknown keys sort by created_at.
func SortUsers(users []model.User, key, order string) {
	desc := order == "desc"
	slices.SortStableFunc(users, func(a, b model.User) int {
		var c int
		switch key {
		case "name":
			c = cmp.Compare(strings.ToLower(a.FullName()), strings.ToLower(b.FullName()))
		case "email":
			c = cmp.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
		case "role":
			c = cmp.Compare(a.Role, b.Role)
		case "xp":
			c = cmp.Compare(a.XP, b.XP)
		case "level":
			c = cmp.Compare(a.Level, b.Level)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if desc {
			return -c
		}
		return c
	})
}

const (
	noGradeKey = "No Grade"
	noClassKey = "No Class"
)

var firstInt = regexp.MustCompile(`\d+`)

// gradeOrder extracts the first integer of a grade label; labels without one
// sort after every numbered grade.
func gradeOrder(key string) int {
	m := firstInt.FindString(key)
	if m == "" {
		return math.MaxInt
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return math.MaxInt
	}
	return n
}

func roleGroupKey(r model.Role) string {
	s := string(r)
	if s == "" {
		return "Others"
	}
	return strings.ToUpper(s[:1]) + s[1:] + "s"
}

// GroupUsers buckets users by grade, class or role. Users keep their relative
// order inside a group.
func GroupUsers(users []model.User, by string) []model.UserGroup {
	keyOf := func(u *model.User) string {
		switch by {
		case "grade":
			if u.GradeLevel == "" {
				return noGradeKey
			}
			return u.GradeLevel
		case "class":
			if u.ClassName == "" {
				return noClassKey
			}
			return u.ClassName
		default:
			return roleGroupKey(u.Role)
		}
	}

	index := make(map[string]int)
	groups := make([]model.UserGroup, 0)
	for i := range users {
		k := keyOf(&users[i])
		pos, ok := index[k]
		if !ok {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, model.UserGroup{Key: k, Users: make([]model.User, 0)})
		}
		groups[pos].Users = append(groups[pos].Users, users[i])
	}

	slices.SortStableFunc(groups, func(a, b model.UserGroup) int {
		if by == "grade" {
			if c := cmp.Compare(gradeOrder(a.Key), gradeOrder(b.Key)); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return groups
}

// activeWindow is how recent an update or creation must be to count as active.
const activeWindow = 7 * 24 * time.Hour

// IsActive reports whether the user counts as engaged at now.
func IsActive(u *model.User, now time.Time) bool {
	if u.XP > 0 {
		return true
	}
	cutoff := now.Add(-activeWindow)
	return u.UpdatedAt.After(cutoff) || u.CreatedAt.After(cutoff)
}

// ComputeUserStats builds the dashboard counters.
func ComputeUserStats(users []model.User, now time.Time) model.UserStats {
	var st model.UserStats
	st.Total = len(users)

	y, m, _ := now.Date()
	since := time.Date(y, m-1, 1, 0, 0, 0, 0, now.Location())

	var studentXP int
	for i := range users {
		u := &users[i]
		switch u.Role {
		case model.RoleStudent:
			st.Students++
			studentXP += u.XP
		case model.RoleTeacher:
			st.Teachers++
		case model.RoleParent:
			st.Parents++
		case model.RoleAdmin:
			st.Admins++
		}
		if IsActive(u, now) {
			st.Active++
		}
		if !u.CreatedAt.Before(since) {
			st.NewThisMonth++
		}
	}
	st.Inactive = st.Total - st.Active

	if st.Total > 0 {
		st.EngagementRate = int(math.Round(float64(st.Active) / float64(st.Total) * 100))
	}
	if st.Students > 0 {
		st.AverageXP = int(math.Round(float64(studentXP) / float64(st.Students)))
	}
	st.TopPerformers = min(5, st.Students)
	return st
}

// UserFacets are the distinct values offered by the directory filters.
type UserFacets struct {
	Grades  []string `json:"grades"`
	Classes []string `json:"classes"`
}

// ComputeFacets collects sorted distinct non-empty grades and classes.
func ComputeFacets(users []model.User) UserFacets {
	grades := make([]string, 0)
	classes := make([]string, 0)
	for i := range users {
		if g := users[i].GradeLevel; g != "" && !slices.Contains(grades, g) {
			grades = append(grades, g)
		}
		if c := users[i].ClassName; c != "" && !slices.Contains(classes, c) {
			classes = append(classes, c)
		}
	}
	slices.SortFunc(grades, func(a, b string) int {
		if c := cmp.Compare(gradeOrder(a), gradeOrder(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	slices.Sort(classes)
	return UserFacets{Grades: grades, Classes: classes}
}
