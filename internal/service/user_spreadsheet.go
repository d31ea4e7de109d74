package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/validator"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Users"

// ExportFields is the catalogue of exportable columns in display order.
var ExportFields = []string{
	"id", "first_name", "last_name", "email", "role", "status", "grade_level", "class_name",
	"xp", "level", "gems", "current_streak", "phone", "created_at", "last_sign_in_at",
}

// DefaultExportFields is used when the caller selects nothing.
var DefaultExportFields = []string{"id", "first_name", "last_name", "email", "role", "created_at"}

// importHeader lists the columns an import sheet must carry.
var importHeader = []string{"email", "first_name", "last_name", "role", "grade_level"}

// ParseExportFields validates a comma-separated field list.
func ParseExportFields(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultExportFields, nil
	}
	fields := make([]string, 0)
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !slices.Contains(ExportFields, f) {
			return nil, fmt.Errorf("unknown export field %q", f)
		}
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return DefaultExportFields, nil
	}
	return fields, nil
}

func exportValue(u *model.User, field string) any {
	switch field {
	case "id":
		return u.ID.String()
	case "first_name":
		return u.FirstName
	case "last_name":
		return u.LastName
	case "email":
		return u.Email
	case "role":
		return string(u.Role)
	case "status":
		return string(u.Status)
	case "grade_level":
		return u.GradeLevel
	case "class_name":
		return u.ClassName
	case "xp":
		return u.XP
	case "level":
		return u.Level
	case "gems":
		return u.Gems
	case "current_streak":
		return u.CurrentStreak
	case "phone":
		return u.Phone
	case "created_at":
		return u.CreatedAt.UTC().Format("2006-01-02 15:04:05")
	case "last_sign_in_at":
		if u.LastSignInAt == nil {
			return ""
		}
		return u.LastSignInAt.UTC().Format("2006-01-02 15:04:05")
	}
	return ""
}

// WriteUsersXLSX renders users as a single-sheet workbook with the given columns.
func WriteUsersXLSX(w io.Writer, users []model.User, fields []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return err
	}

	header := make([]any, len(fields))
	for i, field := range fields {
		header[i] = field
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range users {
		row := make([]any, len(fields))
		for j, field := range fields {
			row[j] = exportValue(&users[i], field)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// Export renders the school's users, optionally limited to one role.
func (s *UserService) Export(ctx context.Context, schoolID uuid.UUID, fields []string, role string) ([]byte, error) {
	users, err := s.all(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	users = ApplyFilters(users, RoleFilter(role))
	SortUsers(users, "name", "asc")

	var buf bytes.Buffer
	if err := WriteUsersXLSX(&buf, users, fields); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportRow is one parsed user row of an import sheet.
type ImportRow struct {
	Line       int
	Email      string
	FirstName  string
	LastName   string
	Role       model.Role
	GradeLevel string
}

// ImportResult reports what an import did.
type ImportResult struct {
	Created int           `json:"created"`
	Skipped int           `json:"skipped"`
	Errors  []ImportError `json:"errors"`
}

// ImportError describes a rejected row.
type ImportError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ReadImportRows parses the first sheet of an xlsx upload. Header names are
// matched case-insensitively and may appear in any order.
func ReadImportRows(r io.Reader) ([]ImportRow, []ImportError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSpreadsheetInvalid, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, ErrSpreadsheetInvalid
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrSpreadsheetInvalid
	}

	col := make(map[string]int)
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range importHeader[:4] {
		if _, ok := col[h]; !ok {
			return nil, nil, fmt.Errorf("%w: missing %q", ErrSpreadsheetInvalid, h)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	parsed := make([]ImportRow, 0, len(rows)-1)
	var rejected []ImportError
	for i, row := range rows[1:] {
		line := i + 2
		ir := ImportRow{
			Line:       line,
			Email:      strings.ToLower(cell(row, "email")),
			FirstName:  cell(row, "first_name"),
			LastName:   cell(row, "last_name"),
			Role:       model.Role(strings.ToLower(cell(row, "role"))),
			GradeLevel: cell(row, "grade_level"),
		}
		if ir.Email == "" && ir.FirstName == "" && ir.LastName == "" {
			continue
		}
		switch {
		case validator.Var(ir.Email, "required,email") != nil:
			rejected = append(rejected, ImportError{Line: line, Reason: "invalid email"})
		case ir.FirstName == "":
			rejected = append(rejected, ImportError{Line: line, Reason: "first_name is required"})
		case !ir.Role.Valid():
			rejected = append(rejected, ImportError{Line: line, Reason: "unknown role " + strconv.Quote(string(ir.Role))})
		default:
			parsed = append(parsed, ir)
		}
	}
	return parsed, rejected, nil
}

// initialPassword generates a random password for imported accounts.
func initialPassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Import creates users from an xlsx upload. Existing emails are skipped.
func (s *UserService) Import(ctx context.Context, schoolID uuid.UUID, r io.Reader) (*ImportResult, error) {
	rows, rejected, err := ReadImportRows(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: rejected}
	if result.Errors == nil {
		result.Errors = []ImportError{}
	}
	result.Skipped = len(rejected)

	for _, row := range rows {
		password, err := initialPassword()
		if err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		u := &model.User{
			SchoolID:   schoolID,
			Email:      row.Email,
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			Role:       row.Role,
			Status:     model.UserStatusActive,
			GradeLevel: row.GradeLevel,
		}
		created, err := s.createImported(ctx, u, password)
		if err != nil {
			s.log.Error().Err(err).Int("line", row.Line).Msg("Import row failed")
			result.Skipped++
			result.Errors = append(result.Errors, ImportError{Line: row.Line, Reason: "could not be saved"})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	if result.Created > 0 {
		s.invalidate(ctx, schoolID)
	}
	s.log.Info().
		Str("school_id", schoolID.String()).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("User import complete")
	return result, nil
}
