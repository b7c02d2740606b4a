package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusplan/scheduler-api/internal/models"
)

// SectionRepository manages persistence for course sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs a SectionRepository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionColumns = `id, course_code, course_name, label, year_level, student_count, lecture_hours, lab_hours,
lecture_features, lab_features, term_id, faculty_id, created_at, updated_at`

// List returns sections matching filters along with total count.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, int, error) {
	base := "FROM sections WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.FacultyID != "" {
		conditions = append(conditions, fmt.Sprintf("faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.YearLevel > 0 {
		conditions = append(conditions, fmt.Sprintf("year_level = $%d", len(args)+1))
		args = append(args, filter.YearLevel)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(course_code) LIKE $%d OR LOWER(course_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "course_code"
	}
	allowedSorts := map[string]string{
		"course_code":   "course_code",
		"year_level":    "year_level",
		"student_count": "student_count",
		"created_at":    "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "course_code"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, label ASC LIMIT %d OFFSET %d", sectionColumns, base, column, order, size, offset)
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sections: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}

	return sections, total, nil
}

// ListByTerm returns every section registered for the term.
func (r *SectionRepository) ListByTerm(ctx context.Context, termID string) ([]models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE term_id = $1 ORDER BY course_code, label", sectionColumns)
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, termID); err != nil {
		return nil, fmt.Errorf("list term sections: %w", err)
	}
	return sections, nil
}

// FindByID fetches a section by ID.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE id = $1", sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// Create inserts a section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now

	const query = `
INSERT INTO sections (id, course_code, course_name, label, year_level, student_count, lecture_hours, lab_hours,
lecture_features, lab_features, term_id, faculty_id, created_at, updated_at)
VALUES (:id, :course_code, :course_name, :label, :year_level, :student_count, :lecture_hours, :lab_hours,
:lecture_features, :lab_features, :term_id, :faculty_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("insert section: %w", err)
	}
	return nil
}

// Update persists mutable section fields.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `
UPDATE sections SET course_name = :course_name, label = :label, year_level = :year_level,
student_count = :student_count, lecture_hours = :lecture_hours, lab_hours = :lab_hours,
lecture_features = :lecture_features, lab_features = :lab_features, faculty_id = :faculty_id,
updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, section)
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("section rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a section.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sections WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("section rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
