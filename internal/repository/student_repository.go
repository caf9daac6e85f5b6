package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/portal-colegio-api/internal/models"
)

const studentColumns = `s.id, s.full_name, s.google_email, s.status, s.created_at, s.updated_at`

// StudentRepository manages persistence for student records and parent links.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ParentID != nil {
		base += " JOIN parent_students ps ON ps.student_id = s.id"
		conditions = append(conditions, fmt.Sprintf("ps.parent_id = $%d", len(args)+1))
		args = append(args, *filter.ParentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(COALESCE(s.google_email, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "s.full_name",
		"status":     "s.status",
		"created_at": "s.created_at",
	}
	if sortBy == "" {
		sortBy = "full_name"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.full_name"
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
	if size <= 0 {
		size = 100
	}
	if size > maxListLimit {
		size = maxListLimit
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`, studentColumns, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT s.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	const query = `INSERT INTO students (full_name, google_email, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, student.FullName, student.GoogleEmail, student.Status, student.CreatedAt, student.UpdatedAt).Scan(&student.ID); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, google_email = :google_email, status = :status, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return expectAffected(result, "update student")
}

// Delete removes a student; links, invoices and procedures cascade.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return expectAffected(result, "delete student")
}

// StudentIDsForParent returns the ids of students linked to parentID.
func (r *StudentRepository) StudentIDsForParent(ctx context.Context, parentID int64) ([]int64, error) {
	const query = `SELECT student_id FROM parent_students WHERE parent_id = $1 ORDER BY student_id`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, parentID); err != nil {
		return nil, fmt.Errorf("list parent students: %w", err)
	}
	return ids, nil
}

// ListParents returns the parent links of a student.
func (r *StudentRepository) ListParents(ctx context.Context, studentID int64) ([]models.ParentLink, error) {
	const query = `SELECT parent_id, student_id, created_at FROM parent_students WHERE student_id = $1 ORDER BY parent_id`
	var links []models.ParentLink
	if err := r.db.SelectContext(ctx, &links, query, studentID); err != nil {
		return nil, fmt.Errorf("list student parents: %w", err)
	}
	return links, nil
}

// LinkParent binds a parent to a student. Linking twice is a no-op.
func (r *StudentRepository) LinkParent(ctx context.Context, parentID, studentID int64) error {
	const query = `INSERT INTO parent_students (parent_id, student_id, created_at) VALUES ($1, $2, $3)
ON CONFLICT (parent_id, student_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, parentID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("link parent: %w", err)
	}
	return nil
}

// UnlinkParent removes a parent-student link.
func (r *StudentRepository) UnlinkParent(ctx context.Context, parentID, studentID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parent_students WHERE parent_id = $1 AND student_id = $2`, parentID, studentID)
	if err != nil {
		return fmt.Errorf("unlink parent: %w", err)
	}
	return expectAffected(result, "unlink parent")
}

// maxListLimit caps unpaginated listings, reports included.
const maxListLimit = 5000

// expectAffected maps a zero-row write to sql.ErrNoRows.
func expectAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
