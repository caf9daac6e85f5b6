package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-colegio-api/internal/models"
)

var studentRowColumns = []string{"id", "full_name", "google_email", "status", "created_at", "updated_at"}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentRowColumns).
		AddRow(int64(1), "Student", "student@colegio.test", "VIGENTE", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id, s.full_name, s.google_email, s.status, s.created_at, s.updated_at FROM students s WHERE 1=1 ORDER BY s.full_name ASC LIMIT 100 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT s.id) FROM students s WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, models.StudentStatusActive, students[0].Status)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListForParent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	parentID := int64(10)
	mock.ExpectQuery(regexp.QuoteMeta("FROM students s JOIN parent_students ps ON ps.student_id = s.id WHERE 1=1 AND ps.parent_id = $1 AND s.status = $2")).
		WithArgs(parentID, models.StudentStatusLate).
		WillReturnRows(sqlmock.NewRows(studentRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT s.id)")).
		WithArgs(parentID, models.StudentStatusLate).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.StudentFilter{ParentID: &parentID, Status: models.StudentStatusLate})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("INSERT INTO students").
		WithArgs("Student", sqlmock.AnyArg(), models.StudentStatusActive, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	student := &models.Student{FullName: "Student"}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.Equal(t, int64(7), student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("DELETE FROM students").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryParentLinks(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO parent_students").
		WithArgs(int64(10), int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT student_id FROM parent_students").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow(int64(7)).AddRow(int64(9)))
	mock.ExpectExec("DELETE FROM parent_students").
		WithArgs(int64(10), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, repo.LinkParent(ctx, 10, 7))
	ids, err := repo.StudentIDsForParent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 9}, ids)
	require.NoError(t, repo.UnlinkParent(ctx, 10, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
