package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/good-deeds/board/internal/apperr"
	"github.com/good-deeds/board/internal/models"
	"github.com/good-deeds/board/internal/service"
)

var _ service.Store = (*Store)(nil)

func lockedMarkerRow(id, owner int) *sqlmock.Rows {
	return sqlmock.NewRows(markerRowColumns).AddRow(
		id, owner, "alice", "help", "", "Алматы",
		time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), "t.me/x", 43.24, 76.89, time.Now())
}

func TestStore_CreateMarker_WritesAuditInSameTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	owner := 7
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO markers`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(12, time.Now()))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(7, models.AuditCreate, models.ResourceMarker, 12, "Алматы").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	m := &models.Marker{UserID: &owner, HelpNeeded: "help", LocationText: "Алматы", Deadline: models.NewDate(2099, 1, 1), Contact: "c"}
	if err := NewStore(db).CreateMarker(context.Background(), m); err != nil {
		t.Fatalf("CreateMarker: %v", err)
	}
	if m.ID != 12 {
		t.Errorf("expected id 12, got %d", m.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_UpdateMarker_LocksThenWrites(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE m.id = \$1 FOR UPDATE OF m`).WithArgs(5).WillReturnRows(lockedMarkerRow(5, 7))
	mock.ExpectExec(`UPDATE markers`).
		WithArgs("new help", "", "Алматы", "2099-01-01", "t.me/x", 43.24, 76.89, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(7, models.AuditUpdate, models.ResourceMarker, 5, "Алматы").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	m, err := NewStore(db).UpdateMarker(context.Background(), 5, func(m *models.Marker) error {
		m.HelpNeeded = "new help"
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateMarker: %v", err)
	}
	if m.HelpNeeded != "new help" {
		t.Errorf("unexpected marker: %+v", m)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_UpdateMarker_CallbackErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE OF m`).WithArgs(5).WillReturnRows(lockedMarkerRow(5, 7))
	mock.ExpectRollback()

	_, err = NewStore(db).UpdateMarker(context.Background(), 5, func(m *models.Marker) error {
		return apperr.ErrForbidden
	})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_DeleteMarker_RemovesCommentsFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE OF m`).WithArgs(5).WillReturnRows(lockedMarkerRow(5, 7))
	mock.ExpectExec(`DELETE FROM comments WHERE marker_id = \$1`).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM markers WHERE id = \$1`).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(7, models.AuditDelete, models.ResourceMarker, 5, "comments removed: 2").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = NewStore(db).DeleteMarker(context.Background(), 5, func(m *models.Marker) error { return nil })
	if err != nil {
		t.Fatalf("DeleteMarker: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_DeleteMarker_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE OF m`).WithArgs(99).WillReturnRows(sqlmock.NewRows(markerRowColumns))
	mock.ExpectRollback()

	called := false
	err = NewStore(db).DeleteMarker(context.Background(), 99, func(m *models.Marker) error { called = true; return nil })
	if !errors.Is(err, apperr.ErrNotFound) || called {
		t.Fatalf("expected ErrNotFound without calling check, got err=%v called=%v", err, called)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_CreateComment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM markers WHERE id = \$1 FOR KEY SHARE`).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO comments \(marker_id, user_id, text\)`).
		WithArgs(5, 7, "могу помочь").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(40, time.Now()))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(7, models.AuditCreate, models.ResourceComment, 40, "marker 5").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	c := &models.Comment{MarkerID: 5, UserID: 7, Text: "могу помочь"}
	if err := NewStore(db).CreateComment(context.Background(), c); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if c.ID != 40 {
		t.Errorf("expected id 40, got %d", c.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_CreateComment_UnknownMarker(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR KEY SHARE`).WithArgs(8).WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectRollback()

	err = NewStore(db).CreateComment(context.Background(), &models.Comment{MarkerID: 8, UserID: 7, Text: "x"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStore_CommentsByMarker(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM comments c\s+JOIN users u ON u.id = c.user_id\s+WHERE c.marker_id = \$1\s+ORDER BY c.created_at, c.id`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "marker_id", "user_id", "username", "text", "created_at"}).
			AddRow(1, 5, 7, "alice", "first", now).
			AddRow(2, 5, 8, "bob", "second", now.Add(time.Minute)))

	got, err := NewStore(db).CommentsByMarker(context.Background(), 5)
	if err != nil {
		t.Fatalf("CommentsByMarker: %v", err)
	}
	if len(got) != 2 || got[0].Text != "first" || got[1].Username != "bob" {
		t.Errorf("unexpected comments: %+v", got)
	}
}
