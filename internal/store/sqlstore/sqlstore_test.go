package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/IgorAraujoV/agilean-core-api/internal/model"
	"github.com/IgorAraujoV/agilean-core-api/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func TestPlaceholders(t *testing.T) {
	for _, tc := range []struct {
		from, n int
		want    string
	}{
		{1, 1, "$1"},
		{1, 3, "$1, $2, $3"},
		{10, 2, "$10, $11"},
	} {
		if got := placeholders(tc.from, tc.n); got != tc.want {
			t.Errorf("placeholders(%d, %d) = %q, want %q", tc.from, tc.n, got, tc.want)
		}
	}
}

func TestParseURL(t *testing.T) {
	for _, tc := range []struct {
		url     string
		dialect Dialect
		dsn     string
		wantErr bool
	}{
		{"postgres://u:p@localhost/agl", Postgres, "postgres://u:p@localhost/agl", false},
		{"postgresql://localhost/agl", Postgres, "postgresql://localhost/agl", false},
		{"sqlite::memory:", SQLite, ":memory:", false},
		{"sqlite:///var/lib/agl.db", SQLite, "/var/lib/agl.db", false},
		{"sqlite://", "", "", true},
		{"mysql://localhost", "", "", true},
	} {
		d, dsn, err := parseURL(tc.url)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseURL(%q) err = %v, wantErr %v", tc.url, err, tc.wantErr)
			continue
		}
		if d != tc.dialect || dsn != tc.dsn {
			t.Errorf("parseURL(%q) = (%q, %q), want (%q, %q)", tc.url, d, dsn, tc.dialect, tc.dsn)
		}
	}
}

func TestScanHelpers(t *testing.T) {
	if nullDate(nil).Valid {
		t.Error("nullDate(nil) should be invalid")
	}
	d := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	if nd := nullDate(&d); !nd.Valid || nd.String != "2026-02-03" {
		t.Errorf("nullDate(d) = %v", nd)
	}
	got, err := parseNullDate(sql.NullString{String: "2026-02-03", Valid: true})
	if err != nil || got == nil || !got.Equal(d) {
		t.Errorf("parseNullDate = %v, %v", got, err)
	}
	if got, err := parseNullDate(sql.NullString{}); got != nil || err != nil {
		t.Errorf("parseNullDate(null) = %v, %v", got, err)
	}
	if nullString("").Valid {
		t.Error("nullString(\"\") should be invalid")
	}
}

func TestGetBuilding(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM buildings WHERE id = \\$1").WithArgs("bl-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "first_date"}).AddRow("bl-1", "Tower", "2026-01-05"))

	b, err := queries{db: db}.GetBuilding(context.Background(), "bl-1")
	if err != nil {
		t.Fatalf("GetBuilding: %v", err)
	}
	if b.Name != "Tower" || !b.FirstDate.Equal(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("GetBuilding = %+v", b)
	}
}

func TestGetBuilding_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM buildings WHERE id = \\$1").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	if _, err := (queries{db: db}).GetBuilding(context.Background(), "nope"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDeleteLink_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM links WHERE id = \\$1").WithArgs("lk-x").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := (queries{db: db}).DeleteLink(context.Background(), "lk-x"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDeleteStage_Order(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM links").WithArgs("st-a").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM precedences WHERE source_stage_id = \\$1 OR dest_stage_id = \\$1").WithArgs("st-a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM stages WHERE id = \\$1").WithArgs("st-a").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := (queries{db: db}).DeleteStage(context.Background(), "st-a"); err != nil {
		t.Fatalf("DeleteStage: %v", err)
	}
}

func TestCreatePackages_Batches(t *testing.T) {
	db, mock := newMockDB(t)
	pkgs := make([]*model.Package, packageInsertBatch+1)
	for i := range pkgs {
		pkgs[i] = &model.Package{ID: fmt.Sprintf("pk-%d", i), CrewID: "cr-a", SpaceID: "sp-1", StageID: "st-a", StartColumn: i, EndColumn: i}
	}
	mock.ExpectExec("INSERT INTO packages").WillReturnResult(sqlmock.NewResult(0, packageInsertBatch))
	mock.ExpectExec("INSERT INTO packages").
		WithArgs(fmt.Sprintf("pk-%d", packageInsertBatch), "cr-a", "sp-1", "st-a",
			packageInsertBatch, packageInsertBatch, 0, 0.0, 0.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := (queries{db: db}).CreatePackages(context.Background(), pkgs); err != nil {
		t.Fatalf("CreatePackages: %v", err)
	}
}

func TestDeleteHelpers_Batches(t *testing.T) {
	ids := make([]string, idBatch+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("pk-%d", i)
	}
	for _, tc := range []struct {
		name   string
		query  string
		delete func(q queries, ids []string) error
	}{
		{"packages", "DELETE FROM packages WHERE id IN", func(q queries, ids []string) error {
			return q.DeletePackages(context.Background(), ids)
		}},
		{"crews", "DELETE FROM crews WHERE id IN", func(q queries, ids []string) error {
			return q.DeleteCrews(context.Background(), ids)
		}},
		{"links", "DELETE FROM links WHERE source_package_id IN", func(q queries, ids []string) error {
			return q.DeleteLinksForPackages(context.Background(), ids)
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(tc.query).WillReturnResult(sqlmock.NewResult(0, idBatch))
			mock.ExpectExec(tc.query).WithArgs(fmt.Sprintf("pk-%d", idBatch)).
				WillReturnResult(sqlmock.NewResult(0, 1))

			if err := tc.delete(queries{db: db}, ids); err != nil {
				t.Fatalf("delete: %v", err)
			}
		})
	}
}

func TestDeleteHelpers_EmptyIsNoop(t *testing.T) {
	db, _ := newMockDB(t)
	q := queries{db: db}
	ctx := context.Background()
	if err := q.DeletePackages(ctx, nil); err != nil {
		t.Errorf("DeletePackages(nil) = %v", err)
	}
	if err := q.DeleteCrews(ctx, nil); err != nil {
		t.Errorf("DeleteCrews(nil) = %v", err)
	}
	if err := q.DeleteLinksForPackages(ctx, nil); err != nil {
		t.Errorf("DeleteLinksForPackages(nil) = %v", err)
	}
}

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM links WHERE source_package_id IN \\(\\$1\\)").WithArgs("pk-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		if err := tx.DeleteLinksForPackages(context.Background(), []string{"pk-1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTransaction err = %v, want boom", err)
	}
}

func TestRunInTransaction_Commits(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE crews SET position = \\$2 WHERE id = \\$1").WithArgs("cr-a", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.RunInTransaction(context.Background(), func(inner store.Store) error {
			return inner.UpdateCrewPositions(context.Background(), []*model.Crew{{ID: "cr-a", Position: 3}})
		})
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
}
