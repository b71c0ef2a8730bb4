package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"ideabridge.org/internal/market"
)

func TestSQLStoreSaveReplacesRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("delete from sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`insert into sessions\(id, token, user_json, saved_at\) values \(\$1, \$2, \$3, \$4\)`).
		WithArgs(sqlmock.AnyArg(), "tok-1", `{"id":3,"username":"kim","email":"","role":"investor","createdAt":"0001-01-01T00:00:00Z"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	st := NewSQLStore(db, "pgx")
	err = st.Save(context.Background(), Record{Token: "tok-1", User: market.User{ID: 3, Username: "kim", Role: market.RoleInvestor}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStoreLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	saved := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("select token, user_json, saved_at from sessions").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_json", "saved_at"}).
			AddRow("tok-2", `{"id":8,"role":"admin"}`, saved.Format(time.RFC3339Nano)))
	mock.ExpectQuery("select token, user_json, saved_at from sessions").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_json", "saved_at"}))

	st := NewSQLStore(db, "sqlite3")
	rec, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Token != "tok-2" || rec.User.ID != 8 || rec.User.Role != market.RoleAdmin || !rec.SavedAt.Equal(saved) {
		t.Fatalf("unexpected record %+v", rec)
	}

	if _, err := st.Load(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "nested", "session.db")
	ctx := context.Background()

	st, err := OpenStore(ctx, "sqlite3", dsn)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if _, err := st.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected empty store, got %v", err)
	}
	if err := st.Save(ctx, Record{Token: "a", User: market.User{ID: 1}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Save(ctx, Record{Token: "b", User: market.User{ID: 2, Role: market.RoleIdeaGenerator}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenStore(ctx, "sqlite3", dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	rec, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Token != "b" || rec.User.ID != 2 {
		t.Fatalf("expected latest record, got %+v", rec)
	}
	if err := reopened.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := reopened.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected cleared store, got %v", err)
	}
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenStore(context.Background(), "mongo", "x"); err == nil {
		t.Fatalf("expected error")
	}
}
