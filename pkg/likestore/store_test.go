package likestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	steps := []struct {
		user      string
		liked     bool
		wantCount int
	}{
		{"1", true, 1},
		{"1", true, 1},
		{"2", true, 2},
		{"1", false, 1},
		{"1", false, 1},
		{"2", false, 0},
	}

	for i, step := range steps {
		got, err := s.Set(ctx, "portfolio", "12", step.user, step.liked)
		if err != nil {
			t.Fatalf("step %d: Set() error: %v", i, err)
		}
		if got != step.liked {
			t.Errorf("step %d: Set() = %v, want %v", i, got, step.liked)
		}
		n, err := s.Count(ctx, "portfolio", "12")
		if err != nil {
			t.Fatalf("step %d: Count() error: %v", i, err)
		}
		if n != step.wantCount {
			t.Errorf("step %d: Count() = %d, want %d", i, n, step.wantCount)
		}
	}
}

func TestLiked(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.Set(ctx, "community", "3", "1", true); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	tests := []struct {
		target, item, user string
		want               bool
	}{
		{"community", "3", "1", true},
		{"community", "3", "2", false},
		{"portfolio", "3", "1", false},
		{"community", "4", "1", false},
	}
	for _, tt := range tests {
		got, err := s.Liked(ctx, tt.target, tt.item, tt.user)
		if err != nil {
			t.Fatalf("Liked() error: %v", err)
		}
		if got != tt.want {
			t.Errorf("Liked(%s, %s, %s) = %v, want %v", tt.target, tt.item, tt.user, got, tt.want)
		}
	}
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "likes.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := s.Set(ctx, "portfolio", "1", "9", true); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s.Close()
	if liked, _ := s.Liked(ctx, "portfolio", "1", "9"); !liked {
		t.Error("like lost across reopen")
	}
}

func TestClosed(t *testing.T) {
	s := openTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if _, err := s.Set(context.Background(), "portfolio", "1", "1", true); !errors.Is(err, ErrClosed) {
		t.Errorf("Set() after Close error = %v, want ErrClosed", err)
	}
}

func TestPlaceholders(t *testing.T) {
	pg := New(nil, WithDialect(DialectPostgreSQL))
	if got := pg.placeholder(2); got != "$2" {
		t.Errorf("placeholder(2) = %q, want $2", got)
	}
	lite := New(nil)
	if got := lite.placeholder(2); got != "?" {
		t.Errorf("placeholder(2) = %q, want ?", got)
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn         string
		wantDriver  string
		wantSource  string
		wantDialect Dialect
	}{
		{":memory:", "sqlite", ":memory:", DialectSQLite},
		{"folio.db", "sqlite", "folio.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", DialectSQLite},
		{"folio.db?mode=ro", "sqlite", "folio.db?mode=ro", DialectSQLite},
		{"postgres://u:p@db/folio", "postgres", "postgres://u:p@db/folio", DialectPostgreSQL},
		{"postgresql://db/folio", "postgres", "postgresql://db/folio", DialectPostgreSQL},
		{"mysql://u:p@tcp(db:3306)/folio", "mysql", "u:p@tcp(db:3306)/folio", DialectMySQL},
	}
	for _, tt := range tests {
		driver, source, dialect := parseDSN(tt.dsn)
		if driver != tt.wantDriver || source != tt.wantSource || dialect != tt.wantDialect {
			t.Errorf("parseDSN(%q) = %q, %q, %v; want %q, %q, %v",
				tt.dsn, driver, source, dialect, tt.wantDriver, tt.wantSource, tt.wantDialect)
		}
	}
}
