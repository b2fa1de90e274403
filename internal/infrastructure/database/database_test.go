package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen(t *testing.T) {
	t.Run("creates nested directory and file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

		db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != dbPath {
			t.Errorf("Path() = %v, want %v", db.Path(), dbPath)
		}
	})

	t.Run("rejects empty path", func(t *testing.T) {
		if _, err := Open(Config{}); err == nil {
			t.Error("Open() expected error for empty path")
		}
	})

	t.Run("single connection pool", func(t *testing.T) {
		db := openTestDB(t)
		if got := db.Stats().MaxOpenConnections; got != 1 {
			t.Errorf("MaxOpenConnections = %d, want 1", got)
		}
	})

	t.Run("foreign keys disabled", func(t *testing.T) {
		db := openTestDB(t)
		var on int
		if err := db.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&on); err != nil {
			t.Fatalf("PRAGMA error = %v", err)
		}
		if on != 0 {
			t.Errorf("foreign_keys = %d, want 0", on)
		}
	})
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	db.Close() //nolint:errcheck // Forcing failure
	if err := db.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() on closed DB expected error")
	}
}

func TestClose(t *testing.T) {
	db := openTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}
}

func TestBeginTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE tx_test (id INTEGER PRIMARY KEY, value TEXT) STRICT"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}

	for _, commit := range []bool{true, false} {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx() error = %v", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO tx_test (value) VALUES (?)", "row"); err != nil {
			t.Fatalf("INSERT error = %v", err)
		}
		if commit {
			err = tx.Commit()
		} else {
			err = tx.Rollback()
		}
		if err != nil {
			t.Fatalf("finishing tx (commit=%v) error = %v", commit, err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tx_test").Scan(&count); err != nil {
		t.Fatalf("SELECT error = %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 committed row, got %d", count)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE uniq (email TEXT NOT NULL UNIQUE) STRICT"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO uniq (email) VALUES (?)", "a@example.com"); err != nil {
		t.Fatalf("first INSERT error = %v", err)
	}

	_, err := db.ExecContext(ctx, "INSERT INTO uniq (email) VALUES (?)", "a@example.com")
	if err == nil {
		t.Fatal("second INSERT expected UNIQUE failure")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}

	_, err = db.ExecContext(ctx, "INSERT INTO uniq (email) VALUES (NULL)")
	if err == nil {
		t.Fatal("NULL INSERT expected NOT NULL failure")
	}
	if IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = true for NOT NULL failure", err)
	}
	if IsUniqueViolation(nil) {
		t.Error("IsUniqueViolation(nil) = true")
	}
}

func TestFormatParseTime(t *testing.T) {
	in := time.Date(2026, 3, 1, 12, 30, 45, 123456789, time.FixedZone("CET", 3600))

	s := FormatTime(in)
	if s != "2026-03-01T11:30:45.123456789Z" {
		t.Errorf("FormatTime() = %q", s)
	}
	whole := time.Date(2026, 3, 1, 11, 30, 45, 0, time.UTC)
	if got := FormatTime(whole); got != "2026-03-01T11:30:45.000000000Z" {
		t.Errorf("FormatTime(whole second) = %q", got)
	}
	if got := ParseTime(s); !got.Equal(in) {
		t.Errorf("ParseTime(FormatTime()) = %v, want %v", got, in)
	}
	if got := ParseTime("garbage"); !got.IsZero() {
		t.Errorf("ParseTime(garbage) = %v, want zero", got)
	}
}

func TestFormatTime_SortsInTimeOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(time.Nanosecond),
		base.Add(100 * time.Millisecond),
		base.Add(time.Second),
	}
	for i := 1; i < len(times); i++ {
		prev, cur := FormatTime(times[i-1]), FormatTime(times[i])
		if len(prev) != len(cur) {
			t.Errorf("FormatTime widths differ: %q vs %q", prev, cur)
		}
		if prev >= cur {
			t.Errorf("FormatTime(%v) = %q sorts after FormatTime(%v) = %q", times[i-1], prev, times[i], cur)
		}
		if got := ParseTime(cur); !got.Equal(times[i]) {
			t.Errorf("ParseTime(%q) = %v, want %v", cur, got, times[i])
		}
	}
}

func TestFormatTime_OrderByInStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `CREATE TABLE stamps (id TEXT, at TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	base := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	rows := []struct {
		id string
		at time.Time
	}{
		{"late", base.Add(time.Second)},
		{"whole", base},
		{"fraction", base.Add(100 * time.Millisecond)},
	}
	for _, r := range rows {
		if _, err := db.ExecContext(ctx, `INSERT INTO stamps (id, at) VALUES (?, ?)`, r.id, FormatTime(r.at)); err != nil {
			t.Fatalf("insert %s: %v", r.id, err)
		}
	}

	res, err := db.QueryContext(ctx, `SELECT id FROM stamps ORDER BY at`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer res.Close()
	var got []string
	for res.Next() {
		var id string
		if err := res.Scan(&id); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, id)
	}
	if err := res.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	want := []string{"whole", "fraction", "late"}
	if len(got) != len(want) {
		t.Fatalf("ORDER BY at = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ORDER BY at = %v, want %v", got, want)
			break
		}
	}
}

func TestNullStringAndBoolToInt(t *testing.T) {
	if ns := NullString(""); ns.Valid {
		t.Error("NullString(\"\").Valid = true")
	}
	if ns := NullString("x"); !ns.Valid || ns.String != "x" {
		t.Errorf("NullString(\"x\") = %+v", ns)
	}
	if BoolToInt(true) != 1 || BoolToInt(false) != 0 {
		t.Error("BoolToInt mapping wrong")
	}
}

// openTestDB creates a temporary database closed at test end.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	return db
}
