package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"sparks/internal/model"
	"sparks/internal/repository"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	chdir(t, t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DATABASE_PATH", dbPath)
	t.Setenv("SPARKS_CONFIG", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("LOG_LEVEL", "error")
	return dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	dbPath := setupEnv(t)
	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	if !strings.Contains(out, dbPath) {
		t.Errorf("output = %q", out)
	}
}

func TestCredit(t *testing.T) {
	dbPath := setupEnv(t)
	db, err := repository.NewDB(dbPath, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDB() error: %v", err)
	}
	users := repository.NewUserRepository(db)
	user := &model.User{TelegramID: 555, FirstName: "A", Gender: model.GenderCouple, IsActive: true}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	out, err := run(t, "credit", "--user", "555", "--sparks", "100", "--ton", "1.5", "--hash", "h1")
	if err != nil {
		t.Fatalf("credit error: %v", err)
	}
	if !strings.Contains(out, "balance 100") {
		t.Errorf("output = %q", out)
	}

	balance, err := users.Balance(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Balance() error: %v", err)
	}
	if balance != 100 {
		t.Errorf("balance = %d, want 100", balance)
	}

	if _, err := run(t, "credit", "--user", "555", "--sparks", "100", "--ton", "1.5", "--hash", "h1"); err == nil {
		t.Error("second credit with the same --hash accepted")
	}
	if balance, _ := users.Balance(context.Background(), user.ID); balance != 100 {
		t.Errorf("balance after repeated hash = %d, want 100", balance)
	}

	if _, err := run(t, "credit", "--user", "555", "--sparks", "10", "--ton", "-1"); err == nil {
		t.Error("negative --ton accepted")
	}
	if _, err := run(t, "credit", "--user", "999", "--sparks", "10", "--ton", ""); err == nil {
		t.Error("unknown user accepted")
	}
}

func TestResetDay(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "reset-day", "--date", "2025-06-01")
	if err != nil {
		t.Fatalf("reset-day error: %v", err)
	}
	if !strings.Contains(out, "reset 0 entitlement rows for 2025-06-01") {
		t.Errorf("output = %q", out)
	}

	if _, err := run(t, "reset-day", "--date", "01.06.2025"); err == nil {
		t.Error("bad date accepted")
	}
}
