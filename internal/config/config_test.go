package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseJournalMode(t *testing.T) {
	tests := []struct {
		input string
		want  JournalMode
	}{
		{"wal", JournalWAL},
		{"WAL", JournalWAL},
		{"delete", JournalDelete},
		{"truncate", JournalTruncate},
		{"persist", JournalPersist},
		{"memory", JournalMemory},
		{"off", JournalOff},
		{"invalid", JournalWAL}, // Default
		{"", JournalWAL},        // Default
	}

	for _, tt := range tests {
		if got := ParseJournalMode(tt.input); got != tt.want {
			t.Errorf("ParseJournalMode(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestJournalModeValid(t *testing.T) {
	tests := []struct {
		mode  JournalMode
		valid bool
	}{
		{JournalWAL, true},
		{"delete", true},
		{JournalOff, true},
		{"bogus", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.mode.Valid(); got != tt.valid {
			t.Errorf("JournalMode(%q).Valid() = %v, want %v", tt.mode, got, tt.valid)
		}
	}

	if JournalOff.Rollback() {
		t.Error("journal_mode OFF cannot roll back")
	}
	if !JournalWAL.Rollback() {
		t.Error("journal_mode WAL should roll back")
	}
}

func TestPragmas(t *testing.T) {
	db := DatabaseConfig{
		JournalMode: JournalDelete,
		BusyTimeout: Duration(2 * time.Second),
		ForeignKeys: true,
	}

	got := strings.Join(db.Pragmas(), ",")
	want := "journal_mode(DELETE),busy_timeout(2000),foreign_keys(1)"
	if got != want {
		t.Errorf("Pragmas() = %s, want %s", got, want)
	}

	got = strings.Join(DatabaseConfig{}.Pragmas(), ",")
	if got != "journal_mode(WAL)" {
		t.Errorf("Pragmas() on zero config = %s, want journal_mode(WAL)", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Database.Path != DefaultDatabasePath {
		t.Errorf("Database.Path = %s, want %s", cfg.Database.Path, DefaultDatabasePath)
	}
	if cfg.Database.JournalMode != JournalWAL {
		t.Errorf("JournalMode = %s, want %s", cfg.Database.JournalMode, JournalWAL)
	}
	if cfg.Storage.DefaultLimit != 100 {
		t.Errorf("DefaultLimit = %d, want 100", cfg.Storage.DefaultLimit)
	}
	if cfg.Storage.UpdateLimit != 1 {
		t.Errorf("UpdateLimit = %d, want 1", cfg.Storage.UpdateLimit)
	}
	if got := cfg.Storage.TableName("Person"); got != "DATA_Person_TABLE" {
		t.Errorf("TableName(Person) = %s, want DATA_Person_TABLE", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Database.Path = "orm.db"
	cfg.Database.JournalMode = JournalTruncate
	cfg.Database.BusyTimeout = Duration(750 * time.Millisecond)
	cfg.Storage.DefaultLimit = 25
	cfg.Storage.TablePrefix = "T_"
	cfg.Storage.TableSuffix = ""
	cfg.Logging.Format = "zerolog"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}

	if loaded.Database.JournalMode != JournalTruncate {
		t.Errorf("JournalMode = %s, want %s", loaded.Database.JournalMode, JournalTruncate)
	}
	if loaded.Database.BusyTimeout.Duration() != 750*time.Millisecond {
		t.Errorf("BusyTimeout = %s, want 750ms", loaded.Database.BusyTimeout.Duration())
	}
	if loaded.Storage.DefaultLimit != 25 {
		t.Errorf("DefaultLimit = %d, want 25", loaded.Storage.DefaultLimit)
	}
	if got := loaded.Storage.TableName("Person"); got != "T_Person" {
		t.Errorf("TableName(Person) = %s, want T_Person", got)
	}
	if loaded.Logging.Format != "zerolog" {
		t.Errorf("Logging.Format = %s, want zerolog", loaded.Logging.Format)
	}
	if got := loaded.DatabasePath(path); got != filepath.Join(tmpDir, "nested", "orm.db") {
		t.Errorf("DatabasePath() = %s, want path next to config", got)
	}
}

func TestLoadFromPathRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("database:\n  journal_mode: sideways\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := LoadFromPath(configPath); err == nil {
		t.Error("LoadFromPath() should reject an unknown journal_mode")
	}

	if err := os.WriteFile(configPath, []byte("database:\n  busy_timeout: soon\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadFromPath(configPath); err == nil {
		t.Error("LoadFromPath() should reject an unparsable duration")
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	t.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	// Should find config in working directory
	found := FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should find config in working directory")
	}

	// Explicit path doesn't exist, should fall back
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	found = FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should fall back when env path doesn't exist")
	}

	// Explicit path exists, should win
	explicit := filepath.Join(tmpDir, "explicit.yaml")
	if err := cfg.Save(explicit); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	t.Setenv(EnvConfigPath, explicit)
	if found = FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := DefaultConfig()

	t.Setenv(EnvDatabasePath, "")
	if got := cfg.DatabasePath(""); got != DefaultDatabasePath {
		t.Errorf("DatabasePath() = %s, want %s", got, DefaultDatabasePath)
	}

	cfg.Database.Path = ":memory:"
	if got := cfg.DatabasePath("/etc/sqliteorm/config.yaml"); got != ":memory:" {
		t.Errorf("DatabasePath() = %s, want :memory:", got)
	}

	t.Setenv(EnvDatabasePath, "/tmp/override.db")
	if got := cfg.DatabasePath("/etc/sqliteorm/config.yaml"); got != "/tmp/override.db" {
		t.Errorf("DatabasePath() = %s, want env override", got)
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	// Test YAML marshaling
	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}
