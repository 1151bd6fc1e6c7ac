package repair

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("repair", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.DBPath != "data/roster.db" {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, "data/roster.db")
	}
}

func TestParseConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("FIELDCOUNT_REPAIR_DB_PATH", "/var/lib/roster.db")

	fs := flag.NewFlagSet("repair", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db-path", "/tmp/roster.db"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.DBPath != "/tmp/roster.db" {
		t.Fatalf("DBPath = %q, want the flag to win", cfg.DBPath)
	}
}
