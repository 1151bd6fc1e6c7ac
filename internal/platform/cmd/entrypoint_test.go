package cmd

import (
	"context"
	"flag"
	"fmt"
	"testing"
)

type envConfig struct {
	Interval string `env:"FIELDCOUNT_TEST_INTERVAL" envDefault:"15m"`
}

func TestParseConfig_LoadsEnvDefaults(t *testing.T) {
	var cfg envConfig
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Interval != "15m" {
		t.Fatalf("interval = %q, want %q", cfg.Interval, "15m")
	}
}

func TestParseConfig_RequiresTarget(t *testing.T) {
	if err := ParseConfig[envConfig](nil); err == nil {
		t.Fatal("expected error for nil config target")
	}
}

func TestParseArgs_NilArgsAreEmpty(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if err := ParseArgs(fs, nil); err != nil {
		t.Fatalf("parse args: %v", err)
	}
}

func TestParseArgs_RequiresFlagSet(t *testing.T) {
	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("expected error for nil flag set")
	}
}

func TestRunWithTelemetry_RequiresServiceName(t *testing.T) {
	err := RunWithTelemetry(context.Background(), "  ", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for empty service name")
	}
}

func TestRunWithTelemetry_RequiresRunFunc(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), ServiceReconciler, nil); err == nil {
		t.Fatal("expected error for nil run function")
	}
}

func TestRunWithTelemetry_PropagatesRunError(t *testing.T) {
	t.Setenv("FIELDCOUNT_OTEL_ENDPOINT", "")

	wantErr := fmt.Errorf("run failed")
	err := RunWithTelemetry(context.Background(), ServiceRepair, func(context.Context) error { return wantErr })
	if err == nil || err.Error() != wantErr.Error() {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
