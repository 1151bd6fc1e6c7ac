// Package repair parses repair command flags and launches one consistency
// repair pass.
package repair

import (
	"context"
	"flag"

	entrypoint "github.com/fieldcount/roster/internal/platform/cmd"
	"github.com/fieldcount/roster/internal/services/roster/app"
)

// Config holds repair command configuration.
type Config struct {
	DBPath string `env:"FIELDCOUNT_REPAIR_DB_PATH" envDefault:"data/roster.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The roster SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes one repair pass with telemetry configured.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRepair, func(ctx context.Context) error {
		return app.RunRepair(ctx, app.RepairConfig{DBPath: cfg.DBPath})
	})
}
