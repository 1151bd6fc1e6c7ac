// Package reconciler parses reconciler command flags and launches one
// reconciliation run.
package reconciler

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/fieldcount/roster/internal/platform/cmd"
	"github.com/fieldcount/roster/internal/services/roster/app"
)

// Config holds reconciler command configuration.
type Config struct {
	DBPath       string        `env:"FIELDCOUNT_RECONCILER_DB_PATH" envDefault:"data/roster.db"`
	Kind         string        `env:"FIELDCOUNT_RECONCILER_KIND" envDefault:"team_update"`
	SMTPAddr     string        `env:"FIELDCOUNT_RECONCILER_SMTP_ADDR"`
	SMTPFrom     string        `env:"FIELDCOUNT_RECONCILER_SMTP_FROM"`
	SMTPUsername string        `env:"FIELDCOUNT_RECONCILER_SMTP_USERNAME"`
	SMTPPassword string        `env:"FIELDCOUNT_RECONCILER_SMTP_PASSWORD"`
	SendTimeout  time.Duration `env:"FIELDCOUNT_RECONCILER_SEND_TIMEOUT" envDefault:"30s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The roster SQLite database path")
	fs.StringVar(&cfg.Kind, "kind", cfg.Kind, "Notification kind to reconcile (team_update or weekly_update)")
	fs.StringVar(&cfg.SMTPAddr, "smtp-addr", cfg.SMTPAddr, "SMTP endpoint host:port (empty for dry run)")
	fs.StringVar(&cfg.SMTPFrom, "smtp-from", cfg.SMTPFrom, "Sender address for outbound notifications")
	fs.DurationVar(&cfg.SendTimeout, "send-timeout", cfg.SendTimeout, "Upper bound for one mail send")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes one reconciliation run with telemetry configured.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceReconciler, func(ctx context.Context) error {
		return app.RunReconciler(ctx, app.ReconcilerConfig{
			DBPath:       cfg.DBPath,
			Kind:         cfg.Kind,
			SMTPAddr:     cfg.SMTPAddr,
			SMTPFrom:     cfg.SMTPFrom,
			SMTPUsername: cfg.SMTPUsername,
			SMTPPassword: cfg.SMTPPassword,
			SendTimeout:  cfg.SendTimeout,
		})
	})
}
