// Package backup produces database snapshots by shelling out to pg_dump.
package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Runner dumps the configured database into timestamped files.
type Runner struct {
	dsn    string
	logger *zap.Logger
	now    func() time.Time
}

func NewRunner(dsn string, logger *zap.Logger) *Runner {
	return &Runner{
		dsn:    dsn,
		logger: logger.Named("backup"),
		now:    time.Now,
	}
}

// Run writes a compressed dump into target (a directory; defaults to
// ./backups) and returns a summary for the execution record.
func (r *Runner) Run(ctx context.Context, target string) (map[string]interface{}, error) {
	if target == "" {
		target = "backups"
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	started := r.now()
	file := filepath.Join(target, fmt.Sprintf("clientpulse_%s.dump", started.Format("20060102_150405")))

	cmd := exec.CommandContext(ctx, "pg_dump",
		"--format", "custom",
		"--file", file,
		"--dbname", r.dsn)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pg_dump: %w: %s", err, string(out))
	}

	info, err := os.Stat(file)
	if err != nil {
		return nil, fmt.Errorf("stat dump: %w", err)
	}

	r.logger.Info("Backup written",
		zap.String("file", file),
		zap.Int64("bytes", info.Size()),
		zap.Duration("duration", time.Since(started)))

	return map[string]interface{}{
		"file":        file,
		"bytes":       info.Size(),
		"duration_ms": time.Since(started).Milliseconds(),
	}, nil
}
