// Package taskfile loads bootstrap task definitions from a YAML file and
// seeds them into storage on startup.
package taskfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/clientpulse/clientpulse/internal/storage"
	"github.com/clientpulse/clientpulse/internal/storage/models"
)

// Loader loads and parses task definitions.
type Loader struct {
	logger *zap.Logger
}

// File represents the structure of the tasks YAML file.
type File struct {
	Tasks []Definition `yaml:"tasks"`
}

// Definition is one bootstrap task entry. Config is kind-specific and is
// stored as JSON on the task row.
type Definition struct {
	Name   string                 `yaml:"name"`
	Cron   string                 `yaml:"cron"`
	Kind   string                 `yaml:"kind"`
	Active *bool                  `yaml:"active"`
	Config map[string]interface{} `yaml:"config"`
}

// NewLoader constructs a Loader with the given logger.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger.Named("taskfile")}
}

// Load reads task definitions from a YAML file. Definitions with an unknown
// kind or missing required fields are skipped with a warning so one bad
// entry never blocks the rest.
func (l *Loader) Load(path string) ([]*models.ScheduledTask, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("no tasks found in %s", cleanPath)
	}

	tasks := make([]*models.ScheduledTask, 0, len(file.Tasks))
	for _, def := range file.Tasks {
		kind := models.TaskKind(def.Kind)
		if !models.ValidKind(kind) {
			l.logger.Warn("Skipping task with unknown kind",
				zap.String("name", def.Name),
				zap.String("kind", def.Kind))
			continue
		}
		if def.Name == "" || def.Cron == "" {
			l.logger.Warn("Skipping task with missing required fields",
				zap.String("name", def.Name),
				zap.String("cron", def.Cron))
			continue
		}

		cfg, err := json.Marshal(def.Config)
		if err != nil {
			l.logger.Warn("Skipping task with unencodable config",
				zap.String("name", def.Name),
				zap.Error(err))
			continue
		}

		active := true
		if def.Active != nil {
			active = *def.Active
		}

		tasks = append(tasks, &models.ScheduledTask{
			Name:           def.Name,
			CronExpression: def.Cron,
			Kind:           kind,
			Config:         cfg,
			IsActive:       active,
		})
	}

	if len(tasks) == 0 {
		return nil, fmt.Errorf("no valid tasks loaded from %s", cleanPath)
	}

	l.logger.Info("Loaded task definitions", zap.Int("count", len(tasks)))
	return tasks, nil
}

// Seed inserts loaded definitions that do not already exist in storage,
// matching by task name. Existing rows are left untouched so operator edits
// survive restarts.
func (l *Loader) Seed(ctx context.Context, store storage.Storage, tasks []*models.ScheduledTask) (int, error) {
	existing, err := store.ListActiveTasks(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tasks: %w", err)
	}
	byName := make(map[string]bool, len(existing))
	for _, t := range existing {
		byName[t.Name] = true
	}

	seeded := 0
	for _, task := range tasks {
		if byName[task.Name] {
			continue
		}
		if err := store.CreateTask(ctx, task); err != nil {
			return seeded, fmt.Errorf("seed task %q: %w", task.Name, err)
		}
		seeded++
	}

	if seeded > 0 {
		l.logger.Info("Seeded tasks", zap.Int("count", seeded))
	}
	return seeded, nil
}
