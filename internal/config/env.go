package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

// Env is the process environment configuration. The GitHub credentials are
// required; everything else has a workable default.
type Env struct {
	GitHubToken     string `envconfig:"GITHUB_TOKEN" required:"true"`
	GitHubOwner     string `envconfig:"GITHUB_OWNER" required:"true"`
	GitHubRepo      string `envconfig:"GITHUB_REPO" required:"true"`
	GitHubProjectID string `envconfig:"GITHUB_PROJECT_ID"`
	DryRun          bool   `envconfig:"DRY_RUN" default:"false"`
	TasksFile       string `envconfig:"TASKS_FILE" default:".taskmaster/tasks/tasks.json"`
	StateFile       string `envconfig:"STATE_FILE" default:".tracksync/sync-state.json"`
	ProjectFile     string `envconfig:"PROJECT_FILE" default:".tracksync.yaml"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
}

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *Env) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
