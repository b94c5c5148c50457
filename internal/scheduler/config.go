package scheduler

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimeout = 3 * time.Second
	defaultCount   = 1
	defaultWorkers = 10
)

var ErrJobsFileNotFound = errors.New("jobs file not found")

// JobConfig is one block of the jobs file. TargetFile and InventoryQuery are
// mutually exclusive; when both are absent the job falls back to the default
// inventory query.
type JobConfig struct {
	Name           string        `yaml:"name" validate:"required"`
	TargetFile     string        `yaml:"target_file" validate:"excluded_with=InventoryQuery"`
	InventoryQuery string        `yaml:"inventory_query"`
	Schedule       string        `yaml:"schedule" validate:"required"`
	Timeout        time.Duration `yaml:"timeout" validate:"omitempty,min=0"`
	Count          int           `yaml:"count" validate:"omitempty,min=1"`
	Workers        int           `yaml:"workers" validate:"omitempty,min=1"`
}

type jobsFile struct {
	Jobs []JobConfig `yaml:"jobs" validate:"min=1,dive"`
}

// LoadJobs reads and validates the jobs file, applying documented defaults
// for timeout, count and workers.
func LoadJobs(path string) ([]JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("LoadJobs %q: %w", path, ErrJobsFileNotFound)
		}
		return nil, fmt.Errorf("LoadJobs: %w", err)
	}

	var file jobsFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("LoadJobs: %w", err)
	}
	if err = validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("LoadJobs: %w", err)
	}

	names := make(map[string]struct{}, len(file.Jobs))
	for i := range file.Jobs {
		cfg := &file.Jobs[i]
		if _, ok := names[cfg.Name]; ok {
			return nil, fmt.Errorf("LoadJobs: duplicate job name %q", cfg.Name)
		}
		names[cfg.Name] = struct{}{}

		if cfg.Timeout == 0 {
			cfg.Timeout = defaultTimeout
		}
		if cfg.Count == 0 {
			cfg.Count = defaultCount
		}
		if cfg.Workers == 0 {
			cfg.Workers = defaultWorkers
		}
	}
	return file.Jobs, nil
}
