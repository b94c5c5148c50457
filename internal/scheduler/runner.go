package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pingmon/internal/config"
	"pingmon/internal/probe"
	"pingmon/internal/runlog"
	"pingmon/internal/target"
)

// Runner executes one full job run: resolve and load targets, probe, write
// the run logs. Errors cross this boundary only as return values; the
// scheduler catches and logs them.
type Runner interface {
	RunJob(ctx context.Context, job *Job) error
}

type jobRunner struct {
	paths          config.Paths
	engine         probe.Engine
	writer         runlog.Writer
	inventoryDB    *gorm.DB
	defaultSQLFile string
	logger         *zap.Logger
}

func NewJobRunner(paths config.Paths, engine probe.Engine, writer runlog.Writer, inventoryDB *gorm.DB, defaultSQLFile string, logger *zap.Logger) Runner {
	return &jobRunner{
		paths:          paths,
		engine:         engine,
		writer:         writer,
		inventoryDB:    inventoryDB,
		defaultSQLFile: defaultSQLFile,
		logger:         logger,
	}
}

func (r *jobRunner) RunJob(ctx context.Context, job *Job) error {
	source, err := r.sourceFor(job)
	if err != nil {
		return fmt.Errorf("JobRunner.RunJob %q: %w", job.Name, err)
	}
	r.logger.Info("starting job run",
		zap.String("job", job.Name),
		zap.String("source", source.Describe()))

	entries, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("JobRunner.RunJob %q: %w", job.Name, err)
	}
	targets, invalid := target.Screen(entries)

	start := time.Now()
	batch := r.engine.Run(ctx, targets, invalid, job.Name, job.Params)
	if err = r.writer.WriteBatch(ctx, batch, job.Params); err != nil {
		return fmt.Errorf("JobRunner.RunJob %q: %w", job.Name, err)
	}

	successful, failed := batch.Counts()
	r.logger.Info("job run completed",
		zap.String("job", job.Name),
		zap.Int("reachable", successful),
		zap.Int("unreachable", failed),
		zap.Int("invalid", len(batch.Invalid)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// sourceFor resolves the job's target source on every fire, so files that
// appear after startup are picked up.
func (r *jobRunner) sourceFor(job *Job) (target.Source, error) {
	if job.TargetFile != "" {
		return target.FileSource{Path: r.paths.Resolve(job.TargetFile)}, nil
	}
	if r.inventoryDB == nil {
		return nil, errors.New("inventory database not configured")
	}
	sqlFile := job.InventoryQuery
	if sqlFile == "" {
		sqlFile = r.defaultSQLFile
	}
	return target.DBSource{DB: r.inventoryDB, SQLPath: filepath.Join(r.paths.SQLDir(), sqlFile)}, nil
}
