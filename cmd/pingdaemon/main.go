package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pingmon/internal/config"
	"pingmon/internal/probe"
	"pingmon/internal/runlog"
	"pingmon/internal/scheduler"
	"pingmon/internal/store"
	"pingmon/pkg/infra"
	"pingmon/pkg/logger"
)

const jobsFileName = "jobs.yaml"

func main() {
	appConfig, err := config.LoadConfig("./.env")
	if err != nil {
		log.Fatal(fmt.Sprintf("load config error: %v", err))
	}
	paths := appConfig.Paths()
	if err = paths.Ensure(); err != nil {
		log.Fatal(fmt.Sprintf("ensure directories error: %v", err))
	}

	// set up logger
	fileSyncer, err := logger.NewReopenableWriteSyncer("./log/pingdaemon.log")
	if err != nil {
		log.Fatal(fmt.Sprintf("open log file error: %v", err))
	}
	zapLogger := logger.NewLogger(appConfig.Server.LogLevel, fileSyncer).With(zap.String("service.name", "pingdaemon"))
	defer zapLogger.Sync()
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGHUP)
	go func() {
		for {
			<-c
			zapLogger.Info("receive logrotate SIGHUP, reloading log file")
			if e := fileSyncer.Reload(); e != nil {
				zapLogger.Error("failed to reload log file", zap.Error(e))
			} else {
				zapLogger.Info("successfully reloaded log file")
			}
		}
	}()

	jobConfigs, err := scheduler.LoadJobs(paths.Resolve(jobsFileName))
	if err != nil {
		zapLogger.Fatal("failed to load jobs file", zap.Error(err))
	}
	jobs := make([]*scheduler.Job, 0, len(jobConfigs))
	for _, jobConfig := range jobConfigs {
		job, jobErr := scheduler.NewJob(jobConfig)
		if jobErr != nil {
			zapLogger.Fatal("failed to build job", zap.String("job", jobConfig.Name), zap.Error(jobErr))
		}
		jobs = append(jobs, job)
	}

	resultStore := newResultStore(appConfig, zapLogger)
	inventoryDB := newInventoryDB(appConfig, zapLogger)

	engine := probe.NewEngine(probe.NewExecPinger(), zapLogger)
	writer := runlog.NewWriter(paths.ResultsDir, resultStore, zapLogger)
	runner := scheduler.NewJobRunner(paths, engine, writer, inventoryDB, appConfig.Source.SQLFile, zapLogger)

	sched := scheduler.NewScheduler(jobs, runner, zapLogger)
	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down scheduler...")
	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownGrace)
	defer cancel()
	if err = sched.Stop(ctx); err != nil {
		zapLogger.Warn("shutdown grace period expired, abandoning in-flight runs", zap.Error(err))
	}
	zapLogger.Info("scheduler exiting")
}

// newResultStore returns nil when the store is disabled or unreachable; file
// logging alone is a fully supported mode and the daemon never dies for the
// store's sake.
func newResultStore(appConfig config.AppConfig, zapLogger *zap.Logger) store.ResultStore {
	if !appConfig.Store.Enabled {
		return nil
	}
	db, err := infra.NewPostgresConnection(infra.PostgresConfig{
		URL:      appConfig.Store.URL,
		Host:     appConfig.Store.Host,
		Port:     appConfig.Store.Port,
		User:     appConfig.Store.User,
		Password: appConfig.Store.Password,
		DBName:   appConfig.Store.Name,
		SSLMode:  appConfig.Store.SSLMode,
	})
	if err != nil {
		zapLogger.Warn("result store unavailable, continuing with file logging only", zap.Error(err))
		return nil
	}
	resultStore, err := store.NewResultStore(db, appConfig.Store.BatchSize)
	if err != nil {
		zapLogger.Warn("result store migration failed, continuing with file logging only", zap.Error(err))
		return nil
	}
	return resultStore
}

// newInventoryDB returns nil when the inventory source is disabled or
// unreachable at startup; jobs that need it then fail per run while
// file-based jobs keep going.
func newInventoryDB(appConfig config.AppConfig, zapLogger *zap.Logger) *gorm.DB {
	if !appConfig.Source.Enabled {
		return nil
	}
	db, err := infra.NewPostgresConnection(infra.PostgresConfig{
		URL:      appConfig.Source.URL,
		Host:     appConfig.Source.Host,
		Port:     appConfig.Source.Port,
		User:     appConfig.Source.User,
		Password: appConfig.Source.Password,
		DBName:   appConfig.Source.Name,
		SSLMode:  appConfig.Source.SSLMode,
	})
	if err != nil {
		zapLogger.Warn("inventory database unavailable, jobs using it will fail until it returns", zap.Error(err))
		return nil
	}
	return db
}
