package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"pingmon/internal/config"
	"pingmon/internal/probe"
	"pingmon/internal/runlog"
	"pingmon/internal/store"
	"pingmon/internal/target"
	"pingmon/pkg/infra"
	"pingmon/pkg/logger"
)

const (
	exitAllReachable  = 0
	exitSomeFailed    = 1
	exitCouldNotStart = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	timeout := flag.Duration("t", 3*time.Second, "per-probe timeout")
	count := flag.Int("c", 1, "number of ping packets")
	workers := flag.Int("w", 10, "number of concurrent workers")
	verbose := flag.Bool("v", false, "print every result")
	flag.Parse()

	appConfig, err := config.LoadConfig("./.env")
	if err != nil {
		log.Printf("load config error: %v", err)
		return exitCouldNotStart
	}
	paths := appConfig.Paths()
	if err = paths.Ensure(); err != nil {
		log.Printf("ensure directories: %v", err)
		return exitCouldNotStart
	}

	zapLogger := logger.NewConsoleLogger(appConfig.Server.LogLevel).With(zap.String("service.name", "pingcheck"))
	defer zapLogger.Sync()

	source, ok := pickSource(appConfig, paths, flag.Arg(0), zapLogger)
	if !ok {
		return exitCouldNotStart
	}

	ctx := context.Background()
	entries, err := source.Load(ctx)
	if err != nil {
		switch {
		case errors.Is(err, target.ErrSourceNotFound):
			fmt.Fprintf(os.Stderr, "Error: target source %s not found\n", source.Describe())
		case errors.Is(err, target.ErrSourceEmpty):
			fmt.Fprintf(os.Stderr, "Error: no targets found in %s\n", source.Describe())
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return exitCouldNotStart
	}
	targets, invalid := target.Screen(entries)

	params := probe.Params{Timeout: *timeout, Count: *count, Workers: *workers}
	fmt.Printf("Testing connectivity to %d targets (timeout=%s, count=%d, workers=%d)\n",
		len(targets), params.Timeout, params.Count, params.Workers)

	start := time.Now()
	engine := probe.NewEngine(probe.NewExecPinger(), zapLogger)
	batch := engine.Run(ctx, targets, invalid, "", params)

	writer := runlog.NewWriter(paths.ResultsDir, newResultStore(appConfig, zapLogger), zapLogger)
	if err = writer.WriteBatch(ctx, batch, params); err != nil {
		zapLogger.Error("failed to write run logs", zap.Error(err))
	}

	for _, r := range batch.Results {
		if *verbose || !r.Success {
			status := "UNREACHABLE"
			if r.Success {
				status = "REACHABLE"
			}
			fmt.Printf("%-39s %-12s %s\n", r.Target.Identifier, status, r.Detail())
		}
	}

	successful, failed := batch.Counts()
	fmt.Printf("Results: %d reachable, %d unreachable, %d invalid (%.2fs)\n",
		successful, failed, len(batch.Invalid), time.Since(start).Seconds())

	return exitCode(batch)
}

// exitCode maps a finished batch to the process exit status. A batch with no
// probed targets means every input line was rejected; that is a failed start,
// not a clean run.
func exitCode(batch probe.Batch) int {
	if len(batch.Results) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no valid targets to probe")
		return exitCouldNotStart
	}
	if batch.AllReachable() {
		return exitAllReachable
	}
	return exitSomeFailed
}

// pickSource uses the positional target-file argument when given, otherwise
// falls back to the inventory database when one is configured.
func pickSource(appConfig config.AppConfig, paths config.Paths, arg string, zapLogger *zap.Logger) (target.Source, bool) {
	if arg != "" {
		return target.FileSource{Path: paths.Resolve(arg)}, true
	}
	if !appConfig.Source.Enabled {
		fmt.Fprintln(os.Stderr, "Usage: pingcheck [flags] <target-file>")
		flag.PrintDefaults()
		return nil, false
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
		zapLogger.Error("failed to connect to inventory database", zap.Error(err))
		return nil, false
	}
	return target.DBSource{DB: db, SQLPath: filepath.Join(paths.SQLDir(), appConfig.Source.SQLFile)}, true
}

// newResultStore returns nil when the store is disabled or unreachable; the
// run proceeds on files alone either way.
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
