package runlog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"pingmon/internal/probe"
	"pingmon/internal/store"
)

// TimestampLayout names the run log files of one batch. Every category file
// of a batch shares the batch creation timestamp, so a later run can never
// append to an earlier run's files.
const TimestampLayout = "20060102_150405"

const (
	SuccessSuffix = "_successful.txt"
	FailedSuffix  = "_failed.txt"
	InvalidSuffix = "_invalid.txt"
)

const (
	statusSuccess = "SUCCESS"
	statusFailed  = "FAILED"
)

// Writer persists a completed batch to the results directory and forwards it
// to the result store when one is configured. Files are the system of record;
// a store failure is logged and swallowed.
type Writer interface {
	WriteBatch(ctx context.Context, batch probe.Batch, params probe.Params) error
}

type writer struct {
	resultsDir string
	store      store.ResultStore
	logger     *zap.Logger
}

// NewWriter returns a Writer rooted at resultsDir. resultStore may be nil,
// which disables forwarding and changes nothing else.
func NewWriter(resultsDir string, resultStore store.ResultStore, logger *zap.Logger) Writer {
	return &writer{
		resultsDir: resultsDir,
		store:      resultStore,
		logger:     logger,
	}
}

func (w *writer) WriteBatch(ctx context.Context, batch probe.Batch, params probe.Params) error {
	prefix := batch.Timestamp.Format(TimestampLayout)

	var successLines, failedLines []string
	for _, r := range batch.Results {
		line := formatLine(r)
		if r.Success {
			successLines = append(successLines, line)
		} else {
			failedLines = append(failedLines, line)
		}
	}

	files := []struct {
		suffix string
		lines  []string
	}{
		{SuccessSuffix, successLines},
		{FailedSuffix, failedLines},
		{InvalidSuffix, batch.Invalid},
	}
	for _, f := range files {
		if len(f.lines) == 0 {
			continue
		}
		path := filepath.Join(w.resultsDir, prefix+f.suffix)
		if err := writeLines(path, f.lines); err != nil {
			return fmt.Errorf("Writer.WriteBatch: %w", err)
		}
	}

	if w.store != nil {
		if err := w.store.SaveBatch(ctx, batch, params); err != nil {
			w.logger.Warn("failed to save batch to result store, files remain authoritative",
				zap.String("job", batch.Job),
				zap.Error(err))
		}
	}
	return nil
}

func formatLine(r probe.Result) string {
	status := statusFailed
	if r.Success {
		status = statusSuccess
	}
	fields := []string{r.Target.Identifier, status, r.Detail()}
	if r.Target.Label != "" {
		fields = append(fields, r.Target.Label)
	}
	return strings.Join(fields, "\t")
}

func writeLines(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err = buf.WriteString(line + "\n"); err != nil {
			file.Close()
			return err
		}
	}
	if err = buf.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
