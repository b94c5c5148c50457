package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"pingmon/internal/runlog"
)

const (
	AlwaysFile    = "analysis_always_responded.txt"
	NeverFile     = "analysis_never_responded.txt"
	SometimesFile = "analysis_sometimes_responded.txt"
)

// Classification buckets a target by its full historical success ratio.
type Classification string

const (
	Always    Classification = "always"
	Never     Classification = "never"
	Sometimes Classification = "sometimes"
)

// Stats are the folded observations for one identifier across every run file.
type Stats struct {
	Successes int
	Total     int
}

func (s Stats) Classify() Classification {
	switch {
	case s.Successes == s.Total:
		return Always
	case s.Successes == 0:
		return Never
	default:
		return Sometimes
	}
}

// Rate is the success percentage, meaningful for the Sometimes bucket.
func (s Stats) Rate() float64 {
	return 100 * float64(s.Successes) / float64(s.Total)
}

// Summary reports one analysis invocation.
type Summary struct {
	FilesScanned int
	Always       int
	Never        int
	Sometimes    int
}

func (s Summary) TotalTargets() int {
	return s.Always + s.Never + s.Sometimes
}

// Analyzer folds every historical run log in the results directory into
// per-target statistics and writes the three partition files. Each invocation
// re-derives everything from scratch, so output always reflects the full log
// history and re-running on an unchanged log set is byte-identical.
type Analyzer interface {
	Analyze() (Summary, error)
}

type analyzer struct {
	resultsDir string
	outputDir  string
	logger     *zap.Logger
}

func NewAnalyzer(resultsDir, outputDir string, logger *zap.Logger) Analyzer {
	return &analyzer{
		resultsDir: resultsDir,
		outputDir:  outputDir,
		logger:     logger,
	}
}

func (a *analyzer) Analyze() (Summary, error) {
	stats, filesScanned, err := a.fold()
	if err != nil {
		return Summary{}, fmt.Errorf("Analyzer.Analyze: %w", err)
	}

	identifiers := make([]string, 0, len(stats))
	for id := range stats {
		identifiers = append(identifiers, id)
	}
	sort.Strings(identifiers)

	var alwaysLines, neverLines, sometimesLines []string
	for _, id := range identifiers {
		st := stats[id]
		switch st.Classify() {
		case Always:
			alwaysLines = append(alwaysLines, id)
		case Never:
			neverLines = append(neverLines, id)
		case Sometimes:
			sometimesLines = append(sometimesLines, fmt.Sprintf("%s\t%.1f%%", id, st.Rate()))
		}
	}

	outputs := []struct {
		name  string
		lines []string
	}{
		{AlwaysFile, alwaysLines},
		{NeverFile, neverLines},
		{SometimesFile, sometimesLines},
	}
	for _, out := range outputs {
		if err = writeLines(filepath.Join(a.outputDir, out.name), out.lines); err != nil {
			return Summary{}, fmt.Errorf("Analyzer.Analyze: %w", err)
		}
	}

	summary := Summary{
		FilesScanned: filesScanned,
		Always:       len(alwaysLines),
		Never:        len(neverLines),
		Sometimes:    len(sometimesLines),
	}
	a.logger.Info("analysis complete",
		zap.Int("files_scanned", summary.FilesScanned),
		zap.Int("always", summary.Always),
		zap.Int("never", summary.Never),
		zap.Int("sometimes", summary.Sometimes))
	return summary, nil
}

// fold counts one success observation per appearance in a success file and
// one failure observation per appearance in a failure file, across every run
// of every job.
func (a *analyzer) fold() (map[string]Stats, int, error) {
	stats := make(map[string]Stats)
	filesScanned := 0

	kinds := []struct {
		suffix  string
		success bool
	}{
		{runlog.SuccessSuffix, true},
		{runlog.FailedSuffix, false},
	}
	for _, kind := range kinds {
		matches, err := filepath.Glob(filepath.Join(a.resultsDir, "*"+kind.suffix))
		if err != nil {
			return nil, 0, err
		}
		for _, path := range matches {
			if err = foldFile(path, kind.success, stats); err != nil {
				return nil, 0, err
			}
			filesScanned++
		}
	}
	return stats, filesScanned, nil
}

func foldFile(path string, success bool, stats map[string]Stats) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		st := stats[parts[0]]
		st.Total++
		if success {
			st.Successes++
		}
		stats[parts[0]] = st
	}
	return scanner.Err()
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
