package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"pingmon/internal/config"
	"pingmon/internal/history"
	"pingmon/pkg/logger"
)

func main() {
	resultsDir := flag.String("logs", "", "directory with run log files (default from config)")
	outputDir := flag.String("out", "", "directory for analysis files (default from config)")
	flag.Parse()

	appConfig, err := config.LoadConfig("./.env")
	if err != nil {
		log.Fatal(fmt.Sprintf("load config error: %v", err))
	}
	if *resultsDir == "" {
		*resultsDir = appConfig.Server.ResultsDir
	}
	if *outputDir == "" {
		*outputDir = appConfig.Server.AnalysisDir
	}

	zapLogger := logger.NewConsoleLogger(appConfig.Server.LogLevel).With(zap.String("service.name", "loganalyze"))
	defer zapLogger.Sync()

	analyzer := history.NewAnalyzer(*resultsDir, *outputDir, zapLogger)
	summary, err := analyzer.Analyze()
	if err != nil {
		zapLogger.Error("analysis failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("Scanned %d run log files covering %d targets\n", summary.FilesScanned, summary.TotalTargets())
	fmt.Printf("  always responded:    %d (%s)\n", summary.Always, history.AlwaysFile)
	fmt.Printf("  never responded:     %d (%s)\n", summary.Never, history.NeverFile)
	fmt.Printf("  sometimes responded: %d (%s)\n", summary.Sometimes, history.SometimesFile)
}
