package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"sdsfinder/internal/app"
	"sdsfinder/internal/config"
	"sdsfinder/internal/domain"
	"sdsfinder/internal/logging"
)

func main() {
	var (
		kindFlag = flag.String("kind", "cas", "identifier kind: cas or product")
		dirFlag  = flag.String("dir", "", "download directory (default from config)")
		workers  = flag.Int("workers", 0, "concurrent workers (default from config)")
		fileFlag = flag.String("file", "", "file with one identifier per line")
	)
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	identifiers := flag.Args()
	if *fileFlag != "" {
		fromFile, err := readIdentifiers(*fileFlag)
		if err != nil {
			logger.Error("cannot read identifier file", "file", *fileFlag, "error", err)
			os.Exit(1)
		}
		identifiers = append(identifiers, fromFile...)
	}
	if len(identifiers) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sdsfinder [-kind cas|product] [-dir DIR] [-workers N] [-file FILE] [identifier ...]")
		os.Exit(2)
	}

	kind := domain.Kind(*kindFlag)
	if !kind.Valid() {
		logger.Error("unknown identifier kind", "kind", *kindFlag)
		os.Exit(2)
	}

	targetDir := *dirFlag
	if targetDir == "" {
		targetDir = cfg.Batch.DownloadDir
	}
	concurrency := *workers
	if concurrency <= 0 {
		concurrency = cfg.Batch.PoolSize
	}

	application := app.New(cfg, logger)

	summary, err := application.RunBatch(context.Background(), identifiers, kind, targetDir, concurrency)
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	missing := make([]string, 0, len(summary.Missing))
	for id := range summary.Missing {
		missing = append(missing, id)
	}
	sort.Strings(missing)

	logger.Info("summary",
		"requested", summary.Requested,
		"downloaded", len(summary.Completed),
		"missing", len(summary.Missing))
	for _, id := range missing {
		logger.Warn("still missing", "identifier", id)
	}
}

func readIdentifiers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			out = append(out, line)
		}
	}
	return out, scanner.Err()
}
