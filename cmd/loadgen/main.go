package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/evalboard/internal/loadgen"
	"github.com/okian/evalboard/pkg/logger"
)

func main() {
	var cfg loadgen.Config
	flag.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	flag.IntVar(&cfg.Records, "records", loadgen.DefaultRecords, "Submissions to send, duplicates included")
	flag.IntVar(&cfg.Workers, "workers", loadgen.DefaultWorkers, "Concurrent submitters")
	flag.IntVar(&cfg.DupEvery, "dup-every", loadgen.DefaultDupEvery, "Repeat the previous submission id every n submissions (0 disables)")
	flag.Int64Var(&cfg.Seed, "seed", loadgen.DefaultSeed, "Seed for generated submissions")
	flag.StringVar(&cfg.Date, "date", "", "Record date YYYY-MM-DD (default today)")
	flag.DurationVar(&cfg.Timeout, "timeout", loadgen.DefaultTimeout, "Per-request timeout")
	flag.DurationVar(&cfg.Settle, "settle", loadgen.DefaultSettle, "How long to wait for submissions to persist")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(*level)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := loadgen.Run(ctx, &cfg); err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
}
