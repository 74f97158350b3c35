package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/scheduler"
	"TrendSentinel/internal/tracker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scan daemon with cron and Telegram commands",
	Run: func(cmd *cobra.Command, args []string) {
		log.Info("TrendSentinel starting...")

		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatal(err)
		}
		if err := cfg.ValidateNotifier(); err != nil {
			log.Fatalf("config validation: %v", err)
		}

		sc, err := newScanner(cfg)
		if err != nil {
			log.Fatalf("init scanner: %v", err)
		}
		tm, err := tracker.NewManager(cfg.Tracker.StateFile)
		if err != nil {
			log.Fatalf("init tracker: %v", err)
		}
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		rec := newRecorder(cfg)
		defer rec.Close()

		// Context for graceful shutdown
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sched := scheduler.NewScheduler(ctx, newCollector(cfg), sc, tm, tn, rec)
		if err := sched.RegisterAll(cfg.Schedule.ScanCron); err != nil {
			log.Fatalf("register cron tasks: %v", err)
		}
		sched.Start()
		defer sched.Stop()

		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")

		if os.Getenv("RUN_ON_START") == "true" {
			log.Info("RUN_ON_START enabled, executing scan now")
			go sched.RunScanNow()
		}

		log.Info("TrendSentinel is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("shutdown signal received, stopping...")
		cancel()
	},
}
