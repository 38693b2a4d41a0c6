package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/notisync/notisync/config"
	"github.com/notisync/notisync/internal/feed"
	"github.com/notisync/notisync/internal/notify"
	"github.com/notisync/notisync/internal/notion"
	"github.com/notisync/notisync/internal/scheduler"
	"github.com/notisync/notisync/internal/storage"
	"github.com/notisync/notisync/internal/sync"
)

func init() {
	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func main() {
	configPath := flag.String("config", "notisync.yaml", "path to the configuration file")
	dryRun := flag.Bool("dry-run", false, "compute and report changes without writing")
	schedule := flag.String("schedule", "", "cron expression for recurring sync (empty: run once)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("Shutting down...")
		cancel()
	}()

	source := buildSource(cfg)

	client := notion.NewClient(cfg.Notion.Token)
	log.Infof("Looking up Notion database %q", cfg.Notion.Database)
	db, err := client.SearchDatabase(ctx, cfg.Notion.Database)
	if err != nil {
		log.Fatalf("Failed to find Notion database: %v", err)
	}
	titleProperty, ok := db.TitleProperty()
	if !ok {
		log.Fatalf("Database %s has no title property", db.ID)
	}
	client.SetDatabaseID(db.ID)
	client.SetIDProperty(cfg.Notion.IDProperty)

	syncer := sync.New(source, client, sync.Options{
		Properties: sync.PropertyNames{
			Title:    titleProperty,
			Identity: cfg.Notion.IDProperty,
			Date:     cfg.Notion.DateProperty,
			Location: cfg.Notion.LocationProperty,
		},
		DayPast:     cfg.Window.DayPast,
		DayFuture:   cfg.Window.DayFuture,
		Parallelism: cfg.Sync.Parallelism,
		DryRun:      *dryRun,
	})

	var journal *storage.Storage
	if cfg.Journal.Path != "" {
		journal, err = storage.New(cfg.Journal.Path)
		if err != nil {
			log.Fatalf("Failed to init journal: %v", err)
		}
		defer journal.Close()
	}

	var notifier *notify.Telegram
	if cfg.Telegram.Token != "" {
		notifier, err = notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Fatalf("Failed to init Telegram notifier: %v", err)
		}
	}

	pass := func(ctx context.Context) {
		runPass(ctx, syncer, journal, notifier, *dryRun)
	}

	if *schedule == "" {
		pass(ctx)
		return
	}

	sched := scheduler.New(*schedule, pass)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Scheduler error: %v", err)
	}
	sched.Stop()
	log.Info("notisync stopped")
}

// runPass executes one synchronization pass and reports its outcome to
// the journal and the notifier, when configured.
func runPass(ctx context.Context, syncer *sync.Syncer, journal *storage.Storage, notifier *notify.Telegram, dryRun bool) {
	started := time.Now()
	summary, err := syncer.Run(ctx)
	finished := time.Now()

	if err != nil {
		log.Errorf("Pass failed: %v", err)
	}

	if journal != nil {
		run := &storage.Run{
			StartedAt:  started,
			FinishedAt: finished,
			DryRun:     dryRun,
			Created:    summary.Created,
			Updated:    summary.Updated,
			Skipped:    summary.Skipped,
			Failed:     summary.Failed,
		}
		if err != nil {
			run.Error = err.Error()
		}
		if jerr := journal.RecordRun(run); jerr != nil {
			log.Errorf("Failed to journal pass: %v", jerr)
		}
	}

	if notifier != nil {
		var nerr error
		if err != nil {
			nerr = notifier.SendError(err)
		} else {
			nerr = notifier.SendSummary(summary)
		}
		if nerr != nil {
			log.Errorf("Failed to send notification: %v", nerr)
		}
	}
}

// buildSource picks the feed source: CalDAV when credentials are
// configured, plain ICS over HTTP otherwise.
func buildSource(cfg config.Config) feed.Source {
	if cfg.Feed.CalDAV.IsConfigured() {
		log.Info("Using CalDAV feed source")
		return feed.NewCalDAVSource(
			cfg.Feed.CalDAV.URL,
			cfg.Feed.CalDAV.Username,
			cfg.Feed.CalDAV.Password,
			cfg.Feed.CalDAV.Calendar,
			cfg.Window.DayPast,
			cfg.Window.DayFuture,
		)
	}
	return feed.NewHTTPSource(cfg.Feed.URL)
}
