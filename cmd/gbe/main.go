// Copyright 2025 James Ross
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flyingrobots/gbe/internal/config"
	"github.com/flyingrobots/gbe/internal/emitter"
	"github.com/flyingrobots/gbe/internal/lock"
	"github.com/flyingrobots/gbe/internal/memtransport"
	"github.com/flyingrobots/gbe/internal/obs"
	"github.com/flyingrobots/gbe/internal/redisclient"
	"github.com/flyingrobots/gbe/internal/redisstatestore"
	"github.com/flyingrobots/gbe/internal/redistransport"
	"github.com/flyingrobots/gbe/internal/sweeper"
	"github.com/flyingrobots/gbe/internal/transport"
)

var version = "dev"

func main() {
	var role string
	var configPath string
	var demoSubject string
	var demoCount int
	var adminCmd string
	var adminSubject string
	var adminGroup string
	var showVersion bool

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&role, "role", "sweeper", "Role to run: sweeper|publish-demo|admin")
	fs.StringVar(&configPath, "config", "config/config.yaml", "Path to YAML config")
	fs.StringVar(&demoSubject, "demo-subject", "gbe.jobs.demo", "publish-demo: subject to publish to")
	fs.IntVar(&demoCount, "demo-count", 10, "publish-demo: number of messages to publish")
	fs.StringVar(&adminCmd, "admin-cmd", "pending", "admin: subcommand (pending)")
	fs.StringVar(&adminSubject, "subject", "", "admin: subject to inspect")
	fs.StringVar(&adminGroup, "group", "", "admin: consumer group to inspect")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	_ = fs.Parse(os.Args[1:])

	if showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := obs.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tp, err := obs.MaybeInitTracing(cfg)
	if err != nil {
		logger.Warn("tracing init failed", obs.Err(err))
	}
	if tp != nil {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	rdb := redisclient.New(cfg)
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("signal received, shutting down", obs.String("signal", sig.String()))
		cancel()
		select {
		case sig2 := <-sigCh:
			logger.Warn("second signal received, exiting immediately", obs.String("signal", sig2.String()))
			os.Exit(1)
		case <-time.After(5 * time.Second):
		}
	}()

	if role != "admin" {
		readyCheck := func(c context.Context) error {
			_, err := rdb.Ping(c).Result()
			return err
		}
		httpSrv := obs.StartHTTPServer(cfg, readyCheck)
		defer func() { _ = httpSrv.Shutdown(context.Background()) }()
	}

	switch role {
	case "sweeper":
		runSweeper(ctx, cfg, rdb, logger)
	case "publish-demo":
		runPublishDemo(ctx, cfg, rdb, logger, demoSubject, demoCount)
	case "admin":
		runAdmin(ctx, rdb, logger, adminCmd, adminSubject, adminGroup)
	default:
		logger.Fatal("unknown role", obs.String("role", role))
	}
}

func newTransport(cfg *config.Config, rdb redis.UniversalClient, logger *zap.Logger) transport.Transport {
	switch cfg.Transport.Backend {
	case "redis":
		return redistransport.New(rdb, redistransport.Config{MaxPayloadSize: cfg.Transport.MaxPayloadSize}, logger)
	default:
		return memtransport.New(memtransport.DefaultConfig())
	}
}

func runSweeper(ctx context.Context, cfg *config.Config, rdb redis.UniversalClient, logger *zap.Logger) {
	store := redisstatestore.New(rdb)
	l := lock.New(rdb, cfg.Sweeper.LockKey, cfg.Sweeper.LockTTL)
	tr := memtransport.New(memtransport.DefaultConfig())
	ev := emitter.New(tr, "sweeper", hostID())

	sw := sweeper.New(store, ev, l, sweeper.Config{
		ScanInterval: cfg.Sweeper.ScanInterval,
		LockTTL:      cfg.Sweeper.LockTTL,
		LockKey:      cfg.Sweeper.LockKey,
	}, logger)

	logger.Info("sweeper starting", obs.String("lock_key", cfg.Sweeper.LockKey))
	sw.Run(ctx)
}

func runPublishDemo(ctx context.Context, cfg *config.Config, rdb redis.UniversalClient, logger *zap.Logger, subject string, count int) {
	tr := newTransport(cfg, rdb, logger)
	defer tr.Close(ctx)

	for i := 0; i < count; i++ {
		payload := []byte(fmt.Sprintf(`{"seq":%d}`, i))
		id, err := tr.Publish(ctx, subject, payload, nil)
		if err != nil {
			logger.Error("publish failed", obs.Int("seq", i), obs.Err(err))
			continue
		}
		logger.Info("published demo message", obs.String("message_id", id), obs.Int("seq", i))
		if ctx.Err() != nil {
			return
		}
	}
}

func runAdmin(ctx context.Context, rdb redis.UniversalClient, logger *zap.Logger, cmd, subject, group string) {
	correlationID := uuid.NewString()
	switch cmd {
	case "pending":
		if subject == "" || group == "" {
			logger.Fatal("admin pending requires --subject and --group", obs.String("correlation_id", correlationID))
		}
		key := adminSubjectToKey(subject)
		summary, err := rdb.XPending(ctx, key, group).Result()
		if err != nil {
			logger.Fatal("admin pending error", obs.Err(err), obs.String("correlation_id", correlationID))
		}
		fmt.Printf("correlation_id=%s subject=%s group=%s pending=%d lowest=%s highest=%s\n",
			correlationID, subject, group, summary.Count, summary.Lower, summary.Higher)
	default:
		logger.Fatal("unknown admin command", obs.String("cmd", cmd), obs.String("correlation_id", correlationID))
	}
}

func adminSubjectToKey(subject string) string {
	return strings.ReplaceAll(subject, ".", ":")
}

func hostID() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
