package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"SpotSentinel/internal/cache"
	"SpotSentinel/internal/calendar"
	"SpotSentinel/internal/collector"
	"SpotSentinel/internal/config"
	"SpotSentinel/internal/logging"
	"SpotSentinel/internal/metrics"
	"SpotSentinel/internal/notifier"
	"SpotSentinel/internal/recorder"
	"SpotSentinel/internal/scheduler"
	"SpotSentinel/internal/server"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to YAML config (CONFIG_PATH overrides)")
	once := flag.Bool("once", false, "collect a single report, print it and exit")
	date := flag.String("date", "", "local date YYYY-MM-DD to report (default: today)")
	days := flag.Int("days", 1, "with -once, number of consecutive days starting at -date")
	flag.Parse()

	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*cfgPath = v
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("SpotSentinel starting",
		zap.String("region", cfg.DataSource.Region),
		zap.String("timezone", cfg.DataSource.Timezone))

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("load timezone", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Init fetcher
	var fetcher collector.Fetcher = collector.NewEnergyChartsFetcher(
		cfg.DataSource.BaseURL, cfg.DataSource.RegionParam, cfg.Proxy, cfg.DataSource.Timeout)
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, fetching without cache", zap.Error(err))
		} else {
			defer rc.Close()
			fetcher = collector.NewCachingFetcher(fetcher, rc, cfg.Cache.TTL, logger)
		}
	}
	logger.Info("data source", zap.String("fetcher", fetcher.Name()))

	m := metrics.New("spot_sentinel")
	col := collector.NewCollector(fetcher, calendar.SystemClock{}, cfg.DataSource.Region, loc, logger)
	col.Parallelism = cfg.Report.Parallelism
	col.Metrics = m

	if *once {
		if err := runOnce(ctx, col, loc, cfg.Report.PreviewCount, *date, *days); err != nil {
			logger.Error("run failed", zap.String("kind", metrics.ErrorKind(err)), zap.Error(err))
			logger.Sync()
			os.Exit(1)
		}
		return
	}

	runDaemon(ctx, cfg, col, m, loc, logger)
}

// runOnce prints one report, or a per-day summary when days > 1.
func runOnce(ctx context.Context, col *collector.Collector, loc *time.Location, preview int, date string, days int) error {
	day := col.Today()
	if date != "" {
		d, _, err := calendar.ResolveDate(date, loc)
		if err != nil {
			return err
		}
		day = d
	}

	f := notifier.Formatter{Location: loc, PreviewCount: preview}
	if days > 1 {
		reports, err := col.CollectRange(ctx, day, days)
		if err != nil {
			return err
		}
		fmt.Println(f.FormatRange(reports))
		return nil
	}

	report, err := col.CollectDay(ctx, day)
	if err != nil {
		return err
	}
	fmt.Println(f.FormatDayReport(report))
	return nil
}

func runDaemon(ctx context.Context, cfg *config.Config, col *collector.Collector, m *metrics.Metrics, loc *time.Location, logger *zap.Logger) {
	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	// Init notifier
	var n notifier.Notifier
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		n = tn
	} else {
		logger.Warn("telegram not configured, reports go to the log")
		n = &notifier.LogNotifier{Logger: logger}
	}
	f := notifier.Formatter{Location: loc, PreviewCount: cfg.Report.PreviewCount, HTML: tn != nil}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, n, rec, f, logger)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.TomorrowCron); err != nil {
		logger.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	var srv *server.Server
	if cfg.Server.Addr != "" {
		srv = server.New(cfg.Server.Addr, col, rec, m, logger)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("http server", zap.Error(err))
			}
		}()
	}

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, executing today task now")
		go sched.RunNow()
	}

	logger.Info("SpotSentinel is running, press Ctrl+C to stop")
	<-ctx.Done()
	logger.Info("shutdown signal received, stopping")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}
}
