package app

import (
	"context"
	"fmt"
	"fxcache/internal/platform/db"
	httpserver "fxcache/internal/platform/http"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"fxcache/internal/adapters"
	"fxcache/internal/adapters/cache"
	"fxcache/internal/adapters/httpclient"
	"fxcache/internal/adapters/notify"
	"fxcache/internal/adapters/postgres"
	"fxcache/internal/api"
	"fxcache/internal/config"
	"fxcache/internal/console"
	"fxcache/internal/domain"
	"fxcache/internal/metrics"
	"fxcache/internal/rate"
	"fxcache/internal/rate/handler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// components are shared by the HTTP server and the console.
type components struct {
	lookup  domain.Lookup
	service *rate.Service
	close   func()
}

// Run wires the application components, starts HTTP server and (optionally) the refresh scheduler
func Run() error {
	appCfg, err := initConfig()
	if err != nil {
		return err
	}

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := build(ctx, appCfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer c.close()

	if appCfg.Scheduler.Enabled {
		scheduler := rate.NewScheduler(c.service, time.Duration(appCfg.Scheduler.RefreshIntervalSec)*time.Second)
		// Ensure scheduler stops before DB pool closes
		defer func() {
			if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
				logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
			}
		}()
		if startErr := scheduler.Start(ctx); startErr != nil {
			logrus.WithError(startErr).Error("Failed to start scheduler")
			return startErr
		}
		logrus.Info("✅ Scheduler activation successful")
	}

	// Handlers and router
	rateHandler := handler.NewRateHandler(rate.NewValidator(c.lookup), c.service)
	router := api.NewRouter(rateHandler, promhttp.Handler())

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}

// RunConsole asks for one base currency on stdin and prints its rates to stdout.
func RunConsole() error {
	appCfg, err := initConfig()
	if err != nil {
		return err
	}
	// the console owns stdout
	logrus.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := build(ctx, appCfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer c.close()

	return console.NewConsole(c.service, c.lookup, os.Stdin, os.Stdout).Run(ctx)
}

func initConfig() (*config.AppConfig, error) {
	appCfg, err := config.Init()
	if err != nil {
		return nil, err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(appCfg.Logging.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")
	return appCfg, nil
}

func build(ctx context.Context, appCfg *config.AppConfig, reg prometheus.Registerer) (*components, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Bounded context for startup operations (DB connect, schema, redis ping)
	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// DB pool
	pool, err := db.CreatePoolAndPing(startupCtx, appCfg.DbServer)
	if err != nil {
		logrus.WithError(err).Error("Error connecting to db")
		return nil, err
	}
	closers = append(closers, pool.Close)
	logrus.Info("✅ Postgres connection successful")

	store := postgres.NewRateStore(pool)
	if err = store.EnsureSchema(startupCtx); err != nil {
		logrus.WithError(err).Error("Failed to apply migrations")
		closeAll()
		return nil, err
	}
	logrus.Info("✅ Schema is up to date")

	lookup, err := lookupFromConfig(appCfg.Currencies)
	if err != nil {
		closeAll()
		return nil, err
	}

	// Base HTTP client (configurable timeout)
	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	provider := httpclient.NewRateProvider(
		&http.Client{Timeout: httpTimeout},
		strings.TrimSpace(appCfg.RateAPI.BaseURL),
		time.Duration(appCfg.RateAPI.FetchTimeoutSeconds)*time.Second,
	)

	listCache, err := cache.NewRateListCache(appCfg.Cache.MaxItems)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, listCache.Close)

	// Sync events are optional
	var notifier adapters.SyncNotifier
	if appCfg.Redis.Addr != "" {
		publisher, redisErr := notify.InitRedisPublisher(startupCtx, &redis.Options{
			Addr:     appCfg.Redis.Addr,
			Password: appCfg.Redis.Password,
			DB:       appCfg.Redis.DB,
		}, appCfg.Redis.Channel)
		if redisErr != nil {
			logrus.WithError(redisErr).Error("Error connecting to redis")
			closeAll()
			return nil, redisErr
		}
		closers = append(closers, func() { _ = publisher.Close() })
		notifier = publisher
		logrus.Info("✅ Redis connection successful")
	}

	synchronizer := rate.NewSynchronizer(store, provider, lookup, listCache, notifier, metrics.NewMetrics(reg))
	return &components{
		lookup:  lookup,
		service: rate.NewService(synchronizer, lookup),
		close:   closeAll,
	}, nil
}

// lookupFromConfig builds the allow-list; the built-in one is used when config has none.
func lookupFromConfig(currencies []config.Currency) (domain.Lookup, error) {
	if len(currencies) == 0 {
		return domain.DefaultLookup(), nil
	}
	lookup := make(domain.Lookup, len(currencies))
	for _, c := range currencies {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if !rate.IsCurrencyCode(code) {
			return nil, fmt.Errorf("invalid currency code in config: %q", c.Code)
		}
		if c.Description == "" || utf8.RuneCountInString(c.Description) > domain.MaxDescriptionLen {
			return nil, fmt.Errorf("currency %s needs a description of 1 to %d characters", code, domain.MaxDescriptionLen)
		}
		if lookup.Contains(domain.CurrencyCode(code)) {
			return nil, fmt.Errorf("currency %s is listed twice in config", code)
		}
		lookup[domain.CurrencyCode(code)] = c.Description
	}
	return lookup, nil
}
