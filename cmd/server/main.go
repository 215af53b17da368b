package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/workshop-booking/internal/admin"
	"github.com/iliyamo/workshop-booking/internal/booking"
	"github.com/iliyamo/workshop-booking/internal/catalog"
	"github.com/iliyamo/workshop-booking/internal/config"
	"github.com/iliyamo/workshop-booking/internal/database"
	"github.com/iliyamo/workshop-booking/internal/handler"
	"github.com/iliyamo/workshop-booking/internal/middleware"
	"github.com/iliyamo/workshop-booking/internal/queue"
	"github.com/iliyamo/workshop-booking/internal/repository"
	"github.com/iliyamo/workshop-booking/internal/router"
	"github.com/iliyamo/workshop-booking/internal/service"
	"github.com/iliyamo/workshop-booking/internal/sheets"
	"github.com/iliyamo/workshop-booking/internal/store"
)

func main() {
	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cacheCfg.UseRedis() {
		rdb = config.NewRedisClient()
	}
	var kv store.KV = store.NewMemoryKV()
	var responses sheets.ResponseCache = sheets.NewMemoryResponseCache()
	if rdb != nil {
		defer rdb.Close()
		kv = store.NewRedisKV(rdb, cacheCfg.Prefix)
		responses = sheets.NewRedisResponseCache(rdb, cacheCfg.Prefix)
	}

	client, err := sheets.New(cfg.APIBaseURL,
		sheets.WithResponseCache(responses),
		sheets.WithCacheTTL(cacheCfg.ResponseTTL),
		sheets.WithTimeout(cfg.APITimeout),
	)
	if err != nil {
		log.Fatalf("sheets client: %v", err)
	}

	cache := catalog.New(client, kv, catalog.Options{
		CatalogTTL:             cacheCfg.CatalogTTL,
		CatalogRevalidateAfter: cacheCfg.CatalogRevalidateAfter,
		CatalogRefreshEvery:    cacheCfg.CatalogRefreshEvery,
		EventsTTL:              cacheCfg.EventsTTL,
		EventsRefreshEvery:     cacheCfg.EventsRefreshEvery,
		RevalidateDelay:        2 * time.Second,
	})
	cache.Start(ctx)

	httpCache := middleware.NewResponseCache(rdb, cacheCfg.Prefix, cacheCfg.HTTPTTL)
	unsubscribe := cache.Subscribe(func(u catalog.Update) {
		if err := httpCache.Purge(context.Background()); err != nil {
			log.Printf("server: purge response cache after %s update: %v", u.Lane, err)
		}
	})
	defer unsubscribe()

	go func() {
		snap, err := cache.Init(ctx)
		if err != nil {
			return
		}
		log.Printf("server: warmed %d workshops, %d events (degraded=%t)", len(snap.Workshops), len(snap.Events), snap.Degraded)
	}()

	pub := service.NewPublisher(cfg.RabbitURL)
	sessions := booking.NewRegistry(client, cfg.SessionIdleTTL,
		booking.WithCurrency(cfg.Currency),
		booking.WithCheckoutHook(pub.CheckoutHook()),
	)
	go sessions.Run(ctx, time.Minute)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("http: %s %s %d %s: %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			log.Printf("http: %s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	limit := middleware.NewTokenBucket(rlCfg, rdb)
	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewWorkshopHandler(cache, client), httpCache)
	router.RegisterBookings(e, handler.NewBookingHandler(sessions, cache, client, pub), limit)

	var confirmed queue.BookingStore
	if cfg.AdminEnabled() {
		db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("database: migrate: %v", err)
		}
		users := repository.NewUserRepo(db)
		if err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
			log.Fatalf("database: bootstrap admin: %v", err)
		}
		bookings := repository.NewBookingRepo(db)
		confirmed = bookings
		router.RegisterAdmin(e,
			handler.NewAuthHandler(users, cfg.JWTSecret, cfg.AccessTTLMin),
			handler.NewAdminHandler(admin.NewView(bookings, cache)),
			cfg.JWTSecret, limit)
	} else {
		log.Printf("server: DB_USER not set, admin endpoints disabled")
	}

	consumer := queue.NewConsumer(cfg.RabbitURL, confirmed, cfg.BookingLogPath)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("booking-consumer: stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("server: shutdown: %v", err)
	}
	cache.Wait()
}
