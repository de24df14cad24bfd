package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"
	_ "time/tzdata"

	"backend-antrian-klinik/internal/clock"
	"backend-antrian-klinik/internal/config"
	"backend-antrian-klinik/internal/http/handler"
	"backend-antrian-klinik/internal/http/middleware"
	"backend-antrian-klinik/internal/lock"
	"backend-antrian-klinik/internal/logger"
	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/queue"
	"backend-antrian-klinik/internal/realtime"
	"backend-antrian-klinik/internal/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	cfg, err := config.Load()
	if err != nil {
		logger.Logger.WithError(err).Fatal("konfigurasi tidak valid")
	}
	logger.Init(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		logger.Logger.WithError(err).Fatal("zona waktu tidak valid")
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Logger.WithError(err).Fatal("database tidak nyambung")
	}
	defer db.Close()

	rdb, err := config.InitRedis(cfg)
	if err != nil {
		logger.Logger.WithError(err).Fatal("redis tidak nyambung")
	}

	var (
		locks      queue.Locker = lock.NewLocal()
		redisCheck handler.Pinger
	)
	if rdb != nil {
		defer rdb.Close()
		locks = lock.NewRedis(rdb, 10*time.Second)
		redisCheck = handler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	svc := queue.NewService(db, locks, queue.Options{
		Location:         loc,
		SwapTTL:          cfg.SwapTTL,
		MaxOutgoingSwaps: cfg.SwapMaxOutgoing,
		CancelServing:    cfg.CancelAllowServing,
		JoinMaxRetries:   cfg.JoinMaxRetries,
	})

	clk := clock.System{}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(func(ctx context.Context, providerID int64) (models.Board, error) {
		return svc.Board(ctx, clock.Snap(clk, loc), providerID)
	})
	if rdb != nil {
		go realtime.AttachRedis(hub, rdb).Run(ctx)
	}

	go worker.NewSweeper(svc, clk, loc, cfg.SweepInterval).Run(ctx)

	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))

	handler.Register(app,
		handler.New(svc, hub, clk, loc),
		handler.NewHealthChecker(db, redisCheck),
		hub,
		handler.RouteConfig{
			JWTSecret:   cfg.JWTSecret,
			MetricsUser: cfg.MetricsUser,
			MetricsPass: cfg.MetricsPass,
		},
	)

	go func() {
		<-ctx.Done()
		logger.Logger.Info("shutdown...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Logger.WithError(err).Error("shutdown gagal")
		}
	}()

	logger.Logger.WithField("addr", cfg.Addr()).Info("Server jalan")
	if err := app.Listen(cfg.Addr()); err != nil {
		logger.Logger.WithError(err).Fatal("server berhenti")
	}
}
