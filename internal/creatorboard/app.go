package creatorboard

import (
	"context"
	"os"
	"os/signal"

	"github.com/kitewave/creatorboard/internal/creatorboard/config"
	"github.com/kitewave/creatorboard/internal/creatorboard/controller"
	"github.com/kitewave/creatorboard/internal/creatorboard/router"
	"github.com/kitewave/creatorboard/internal/creatorboard/store"
	"github.com/kitewave/creatorboard/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type App struct {
	router *router.HttpRouter
	logger *zap.Logger
}

func (a *App) Run() error {
	sisChan := make(chan os.Signal, 1)
	go func() {
		if err := a.router.Run(); err != nil {
			a.logger.Error("router.Run failed: ", zap.Error(err))
			sisChan <- os.Interrupt
		}
	}()
	return a.gracefulShutdown(sisChan)
}

func (a *App) gracefulShutdown(sisChan chan os.Signal) error {
	signal.Notify(sisChan, os.Interrupt)
	<-sisChan
	err := a.router.Close()
	if err != nil {
		a.logger.Error("router.Close failed: ", zap.Error(err))
	}
	return a.logger.Sync()
}

func NewApp(cfg *config.Config) *App {
	log, err := logger.InitLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	var snaps store.Snapshots
	var snapsClose func() error
	if cfg.Storage.Mode == "memory" {
		snaps = store.NewMemorySnapshots()
		snapsClose = func() error { return nil }
	} else {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			panic(err)
		}
		snaps = store.NewRedisSnapshots(client)
		snapsClose = client.Close
	}

	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	db, err := store.New(context.Background(), snaps, store.AdminSeed{
		Name:         cfg.Admin.Name,
		Email:        cfg.Admin.Email,
		PasswordHash: string(adminHash),
	}, log)
	if err != nil {
		panic(err)
	}

	c := controller.NewController(cfg, db, db, db, db, db, snapsClose)
	r := router.CreateRouter(c, cfg, log)
	return &App{
		router: r,
		logger: log,
	}
}
