package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"retailhub/internal/app"
	"retailhub/internal/config"
	"retailhub/internal/storage"

	_ "retailhub/docs"
)

// @title Retail Hub API
// @version 1.0
// @description Storefront catalog, cart, checkout and back-office API.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log.SetFormatter(&log.JSONFormatter{})

	a := &cli.App{
		Name:  "retailhub",
		Usage: "retail storefront and back-office API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "storage", Usage: "memory, file, redis or mysql"},
			&cli.StringFlag{Name: "log-level", Usage: "logrus level"},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address"},
				},
				Action: serve,
			},
			{
				Name:   "reset",
				Usage:  "replace the stored catalog and orders with the built-in dataset",
				Action: reset,
			},
			{
				Name:   "migrate",
				Usage:  "apply MySQL migrations",
				Action: migrate,
			},
		},
	}
	if err := a.Run(os.Args); err != nil {
		log.WithError(err).Fatal("retailhub failed")
	}
}

// loadConfig reads the environment; flags win over it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.IsSet("storage") {
		cfg.Storage = c.String("storage")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.SetLevel(cfg.Level())
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := log.StandardLogger()

	persist, closer, err := app.OpenPersister(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, persist, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           application.Server.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(log.Fields{"addr": cfg.Addr, "storage": cfg.Storage}).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func reset(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	persist, closer, err := app.OpenPersister(cfg, log.StandardLogger())
	if err != nil {
		return err
	}
	defer closer.Close()

	app.Reset(c.Context, persist, log.StandardLogger())
	log.WithField("storage", cfg.Storage).Info("dataset reset")
	return nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := storage.OpenMySQL(cfg.MySQLDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}
