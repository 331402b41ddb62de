package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/erazemk/inventar/internal/api"
	"github.com/erazemk/inventar/internal/config"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/files"
	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/store"
	"github.com/erazemk/inventar/internal/web"
)

func main() {
	// Values from .env must be visible before flags read their env fallbacks.
	if err := config.LoadEnvFiles(); err != nil {
		log.WithError(err).Fatal("Failed to load .env")
	}

	app := &cli.App{
		Name:  "inventar",
		Usage: "inventory item service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Aliases: []string{"H"}, Value: "0.0.0.0", EnvVars: []string{"HOST"}, Usage: "listen host"},
			&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Value: "3000", EnvVars: []string{"PORT"}, Usage: "listen port"},
			&cli.StringFlag{Name: "cache", Aliases: []string{"c"}, Value: "./cache", EnvVars: []string{"CACHE"}, Usage: "directory for runtime data such as uploads"},
			&cli.StringFlag{Name: "public", EnvVars: []string{"PUBLIC_DIR"}, Usage: "serve public assets from this directory instead of the built-in ones"},
			&cli.IntFlag{Name: "max-photo-dimension", EnvVars: []string{"MAX_PHOTO_DIMENSION"}, Usage: "re-encode photos as JPEG no larger than this (0 stores uploads as sent)"},
			&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}, Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Value: "text", EnvVars: []string{"LOG_FORMAT"}, Usage: "text or json"},
		},
		Before: setupLogging,
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func setupLogging(c *cli.Context) error {
	level, err := log.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	log.SetLevel(level)

	switch c.String("log-format") {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return errors.Errorf("unknown log format %q", c.String("log-format"))
	}
	return nil
}

func serve(c *cli.Context) error {
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	cfg := config.Server{
		Host:              c.String("host"),
		Port:              c.String("port"),
		Cache:             c.String("cache"),
		Public:            c.String("public"),
		MaxPhotoDimension: c.Int("max-photo-dimension"),
		DB:                dbCfg,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := c.Context
	started := time.Now()

	database, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.EnsureSchema(ctx, database); err != nil {
		return err
	}

	items := store.New(database)
	if now, err := items.Ping(ctx); err != nil {
		log.WithError(err).Error("DB error")
	} else {
		log.WithField("now", now).Info("DB OK")
	}

	pages, err := web.NewServer(items)
	if err != nil {
		return errors.Wrap(err, "loading templates")
	}
	public, err := web.PublicFS(cfg.Public)
	if err != nil {
		return errors.Wrap(err, "opening public directory")
	}

	var processor *imaging.Processor
	if cfg.MaxPhotoDimension > 0 {
		processor = &imaging.Processor{MaxDimension: cfg.MaxPhotoDimension}
	}

	router := api.NewRouter(api.Options{
		Items:     items,
		Photos:    files.New(cfg.UploadsDir()),
		Processor: processor,
		Pages:     pages,
		Public:    public,
		Started:   started,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": cfg.Addr(), "driver": cfg.DB.Driver, "uploads": cfg.UploadsDir()}).
			Infof("Server: http://%s", cfg.Addr())
		errc <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serving HTTP")
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
