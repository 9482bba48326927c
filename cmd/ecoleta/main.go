package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ecoleta/internal/config"
	"ecoleta/internal/events"
	"ecoleta/internal/http/handlers"
	applog "ecoleta/internal/log"
	"ecoleta/internal/repos"
	"ecoleta/internal/storage"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := applog.TeeFile(cfg.LogFile)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	images, err := storage.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if d, ok := images.(*storage.Disk); ok {
		dir := d.Dir()
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		log.Printf("[static] /uploads -> %s", dir)
	}

	pub, err := events.New(cfg.AMQPURL)
	if err != nil {
		// Points are still accepted; events only go to the log.
		applog.Warn(nil, "amqp.connect.fail", err, nil)
		pub = events.LogPublisher{}
	}
	defer pub.Close()

	deps := handlers.NewDeps(db, cfg, images, pub)
	app := handlers.NewApp(cfg, deps)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			applog.Error(nil, "server.shutdown", err, nil)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
