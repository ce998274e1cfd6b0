package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nx-media/playcore/internal/app"
	"github.com/nx-media/playcore/internal/config"
	xlog "github.com/nx-media/playcore/internal/log"
)

func main() {
	listenAddr := flag.String("l", "", "HTTP listen address (overrides config file)")
	configFile := flag.String("c", "playcore.json", "path to the JSON config file")
	logLevel := flag.String("L", "", "log level (overrides config file)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		os.Stderr.WriteString("playcore: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	xlog.Configure(xlog.Config{Level: cfg.LogLevel})
	log := xlog.With("main")
	log.Info().Str("listenAddr", cfg.ListenAddr).Str("dbPath", cfg.DBPath).Msg("starting playcore")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to build app")
		os.Exit(1)
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go core.Sweeper.Run(sweepCtx)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: core.Handler,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("listen failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	stopSweep()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := core.Close(); err != nil {
		log.Error().Err(err).Msg("close failed")
	}
	log.Info().Msg("exited")
}
