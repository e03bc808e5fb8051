// Command scribed runs the transcription service: an HTTP API that accepts
// media uploads, extracts audio with ffmpeg, and transcribes it through a
// whisper sidecar.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/filety/scribe/cleanup"
	"github.com/filety/scribe/config"
	"github.com/filety/scribe/ffmpeg"
	"github.com/filety/scribe/identity"
	"github.com/filety/scribe/jobs"
	"github.com/filety/scribe/logger"
	"github.com/filety/scribe/media"
	"github.com/filety/scribe/quota"
	"github.com/filety/scribe/retention"
	"github.com/filety/scribe/scribe"
	"github.com/filety/scribe/server"
	"github.com/filety/scribe/transcription/whisper"
)

func main() {
	cfg, err := config.Load("scribed")
	if err != nil {
		logger.NewDefault("scribed").Fatal("config load failed", logger.ErrorFields("load", err))
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	log.Info("starting", logger.Fields(
		"environment", cfg.Environment,
		"scratch_dir", cfg.Media.ScratchDir,
	))

	if err := os.MkdirAll(cfg.Media.ScratchDir, 0o755); err != nil {
		log.Fatal("scratch dir unavailable", logger.ErrorFields("mkdir", err))
	}

	provider := whisper.NewProvider(whisper.Config{
		URL:      cfg.Whisper.URL,
		Model:    cfg.Whisper.Model,
		Language: cfg.Whisper.Language,
		Timeout:  cfg.Whisper.Timeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	waitForSidecar(ctx, provider, log)

	store := identity.NewMemoryStore()
	registry := jobs.NewRegistry(log)
	pool := jobs.NewPool(cfg.Workers.Count, cfg.Workers.QueueSize, log)
	ledger := quota.NewLedger(store, cfg.Quota.AnonDailySeconds, log)

	receiver := media.NewReceiver(cfg.Media.MemoryLimitBytes, cfg.Media.ScratchDir, log)
	receiver.ProbeChunk = cfg.Media.ProbeChunkBytes
	receiver.CopyChunk = cfg.Media.CopyChunkBytes

	service := scribe.NewService(scribe.Deps{
		Receiver: receiver,
		Extract:  ffmpeg.NewExtractor(cfg.FFmpeg.Binary, cfg.Media.ScratchDir, cfg.Media.MemoryLimitBytes, log),
		Probe:    ffmpeg.NewProber(cfg.FFmpeg.ProbeBinary),
		Provider: provider,
		Ledger:   ledger,
		Registry: registry,
		Pool:     pool,
		Cleanup:  cleanup.New(log),
		Log:      log,
	})

	sweeper := retention.NewSweeper(store, registry, cfg.Retention.TTL, cfg.Retention.Interval, log)
	go sweeper.Run(ctx)

	srv := server.New(server.Config{Host: cfg.Server.Host, Port: cfg.Server.Port}, log)
	server.NewHandlers(service, store, ledger, provider, cfg.Name, log).Register(srv.Engine())

	if err := srv.Start(ctx); err != nil {
		log.Fatal("server start failed", logger.ErrorFields("start", err))
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("server stop failed", logger.ErrorFields("stop", err))
	}
	pool.Close()
	log.Info("stopped")
}

// waitForSidecar blocks until the whisper sidecar answers its health check,
// backing off exponentially. Startup proceeds either way; an unreachable
// sidecar only fails jobs, not the process.
func waitForSidecar(ctx context.Context, provider *whisper.Provider, log *logger.Logger) {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
		backoff.WithMaxInterval(10*time.Second),
		backoff.WithMaxElapsedTime(time.Minute),
	), ctx)

	err := backoff.Retry(func() error {
		if !provider.IsAvailable(ctx) {
			return errors.New("whisper sidecar unavailable")
		}
		return nil
	}, policy)
	if err != nil {
		log.Warn("whisper sidecar not reachable, continuing anyway")
		return
	}
	log.Info("whisper sidecar ready")
}
