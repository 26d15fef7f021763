package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pixelgen/internal/config"
	"pixelgen/internal/gemini"
	"pixelgen/internal/handlers"
	"pixelgen/internal/httpclient"
	"pixelgen/internal/mediagroup"
	"pixelgen/internal/pixelart"
	"pixelgen/internal/session"
	"pixelgen/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("bot stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	hc := httpclient.New(httpclient.Options{PreferIPv4: cfg.PreferIPv4, Timeout: cfg.HTTPTimeout, Logger: logger})

	tg, err := telegram.New(telegram.Options{Token: cfg.TelegramToken, HTTPClient: hc, Logger: logger, Debug: cfg.Debug})
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	gem, err := gemini.New(ctx, gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		HTTPClient: hc,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("gemini: %w", err)
	}

	stylizer, err := pixelart.NewStylizer(pixelart.Options{Generator: gem, Model: cfg.GeminiModel, Logger: logger})
	if err != nil {
		return err
	}

	albumLimit := max(1, cfg.MaxConcurrent/2)

	h := handlers.New(handlers.Options{
		Telegram:         tg,
		Stylizer:         stylizer,
		Sessions:         session.NewStore(session.Options{TTL: cfg.SessionTTL}),
		Logger:           logger,
		AlbumConcurrency: albumLimit,
	})

	// Updates hold one slot, albums hold albumLimit, so at most
	// MaxConcurrent generations are in flight.
	workers := newPool(cfg.MaxConcurrent)
	dispatch := func(weight int, fn func(context.Context)) error {
		return workers.Go(ctx, weight, func() {
			reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()
			fn(reqCtx)
		})
	}

	albums := mediagroup.New(mediagroup.Options{
		Debounce: cfg.MediaGroupDebounce,
		OnFlush: func(g mediagroup.Group) {
			if ctx.Err() != nil {
				return
			}
			if err := dispatch(albumLimit, func(c context.Context) { h.HandleMediaGroup(c, g) }); err != nil {
				logger.Warn("album dropped", "chat_id", g.ChatID, "photos", len(g.FileIDs), "err", err)
			}
		},
	})
	h.SetMediaGroupAggregator(albums)

	updates := tg.Updates(telegram.UpdatesOptions{Timeout: 30 * time.Second})
	logger.Info("bot started", "username", tg.Username(), "model", stylizer.Model(), "workers", cfg.MaxConcurrent)

	defer func() {
		tg.StopUpdates()
		dropped := albums.Stop()
		workers.Wait()
		logger.Info("bot stopped", "dropped_albums", dropped)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				logger.Warn("update channel closed")
				return nil
			}
			err := dispatch(1, func(c context.Context) {
				if err := h.HandleUpdate(c, upd); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("handle update", "update_id", upd.UpdateID, "err", err)
				}
			})
			if err != nil {
				return nil
			}
		}
	}
}
