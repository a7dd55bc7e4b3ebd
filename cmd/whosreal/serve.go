package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/whosreal/internal/ai"
	"github.com/example/whosreal/internal/application"
	"github.com/example/whosreal/internal/broadcast"
	"github.com/example/whosreal/internal/config"
	httptransport "github.com/example/whosreal/internal/http"
	"github.com/example/whosreal/internal/logging"
	"github.com/example/whosreal/internal/persistence/sqlite"
)

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(os.Stdout, cfg.Verbose)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := sqlite.Open("file:" + cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	now := time.Now
	idGenerator := uuid.NewString

	hub := broadcast.NewHub(logger)

	roomService := application.NewRoomService(storage, storage, storage, now, application.RoomServiceOptions{
		Countdown:            cfg.Countdown,
		DefaultRequiredCount: cfg.DefaultRequiredCount,
		PageSize:             cfg.PageSize,
		ClearCodeHash:        cfg.ClearCodeHash,
		Broadcaster:          hub,
		Logger:               logger,
	})
	profileService := application.NewProfileService(idGenerator, now, logger)

	chain := ai.NewPipelineWithLogger(ai.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel), logger)
	doppelgangerService := application.NewDoppelgangerService(roomService, profileService, chain, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Rooms:        httptransport.NewRoomHandler(roomService, idGenerator, logger),
		Messages:     httptransport.NewMessageHandler(roomService, logger),
		Profiles:     httptransport.NewProfileHandler(profileService, logger),
		Doppelganger: httptransport.NewDoppelgangerHandler(doppelgangerService, logger),
		QR:           httptransport.NewQRHandler(cfg.BaseURL(), logger),
		WS:           httptransport.NewWSHandler(roomService, hub, logger),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("whosreal listening", "addr", server.Addr, "scheme", cfg.Scheme())
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
