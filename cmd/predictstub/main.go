// Package main (in predictstub-subfolder) provides a local stand-in for the inference service
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/DamageOverlay/internal/imageproc"
	"github.com/UnendingLoop/DamageOverlay/internal/mwlogger"
	"github.com/UnendingLoop/DamageOverlay/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("Failed to load .env, using process environment only: %v", err)
	}

	zlog.InitConsole()
	if err := zlog.SetLevel("info"); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := appConfig.GetString("STUB_PORT")
	if port == "" {
		port = "8000"
	}

	handler := transport.NewPredictHandler(imageproc.DamageOverlay)
	engine := ginext.New(appConfig.GetString("GIN_MODE"))
	engine.POST("/predict/", handler.Predict)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mwlogger.NewMWLogger(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Logger.Info().Str("addr", srv.Addr).Msg("Inference stub running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Error().Err(err).Msg("Inference stub stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Failed to shutdown inference stub correctly:", err)
	}
	log.Println("Exiting inference stub...")
}
