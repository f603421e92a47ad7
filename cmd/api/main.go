package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassiomorais/checkout/internal/application/reconciliation"
	"github.com/cassiomorais/checkout/internal/bootstrap"
	"github.com/cassiomorais/checkout/internal/controller"
	"github.com/cassiomorais/checkout/internal/repository/postgres"
)

const serviceName = "checkout-api"

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, serviceName, "checkout")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	rec := app.NewReconciliation()
	webhooks := reconciliation.NewHandleWebhookUseCase(rec.Engine, rec.Gateways, rec.Webhooks, app.Logger, app.Metrics)

	router := controller.NewRouter(controller.RouterDeps{
		Processor:       rec.Engine,
		Webhooks:        webhooks,
		IdempotencyRepo: postgres.NewIdempotencyRepository(app.Pool),
		Checks: []controller.DependencyCheck{
			controller.PostgresCheck(app.Pool),
			controller.RedisCheck(app.Redis),
		},
		Metrics:        app.Metrics,
		Gatherer:       app.Gatherer,
		Logger:         app.Logger,
		CORSConfig:     app.Config.Server.CORS,
		JWTSecret:      app.Config.Auth.JWTSecret,
		DefaultChannel: app.Config.Stripe.DefaultChannel,
		ServiceName:    serviceName,
	})

	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
