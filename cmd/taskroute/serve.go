package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/taskroute/internal/api"
	"github.com/shaiso/taskroute/internal/mq"
)

var startTime = time.Now()

func newServeCmd(configPath *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the routing HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			// graceful shutdown
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, appOptions{configPath: *configPath, broker: true})
			if err != nil {
				return err
			}
			defer a.Close()

			logger := a.logger
			logger.Info("starting taskroute serve")

			// Объявляем очереди из конфигурации
			if a.producer != nil {
				if err := mq.SetupTopology(ctx, a.producer.Declarer(), a.router.Queues()); err != nil {
					logger.Warn("failed to setup topology", "error", err)
				} else {
					logger.Info("topology declared\n" + mq.TopologyInfo(a.router.Queues()))
				}
			}

			handler := api.NewHandler(api.Config{
				Router:   a.router,
				Producer: a.producer,
				Logger:   logger,
			})

			mux := http.NewServeMux()

			// Health и metrics
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
				if a.conn != nil && !a.conn.IsConnected() {
					w.WriteHeader(http.StatusServiceUnavailable)
					fmt.Fprintf(w, "broker disconnected %s", time.Since(startTime))
					return
				}
				w.WriteHeader(http.StatusOK)
				fmt.Fprintf(w, "ok %s", time.Since(startTime))
			})
			mux.Handle("/metrics", promhttp.Handler())

			// Регистрируем API маршруты
			handler.RegisterRoutes(mux)

			if port == "" {
				port = a.env.APIPort
			}
			addr := ":" + port

			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			// Ожидаем сигнал завершения или ошибку сервера
			select {
			case <-ctx.Done():
			case err := <-errCh:
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutting down")

			// Graceful shutdown с таймаутом 10 секунд
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown error", "error", err)
			}

			logger.Info("stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP port (default $API_PORT or 8080)")
	return cmd
}
