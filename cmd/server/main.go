// cmd/server/main.go
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/drawdash/drawdash/internal/config"
	"github.com/drawdash/drawdash/internal/handlers"
	"github.com/drawdash/drawdash/internal/middleware"
)

func main() {
	cfg := config.FromEnv()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	gs := handlers.NewGameServer(cfg, clock.New(), logger)

	router := mux.NewRouter()
	router.Handle("/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(logger, gs),
	)))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	addr := "0.0.0.0:" + cfg.Port
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatalf("listen %s: %v", addr, err)
	}

	srv := &http.Server{Handler: router}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Infof("Game server listening on %s", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatalf("server exited: %v", err)
	case sig := <-sigCh:
		logger.Infof("Received %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}
