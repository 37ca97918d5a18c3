package api

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-engine/internal/handlers/v1/status"
	"github.com/carson-networks/ledger-engine/internal/ledger"
	"github.com/carson-networks/ledger-engine/internal/logging"
)

// Rest serves the engine's operational HTTP surface. Monetary operations are
// exposed to collaborators as Go APIs on the engine, not over HTTP.
type Rest struct {
	Logger *logrus.Logger
	Port   string
	Engine *ledger.LedgerEngine
}

func (r *Rest) Serve() {
	statusHandler := status.NewHandler()

	http.HandleFunc("/status", logging.LoggingWrapper("Status", r.Logger, statusHandler.Handler))

	server := http.Server{
		Addr:              ":" + r.Port,
		ReadTimeout:       time.Duration(30) * time.Second,
		WriteTimeout:      time.Duration(30) * time.Second,
		IdleTimeout:       time.Duration(10) * time.Second,
		ReadHeaderTimeout: time.Duration(10) * time.Second,
	}

	r.Logger.Info("HttpServer.Serve.listening")
	err := server.ListenAndServe()
	if err != nil {
		r.Logger.WithError(err).Error("HttpServer.Serve.listen error")
	}
	r.Logger.Info("HttpServer.Serve.shutting down")
}
