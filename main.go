package main

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-engine/api"
	"github.com/carson-networks/ledger-engine/internal/config"
	"github.com/carson-networks/ledger-engine/internal/ledger"
	"github.com/carson-networks/ledger-engine/internal/locking"
	"github.com/carson-networks/ledger-engine/internal/logging"
	"github.com/carson-networks/ledger-engine/internal/notify"
	"github.com/carson-networks/ledger-engine/internal/storage"
)

func main() {
	logger := logging.SetupLogging()
	logrus.Info("ledger-engine starting")

	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logrus.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}

	dbStorage, err := storage.NewStorage(context.Background(), envConfig)
	if err != nil {
		logrus.WithError(err).Fatal("storage.NewStorage")
		return
	}
	defer dbStorage.Close()

	dispatcher := notify.NewDispatcher(logger, envConfig.NotifyWorkers)
	dispatcher.Subscribe(auditLogger(logger))
	dispatcher.Start()
	defer dispatcher.Stop()

	locks := locking.NewController(envConfig.LockTimeout)
	engine := ledger.NewLedgerEngine(dbStorage, locks, dispatcher, logger)

	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		httpRest := api.Rest{
			Logger: logger,
			Port:   envConfig.HTTPPort,
			Engine: engine,
		}
		httpRest.Serve()
	}()

	wg.Wait()
}

// auditLogger is the default notification consumer: every domain event is
// written to the structured log for the audit collaborator to pick up.
func auditLogger(logger *logrus.Logger) notify.Handler {
	return func(ctx context.Context, event notify.Event) error {
		logger.WithFields(logrus.Fields{
			"kind":         event.Kind,
			"accountID":    event.AccountID,
			"reference":    event.Reference,
			"amount":       event.Amount,
			"balanceAfter": event.BalanceAfter,
			"oldStatus":    event.OldStatus,
			"newStatus":    event.NewStatus,
			"reason":       event.Reason,
		}).Info("Audit.event")
		return nil
	}
}
