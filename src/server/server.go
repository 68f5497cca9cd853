package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/handler"
	"cryptofolio/src/ledger"
)

// StartServer wires the HTTP routes over the ledger engine and blocks until
// SIGINT/SIGTERM, then shuts down gracefully. Every route is a thin wrapper:
// the engine and the cost-basis calculator own all semantics.
func StartServer(port string, engine *ledger.Engine) {
	// Router with middleware
	r := chi.NewRouter()

	createUser, getUser, listUsers, getBalance := handler.DefaultUserHandlers()
	listHoldings, getHolding, listTxns, txnReport, portfolioValue := handler.DefaultReportHandlers()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("\"/healthcheck\" error")
		}
	})

	r.Post("/users", createUser)
	r.Get("/users", listUsers)
	r.Get("/users/{uid}", getUser)
	r.Get("/users/{uid}/balance", getBalance)

	r.Post("/users/{uid}/deposit", handler.DepositHandler(engine))
	r.Post("/users/{uid}/withdraw", handler.WithdrawHandler(engine))
	r.Post("/users/{uid}/buy", handler.BuyHandler(engine))
	r.Post("/users/{uid}/sell", handler.SellHandler(engine))

	r.Get("/users/{uid}/holdings", listHoldings)
	r.Get("/users/{uid}/holdings/{tokenID}", getHolding)
	r.Get("/users/{uid}/transactions", listTxns)
	r.Get("/users/{uid}/transactions/report", txnReport)
	r.Get("/users/{uid}/portfolio/initial-value", portfolioValue)

	// Graceful server
	// Server setup
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
