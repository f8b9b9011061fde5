// Package main boots the Vending Machine Service HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyhunter13/vending-machine-service/internal/catalog"
	"github.com/fairyhunter13/vending-machine-service/internal/coins"
	"github.com/fairyhunter13/vending-machine-service/internal/config"
	httpapi "github.com/fairyhunter13/vending-machine-service/internal/http"
	"github.com/fairyhunter13/vending-machine-service/internal/ledger"
	"github.com/fairyhunter13/vending-machine-service/internal/money"
	"github.com/fairyhunter13/vending-machine-service/internal/obs"
	"github.com/fairyhunter13/vending-machine-service/internal/vending"
)

func main() {
	cfg := config.Load()
	obs.InitLogger()
	obs.Logger.Info("service_starting")

	inv := coins.New(cfg.Denominations...)
	if cfg.CoinFloat > 0 {
		for _, d := range cfg.Denominations {
			if _, err := inv.Deposit(d, cfg.CoinFloat); err != nil {
				obs.Logger.Error("coin_float_failed", "denomination", d.String(), "error", err)
				os.Exit(1)
			}
		}
	}

	cat := catalog.New()
	if cfg.SeedCatalog {
		seedCatalog(cat)
	}

	book := ledger.NewBook()
	q := ledger.NewQueue(128)
	mgr := ledger.NewManager(cfg, q, book)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.Start(ctx)

	machine := vending.New(cat, inv, mgr)
	app := httpapi.NewApp(cfg, machine, mgr)
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	app.StartShutdown()
	obs.Logger.Info("shutdown_drain_begin", "backlog_size", mgr.BacklogSize(), "worker_count", mgr.WorkerCount())

	ctxDrain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelDrain()
	if drained := mgr.DrainUntil(ctxDrain); !drained {
		obs.Logger.Warn("shutdown_drain_timeout")
	} else {
		obs.Logger.Info("shutdown_drain_complete")
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	mgr.Stop()
	obs.Logger.Info("service_stopped")
}

// seedCatalog loads the demo product lineup.
func seedCatalog(cat *catalog.Catalog) {
	seed := []struct {
		id          string
		price       money.Amount
		count       uint32
		description string
	}{
		{"Coke", money.MustParse("12.5"), 1000, "Coke Bottle"},
		{"Sprite", money.MustParse("11"), 1000, "Sprite Bottle"},
		{"ThumbsUp", money.MustParse("20"), 1000, "ThumbsUp Bottle"},
	}
	for _, s := range seed {
		if err := cat.Add(s.id, s.price, s.count, s.description); err != nil {
			obs.Logger.Error("seed_failed", "sku", s.id, "error", err)
			os.Exit(1)
		}
	}
	obs.Logger.Info("catalog_seeded", "sku_count", len(seed))
}
