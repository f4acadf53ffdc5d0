package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dwikikusuma/shopmesh/internal/catalog/stockclient"
	"github.com/dwikikusuma/shopmesh/internal/order/app"
	ohttp "github.com/dwikikusuma/shopmesh/internal/order/http"
	"github.com/dwikikusuma/shopmesh/internal/order/infra/adapter"
	"github.com/dwikikusuma/shopmesh/internal/order/infra/memory"
	opg "github.com/dwikikusuma/shopmesh/internal/order/infra/postgres"
	"github.com/dwikikusuma/shopmesh/pkg/config"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
	"github.com/dwikikusuma/shopmesh/pkg/logger"
	"github.com/dwikikusuma/shopmesh/pkg/postgres"
	"github.com/dwikikusuma/shopmesh/pkg/shutdown"
)

func main() {
	var cfgFile string
	cmd := &cobra.Command{
		Use:          "order",
		Short:        "Order placement with stock reservation",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgFile)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "path to a YAML config file")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(parent context.Context, cfgFile string) error {
	cfg, err := config.Load("order", cfgFile)
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Service: "order", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(parent)
	defer cancel()

	var repo app.OrderRepo
	if cfg.IsMemory() {
		repo = memory.NewOrderRepo()
	} else {
		db, err := postgres.OpenWithSchema(ctx, cfg.PostgresConfig(), opg.Schema)
		if err != nil {
			log.Error("db open failed", slog.Any("err", err))
			return err
		}
		defer db.Close()
		repo = opg.NewOrderRepo(db)
	}

	stock, err := stockclient.Dial(cfg.Stock.Addr, cfg.Stock.Timeout)
	if err != nil {
		return err
	}
	defer stock.Close()

	svc := app.NewService(repo, adapter.NewInventory(stock), log)

	router := httpx.NewRouter(log)
	ohttp.NewHandler(svc, log).Routes(router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(shutdown.HTTP(gctx, log, httpx.NewServer(cfg.HTTPPort, router)))

	err = g.Wait()
	log.Info("bye")
	return err
}
