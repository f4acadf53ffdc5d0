package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dwikikusuma/shopmesh/internal/cart/app"
	"github.com/dwikikusuma/shopmesh/internal/cart/events"
	carthttp "github.com/dwikikusuma/shopmesh/internal/cart/http"
	cartadapter "github.com/dwikikusuma/shopmesh/internal/cart/infra/adapter"
	"github.com/dwikikusuma/shopmesh/internal/cart/infra/memory"
	cartpg "github.com/dwikikusuma/shopmesh/internal/cart/infra/postgres"
	"github.com/dwikikusuma/shopmesh/internal/catalog/stockclient"
	checkoutapp "github.com/dwikikusuma/shopmesh/internal/checkout/app"
	checkouthttp "github.com/dwikikusuma/shopmesh/internal/checkout/http"
	checkoutadapter "github.com/dwikikusuma/shopmesh/internal/checkout/infra/adapter"
	"github.com/dwikikusuma/shopmesh/pkg/config"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
	"github.com/dwikikusuma/shopmesh/pkg/kafka"
	"github.com/dwikikusuma/shopmesh/pkg/logger"
	"github.com/dwikikusuma/shopmesh/pkg/postgres"
	"github.com/dwikikusuma/shopmesh/pkg/shutdown"
)

// quote lookups fan out to catalog at most this many at a time
const quoteConcurrency = 10

func main() {
	var cfgFile string
	cmd := &cobra.Command{
		Use:          "cart",
		Short:        "Cart service: HTTP API, UserCreated consumer and quotes",
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
	cfg, err := config.Load("cart", cfgFile)
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Service: "cart", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(parent)
	defer cancel()

	var repo app.CartRepo
	if cfg.IsMemory() {
		repo = memory.NewCartRepo()
	} else {
		db, err := postgres.OpenWithSchema(ctx, cfg.PostgresConfig(), cartpg.Schema)
		if err != nil {
			log.Error("db open failed", slog.Any("err", err))
			return err
		}
		defer db.Close()
		repo = cartpg.NewCartRepo(db)
	}

	stock, err := stockclient.Dial(cfg.Stock.Addr, cfg.Stock.Timeout)
	if err != nil {
		return err
	}
	defer stock.Close()

	cartSvc := app.NewService(repo,
		app.WithStockChecker(cartadapter.NewStockChecker(stock)),
		app.WithLogger(log),
	)
	quoteSvc := checkoutapp.NewService(
		checkoutadapter.NewCartServiceReader(cartSvc),
		checkoutadapter.NewCatalogReader(stock),
		quoteConcurrency,
	)

	router := httpx.NewRouter(log)
	carthttp.NewHandler(cartSvc, log).Routes(router, checkouthttp.NewHandler(quoteSvc, log).Routes)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(shutdown.HTTP(gctx, log, httpx.NewServer(cfg.HTTPPort, router)))

	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:  brokers,
			GroupID:  cfg.Kafka.GroupID,
			Topic:    cfg.Kafka.Topic,
			ClientID: cfg.Kafka.ClientID,
		}, log)
		if err != nil {
			return err
		}
		defer consumer.Close()

		handler := events.NewHandler(cartSvc, log)
		g.Go(func() error {
			log.Info("consuming", slog.String("topic", cfg.Kafka.Topic), slog.String("group", cfg.Kafka.GroupID))
			return consumer.Run(gctx, handler.Consume)
		})
	} else {
		log.Warn("no kafka brokers configured, carts are created on first use only")
	}

	err = g.Wait()
	log.Info("bye")
	return err
}
