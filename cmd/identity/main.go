package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dwikikusuma/shopmesh/internal/identity/app"
	ihttp "github.com/dwikikusuma/shopmesh/internal/identity/http"
	"github.com/dwikikusuma/shopmesh/internal/identity/infra/memory"
	ipg "github.com/dwikikusuma/shopmesh/internal/identity/infra/postgres"
	"github.com/dwikikusuma/shopmesh/pkg/authjwt"
	"github.com/dwikikusuma/shopmesh/pkg/config"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
	"github.com/dwikikusuma/shopmesh/pkg/kafka"
	"github.com/dwikikusuma/shopmesh/pkg/logger"
	"github.com/dwikikusuma/shopmesh/pkg/postgres"
	"github.com/dwikikusuma/shopmesh/pkg/shutdown"
)

func main() {
	var cfgFile string
	cmd := &cobra.Command{
		Use:          "identity",
		Short:        "Registration, login and user administration",
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
	cfg, err := config.Load("identity", cfgFile)
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Service: "identity", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(parent)
	defer cancel()

	var repo app.UserRepo
	if cfg.IsMemory() {
		repo = memory.NewUserRepo()
	} else {
		db, err := postgres.OpenWithSchema(ctx, cfg.PostgresConfig(), ipg.Schema)
		if err != nil {
			log.Error("db open failed", slog.Any("err", err))
			return err
		}
		defer db.Close()
		repo = ipg.NewUserRepo(db)
	}

	issuer, err := authjwt.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		return err
	}

	opts := []app.Option{}
	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:  brokers,
			ClientID: cfg.Kafka.ClientID,
			Topic:    cfg.Kafka.Topic,
		})
		if err != nil {
			return err
		}
		defer pub.Close()
		opts = append(opts, app.WithPublisher(pub))
	} else {
		log.Warn("no kafka brokers configured, UserCreated events are disabled")
	}

	svc := app.NewService(repo, issuer, log, opts...)
	// runs before pub.Close so pending events get their chance
	defer svc.Drain()

	router := httpx.NewRouter(log)
	ihttp.NewHandler(svc, log).Routes(router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(shutdown.HTTP(gctx, log, httpx.NewServer(cfg.HTTPPort, router)))

	err = g.Wait()
	log.Info("bye")
	return err
}
