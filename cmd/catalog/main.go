package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	stockv1 "github.com/dwikikusuma/shopmesh/api/stock/v1"
	"github.com/dwikikusuma/shopmesh/internal/catalog/app"
	cgrpc "github.com/dwikikusuma/shopmesh/internal/catalog/grpc"
	chttp "github.com/dwikikusuma/shopmesh/internal/catalog/http"
	"github.com/dwikikusuma/shopmesh/internal/catalog/infra/memory"
	cpg "github.com/dwikikusuma/shopmesh/internal/catalog/infra/postgres"
	"github.com/dwikikusuma/shopmesh/pkg/config"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
	"github.com/dwikikusuma/shopmesh/pkg/logger"
	"github.com/dwikikusuma/shopmesh/pkg/postgres"
	"github.com/dwikikusuma/shopmesh/pkg/shutdown"
)

func main() {
	var cfgFile string
	cmd := &cobra.Command{
		Use:          "catalog",
		Short:        "Product catalog HTTP API and stock gRPC service",
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
	cfg, err := config.Load("catalog", cfgFile)
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Service: "catalog", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(parent)
	defer cancel()

	var repo app.ProductRepo
	if cfg.IsMemory() {
		repo = memory.NewProductRepo()
	} else {
		db, err := postgres.OpenWithSchema(ctx, cfg.PostgresConfig(), cpg.Schema)
		if err != nil {
			log.Error("db open failed", slog.Any("err", err))
			return err
		}
		defer db.Close()
		repo = cpg.NewProductRepo(db)
	}
	svc := app.NewService(repo)

	addr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("listen failed", slog.Any("err", err), slog.String("addr", addr))
		return err
	}
	grpcServer := grpc.NewServer()
	stockv1.RegisterStockServiceServer(grpcServer, cgrpc.NewServer(svc, log))

	router := httpx.NewRouter(log)
	chttp.NewHandler(svc, log).Routes(router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(shutdown.GRPC(gctx, log, grpcServer, lis))
	g.Go(shutdown.HTTP(gctx, log, httpx.NewServer(cfg.HTTPPort, router)))

	err = g.Wait()
	log.Info("bye")
	return err
}
