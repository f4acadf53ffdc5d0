package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dwikikusuma/shopmesh/internal/gateway/auth"
	"github.com/dwikikusuma/shopmesh/internal/gateway/httpapi"
	"github.com/dwikikusuma/shopmesh/internal/gateway/proxy"
	"github.com/dwikikusuma/shopmesh/internal/gateway/registry"
	"github.com/dwikikusuma/shopmesh/internal/gateway/routing"
	"github.com/dwikikusuma/shopmesh/pkg/config"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
	"github.com/dwikikusuma/shopmesh/pkg/logger"
	"github.com/dwikikusuma/shopmesh/pkg/shutdown"
)

func main() {
	var cfgFile string
	root := &cobra.Command{
		Use:          "gateway",
		Short:        "Edge gateway: token verification and routing to internal services",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "routes",
		Short: "Print the effective route table as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("gateway", cfgFile)
			if err != nil {
				return err
			}
			table, err := loadTable(cfg.Gateway)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(table)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(parent context.Context, cfgFile string) error {
	cfg, err := config.Load("gateway", cfgFile)
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Service: "gateway", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(parent)
	defer cancel()

	table, err := loadTable(cfg.Gateway)
	if err != nil {
		return err
	}
	classifier, err := routing.NewClassifier(table)
	if err != nil {
		return err
	}
	reg, err := registry.New(cfg.Services)
	if err != nil {
		return err
	}
	verifier, err := auth.NewVerifier(cfg.JWT.Secret)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Prefix:      table.Prefix,
		Classifier:  classifier,
		Verifier:    verifier,
		Forwarder:   proxy.NewForwarder(reg, cfg.Gateway.Timeout, log),
		CORSOrigins: cfg.Gateway.CORSOrigins,
		Log:         log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(shutdown.HTTP(gctx, log, httpx.NewServer(cfg.HTTPPort, router)))

	err = g.Wait()
	log.Info("bye")
	return err
}

// loadTable returns the compiled-in routes unless a routes file is set. The
// configured prefix wins over the table's.
func loadTable(gw config.Gateway) (routing.Table, error) {
	table := routing.DefaultTable()
	if gw.RoutesFile != "" {
		f, err := os.Open(gw.RoutesFile)
		if err != nil {
			return routing.Table{}, fmt.Errorf("open routes file: %w", err)
		}
		defer f.Close()
		if table, err = routing.LoadTable(f); err != nil {
			return routing.Table{}, fmt.Errorf("routes file %s: %w", gw.RoutesFile, err)
		}
	}
	if gw.Prefix != "" {
		table.Prefix = gw.Prefix
	}
	return table, table.Validate()
}
