package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dwikikusuma/shopmesh/internal/gateway/routing"
	"github.com/dwikikusuma/shopmesh/pkg/config"
)

func TestLoadTable(t *testing.T) {
	t.Run("compiled-in table", func(t *testing.T) {
		table, err := loadTable(config.Gateway{})
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if table.Prefix != "/api" || len(table.Routes) == 0 {
			t.Fatalf("got prefix %q with %d routes", table.Prefix, len(table.Routes))
		}
	})

	t.Run("prefix override", func(t *testing.T) {
		table, err := loadTable(config.Gateway{Prefix: "/v2"})
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if table.Prefix != "/v2" {
			t.Fatalf("got prefix %q", table.Prefix)
		}
	})

	t.Run("routes file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "routes.yaml")
		doc := "prefix: /edge\nroutes:\n  - pattern: /products\n    methods: [get]\n    public: true\n    target: catalog\n"
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatal(err)
		}
		table, err := loadTable(config.Gateway{RoutesFile: path})
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if table.Prefix != "/edge" || len(table.Routes) != 1 || table.Routes[0].Methods[0] != "GET" {
			t.Fatalf("got %+v", table)
		}
	})

	t.Run("invalid routes file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "routes.yaml")
		if err := os.WriteFile(path, []byte("prefix: /edge\nroutes: []\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := loadTable(config.Gateway{RoutesFile: path})
		if !errors.Is(err, routing.ErrInvalidTable) {
			t.Fatalf("want ErrInvalidTable, got %v", err)
		}
	})

	t.Run("missing routes file", func(t *testing.T) {
		if _, err := loadTable(config.Gateway{RoutesFile: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
			t.Fatal("want error")
		}
	})
}
