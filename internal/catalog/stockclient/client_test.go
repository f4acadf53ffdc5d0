package stockclient

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	stockv1 "github.com/dwikikusuma/shopmesh/api/stock/v1"
	"github.com/dwikikusuma/shopmesh/internal/catalog/app"
	cgrpc "github.com/dwikikusuma/shopmesh/internal/catalog/grpc"
	"github.com/dwikikusuma/shopmesh/internal/catalog/infra/memory"
	"github.com/dwikikusuma/shopmesh/pkg/logger"
)

func TestMapErr(t *testing.T) {
	t.Run("Unavailable -> dependency unavailable", func(t *testing.T) {
		err := mapErr(status.Error(codes.Unavailable, "down"))
		if !errors.Is(err, ErrDependencyUnavailable) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("DeadlineExceeded -> dependency unavailable", func(t *testing.T) {
		err := mapErr(status.Error(codes.DeadlineExceeded, "timeout"))
		if !errors.Is(err, ErrDependencyUnavailable) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("NotFound -> not found", func(t *testing.T) {
		err := mapErr(status.Error(codes.NotFound, "missing"))
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("FailedPrecondition -> insufficient stock", func(t *testing.T) {
		err := mapErr(status.Error(codes.FailedPrecondition, "short"))
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("InvalidArgument -> invalid argument", func(t *testing.T) {
		err := mapErr(status.Error(codes.InvalidArgument, "bad"))
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("Internal -> plain error", func(t *testing.T) {
		err := mapErr(status.Error(codes.Internal, "boom"))
		if errors.Is(err, ErrDependencyUnavailable) || errors.Is(err, ErrNotFound) {
			t.Fatalf("got %v", err)
		}
	})
}

// startCatalog serves StockService over an in-memory listener.
func startCatalog(t *testing.T) (*Client, *app.Service) {
	t.Helper()

	svc := app.NewService(memory.NewProductRepo())
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	stockv1.RegisterStockServiceServer(srv, cgrpc.NewServer(svc, logger.Nop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := Dial("passthrough:///bufnet", time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, svc
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, svc := startCatalog(t)

	p, err := svc.CreateProduct(ctx, "Keyboard", "", decimal.RequireFromString("49.9"), 5)
	require.NoError(t, err)

	got, err := c.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Keyboard", got.Name)
	require.True(t, got.Price.Equal(decimal.RequireFromString("49.90")))
	require.Equal(t, int32(5), got.Stock)

	_, err = c.GetProduct(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)

	many, err := c.GetProductsByIDs(ctx, []int64{999, p.ID})
	require.NoError(t, err)
	require.Len(t, many, 1)

	a, err := c.CheckAvailability(ctx, p.ID, 6)
	require.NoError(t, err)
	require.False(t, a.Available)
	require.Equal(t, int32(5), a.AvailableStock)
	require.Equal(t, "Not enough stock. Available: 5, requested: 6", a.Message)

	a, err = c.CheckAvailability(ctx, 999, 1)
	require.NoError(t, err)
	require.False(t, a.Available)
	require.Equal(t, "Product not found", a.Message)

	left, err := c.Reserve(ctx, p.ID, 3)
	require.NoError(t, err)
	require.Equal(t, int32(2), left)

	_, err = c.Reserve(ctx, p.ID, 3)
	require.ErrorIs(t, err, ErrInsufficientStock)

	left, err = c.Release(ctx, p.ID, 3)
	require.NoError(t, err)
	require.Equal(t, int32(5), left)

	_, err = c.Reserve(ctx, p.ID, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUnreachableCatalog(t *testing.T) {
	lis := bufconn.Listen(1 << 10)
	_ = lis.Close()

	c, err := Dial("passthrough:///bufnet", 200*time.Millisecond,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.CheckAvailability(context.Background(), 1, 1)
	require.ErrorIs(t, err, ErrDependencyUnavailable)
}
