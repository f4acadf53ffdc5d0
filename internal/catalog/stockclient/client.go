// Package stockclient is the caller side of StockService, used by cart and
// order to consult and mutate catalog inventory.
package stockclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	stockv1 "github.com/dwikikusuma/shopmesh/api/stock/v1"
)

var (
	// ErrDependencyUnavailable means catalog could not be reached in time. It
	// is distinct from a product that is simply not available.
	ErrDependencyUnavailable = errors.New("catalog unavailable")
	ErrNotFound              = errors.New("product not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidArgument       = errors.New("invalid argument")
)

const DefaultTimeout = 5 * time.Second

type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Stock int32
}

type Availability struct {
	Available      bool
	AvailableStock int32
	Price          decimal.Decimal
	Message        string
}

type Client struct {
	rpc     stockv1.StockServiceClient
	timeout time.Duration
	conn    *grpc.ClientConn
}

// Dial creates a client for the catalog gRPC address. The connection is
// established lazily on first call.
func Dial(addr string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(stockv1.CodecName)),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("stock client %s: %w", addr, err)
	}
	c := New(stockv1.NewStockServiceClient(conn), timeout)
	c.conn = conn
	return c, nil
}

func New(rpc stockv1.StockServiceClient, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{rpc: rpc, timeout: timeout}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) GetProduct(ctx context.Context, id int64) (Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.rpc.GetProduct(ctx, &stockv1.GetProductRequest{Id: id})
	if err != nil {
		return Product{}, mapErr(err)
	}
	return fromProto(resp)
}

// GetProductsByIDs returns the products that exist; missing ids are absent
// from the result.
func (c *Client) GetProductsByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.rpc.GetProductsByIds(ctx, &stockv1.GetProductsByIdsRequest{Ids: ids})
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		prod, err := fromProto(p)
		if err != nil {
			return nil, err
		}
		out = append(out, prod)
	}
	return out, nil
}

func (c *Client) CheckAvailability(ctx context.Context, productID int64, quantity int32) (Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.rpc.CheckAvailability(ctx, &stockv1.CheckAvailabilityRequest{ProductId: productID, Quantity: quantity})
	if err != nil {
		return Availability{}, mapErr(err)
	}
	price, err := parsePrice(resp.Price)
	if err != nil {
		return Availability{}, err
	}
	return Availability{
		Available:      resp.Available,
		AvailableStock: resp.AvailableStock,
		Price:          price,
		Message:        resp.Message,
	}, nil
}

// Reserve returns the remaining stock.
func (c *Client) Reserve(ctx context.Context, productID int64, quantity int32) (int32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.rpc.ReserveStock(ctx, &stockv1.StockChangeRequest{ProductId: productID, Quantity: quantity})
	if err != nil {
		return 0, mapErr(err)
	}
	return resp.Stock, nil
}

func (c *Client) Release(ctx context.Context, productID int64, quantity int32) (int32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.rpc.ReleaseStock(ctx, &stockv1.StockChangeRequest{ProductId: productID, Quantity: quantity})
	if err != nil {
		return 0, mapErr(err)
	}
	return resp.Stock, nil
}

func fromProto(p *stockv1.Product) (Product, error) {
	price, err := parsePrice(p.Price)
	if err != nil {
		return Product{}, err
	}
	return Product{ID: p.Id, Name: p.Name, Price: price, Stock: p.Stock}, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("catalog returned bad price %q: %w", raw, err)
	}
	return d, nil
}

func mapErr(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
		}
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", ErrDependencyUnavailable, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", ErrInsufficientStock, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, st.Message())
	default:
		return fmt.Errorf("stock rpc: %s: %s", st.Code(), st.Message())
	}
}
