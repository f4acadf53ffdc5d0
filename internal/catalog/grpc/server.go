package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	stockv1 "github.com/dwikikusuma/shopmesh/api/stock/v1"
	"github.com/dwikikusuma/shopmesh/internal/catalog/app"
	"github.com/dwikikusuma/shopmesh/internal/catalog/domain"
)

// Server exposes the catalog stock operations over StockService.
type Server struct {
	stockv1.UnimplementedStockServiceServer
	svc *app.Service
	log *slog.Logger
}

func NewServer(svc *app.Service, log *slog.Logger) *Server {
	return &Server{svc: svc, log: log}
}

func (s *Server) GetProduct(ctx context.Context, req *stockv1.GetProductRequest) (*stockv1.Product, error) {
	p, err := s.svc.GetProduct(ctx, req.GetId())
	if err != nil {
		return nil, s.mapErr(err)
	}
	return toProto(p), nil
}

func (s *Server) GetProductsByIds(ctx context.Context, req *stockv1.GetProductsByIdsRequest) (*stockv1.GetProductsByIdsResponse, error) {
	products, err := s.svc.GetProductsByIDs(ctx, req.GetIds())
	if err != nil {
		return nil, s.mapErr(err)
	}

	out := make([]*stockv1.Product, 0, len(products))
	for _, p := range products {
		out = append(out, toProto(p))
	}
	return &stockv1.GetProductsByIdsResponse{Products: out}, nil
}

func (s *Server) CheckAvailability(ctx context.Context, req *stockv1.CheckAvailabilityRequest) (*stockv1.CheckAvailabilityResponse, error) {
	a, err := s.svc.CheckAvailability(ctx, req.GetProductId(), req.GetQuantity())
	if err != nil {
		return nil, s.mapErr(err)
	}
	return &stockv1.CheckAvailabilityResponse{
		Available:      a.Available,
		AvailableStock: a.AvailableStock,
		Price:          a.Price.StringFixed(2),
		Message:        a.Message,
	}, nil
}

func (s *Server) ReserveStock(ctx context.Context, req *stockv1.StockChangeRequest) (*stockv1.StockChangeResponse, error) {
	p, err := s.svc.ReserveStock(ctx, req.GetProductId(), req.GetQuantity())
	if err != nil {
		return nil, s.mapErr(err)
	}
	s.log.Info("stock reserved", slog.Int64("product_id", p.ID), slog.Int("quantity", int(req.GetQuantity())), slog.Int("stock", int(p.Stock)))
	return &stockv1.StockChangeResponse{ProductId: p.ID, Stock: p.Stock}, nil
}

func (s *Server) ReleaseStock(ctx context.Context, req *stockv1.StockChangeRequest) (*stockv1.StockChangeResponse, error) {
	p, err := s.svc.ReleaseStock(ctx, req.GetProductId(), req.GetQuantity())
	if err != nil {
		return nil, s.mapErr(err)
	}
	s.log.Info("stock released", slog.Int64("product_id", p.ID), slog.Int("quantity", int(req.GetQuantity())), slog.Int("stock", int(p.Stock)))
	return &stockv1.StockChangeResponse{ProductId: p.ID, Stock: p.Stock}, nil
}

func toProto(p domain.Product) *stockv1.Product {
	return &stockv1.Product{
		Id:    p.ID,
		Name:  p.Name,
		Price: p.Price.StringFixed(2),
		Stock: p.Stock,
	}
}

func (s *Server) mapErr(err error) error {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, app.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	s.log.Error("stock rpc failed", slog.Any("err", err))
	return status.Error(codes.Internal, "internal error")
}
