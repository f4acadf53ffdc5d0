package stockv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	StockService_ServiceName                      = "stock.v1.StockService"
	StockService_GetProduct_FullMethodName        = "/stock.v1.StockService/GetProduct"
	StockService_GetProductsByIds_FullMethodName  = "/stock.v1.StockService/GetProductsByIds"
	StockService_CheckAvailability_FullMethodName = "/stock.v1.StockService/CheckAvailability"
	StockService_ReserveStock_FullMethodName      = "/stock.v1.StockService/ReserveStock"
	StockService_ReleaseStock_FullMethodName      = "/stock.v1.StockService/ReleaseStock"
)

type StockServiceClient interface {
	GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*Product, error)
	GetProductsByIds(ctx context.Context, in *GetProductsByIdsRequest, opts ...grpc.CallOption) (*GetProductsByIdsResponse, error)
	CheckAvailability(ctx context.Context, in *CheckAvailabilityRequest, opts ...grpc.CallOption) (*CheckAvailabilityResponse, error)
	ReserveStock(ctx context.Context, in *StockChangeRequest, opts ...grpc.CallOption) (*StockChangeResponse, error)
	ReleaseStock(ctx context.Context, in *StockChangeRequest, opts ...grpc.CallOption) (*StockChangeResponse, error)
}

type stockServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewStockServiceClient(cc grpc.ClientConnInterface) StockServiceClient {
	return &stockServiceClient{cc: cc}
}

func (c *stockServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *stockServiceClient) GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*Product, error) {
	out := new(Product)
	if err := c.invoke(ctx, StockService_GetProduct_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stockServiceClient) GetProductsByIds(ctx context.Context, in *GetProductsByIdsRequest, opts ...grpc.CallOption) (*GetProductsByIdsResponse, error) {
	out := new(GetProductsByIdsResponse)
	if err := c.invoke(ctx, StockService_GetProductsByIds_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stockServiceClient) CheckAvailability(ctx context.Context, in *CheckAvailabilityRequest, opts ...grpc.CallOption) (*CheckAvailabilityResponse, error) {
	out := new(CheckAvailabilityResponse)
	if err := c.invoke(ctx, StockService_CheckAvailability_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stockServiceClient) ReserveStock(ctx context.Context, in *StockChangeRequest, opts ...grpc.CallOption) (*StockChangeResponse, error) {
	out := new(StockChangeResponse)
	if err := c.invoke(ctx, StockService_ReserveStock_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stockServiceClient) ReleaseStock(ctx context.Context, in *StockChangeRequest, opts ...grpc.CallOption) (*StockChangeResponse, error) {
	out := new(StockChangeResponse)
	if err := c.invoke(ctx, StockService_ReleaseStock_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

type StockServiceServer interface {
	GetProduct(context.Context, *GetProductRequest) (*Product, error)
	GetProductsByIds(context.Context, *GetProductsByIdsRequest) (*GetProductsByIdsResponse, error)
	CheckAvailability(context.Context, *CheckAvailabilityRequest) (*CheckAvailabilityResponse, error)
	ReserveStock(context.Context, *StockChangeRequest) (*StockChangeResponse, error)
	ReleaseStock(context.Context, *StockChangeRequest) (*StockChangeResponse, error)
}

// UnimplementedStockServiceServer can be embedded to stay forward compatible.
type UnimplementedStockServiceServer struct{}

func (UnimplementedStockServiceServer) GetProduct(context.Context, *GetProductRequest) (*Product, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProduct not implemented")
}
func (UnimplementedStockServiceServer) GetProductsByIds(context.Context, *GetProductsByIdsRequest) (*GetProductsByIdsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProductsByIds not implemented")
}
func (UnimplementedStockServiceServer) CheckAvailability(context.Context, *CheckAvailabilityRequest) (*CheckAvailabilityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckAvailability not implemented")
}
func (UnimplementedStockServiceServer) ReserveStock(context.Context, *StockChangeRequest) (*StockChangeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ReserveStock not implemented")
}
func (UnimplementedStockServiceServer) ReleaseStock(context.Context, *StockChangeRequest) (*StockChangeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ReleaseStock not implemented")
}

func RegisterStockServiceServer(s grpc.ServiceRegistrar, srv StockServiceServer) {
	s.RegisterService(&StockService_ServiceDesc, srv)
}

// unary builds a method handler decoding into a fresh request value.
func unary[Req any, Resp any](fullMethod string, call func(StockServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StockServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(StockServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var StockService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: StockService_ServiceName,
	HandlerType: (*StockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetProduct",
			Handler:    unary(StockService_GetProduct_FullMethodName, StockServiceServer.GetProduct),
		},
		{
			MethodName: "GetProductsByIds",
			Handler:    unary(StockService_GetProductsByIds_FullMethodName, StockServiceServer.GetProductsByIds),
		},
		{
			MethodName: "CheckAvailability",
			Handler:    unary(StockService_CheckAvailability_FullMethodName, StockServiceServer.CheckAvailability),
		},
		{
			MethodName: "ReserveStock",
			Handler:    unary(StockService_ReserveStock_FullMethodName, StockServiceServer.ReserveStock),
		},
		{
			MethodName: "ReleaseStock",
			Handler:    unary(StockService_ReleaseStock_FullMethodName, StockServiceServer.ReleaseStock),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stock/v1/stock.proto",
}
