package service

import (
	"context"

	"github.com/Luismorlan/pow_ledger/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "ledger.LedgerService"

// LedgerServiceServer is the server API for the ledger service.
type LedgerServiceServer interface {
	GetChain(context.Context, *GetChainRequest) (*model.ChainResponse, error)
	MineBlock(context.Context, *MineBlockRequest) (*MineBlockResponse, error)
	IsValid(context.Context, *IsValidRequest) (*IsValidResponse, error)
	AddTransaction(context.Context, *AddTransactionRequest) (*AddTransactionResponse, error)
	ConnectNode(context.Context, *ConnectNodeRequest) (*ConnectNodeResponse, error)
	ReplaceChain(context.Context, *ReplaceChainRequest) (*model.ReplaceResponse, error)
}

// UnimplementedLedgerServiceServer can be embedded to have forward compatible implementations.
type UnimplementedLedgerServiceServer struct{}

func (UnimplementedLedgerServiceServer) GetChain(context.Context, *GetChainRequest) (*model.ChainResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetChain not implemented")
}
func (UnimplementedLedgerServiceServer) MineBlock(context.Context, *MineBlockRequest) (*MineBlockResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method MineBlock not implemented")
}
func (UnimplementedLedgerServiceServer) IsValid(context.Context, *IsValidRequest) (*IsValidResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method IsValid not implemented")
}
func (UnimplementedLedgerServiceServer) AddTransaction(context.Context, *AddTransactionRequest) (*AddTransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AddTransaction not implemented")
}
func (UnimplementedLedgerServiceServer) ConnectNode(context.Context, *ConnectNodeRequest) (*ConnectNodeResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ConnectNode not implemented")
}
func (UnimplementedLedgerServiceServer) ReplaceChain(context.Context, *ReplaceChainRequest) (*model.ReplaceResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ReplaceChain not implemented")
}

// unaryHandler adapts one LedgerServiceServer method to a grpc.MethodDesc handler.
func unaryHandler[Req any, Resp any](method string, call func(LedgerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(LedgerServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("GetChain", LedgerServiceServer.GetChain),
		unaryHandler("MineBlock", LedgerServiceServer.MineBlock),
		unaryHandler("IsValid", LedgerServiceServer.IsValid),
		unaryHandler("AddTransaction", LedgerServiceServer.AddTransaction),
		unaryHandler("ConnectNode", LedgerServiceServer.ConnectNode),
		unaryHandler("ReplaceChain", LedgerServiceServer.ReplaceChain),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "service/ledger.go",
}

func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

// LedgerServiceClient is the client API for the ledger service.
type LedgerServiceClient interface {
	GetChain(ctx context.Context, in *GetChainRequest, opts ...grpc.CallOption) (*model.ChainResponse, error)
	MineBlock(ctx context.Context, in *MineBlockRequest, opts ...grpc.CallOption) (*MineBlockResponse, error)
	IsValid(ctx context.Context, in *IsValidRequest, opts ...grpc.CallOption) (*IsValidResponse, error)
	AddTransaction(ctx context.Context, in *AddTransactionRequest, opts ...grpc.CallOption) (*AddTransactionResponse, error)
	ConnectNode(ctx context.Context, in *ConnectNodeRequest, opts ...grpc.CallOption) (*ConnectNodeResponse, error)
	ReplaceChain(ctx context.Context, in *ReplaceChainRequest, opts ...grpc.CallOption) (*model.ReplaceResponse, error)
}

type ledgerServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerServiceClient(cc grpc.ClientConnInterface) LedgerServiceClient {
	return &ledgerServiceClient{cc}
}

func (c *ledgerServiceClient) invoke(ctx context.Context, method string, in interface{}, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
}

func (c *ledgerServiceClient) GetChain(ctx context.Context, in *GetChainRequest, opts ...grpc.CallOption) (*model.ChainResponse, error) {
	out := new(model.ChainResponse)
	if err := c.invoke(ctx, "GetChain", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) MineBlock(ctx context.Context, in *MineBlockRequest, opts ...grpc.CallOption) (*MineBlockResponse, error) {
	out := new(MineBlockResponse)
	if err := c.invoke(ctx, "MineBlock", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) IsValid(ctx context.Context, in *IsValidRequest, opts ...grpc.CallOption) (*IsValidResponse, error) {
	out := new(IsValidResponse)
	if err := c.invoke(ctx, "IsValid", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) AddTransaction(ctx context.Context, in *AddTransactionRequest, opts ...grpc.CallOption) (*AddTransactionResponse, error) {
	out := new(AddTransactionResponse)
	if err := c.invoke(ctx, "AddTransaction", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) ConnectNode(ctx context.Context, in *ConnectNodeRequest, opts ...grpc.CallOption) (*ConnectNodeResponse, error) {
	out := new(ConnectNodeResponse)
	if err := c.invoke(ctx, "ConnectNode", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) ReplaceChain(ctx context.Context, in *ReplaceChainRequest, opts ...grpc.CallOption) (*model.ReplaceResponse, error) {
	out := new(model.ReplaceResponse)
	if err := c.invoke(ctx, "ReplaceChain", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
