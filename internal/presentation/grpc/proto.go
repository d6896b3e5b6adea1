package grpc

// proto.go defines the gRPC service descriptor for
// sentinel/fraudledger/v1/fraud_ledger.proto by hand. Messages travel with
// the "json" codec registered in codec.go.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	serviceName = "sentinel.fraudledger.v1.FraudLedgerService"

	// Full method names, as seen by interceptors.
	RecordFraudScoreMethod = "/" + serviceName + "/RecordFraudScore"
	GetFraudRecordMethod   = "/" + serviceName + "/GetFraudRecord"
)

// FraudRecordMsg is the wire form of a committed fraud record.
type FraudRecordMsg struct {
	Address       string `json:"address"`
	TransactionID string `json:"transaction_id"`
	ActionTaken   string `json:"action_taken"`
	Timestamp     int64  `json:"timestamp"`
	FraudScore    int32  `json:"fraud_score"`
	Bump          uint32 `json:"bump"`
}

// RecordFraudScoreRequest is the oracle's signed submission.
type RecordFraudScoreRequest struct {
	TransactionID string `json:"transaction_id"`
	Signature     string `json:"signature"`
	FraudScore    int32  `json:"fraud_score"`
}

// RecordFraudScoreResponse returns the committed record.
type RecordFraudScoreResponse struct {
	Record *FraudRecordMsg `json:"record"`
}

// GetFraudRecordRequest looks a record up by transaction id, address, or both.
type GetFraudRecordRequest struct {
	TransactionID string `json:"transaction_id,omitempty"`
	Address       string `json:"address,omitempty"`
}

// GetFraudRecordResponse returns the stored record.
type GetFraudRecordResponse struct {
	Record *FraudRecordMsg `json:"record"`
}

// FraudLedgerServiceServer is the server API for FraudLedgerService.
type FraudLedgerServiceServer interface {
	RecordFraudScore(context.Context, *RecordFraudScoreRequest) (*RecordFraudScoreResponse, error)
	GetFraudRecord(context.Context, *GetFraudRecordRequest) (*GetFraudRecordResponse, error)
	mustEmbedUnimplementedFraudLedgerServiceServer()
}

// UnimplementedFraudLedgerServiceServer provides forward-compatible default implementations.
type UnimplementedFraudLedgerServiceServer struct{}

func (UnimplementedFraudLedgerServiceServer) RecordFraudScore(context.Context, *RecordFraudScoreRequest) (*RecordFraudScoreResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RecordFraudScore not implemented")
}
func (UnimplementedFraudLedgerServiceServer) GetFraudRecord(context.Context, *GetFraudRecordRequest) (*GetFraudRecordResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetFraudRecord not implemented")
}
func (UnimplementedFraudLedgerServiceServer) mustEmbedUnimplementedFraudLedgerServiceServer() {}

// RegisterFraudLedgerServiceServer registers srv with the gRPC server.
func RegisterFraudLedgerServiceServer(s grpclib.ServiceRegistrar, srv FraudLedgerServiceServer) {
	s.RegisterService(&_FraudLedgerService_serviceDesc, srv)
}

var _FraudLedgerService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FraudLedgerServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "RecordFraudScore", Handler: _FraudLedgerService_RecordFraudScore_Handler},
		{MethodName: "GetFraudRecord", Handler: _FraudLedgerService_GetFraudRecord_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _FraudLedgerService_RecordFraudScore_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(RecordFraudScoreRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FraudLedgerServiceServer).RecordFraudScore(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: RecordFraudScoreMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FraudLedgerServiceServer).RecordFraudScore(ctx, req.(*RecordFraudScoreRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _FraudLedgerService_GetFraudRecord_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetFraudRecordRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FraudLedgerServiceServer).GetFraudRecord(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: GetFraudRecordMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FraudLedgerServiceServer).GetFraudRecord(ctx, req.(*GetFraudRecordRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// FraudLedgerServiceClient is the client API for FraudLedgerService.
type FraudLedgerServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewFraudLedgerServiceClient creates a client over cc. Calls use the json codec.
func NewFraudLedgerServiceClient(cc grpclib.ClientConnInterface) *FraudLedgerServiceClient {
	return &FraudLedgerServiceClient{cc: cc}
}

// RecordFraudScore submits a signed fraud score.
func (c *FraudLedgerServiceClient) RecordFraudScore(ctx context.Context, in *RecordFraudScoreRequest, opts ...grpclib.CallOption) (*RecordFraudScoreResponse, error) {
	out := new(RecordFraudScoreResponse)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, RecordFraudScoreMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetFraudRecord fetches a committed record.
func (c *FraudLedgerServiceClient) GetFraudRecord(ctx context.Context, in *GetFraudRecordRequest, opts ...grpclib.CallOption) (*GetFraudRecordResponse, error) {
	out := new(GetFraudRecordResponse)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, GetFraudRecordMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
