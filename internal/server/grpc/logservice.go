package grpcserver

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yuuhhe/microlog/internal/recordstore"
	"github.com/yuuhhe/microlog/internal/ringlog"
	"github.com/yuuhhe/microlog/internal/runtime"
	"github.com/yuuhhe/microlog/pkg/log"
)

const logServiceName = "microlog.v1.LogService"

type AppendRequest struct {
	ClientID  string `json:"clientId"`
	Name      string `json:"name"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp int64  `json:"ts"`
}

type AppendResponse struct{}

type ReadRequest struct {
	Store  string `json:"store"`
	Order  string `json:"order"`
	Filter string `json:"filter"`
}

type Entry struct {
	ID        uint64 `json:"id"`
	Timestamp int64  `json:"ts"`
	Text      string `json:"text"`
}

type ReadResponse struct {
	Store   string  `json:"store"`
	Entries []Entry `json:"entries"`
}

type StoreRequest struct {
	Store string `json:"store"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type SizeResponse struct {
	Size int64 `json:"size"`
}

type ClearResponse struct{}

type DropResponse struct{}

type StoresRequest struct{}

type StoresResponse struct {
	Stores []string `json:"stores"`
}

// LogService is the server API of microlog.v1.LogService.
type LogService interface {
	Append(context.Context, *AppendRequest) (*AppendResponse, error)
	Read(context.Context, *ReadRequest) (*ReadResponse, error)
	Count(context.Context, *StoreRequest) (*CountResponse, error)
	Size(context.Context, *StoreRequest) (*SizeResponse, error)
	Clear(context.Context, *StoreRequest) (*ClearResponse, error)
	Drop(context.Context, *StoreRequest) (*DropResponse, error)
	Stores(context.Context, *StoresRequest) (*StoresResponse, error)
}

func unaryHandler[Req any, Resp any](method string, call func(LogService, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			svc := srv.(LogService)
			if interceptor == nil {
				return call(svc, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + logServiceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(svc, ctx, req.(*Req))
			})
		},
	}
}

var logServiceDesc = grpc.ServiceDesc{
	ServiceName: logServiceName,
	HandlerType: (*LogService)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Append", LogService.Append),
		unaryHandler("Read", LogService.Read),
		unaryHandler("Count", LogService.Count),
		unaryHandler("Size", LogService.Size),
		unaryHandler("Clear", LogService.Clear),
		unaryHandler("Drop", LogService.Drop),
		unaryHandler("Stores", LogService.Stores),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "microlog/v1/log.json",
}

// RegisterLogService registers svc on s.
func RegisterLogService(s grpc.ServiceRegistrar, svc LogService) {
	s.RegisterService(&logServiceDesc, svc)
}

type logSvc struct {
	rt     *runtime.Runtime
	logger log.Logger
}

// toStatus maps log and store sentinels onto gRPC codes.
func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, ringlog.ErrInvalidConfiguration), errors.Is(err, recordstore.ErrInvalidName):
		code = codes.InvalidArgument
	case errors.Is(err, recordstore.ErrStoreNotFound):
		code = codes.NotFound
	case errors.Is(err, recordstore.ErrStoreInUse):
		code = codes.FailedPrecondition
	case errors.Is(err, ringlog.ErrStoreUnavailable), errors.Is(err, recordstore.ErrNotOpen):
		code = codes.Unavailable
	case errors.Is(err, recordstore.ErrStoreFull):
		code = codes.ResourceExhausted
	}
	return status.Error(code, err.Error())
}

func (l *logSvc) Append(_ context.Context, req *AppendRequest) (*AppendResponse, error) {
	if req.Message == "" {
		return nil, status.Error(codes.InvalidArgument, "message is required")
	}
	level, err := log.ParseLevel(req.Level)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	app, err := l.rt.OpenAppender()
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	ts := req.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	clientID := req.ClientID
	if clientID == "" {
		clientID = l.rt.ClientID()
	}
	app.DoLog(clientID, req.Name, ts, level, req.Message, nil)
	return &AppendResponse{}, nil
}

func (l *logSvc) Read(_ context.Context, req *ReadRequest) (*ReadResponse, error) {
	order, ok := ringlog.ParseOrder(req.Order)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown order %q", req.Order)
	}
	loader, err := l.rt.NewLoader(req.Store)
	if err != nil {
		return nil, toStatus(err)
	}
	loader.SetSortOrder(order)
	if err := loader.SetFilter(req.Filter); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	entries, err := loader.Entries()
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &ReadResponse{Store: loader.RecordStoreName(), Entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, Entry{ID: uint64(e.ID), Timestamp: e.Timestamp, Text: e.Text})
	}
	return resp, nil
}

func (l *logSvc) Count(_ context.Context, req *StoreRequest) (*CountResponse, error) {
	loader, err := l.rt.NewLoader(req.Store)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CountResponse{Count: loader.NumLogItems()}, nil
}

func (l *logSvc) Size(_ context.Context, _ *StoreRequest) (*SizeResponse, error) {
	return &SizeResponse{Size: l.rt.Appender().LogSize()}, nil
}

// Clear empties a store. The configured store is cleared through the
// appender so its window restarts empty.
func (l *logSvc) Clear(_ context.Context, req *StoreRequest) (*ClearResponse, error) {
	loader, err := l.rt.NewLoader(req.Store)
	if err != nil {
		return nil, toStatus(err)
	}
	app := l.rt.Appender()
	if loader.RecordStoreName() == app.RecordStoreName() && app.IsOpen() {
		app.Clear()
	} else {
		loader.ClearLog()
	}
	return &ClearResponse{}, nil
}

func (l *logSvc) Drop(_ context.Context, req *StoreRequest) (*DropResponse, error) {
	if err := l.rt.DropStore(req.Store); err != nil {
		return nil, toStatus(err)
	}
	return &DropResponse{}, nil
}

func (l *logSvc) Stores(_ context.Context, _ *StoresRequest) (*StoresResponse, error) {
	names, err := l.rt.Stores()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &StoresResponse{Stores: names}, nil
}

// LogClient calls microlog.v1.LogService over conn using the JSON codec.
type LogClient struct {
	cc grpc.ClientConnInterface
}

func NewLogClient(cc grpc.ClientConnInterface) *LogClient { return &LogClient{cc: cc} }

func (c *LogClient) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, "/"+logServiceName+"/"+method, in, out, grpc.CallContentSubtype(codecName))
}

func (c *LogClient) Append(ctx context.Context, in *AppendRequest) (*AppendResponse, error) {
	out := new(AppendResponse)
	return out, c.invoke(ctx, "Append", in, out)
}

func (c *LogClient) Read(ctx context.Context, in *ReadRequest) (*ReadResponse, error) {
	out := new(ReadResponse)
	return out, c.invoke(ctx, "Read", in, out)
}

func (c *LogClient) Count(ctx context.Context, in *StoreRequest) (*CountResponse, error) {
	out := new(CountResponse)
	return out, c.invoke(ctx, "Count", in, out)
}

func (c *LogClient) Size(ctx context.Context, in *StoreRequest) (*SizeResponse, error) {
	out := new(SizeResponse)
	return out, c.invoke(ctx, "Size", in, out)
}

func (c *LogClient) Clear(ctx context.Context, in *StoreRequest) (*ClearResponse, error) {
	out := new(ClearResponse)
	return out, c.invoke(ctx, "Clear", in, out)
}

func (c *LogClient) Drop(ctx context.Context, in *StoreRequest) (*DropResponse, error) {
	out := new(DropResponse)
	return out, c.invoke(ctx, "Drop", in, out)
}

func (c *LogClient) Stores(ctx context.Context, in *StoresRequest) (*StoresResponse, error) {
	out := new(StoresResponse)
	return out, c.invoke(ctx, "Stores", in, out)
}
