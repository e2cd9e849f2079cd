// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"

	"google.golang.org/grpc"

	grpcserver "github.com/yuuhhe/microlog/internal/server/grpc"
)

// GrpcTransport implements LogTransport over microlog.v1.LogService.
type GrpcTransport struct {
	conn *grpc.ClientConn
	cli  *grpcserver.LogClient
}

// NewGrpcTransport dials with the provided dialer; Close releases the
// connection.
func NewGrpcTransport(ctx context.Context, dial func(ctx context.Context) (*grpc.ClientConn, error)) (*GrpcTransport, error) {
	conn, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	return &GrpcTransport{conn: conn, cli: grpcserver.NewLogClient(conn)}, nil
}

func (t *GrpcTransport) Append(ctx context.Context, req AppendRequest) error {
	_, err := t.cli.Append(ctx, &grpcserver.AppendRequest{
		Name:      req.Name,
		Level:     req.Level,
		Message:   req.Message,
		Timestamp: req.Timestamp,
	})
	return err
}

func (t *GrpcTransport) Read(ctx context.Context, req ReadRequest) ([]Entry, error) {
	res, err := t.cli.Read(ctx, &grpcserver.ReadRequest{Store: req.Store, Order: req.Order, Filter: req.Filter})
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(res.Entries))
	for _, e := range res.Entries {
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
		out = append(out, Entry{ID: e.ID, Timestamp: e.Timestamp, Text: e.Text})
	}
	return out, nil
}

func (t *GrpcTransport) Count(ctx context.Context, store string) (int, error) {
	res, err := t.cli.Count(ctx, &grpcserver.StoreRequest{Store: store})
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

func (t *GrpcTransport) Size(ctx context.Context) (int64, error) {
	res, err := t.cli.Size(ctx, &grpcserver.StoreRequest{})
	if err != nil {
		return 0, err
	}
	return res.Size, nil
}

func (t *GrpcTransport) Clear(ctx context.Context, store string) error {
	_, err := t.cli.Clear(ctx, &grpcserver.StoreRequest{Store: store})
	return err
}

func (t *GrpcTransport) Drop(ctx context.Context, store string) error {
	_, err := t.cli.Drop(ctx, &grpcserver.StoreRequest{Store: store})
	return err
}

func (t *GrpcTransport) Stores(ctx context.Context) ([]string, error) {
	res, err := t.cli.Stores(ctx, &grpcserver.StoresRequest{})
	if err != nil {
		return nil, err
	}
	return res.Stores, nil
}

func (t *GrpcTransport) Close() error { return t.conn.Close() }
