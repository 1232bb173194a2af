// Package health probes server reachability. The client uses it to switch
// between online and offline mode. HTTPProber hits the REST base URL;
// GRPCProber speaks the standard gRPC health checking protocol to a sidecar
// endpoint when the deployment has one.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/client/backend"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const defaultPingTimeout = 2 * time.Second

// Prober reports whether the server can be reached.
type Prober interface {
	Ping(ctx context.Context) error
	Close() error
}

var _ Prober = (*GRPCProber)(nil)

type GRPCProber struct {
	conn    *grpc.ClientConn
	client  healthpb.HealthClient
	service string
	timeout time.Duration
}

// NewGRPCProber connects lazily to addr. service is the name passed in the
// health check request; "" asks about the server as a whole.
func NewGRPCProber(addr, service string, opts ...grpc.DialOption) (*GRPCProber, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("health client %s: %w", addr, err)
	}
	return &GRPCProber{
		conn:    conn,
		client:  healthpb.NewHealthClient(conn),
		service: service,
		timeout: defaultPingTimeout,
	}, nil
}

// Ping returns nil when the server reports SERVING.
func (p *GRPCProber) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: p.service})
	if err != nil {
		return mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: status %s", backend.ErrUnavailable, resp.GetStatus())
	}
	return nil
}

func (p *GRPCProber) Close() error {
	return p.conn.Close()
}

func mapError(err error) error {
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", backend.ErrUnavailable, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: unknown service", backend.ErrUnavailable)
	default:
		return fmt.Errorf("health check: %w", err)
	}
}
