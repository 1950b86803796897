package netmux

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// ListenSpec configures one service's passive (listening) endpoint.
type ListenSpec struct {
	Addr string
}

// DialSpec configures one service's active (outbound) endpoint, used
// when this instance feeds a remote aggregator instead of waiting for
// clients to connect.
type DialSpec struct {
	Addr    string
	Timeout time.Duration
}

// ListenAndServe opens addr and runs AcceptLoop against it until ctx
// is canceled.
func ListenAndServe(ctx context.Context, spec ListenSpec, serviceName string, onAccept func(*Connection), logger *logrus.Logger) error {
	l, err := net.Listen("tcp", spec.Addr)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"service": serviceName, "addr": spec.Addr}).Info("netmux: listening")
	return AcceptLoop(ctx, l, serviceName, onAccept)
}

// DialAndServe connects out to spec.Addr and hands the resulting
// Connection to onAccept, retrying with backoff until ctx is
// canceled or a connection succeeds once.
func DialAndServe(ctx context.Context, spec DialSpec, serviceName string, onAccept func(*Connection), logger *logrus.Logger) error {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	backoff := time.Second
	for {
		dialer := net.Dialer{Timeout: timeout}
		c, err := dialer.DialContext(ctx, "tcp", spec.Addr)
		if err == nil {
			onAccept(NewConnection(serviceName, c))
			return nil
		}
		logger.WithFields(logrus.Fields{"service": serviceName, "addr": spec.Addr, "error": err}).
			Warn("netmux: active connect failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
