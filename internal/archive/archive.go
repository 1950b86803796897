// Package archive persists decoded SBS lines beyond the receiver's
// in-memory fleet: a NATS publish for downstream stream consumers and
// an optional Postgres sink for long-term storage.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"go1090/internal/tracker"
)

// Sink receives every routed aircraft update for archival. A nil
// Sink field is a no-op, so archival is entirely optional.
type Sink struct {
	nc     *nats.Conn
	subj   string
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// Option configures a Sink at construction.
type Option func(*Sink)

// WithNATS publishes every archived line to subj on nc.
func WithNATS(nc *nats.Conn, subj string) Option {
	return func(s *Sink) { s.nc, s.subj = nc, subj }
}

// WithPostgres inserts every archived line into pool's sbs_messages
// table.
func WithPostgres(pool *pgxpool.Pool) Option {
	return func(s *Sink) { s.pool = pool }
}

// New builds a Sink from zero or more Options.
func New(logger *logrus.Logger, opts ...Option) *Sink {
	s := &Sink{logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Archive records one aircraft's state at now. NATS publish errors
// are logged and swallowed (best-effort, must not block the decode
// pipeline); Postgres errors are returned so a caller can decide to
// back off.
func (s *Sink) Archive(ctx context.Context, a *tracker.Aircraft, line string, now time.Time) error {
	if s.nc != nil {
		if err := s.nc.Publish(s.subj, []byte(line)); err != nil {
			s.logger.WithError(err).Warn("archive: nats publish failed")
		}
	}
	if s.pool != nil {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO sbs_messages (icao, seen_at, line) VALUES ($1, $2, $3)`,
			fmt.Sprintf("%06X", a.Addr), now, line,
		)
		if err != nil {
			return fmt.Errorf("archive: insert: %w", err)
		}
	}
	return nil
}

// Close releases the NATS connection and Postgres pool, if present.
func (s *Sink) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
