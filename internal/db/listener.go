package db

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookgo/clock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/metrics"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/notify"
)

// ChangeChannel is the NOTIFY channel written by the table change triggers.
// Each payload is the name of the table that changed.
const ChangeChannel = "table_changes"

// ChangeTables are the tables whose triggers write to ChangeChannel. They
// must match the triggers installed by the migrations.
var ChangeTables = []string{"detections", "stations", "impact_factors"}

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// NotificationConn is a dedicated connection that receives notifications.
type NotificationConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Release()
}

// Connector opens a NotificationConn.
type Connector func(ctx context.Context) (NotificationConn, error)

// PoolConnector acquires listener connections from pool.
func PoolConnector(pool *pgxpool.Pool) Connector {
	return func(ctx context.Context) (NotificationConn, error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return poolConn{conn}, nil
	}
}

type poolConn struct {
	*pgxpool.Conn
}

func (c poolConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return c.Conn.Conn().WaitForNotification(ctx)
}

// Listener turns PostgreSQL change notifications into notify.Bus events.
// Views subscribe through the embedded Bus; Run keeps a LISTEN connection
// open and reconnects with exponential backoff when it drops.
type Listener struct {
	*notify.Bus

	connect Connector
	logger  zerolog.Logger
	clock   clock.Clock
}

func NewListener(connect Connector, logger zerolog.Logger, clk clock.Clock) *Listener {
	if clk == nil {
		clk = clock.New()
	}
	return &Listener{
		Bus:     notify.NewBus(),
		connect: connect,
		logger:  logger.With().Str("component", "listener").Logger(),
		clock:   clk,
	}
}

// Run listens until ctx is cancelled. After every reconnect it announces a
// change on each of ChangeTables, since notifications sent while no
// connection was listening are lost.
func (l *Listener) Run(ctx context.Context) error {
	backoff := minBackoff
	listened := false
	for {
		ok, received, err := l.listen(ctx, listened)
		if ctx.Err() != nil {
			return nil
		}
		listened = listened || ok
		if received {
			backoff = minBackoff
		}
		l.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("change listener disconnected")

		timer := l.clock.Timer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// listen runs one connection's lifetime. It reports whether LISTEN
// succeeded and whether any notification was delivered before the
// connection failed. With resync set, subscribers of every change table
// are notified once LISTEN is in place.
func (l *Listener) listen(ctx context.Context, resync bool) (bool, bool, error) {
	conn, err := l.connect(ctx)
	if err != nil {
		return false, false, fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ChangeChannel}.Sanitize()); err != nil {
		return false, false, fmt.Errorf("listen %s: %w", ChangeChannel, err)
	}
	l.logger.Info().Str("channel", ChangeChannel).Bool("resync", resync).Msg("listening for table changes")

	if resync {
		for _, table := range ChangeTables {
			l.Publish(table)
		}
	}

	received := false
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, received, fmt.Errorf("wait for notification: %w", err)
		}
		received = true
		if n.Channel != ChangeChannel {
			continue
		}
		metrics.ChangeNotificationsTotal.WithLabelValues(n.Payload).Inc()
		l.Publish(n.Payload)
	}
}
