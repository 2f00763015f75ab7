package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ChannelName is the Postgres notification channel the schema's triggers
// publish to.
const ChannelName = "sorteo_changes"

// Notification is the coarse change signal the store delivers. It says what
// kind of row changed, not what the row now contains; subscribers re-fetch.
type Notification struct {
	Table       string `json:"table"`
	Op          string `json:"op"`
	EventID     string `json:"event_id"`
	VendorEmail string `json:"vendor_email"`
}

// Listener is one live notification connection. A SyncChannel discards the
// listener on any failure and asks its factory for a new one.
type Listener interface {
	// WaitForNotification blocks until a notification arrives, the
	// connection breaks, or ctx is done.
	WaitForNotification(ctx context.Context) (Notification, error)
	// Ping probes connection liveness. Used as the heartbeat.
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ListenerFactory opens a fresh connected listener. Connection failure is
// reported here so the caller can count it as a reconnect attempt.
type ListenerFactory func(ctx context.Context) (Listener, error)

// PGListener listens on a dedicated Postgres connection via LISTEN/NOTIFY.
type PGListener struct {
	conn *pgx.Conn
}

// NewPGListenerFactory returns a factory dialing databaseURL and subscribing
// to the notification channel.
func NewPGListenerFactory(databaseURL string) ListenerFactory {
	return func(ctx context.Context) (Listener, error) {
		conn, err := pgx.Connect(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("pgx.Connect -> %w", err)
		}
		if _, err := conn.Exec(ctx, "LISTEN "+ChannelName); err != nil {
			_ = conn.Close(ctx)
			return nil, fmt.Errorf("LISTEN %v -> %w", ChannelName, err)
		}
		return &PGListener{conn: conn}, nil
	}
}

func (l *PGListener) WaitForNotification(ctx context.Context) (Notification, error) {
	raw, err := l.conn.WaitForNotification(ctx)
	if err != nil {
		return Notification{}, err
	}

	var n Notification
	if err := json.Unmarshal([]byte(raw.Payload), &n); err != nil {
		// A malformed payload still means something changed; deliver it
		// unscoped so the subscriber re-fetches rather than misses an update.
		zap.L().Warn("malformed notification payload", zap.String("payload", raw.Payload), zap.Error(err))
		return Notification{}, nil
	}
	return n, nil
}

func (l *PGListener) Ping(ctx context.Context) error {
	return l.conn.Ping(ctx)
}

func (l *PGListener) Close(ctx context.Context) error {
	return l.conn.Close(ctx)
}
