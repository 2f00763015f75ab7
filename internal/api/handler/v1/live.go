package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sorteoapp/sorteo-api/internal/api/middleware"
	"github.com/sorteoapp/sorteo-api/internal/config"
	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/mirror"
	"github.com/sorteoapp/sorteo-api/internal/realtime"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust this for production!
	},
}

type LiveHandler struct {
	fetcher     realtime.Fetcher
	newListener realtime.ListenerFactory
	cfg         realtime.Config
}

func NewLiveHandler(tickets TicketService, limits LimitService, m *mirror.Mirror, newListener realtime.ListenerFactory, conf *config.RealtimeConfig) *LiveHandler {
	return &LiveHandler{
		fetcher: &snapshotFetcher{
			tickets: tickets,
			limits:  limits,
			mirror:  m,
		},
		newListener: newListener,
		cfg: realtime.Config{
			Heartbeat:            time.Duration(conf.HeartbeatSeconds) * time.Second,
			HeartbeatTimeout:     time.Duration(conf.HeartbeatTimeoutSeconds) * time.Second,
			Debounce:             time.Duration(conf.DebounceMillis) * time.Millisecond,
			MaxBackoff:           time.Duration(conf.MaxBackoffSeconds) * time.Second,
			MaxReconnectAttempts: conf.MaxReconnectAttempts,
		},
	}
}

// liveUpdate is the wire envelope pushed over the websocket.
type liveUpdate struct {
	Type    string               `json:"type"`
	State   realtime.State       `json:"state"`
	Stale   bool                 `json:"stale"`
	Tickets []domain.Ticket      `json:"tickets"`
	Limits  []domain.NumberLimit `json:"limits"`
}

// HandleLiveSync godoc
// @Summary      Subscribe to live ticket and limit updates for an event
// @Description  Upgrades to a websocket and pushes a fresh snapshot whenever the event's tickets or limits change. Vendors receive only their own tickets; admins receive every vendor's.
// @Tags         live
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Success      101      {string}   string "Switching Protocols to WebSocket"
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Router       /events/{eventID}/live [get]
// @Security     BearerAuth
func (h *LiveHandler) HandleLiveSync(ctx *gin.Context) {
	vendorEmail := ctx.GetString(middleware.CtxKeyVendorEmail)
	if ctx.GetString(middleware.CtxKeyVendorRole) == string(domain.RoleAdmin) {
		vendorEmail = ""
	}

	conn, err := liveUpgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := realtime.Open(h.cfg, h.newListener, h.fetcher, ctx.Param("eventID"), vendorEmail)

	peerGone := make(chan struct{})
	go func() {
		// The client never sends application data; reading only detects the
		// peer going away.
		defer close(peerGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					zap.L().Debug("live sync read error", zap.Error(err))
				}
				return
			}
		}
	}()

	go h.writePump(conn, ch, peerGone)
}

func (h *LiveHandler) writePump(conn *websocket.Conn, ch *realtime.SyncChannel, peerGone <-chan struct{}) {
	defer func() {
		ch.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-peerGone:
			return
		case snap := <-ch.Updates():
			payload, err := json.Marshal(liveUpdate{
				Type:    "snapshot",
				State:   ch.State(),
				Stale:   snap.Stale,
				Tickets: snap.Tickets,
				Limits:  snap.Limits,
			})
			if err != nil {
				zap.L().Error("failed to encode live update", zap.Error(err))
				continue
			}

			w, err := conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(payload)
			if err = w.Close(); err != nil {
				return
			}

			if ch.State() == realtime.StateAbandoned {
				// Final delivery already happened; tell the client to redial.
				msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "sync abandoned")
				conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
		}
	}
}

// snapshotFetcher loads the authoritative snapshot from the services and
// keeps the local mirror fed. When the store is unreachable it serves the
// mirrored copy marked stale rather than nothing.
type snapshotFetcher struct {
	tickets TicketService
	limits  LimitService
	mirror  *mirror.Mirror
}

func (f *snapshotFetcher) FetchSnapshot(ctx context.Context, eventID, vendorEmail string) (realtime.Snapshot, error) {
	tickets, err := f.tickets.ListTickets(ctx, eventID, vendorEmail)
	if err != nil {
		return f.mirrored(eventID, vendorEmail, err)
	}

	limits, err := f.limits.ListLimits(ctx, eventID, true)
	if err != nil {
		return f.mirrored(eventID, vendorEmail, err)
	}

	if vendorEmail == "" {
		// Only unscoped reads are complete enough to mirror.
		f.mirror.StoreTickets(eventID, tickets)
	}

	return realtime.Snapshot{Tickets: tickets, Limits: limits}, nil
}

func (f *snapshotFetcher) mirrored(eventID, vendorEmail string, cause error) (realtime.Snapshot, error) {
	cached, storedAt, ok := f.mirror.Tickets(eventID)
	if !ok {
		return realtime.Snapshot{}, cause
	}

	if vendorEmail != "" {
		scoped := cached[:0]
		for _, t := range cached {
			if t.VendorEmail == vendorEmail {
				scoped = append(scoped, t)
			}
		}
		cached = scoped
	}

	zap.L().Warn("serving mirrored snapshot",
		zap.String("eventID", eventID),
		zap.Time("storedAt", storedAt),
		zap.Error(cause),
	)

	return realtime.Snapshot{Tickets: cached, Stale: true}, nil
}
