package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/campuseats/campus-eats/broadcast"
	"github.com/campuseats/campus-eats/models"
	"github.com/campuseats/campus-eats/utils"
)

// ErrConnectivity is surfaced once reconnection attempts are exhausted.
// The caller shows a persistent connectivity banner; there is no further
// automatic retry.
var ErrConnectivity = errors.New("connection lost and reconnection attempts exhausted")

// Status is the connection state a UI can observe.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnected
	StatusReconnecting
	StatusFailed
)

// FetchFunc is the full resynchronization fetch (the ordinary HTTP list
// endpoint). It runs on every successful connect, because events are hints,
// never the sole source of truth.
type FetchFunc func(ctx context.Context) ([]models.Order, error)

type Config struct {
	// Endpoint is the broadcaster's websocket URL, token included.
	Endpoint string

	// UserID is the local identity; status events for other owners are
	// discarded as misrouted.
	UserID uint

	// JoinUserRoom subscribes to the caller's own order updates.
	JoinUserRoom bool

	// OutletID, when set, subscribes to that outlet's room (staff
	// dashboards). A staff member who also places personal orders may set
	// both this and JoinUserRoom.
	OutletID *uint

	Fetch  FetchFunc
	Policy ReconnectPolicy

	// ReadTimeout closes a connection whose server went silent (no frames,
	// no pings) beyond this window.
	ReadTimeout time.Duration

	// OnEvent, when set, observes every accepted event after it has been
	// merged into the local list.
	OnEvent func(event string, order models.Order)
}

// Manager keeps a local order list consistent with server state despite
// network instability. It is a subscription handle with an explicit
// lifecycle: Start dials, resynchronizes and joins rooms; Stop releases the
// connection. On any disconnect the local list is kept, the status flips to
// StatusReconnecting and the manager redials with backoff, refetching and
// rejoining on success since the hub remembers nothing across connections.
type Manager struct {
	cfg    Config
	dialer *websocket.Dialer

	mu     sync.RWMutex
	orders []models.Order
	status Status
	err    error
	conn   *websocket.Conn

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("subscriber: endpoint is required")
	}
	if cfg.Fetch == nil {
		return nil, errors.New("subscriber: fetch function is required")
	}
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy = DefaultReconnectPolicy()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 90 * time.Second
	}
	return &Manager{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		done:   make(chan struct{}),
	}, nil
}

// Start connects, resynchronizes and begins consuming events. The initial
// dial is synchronous so the caller learns immediately whether the endpoint
// is reachable; reconnects after that run in the background.
func (m *Manager) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	conn, err := m.connect(ctx)
	if err != nil {
		cancel()
		close(m.done)
		return err
	}
	m.setConn(conn, StatusConnected, nil)

	go m.run(ctx)
	return nil
}

// Stop releases the connection and waits for the event loop to exit.
// Stopping a failed or already stopped manager is harmless.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Lock()
	if m.conn != nil {
		m.conn.Close()
	}
	m.mu.Unlock()
	<-m.done
}

// Orders returns a snapshot of the local order list, newest first.
func (m *Manager) Orders() []models.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Order, len(m.orders))
	copy(out, m.orders)
	return out
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Err reports why the manager gave up, nil while healthy.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// connect dials, refetches the authoritative order list and re-announces
// room memberships.
func (m *Manager) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := m.dialer.DialContext(ctx, m.cfg.Endpoint, nil)
	if err != nil {
		return nil, err
	}

	orders, err := m.cfg.Fetch(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	m.mu.Lock()
	m.orders = orders
	m.mu.Unlock()

	if err := m.joinRooms(conn); err != nil {
		conn.Close()
		return nil, err
	}

	conn.SetReadDeadline(time.Now().Add(m.cfg.ReadTimeout))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(m.cfg.ReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})
	return conn, nil
}

func (m *Manager) joinRooms(conn *websocket.Conn) error {
	if m.cfg.JoinUserRoom {
		if err := writeJoin(conn, broadcast.EventJoinUserRoom, m.cfg.UserID); err != nil {
			return err
		}
	}
	if m.cfg.OutletID != nil {
		if err := writeJoin(conn, broadcast.EventJoinOutlet, *m.cfg.OutletID); err != nil {
			return err
		}
	}
	return nil
}

func writeJoin(conn *websocket.Conn, event string, id uint) error {
	frame, err := broadcast.Encode(event, broadcast.JoinPayload{
		ID: strconv.FormatUint(uint64(id), 10),
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// run consumes events until the context is cancelled, reconnecting as
// needed. A server-initiated close skips the backoff delay for the first
// redial; every other drop waits out the policy schedule.
func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	for {
		serverClosed := m.readLoop(ctx)
		if ctx.Err() != nil {
			m.setConn(nil, StatusDisconnected, nil)
			return
		}

		m.setConn(nil, StatusReconnecting, nil)
		conn, err := m.reconnect(ctx, serverClosed)
		if err != nil {
			if ctx.Err() != nil {
				m.setConn(nil, StatusDisconnected, nil)
			} else {
				m.setConn(nil, StatusFailed, err)
			}
			return
		}
		m.setConn(conn, StatusConnected, nil)
	}
}

// readLoop reads frames until the connection drops. Returns true when the
// server initiated the close.
func (m *Manager) readLoop(ctx context.Context) bool {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()
	if conn == nil {
		return false
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
		}
		conn.SetReadDeadline(time.Now().Add(m.cfg.ReadTimeout))

		var msg broadcast.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			utils.ErrorLogger.Printf("subscriber: malformed frame: %v", err)
			continue
		}
		m.applyEvent(msg)
	}
}

func (m *Manager) reconnect(ctx context.Context, immediate bool) (*websocket.Conn, error) {
	for attempt := 0; attempt < m.cfg.Policy.MaxAttempts; attempt++ {
		if !(immediate && attempt == 0) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.cfg.Policy.Delay(attempt)):
			}
		}

		conn, err := m.connect(ctx)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		utils.InfoLogger.Printf("subscriber: reconnect attempt %d failed: %v", attempt+1, err)
	}
	return nil, ErrConnectivity
}

// applyEvent merges one event into the local list. Events only ever update
// or prepend; the periodic full fetch is what removes stale entries.
func (m *Manager) applyEvent(msg broadcast.Message) {
	var order models.Order
	switch msg.Event {
	case broadcast.EventNewOrder, broadcast.EventOrderStatusUpdated, broadcast.EventOrderUpdated:
		if err := json.Unmarshal(msg.Data, &order); err != nil {
			utils.ErrorLogger.Printf("subscriber: malformed %s payload: %v", msg.Event, err)
			return
		}
	default:
		// outlet_status_changed and any future events carry no order;
		// nothing to merge.
		return
	}

	m.mu.Lock()
	switch msg.Event {
	case broadcast.EventOrderStatusUpdated:
		// Misrouted events for another owner are discarded.
		if order.UserID != m.cfg.UserID {
			m.mu.Unlock()
			return
		}
		m.replaceInPlace(order)
	case broadcast.EventOrderUpdated:
		m.replaceInPlace(order)
	case broadcast.EventNewOrder:
		// Duplicate delivery happens around reconnects (refetch raced with
		// a queued event); dedup on order id.
		if i := m.indexOf(order.ID); i >= 0 {
			m.orders[i] = order
		} else {
			m.orders = append([]models.Order{order}, m.orders...)
		}
	}
	m.mu.Unlock()

	if m.cfg.OnEvent != nil {
		m.cfg.OnEvent(msg.Event, order)
	}
}

// replaceInPlace updates an existing entry; unknown ids are ignored, only
// new_order inserts.
func (m *Manager) replaceInPlace(order models.Order) {
	if i := m.indexOf(order.ID); i >= 0 {
		m.orders[i] = order
	}
}

func (m *Manager) indexOf(id uint) int {
	for i := range m.orders {
		if m.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) setConn(conn *websocket.Conn, status Status, err error) {
	m.mu.Lock()
	m.conn = conn
	m.status = status
	m.err = err
	m.mu.Unlock()
}
