package broadcast

import (
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/campuseats/campus-eats/utils"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// A connection silent beyond this window is treated as disconnected
	// and its room memberships are dropped.
	pongWait = 60 * time.Second

	// Ping interval; must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames are small join requests only.
	maxMessageSize = 512

	// Outbound frames buffered per connection. One writer goroutine per
	// client drains this in order, which is what preserves publish order
	// for a single connection.
	sendBufferSize = 64
)

// Identity is the authenticated caller bound to a connection, taken from
// the verified token at upgrade time.
type Identity struct {
	UserID   uint
	Role     string
	OutletID *uint
}

// Client is one websocket connection registered with the hub.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	identity Identity
	send     chan []byte
	rooms    map[string]struct{} // guarded by hub.mu

	mu     sync.Mutex
	closed bool
	once   sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, identity Identity) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		identity: identity,
		send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[string]struct{}),
	}
}

// Run serves the connection until it closes, then drops all memberships.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// enqueue hands a frame to the client's writer. Returns false when the
// buffer is full (slow consumer). Called with hub.mu held.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel exactly once, which lets the writer
// finish and close the underlying connection.
func (c *Client) shutdown() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// readPump consumes join requests until the connection dies.
func (c *Client) readPump() {
	defer func() {
		c.hub.LeaveAll(c)
		c.shutdown()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.ErrorLogger.Printf("broadcast: read error user=%d: %v", c.identity.UserID, err)
			}
			return
		}

		msg, join, err := c.hub.parseAndAuthorize(c, raw)
		if err != nil {
			utils.InfoLogger.Printf("broadcast: rejected frame from user=%d: %v", c.identity.UserID, err)
			continue
		}
		if err := c.hub.Join(c, roomFor(msg.Event, join)); err != nil {
			utils.ErrorLogger.Printf("broadcast: join failed user=%d room=%s: %v",
				c.identity.UserID, roomFor(msg.Event, join), err)
		}
	}
}

// writePump is the single writer for the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// parseAndAuthorize validates an inbound frame and checks the caller may
// join the requested room: a user room only for the caller's own id, an
// outlet room only for staff bound to that outlet.
func (h *Hub) parseAndAuthorize(c *Client, raw []byte) (Message, JoinPayload, error) {
	msg, join, err := ParseClientMessage(raw)
	if err != nil {
		return Message{}, JoinPayload{}, err
	}

	switch msg.Event {
	case EventJoinUserRoom:
		if join.ID != strconv.FormatUint(uint64(c.identity.UserID), 10) {
			return Message{}, JoinPayload{}, errNotOwnRoom
		}
	case EventJoinOutlet:
		if c.identity.Role != "staff" || c.identity.OutletID == nil ||
			join.ID != strconv.FormatUint(uint64(*c.identity.OutletID), 10) {
			return Message{}, JoinPayload{}, errNotOutletStaff
		}
	}
	return msg, join, nil
}

func roomFor(event string, join JoinPayload) string {
	if event == EventJoinOutlet {
		return "outlet:" + join.ID
	}
	return "user:" + join.ID
}
