package broadcast

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Event types shared between server and subscriber.
const (
	// server -> client
	EventNewOrder            = "new_order"            // to outlet room: a new order was placed
	EventOrderStatusUpdated  = "order_status_updated" // to user room: the customer's order changed status
	EventOrderUpdated        = "order_updated"        // to outlet room: an outlet order changed status
	EventOutletStatusChanged = "outlet_status_changed"

	// client -> server
	EventJoinOutlet   = "join_outlet"
	EventJoinUserRoom = "join_user_room"
)

// Message is the wire envelope for every event in both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Encode wraps a payload into the wire envelope.
func Encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: event, Data: raw})
}

// JoinPayload carries the room target of a join request.
type JoinPayload struct {
	ID string `json:"id"`
}

// OutletStatusPayload announces an outlet toggling open/closed.
type OutletStatusPayload struct {
	OutletID uint `json:"outlet_id"`
	IsOpen   bool `json:"is_open"`
}

// ParseClientMessage decodes an inbound frame and validates it against the
// known client->server events. Anything else is rejected at the boundary.
func ParseClientMessage(raw []byte) (Message, JoinPayload, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, JoinPayload{}, fmt.Errorf("malformed frame: %w", err)
	}

	switch msg.Event {
	case EventJoinOutlet, EventJoinUserRoom:
		var join JoinPayload
		if err := json.Unmarshal(msg.Data, &join); err != nil {
			return Message{}, JoinPayload{}, fmt.Errorf("malformed %s payload: %w", msg.Event, err)
		}
		if join.ID == "" {
			return Message{}, JoinPayload{}, fmt.Errorf("%s: missing id", msg.Event)
		}
		return msg, join, nil
	default:
		return Message{}, JoinPayload{}, fmt.Errorf("unknown client event %q", msg.Event)
	}
}

// OutletRoom returns the room key for an outlet's staff dashboards.
func OutletRoom(outletID uint) string {
	return "outlet:" + strconv.FormatUint(uint64(outletID), 10)
}

// UserRoom returns the room key for a customer's devices.
func UserRoom(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}
