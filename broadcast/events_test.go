package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		event   string
		id      string
	}{
		{name: "join outlet", raw: `{"event":"join_outlet","data":{"id":"5"}}`, event: EventJoinOutlet, id: "5"},
		{name: "join user room", raw: `{"event":"join_user_room","data":{"id":"12"}}`, event: EventJoinUserRoom, id: "12"},
		{name: "missing id", raw: `{"event":"join_outlet","data":{}}`, wantErr: true},
		{name: "unknown event", raw: `{"event":"order_updated","data":{"id":"5"}}`, wantErr: true},
		{name: "garbage", raw: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, join, err := ParseClientMessage([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.event, msg.Event)
			assert.Equal(t, tt.id, join.ID)
		})
	}
}

func TestRoomKeys(t *testing.T) {
	assert.Equal(t, "outlet:7", OutletRoom(7))
	assert.Equal(t, "user:42", UserRoom(42))
}
