package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/campuseats/campus-eats/broadcast"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSController struct {
	Hub *broadcast.Hub
}

func NewWSController(hub *broadcast.Hub) *WSController {
	return &WSController{Hub: hub}
}

// Serve -> upgrade the authenticated request and hand the connection to
// the hub. Blocks until the client disconnects.
func (wc *WSController) Serve(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	role := c.GetString("role")

	var outletID *uint
	if v, exists := c.Get("outlet_id"); exists {
		if id, ok := v.(uint); ok {
			outletID = &id
		}
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := broadcast.NewClient(wc.Hub, ws, broadcast.Identity{
		UserID:   userID,
		Role:     role,
		OutletID: outletID,
	})
	client.Run()
}
