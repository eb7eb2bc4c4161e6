package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campuseats/campus-eats/broadcast"
	"github.com/campuseats/campus-eats/models"
	"github.com/campuseats/campus-eats/router"
	"github.com/campuseats/campus-eats/subscriber"
	"github.com/campuseats/campus-eats/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEndToEndIntegration walks the main flow:
// 0. Register a student and a staff account, staff seeds an outlet + menu
// 1. Both sides connect over websocket and join their rooms
// 2. Student places an order -> outlet dashboard sees new_order
// 3. Staff advance the status -> both rooms get matching events
// 4. A subscription manager resyncs and tracks the same order
func TestEndToEndIntegration(t *testing.T) {
	t.Setenv("STAFF_SECRET_KEY", "kitchen-pass")

	db := setupIntegrationDB(t)
	hub := broadcast.NewHub()
	r := router.SetupRouter(db, hub)
	srv := httptest.NewServer(r)
	defer srv.Close()

	outlet := seedIntegrationOutlet(t, db)

	studentToken := registerTest(t, srv, map[string]interface{}{
		"name": "Asha", "email": "asha@campus.edu", "password": "secret123",
		"phone": "9999999999", "student_id": "21BCE100",
	})
	staffToken := registerTest(t, srv, map[string]interface{}{
		"name": "Ravi", "email": "ravi@campus.edu", "password": "secret123",
		"phone": "8888888888", "role": "staff", "secret_key": "kitchen-pass",
		"outlet_id": outlet.ID,
	})

	// Staff dashboard listens on the outlet room, the student's device on
	// their own user room.
	staffWS := dialWS(t, srv, staffToken)
	defer staffWS.Close()
	sendJoinFrame(t, staffWS, broadcast.EventJoinOutlet, outlet.ID)

	studentWS := dialWS(t, srv, studentToken)
	defer studentWS.Close()
	sendJoinFrame(t, studentWS, broadcast.EventJoinUserRoom, 1)

	require.Eventually(t, func() bool {
		return hub.RoomSize(broadcast.OutletRoom(outlet.ID)) == 1 &&
			hub.RoomSize(broadcast.UserRoom(1)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	orderID := createOrderTest(t, srv, studentToken, outlet.ID)

	// The outlet room hears about the new order immediately.
	msg := readEventFrame(t, staffWS)
	require.Equal(t, broadcast.EventNewOrder, msg.Event)
	var announced models.Order
	require.NoError(t, json.Unmarshal(msg.Data, &announced))
	assert.Equal(t, orderID, announced.ID)
	assert.Equal(t, models.OrderStatusPending, announced.Status)
	assert.Equal(t, 1, announced.KotNumber)

	// A reconnecting client resyncs by refetching, then rides live events.
	mgr := startSubscriberTest(t, srv, studentToken)
	defer mgr.Stop()
	require.Len(t, mgr.Orders(), 1)

	require.Eventually(t, func() bool {
		return hub.RoomSize(broadcast.UserRoom(1)) == 2
	}, 2*time.Second, 10*time.Millisecond)

	updateStatusTest(t, srv, staffToken, orderID, "accepted")

	userMsg := readEventFrame(t, studentWS)
	require.Equal(t, broadcast.EventOrderStatusUpdated, userMsg.Event)
	outletMsg := readEventFrame(t, staffWS)
	require.Equal(t, broadcast.EventOrderUpdated, outletMsg.Event)
	// Same persisted snapshot on both sides.
	assert.JSONEq(t, string(userMsg.Data), string(outletMsg.Data))

	var updated models.Order
	require.NoError(t, json.Unmarshal(userMsg.Data, &updated))
	assert.Equal(t, models.OrderStatusAccepted, updated.Status)

	require.Eventually(t, func() bool {
		orders := mgr.Orders()
		return len(orders) == 1 && orders[0].Status == models.OrderStatusAccepted
	}, 2*time.Second, 10*time.Millisecond)

	// REST view agrees with what the events said.
	myOrders := fetchMyOrdersTest(t, srv, studentToken)
	require.Len(t, myOrders, 1)
	assert.Equal(t, models.OrderStatusAccepted, myOrders[0].Status)
}

func setupIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "campus.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Outlet{}, &models.MenuItem{},
		&models.Order{}, &models.OrderItem{}, &models.OrderCounter{},
	))
	return db
}

func seedIntegrationOutlet(t *testing.T, db *gorm.DB) models.Outlet {
	t.Helper()
	outlet := models.Outlet{
		Name: "Chai Point", Description: "Tea and snacks", Location: "Block A",
		OpeningTime: "08:00", ClosingTime: "20:00", IsOpen: true, AveragePrepTime: 15,
	}
	require.NoError(t, db.Create(&outlet).Error)
	require.NoError(t, db.Create(&models.MenuItem{
		OutletID: outlet.ID, Name: "Tea", Price: 10,
		Category: "Beverages", IsAvailable: true, PrepTime: 5,
	}).Error)
	return outlet
}

func registerTest(t *testing.T, srv *httptest.Server, payload map[string]interface{}) string {
	t.Helper()
	body, _ := json.Marshal(payload)
	resp, err := http.Post(srv.URL+"/api/auth/register", "application/json", bytes.NewBuffer(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Data.Token)
	return out.Data.Token
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func sendJoinFrame(t *testing.T, conn *websocket.Conn, event string, id uint) {
	t.Helper()
	raw, err := json.Marshal(broadcast.JoinPayload{ID: fmt.Sprint(id)})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(broadcast.Message{Event: event, Data: raw}))
}

func readEventFrame(t *testing.T, conn *websocket.Conn) broadcast.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg broadcast.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func createOrderTest(t *testing.T, srv *httptest.Server, token string, outletID uint) uint {
	t.Helper()
	payload := map[string]interface{}{
		"outlet_id": outletID,
		"items":     []map[string]interface{}{{"menu_item_id": 1, "quantity": 2}},
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/orders", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Data models.Order `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, float64(20), out.Data.TotalAmount)
	return out.Data.ID
}

func updateStatusTest(t *testing.T, srv *httptest.Server, token string, orderID uint, status string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"status": status})
	url := fmt.Sprintf("%s/api/orders/%d/status", srv.URL, orderID)
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func fetchMyOrdersTest(t *testing.T, srv *httptest.Server, token string) []models.Order {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/orders/my", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data []models.Order `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Data
}

// startSubscriberTest wires a subscription manager against the live server,
// fetching the authoritative list over REST on every (re)connect.
func startSubscriberTest(t *testing.T, srv *httptest.Server, token string) *subscriber.Manager {
	t.Helper()
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token

	mgr, err := subscriber.NewManager(subscriber.Config{
		Endpoint:     endpoint,
		UserID:       1,
		JoinUserRoom: true,
		Fetch: func(ctx context.Context) ([]models.Order, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/orders/my", nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			var out struct {
				Data []models.Order `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return nil, err
			}
			return out.Data, nil
		},
		Policy: subscriber.ReconnectPolicy{
			MaxAttempts: 5,
			BaseDelay:   20 * time.Millisecond,
			MaxDelay:    100 * time.Millisecond,
		},
	})
	require.NoError(t, err)
	require.NoError(t, mgr.Start(context.Background()))
	return mgr
}
