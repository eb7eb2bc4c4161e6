package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campuseats/campus-eats/controllers"
	"github.com/campuseats/campus-eats/models"
	"github.com/campuseats/campus-eats/utils"
)

func setupTestDBForUsers(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Outlet{}))
	return db
}

func setupUserRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	userCtrl := controllers.NewUserController(db)
	router.POST("/api/auth/register", userCtrl.Register)
	router.POST("/api/auth/login", userCtrl.Login)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForUsers(t)
	router := setupUserRouter(db)

	w := postJSON(t, router, "/api/auth/register", map[string]interface{}{
		"name":       "Asha",
		"email":      "asha@campus.edu",
		"password":   "secret123",
		"phone":      "9999999999",
		"student_id": "21BCE100",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "student", user["role"])

	// Registering the same email again fails.
	w = postJSON(t, router, "/api/auth/register", map[string]interface{}{
		"name":     "Asha",
		"email":    "asha@campus.edu",
		"password": "secret123",
		"phone":    "9999999999",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Login with the right password succeeds.
	w = postJSON(t, router, "/api/auth/login", map[string]interface{}{
		"email":    "asha@campus.edu",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Wrong password is rejected.
	w = postJSON(t, router, "/api/auth/login", map[string]interface{}{
		"email":    "asha@campus.edu",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStaffRegistrationNeedsSecretAndOutlet(t *testing.T) {
	utils.InitLogger()
	t.Setenv("STAFF_SECRET_KEY", "kitchen-pass")
	db := setupTestDBForUsers(t)
	router := setupUserRouter(db)

	outlet := models.Outlet{
		Name: "Chai Point", Description: "Tea", Location: "Block A",
		OpeningTime: "08:00", ClosingTime: "20:00", IsOpen: true, AveragePrepTime: 15,
	}
	require.NoError(t, db.Create(&outlet).Error)

	// Wrong secret.
	w := postJSON(t, router, "/api/auth/register", map[string]interface{}{
		"name": "Ravi", "email": "ravi@campus.edu", "password": "pw", "phone": "1",
		"role": "staff", "secret_key": "nope", "outlet_id": outlet.ID,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Missing outlet.
	w = postJSON(t, router, "/api/auth/register", map[string]interface{}{
		"name": "Ravi", "email": "ravi@campus.edu", "password": "pw", "phone": "1",
		"role": "staff", "secret_key": "kitchen-pass",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Correct secret and outlet.
	w = postJSON(t, router, "/api/auth/register", map[string]interface{}{
		"name": "Ravi", "email": "ravi@campus.edu", "password": "pw", "phone": "1",
		"role": "staff", "secret_key": "kitchen-pass", "outlet_id": outlet.ID,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}
