package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"blockparty/server/internal/config"
	"blockparty/server/internal/metrics"
	"blockparty/server/internal/model"
	"blockparty/server/internal/repository"
	"blockparty/server/internal/service"
	jwtpkg "blockparty/server/pkg/jwt"
)

const testAdminEmail = "admin@example.com"

type testServer struct {
	router     *gin.Engine
	users      repository.UserRepository
	jwtManager *jwtpkg.Manager
}

// The default prometheus registry rejects duplicate collectors.
var registerMetricsOnce sync.Once

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, model.AutoMigrate(db))

	users := repository.NewPGUserRepository(db)
	parties := repository.NewPGPartyRepository(db)
	rsvps := repository.NewPGRSVPRepository(db)
	stateStore := repository.NewMemoryStateStore()

	jwtManager := jwtpkg.NewManager("test-key", "blockparty-test", 15*time.Minute, 24*time.Hour)
	policy := service.NewFixedEmailAdminPolicy(testAdminEmail)

	authService := service.NewAuthService(config.OAuth2Config{}, users, stateStore, jwtManager)
	partyService, err := service.NewPartyService(parties, users, policy, "Asia/Kolkata")
	require.NoError(t, err)
	rsvpService := service.NewRSVPService(rsvps, parties, policy)

	registerMetricsOnce.Do(metrics.Register)

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.CORS = config.CORSConfig{
		AllowedOrigins: []string{"http://localhost"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}

	router := SetupRouter(
		cfg,
		zap.NewNop(),
		jwtManager,
		NewAuthHandler(authService),
		NewPartyHandler(partyService),
		NewRSVPHandler(rsvpService),
	)

	return &testServer{router: router, users: users, jwtManager: jwtManager}
}

// signIn creates the user row and returns a bearer token for it.
func (ts *testServer) signIn(t *testing.T, email, name string) string {
	t.Helper()

	user := &model.User{Email: email, Name: name}
	require.NoError(t, ts.users.Upsert(context.Background(), user))

	token, err := ts.jwtManager.GenerateAccessToken(user.ID, email, name)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func partyPayload() map[string]interface{} {
	return map[string]interface{}{
		"title":         "Terrace Party",
		"date":          "2025-06-14T18:30",
		"max_attendees": 2,
		"flat_no":       "7C",
		"host_name":     "Priya",
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreatePartyRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/parties", "", partyPayload())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/parties", "garbage-token", partyPayload())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPartyLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	hostToken := ts.signIn(t, "host@example.com", "Host")
	adminToken := ts.signIn(t, testAdminEmail, "Admin")

	// Host creates a party; it starts pending.
	w := ts.do(t, http.MethodPost, "/api/v1/parties", hostToken, partyPayload())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var party model.Party
	decodeData(t, w, &party)
	assert.False(t, party.IsVerified)

	// Anonymous listing hides it.
	w = ts.do(t, http.MethodGet, "/api/v1/parties", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []model.Party
	decodeData(t, w, &listed)
	assert.Empty(t, listed)

	// Only the administrator may verify.
	verifyPath := fmt.Sprintf("/api/v1/parties/%s/verify", party.ID)
	w = ts.do(t, http.MethodPost, verifyPath, hostToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, verifyPath, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/v1/parties", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listed)
	assert.Len(t, listed, 1)
}

func TestRSVPFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	hostToken := ts.signIn(t, "host@example.com", "Host")
	adminToken := ts.signIn(t, testAdminEmail, "Admin")

	w := ts.do(t, http.MethodPost, "/api/v1/parties", hostToken, partyPayload())
	require.Equal(t, http.StatusOK, w.Code)
	var party model.Party
	decodeData(t, w, &party)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/parties/%s/verify", party.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	rsvpPath := fmt.Sprintf("/api/v1/parties/%s/rsvps", party.ID)

	// Two guests fit, the third gets a conflict (max_attendees is 2).
	guest1 := ts.signIn(t, "guest1@example.com", "Guest One")
	w = ts.do(t, http.MethodPost, rsvpPath, guest1, map[string]string{"alcohol_request": "cider"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rsvp model.RSVP
	decodeData(t, w, &rsvp)
	assert.False(t, rsvp.IsVerified)

	guest2 := ts.signIn(t, "guest2@example.com", "Guest Two")
	w = ts.do(t, http.MethodPost, rsvpPath, guest2, nil)
	require.Equal(t, http.StatusOK, w.Code)

	guest3 := ts.signIn(t, "guest3@example.com", "Guest Three")
	w = ts.do(t, http.MethodPost, rsvpPath, guest3, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Duplicate RSVP is also a conflict.
	w = ts.do(t, http.MethodPost, rsvpPath, guest1, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Host confirms the first seat.
	w = ts.do(t, http.MethodPost, fmt.Sprintf("%s/%s/verify", rsvpPath, rsvp.ID), hostToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &rsvp)
	assert.True(t, rsvp.IsVerified)

	// Guests cannot confirm seats.
	w = ts.do(t, http.MethodPost, fmt.Sprintf("%s/%s/verify", rsvpPath, rsvp.ID), guest2, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Guest one cancels themselves, freeing a seat for guest three.
	w = ts.do(t, http.MethodDelete, rsvpPath, guest1, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, rsvpPath, guest3, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetPartyDetailFiltersRSVPs(t *testing.T) {
	ts := newTestServer(t)

	hostToken := ts.signIn(t, "host@example.com", "Host")
	adminToken := ts.signIn(t, testAdminEmail, "Admin")

	payload := partyPayload()
	payload["max_attendees"] = 10
	w := ts.do(t, http.MethodPost, "/api/v1/parties", hostToken, payload)
	require.Equal(t, http.StatusOK, w.Code)
	var party model.Party
	decodeData(t, w, &party)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/parties/%s/verify", party.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	guest := ts.signIn(t, "guest@example.com", "Guest")
	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/parties/%s/rsvps", party.ID), guest, nil)
	require.Equal(t, http.StatusOK, w.Code)

	detailPath := fmt.Sprintf("/api/v1/parties/%s", party.ID)

	// The host sees the pending RSVP, the guest does not see it listed.
	w = ts.do(t, http.MethodGet, detailPath, hostToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail model.Party
	decodeData(t, w, &detail)
	assert.Len(t, detail.RSVPs, 1)

	w = ts.do(t, http.MethodGet, detailPath, guest, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var guestView model.Party
	decodeData(t, w, &guestView)
	assert.Empty(t, guestView.RSVPs)

	// Detail requires authentication.
	w = ts.do(t, http.MethodGet, detailPath, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t, "guest@example.com", "Guest")

	w := ts.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	decodeData(t, w, &me)
	assert.Equal(t, "guest@example.com", me.Email)
	assert.Equal(t, "Guest", me.Name)
}
