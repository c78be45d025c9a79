package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rewear-api/internal/ai"
	appsvc "rewear-api/internal/app"
	"rewear-api/internal/model"
	"rewear-api/internal/pkg/hashutil"
	"rewear-api/internal/pkg/jwtutil"
	"rewear-api/internal/ratelimit"
	"rewear-api/internal/repository"
	"rewear-api/internal/transport/http/handler"
)

type stubCompletion struct {
	calls int
	reply string
	err   error
}

func (c *stubCompletion) Complete(context.Context, []ai.ChatMessage) (string, error) {
	c.calls++
	return c.reply, c.err
}

// storePublisher records events synchronously in place of the broker.
type storePublisher struct {
	events *repository.AuthEventRepository
}

func (p storePublisher) Publish(ctx context.Context, event model.AuthEvent) error {
	return p.events.Create(ctx, &event)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	chat   *stubCompletion
}

func newTestServer(t *testing.T, authPerMinute int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tokens, err := jwtutil.NewManager("router-test-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)

	events := repository.NewAuthEventRepository(db)
	chat := &stubCompletion{reply: "Try a local swap meetup."}
	router, err := newEngine(nil)
	require.NoError(t, err)
	registerRoutes(router, Dependencies{
		AuthService: appsvc.NewAuthService(
			repository.NewUserRepository(db),
			hashutil.NewHasher(bcrypt.MinCost),
			tokens,
			storePublisher{events: events},
			events,
		),
		ItemService:    appsvc.NewItemService(repository.NewItemRepository(db)),
		ChatbotService: appsvc.NewChatbotService(chat, "persona", time.Second),
		AuthLimiter:    ratelimit.NewMemoryLimiter(authPerMinute, time.Minute),
		ChatLimiter:    ratelimit.NewMemoryLimiter(100, time.Minute),
		Health:         handler.NewHealthHandler("rewear-api", "test", time.Now()),
	})
	return &testServer{router: router, db: db, chat: chat}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return s.doWithHeaders(t, method, path, token, body, nil)
}

func (s *testServer) doWithHeaders(t *testing.T, method, path, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signupAndLogin(t *testing.T, email string) (string, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{
		"email": email, "username": "swapper", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user model.PublicUser
	decode(t, rec, &user)

	rec = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login appsvc.LoginResult
	decode(t, rec, &login)
	return user.ID, login.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestSignupEndpoint(t *testing.T) {
	srv := newTestServer(t, 100)

	rec := srv.do(t, http.MethodPost, "/auth/signup", "", gin.H{
		"email": "Alice@Example.com", "username": "alice", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	var user map[string]interface{}
	decode(t, rec, &user)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, float64(0), user["points_balance"])
	assert.Equal(t, false, user["is_admin"])
	assert.NotEmpty(t, user["id"])
	assert.NotEmpty(t, user["join_date"])

	rec = srv.do(t, http.MethodPost, "/auth/signup", "", gin.H{
		"email": "alice@example.com", "username": "alice2", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":40901`)

	rec = srv.do(t, http.MethodPost, "/auth/signup", "", gin.H{
		"email": "bob@example.com", "username": "bob", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password")

	rec = srv.do(t, http.MethodPost, "/auth/signup", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer(t, 100)
	userID, token := srv.signupAndLogin(t, "carol@example.com")
	assert.NotEmpty(t, token)

	wrongPassword := srv.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "carol@example.com", "password": "wrong-horse"})
	unknownEmail := srv.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@example.com", "password": "wrong-horse"})
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())

	rec := srv.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.PublicUser
	decode(t, rec, &me)
	assert.Equal(t, userID, me.ID)
	assert.Equal(t, "carol@example.com", me.Email)

	rec = srv.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = srv.do(t, http.MethodGet, "/auth/me", token+"x", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/auth/me/events", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var activity struct {
		Events []model.AuthEvent `json:"events"`
	}
	decode(t, rec, &activity)
	var types []model.AuthEventType
	for _, event := range activity.Events {
		types = append(types, event.Type)
	}
	assert.ElementsMatch(t, []model.AuthEventType{
		model.AuthEventSignup,
		model.AuthEventLoginSucceeded,
		model.AuthEventLoginFailed,
	}, types)
}

func TestLoginRateLimited(t *testing.T) {
	srv := newTestServer(t, 2)
	body := gin.H{"email": "dave@example.com", "password": "whatever-pass"}

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/auth/login", "", body).Code)
	rec := srv.do(t, http.MethodPost, "/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLoginRateLimitIgnoresForwardedFor(t *testing.T) {
	srv := newTestServer(t, 2)
	body := gin.H{"email": "dave@example.com", "password": "whatever-pass"}

	var codes []int
	for i := 0; i < 6; i++ {
		rec := srv.doWithHeaders(t, http.MethodPost, "/auth/login", "", body, map[string]string{
			"X-Forwarded-For": fmt.Sprintf("203.0.113.%d", i+1),
			"X-Real-IP":       fmt.Sprintf("198.51.100.%d", i+1),
		})
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{
		http.StatusUnauthorized,
		http.StatusUnauthorized,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)
}

func TestRequestValidation(t *testing.T) {
	srv := newTestServer(t, 100)
	_, token := srv.signupAndLogin(t, "judy@example.com")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   gin.H
		field  string
	}{
		{"signup bad email", http.MethodPost, "/auth/signup", "", gin.H{"email": "judy-at-example", "username": "judy", "password": "correct-horse"}, "email"},
		{"signup missing username", http.MethodPost, "/auth/signup", "", gin.H{"email": "k@example.com", "password": "correct-horse"}, "username"},
		{"signup long password", http.MethodPost, "/auth/signup", "", gin.H{"email": "k@example.com", "username": "kim", "password": strings.Repeat("p", 73)}, "password"},
		{"login missing password", http.MethodPost, "/auth/login", "", gin.H{"email": "judy@example.com"}, "password"},
		{"item bad condition", http.MethodPost, "/items", token, gin.H{
			"title": "Rain boots", "description": "Yellow rubber rain boots.", "category": "Shoes",
			"item_type": "Boots", "size": "40", "condition": "Mint",
		}, "condition"},
		{"item bad image url", http.MethodPost, "/items", token, gin.H{
			"title": "Rain boots", "description": "Yellow rubber rain boots.", "category": "Shoes",
			"item_type": "Boots", "size": "40", "condition": "Like New", "image_urls": []string{"not a url"},
		}, "image_urls[0]"},
		{"item short title", http.MethodPost, "/items", token, gin.H{
			"title": "ab", "description": "Yellow rubber rain boots.", "category": "Shoes",
			"item_type": "Boots", "size": "40", "condition": "Like New",
		}, "title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(t, tc.method, tc.path, tc.token, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			var body struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			}
			decode(t, rec, &body)
			assert.Equal(t, 40001, body.Code)
			assert.True(t, strings.HasPrefix(body.Message, tc.field+":"), body.Message)
		})
	}
}

func TestChatbotEndpoint(t *testing.T) {
	srv := newTestServer(t, 100)
	_, token := srv.signupAndLogin(t, "erin@example.com")

	rec := srv.do(t, http.MethodPost, "/chatbot/ask", "", gin.H{"message": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/chatbot/ask", token, gin.H{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = srv.do(t, http.MethodPost, "/chatbot/ask", token, gin.H{"message": strings.Repeat("x", 501)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, srv.chat.calls)

	rec = srv.do(t, http.MethodPost, "/chatbot/ask", token, gin.H{"message": "Where can I swap jeans?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"Try a local swap meetup."}`, rec.Body.String())

	srv.chat.err = errors.New("upstream 502")
	rec = srv.do(t, http.MethodPost, "/chatbot/ask", token, gin.H{"message": "Hello?"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":50001`)
	assert.NotContains(t, rec.Body.String(), "upstream 502")
}

func TestItemEndpoints(t *testing.T) {
	srv := newTestServer(t, 100)
	ownerID, ownerToken := srv.signupAndLogin(t, "frank@example.com")
	_, otherToken := srv.signupAndLogin(t, "grace@example.com")

	rec := srv.do(t, http.MethodPost, "/items", "", gin.H{"title": "Coat"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/items", ownerToken, gin.H{
		"title":       "Wool coat",
		"description": "Warm grey wool coat, size medium.",
		"category":    "Outerwear",
		"item_type":   "Coat",
		"size":        "M",
		"condition":   "Used - Good",
		"tags":        []string{"winter"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item model.ClothingItem
	decode(t, rec, &item)
	assert.Equal(t, ownerID, item.UserID)
	assert.Equal(t, model.ItemStatusPendingApproval, item.Status)

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/items/"+item.ID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/items/"+item.ID, otherToken, nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/items/"+item.ID, ownerToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/items/"+item.ID, "not-a-token", nil).Code)

	rec = srv.do(t, http.MethodGet, "/items", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"limit":20,"offset":0}`, rec.Body.String())

	require.NoError(t, srv.db.Model(&model.ClothingItem{}).Where("id = ?", item.ID).
		Update("status", model.ItemStatusAvailable).Error)

	rec = srv.do(t, http.MethodGet, "/items?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []model.ClothingItem `json:"items"`
		Limit int                  `json:"limit"`
	}
	decode(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 5, page.Limit)
	assert.Equal(t, []string{"winter"}, page.Items[0].Tags)

	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/items?limit=abc", "", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/items/"+item.ID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/items/missing", "", nil).Code)

	rec = srv.do(t, http.MethodPatch, "/items/"+item.ID, otherToken, gin.H{"title": "Stolen coat"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPatch, "/items/"+item.ID, ownerToken, gin.H{"title": "Grey wool coat"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &item)
	assert.Equal(t, "Grey wool coat", item.Title)
	assert.Equal(t, model.ItemStatusAvailable, item.Status)

	rec = srv.do(t, http.MethodGet, "/items/mine", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Grey wool coat")

	rec = srv.do(t, http.MethodGet, "/items/mine", otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestAdminPendingEndpoint(t *testing.T) {
	srv := newTestServer(t, 100)
	adminID, adminToken := srv.signupAndLogin(t, "heidi@example.com")
	_, userToken := srv.signupAndLogin(t, "ivan@example.com")
	require.NoError(t, srv.db.Model(&model.User{}).Where("id = ?", adminID).Update("is_admin", true).Error)

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/admin/items/pending", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, "/admin/items/pending", userToken, nil).Code)

	rec := srv.do(t, http.MethodGet, "/admin/items/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"limit":20,"offset":0}`, rec.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, 100)

	rec := srv.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"app":"rewear-api"`)
}
