package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	apirest "github.com/nanakusa/frontier/api/rest"
	apows "github.com/nanakusa/frontier/api/ws"
	"github.com/nanakusa/frontier/audit"
	"github.com/nanakusa/frontier/cache"
	"github.com/nanakusa/frontier/config"
	"github.com/nanakusa/frontier/game/battle"
	"github.com/nanakusa/frontier/game/factory"
	"github.com/nanakusa/frontier/game/session"
	mw "github.com/nanakusa/frontier/middleware"
	"github.com/nanakusa/frontier/resource"
	"github.com/nanakusa/frontier/scheduler"
	"github.com/nanakusa/frontier/testutil"
)

// TestServer wraps a real HTTP server with every facility subsystem
// wired together.
type TestServer struct {
	DB       *gorm.DB
	Cache    cache.Cache
	PubSub   cache.PubSub
	Sessions *session.Manager
	Runner   *session.BattleRunner
	Factory  *factory.Service
	Res      *resource.ResourceLoader
	Sched    *scheduler.Scheduler
	Server   *httptest.Server
	URL      string // http://127.0.0.1:<port>
	WSURL    string // ws://127.0.0.1:<port>/ws
	Sec      config.SecurityConfig
}

// NewTestServer creates a fully wired facility server for integration
// testing. It mirrors the dependency wiring in main.go and serves the
// shipped game data.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	res := testutil.SetupTestResources(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "it-suite-secret",
		JWTTTLH:        72 * time.Hour,
		BcryptCost:     4, // fast hashes; these accounts never leave the test
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
		AllowedOrigins: []string{}, // empty list, any origin may dial
	}

	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(context.Background()) })

	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	// ---- Game systems ----
	sessions := session.NewManager(logger)
	require.NoError(t, sessions.AttachPubSub(context.Background(), pubsub))

	eng := battle.NewEngine(res, battle.Config{})
	fac := factory.NewService(db, c, res, config.FactoryConfig{}, 50, logger)
	runner := session.NewBattleRunner(eng, fac, auditSvc, sessions, config.BattleConfig{
		InputTimeout: 10 * time.Second, // a stuck battle fails the test fast
	}, logger)
	t.Cleanup(runner.Stop)

	// ---- WS Router ----
	wsRouter := apows.NewRouter(logger)
	bh := apows.NewBattleHandlers(runner, logger)
	bh.RegisterHandlers(wsRouter)

	// ---- Gin HTTP Server ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST routes, laid out as in main.go ----
	authH := apirest.NewAuthHandler(db, c, sec, auditSvc)
	facH := apirest.NewFactoryHandler(db, fac, res, auditSvc)
	recH := apirest.NewRecordHandler(db, fac, logger)
	lbH := apirest.NewLeaderboardHandler(fac, logger)
	profH := apirest.NewProfileHandler(db)
	adminH := apirest.NewAdminHandler(db, sessions, runner, sched, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(sec, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(sec, c), authH.Refresh)

		runsG := api.Group("/factory/runs")
		runsG.Use(mw.Auth(sec, c))
		runsG.POST("", facH.StartRun)
		runsG.GET("/:id", facH.GetRun)
		runsG.POST("/:id/team", facH.PickTeam)
		runsG.POST("/:id/swap", facH.Swap)
		runsG.POST("/:id/retire", facH.Retire)

		api.GET("/records/:battle_id", recH.Get)
		api.GET("/records", mw.Auth(sec, c), recH.List)

		api.GET("/leaderboard", lbH.Top)
		api.GET("/profile", mw.Auth(sec, c), profH.Get)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(nil)) // no whitelist in tests
		adminG.GET("/stats", adminH.Stats)
		adminG.GET("/trainers", adminH.ListTrainers)
		adminG.POST("/kick/:id", adminH.KickTrainer)
		adminG.POST("/accounts/:id/ban", adminH.BanAccount)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.DELETE("/scheduler/:name", adminH.RemoveSchedulerTask)
		adminG.POST("/leaderboard/refresh", lbH.Refresh)
	}

	// ---- WebSocket ----
	wsH := apows.NewHandler(db, c, sec, sessions, runner, wsRouter, logger)
	r.GET("/ws", wsH.ServeWS)

	// ---- Start server ----
	server := httptest.NewServer(r)
	url := server.URL

	return &TestServer{
		DB:       db,
		Cache:    c,
		PubSub:   pubsub,
		Sessions: sessions,
		Runner:   runner,
		Factory:  fac,
		Res:      res,
		Sched:    sched,
		Server:   server,
		URL:      url,
		WSURL:    "ws" + strings.TrimPrefix(url, "http") + "/ws",
		Sec:      sec,
	}
}

// Close shuts down the test server and all connected sessions.
func (ts *TestServer) Close() {
	ts.Sessions.CloseAll()
	ts.Server.Close()
}

// --- HTTP helpers ---

func (ts *TestServer) do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var rd io.Reader
	if method == http.MethodPost {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// PostJSON sends a POST with a JSON body; token may be empty.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodPost, path, body, token)
}

func (ts *TestServer) Get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodGet, path, nil, token)
}

func (ts *TestServer) Delete(t *testing.T, path, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodDelete, path, nil, token)
}

// ReadJSON decodes the response body into target and closes it.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoErrorf(t, json.Unmarshal(data, target), "body: %s", data)
}

// --- Auth helpers ---

// Register creates an account with a trainer profile named after the
// username.
func (ts *TestServer) Register(t *testing.T, username, password string) int64 {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/register",
		map[string]string{"username": username, "password": password}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out struct {
		AccountID int64 `json:"account_id"`
	}
	ReadJSON(t, resp, &out)
	return out.AccountID
}

// Login logs an existing account in and returns the token and account ID.
func (ts *TestServer) Login(t *testing.T, username, password string) (string, int64) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/login",
		map[string]string{"username": username, "password": password}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token     string `json:"token"`
		AccountID int64  `json:"account_id"`
	}
	ReadJSON(t, resp, &out)
	return out.Token, out.AccountID
}

// RegisterAndLogin registers a fresh account and logs it in.
func (ts *TestServer) RegisterAndLogin(t *testing.T, username string) (token string, accountID int64) {
	t.Helper()
	ts.Register(t, username, username+"pass")
	return ts.Login(t, username, username+"pass")
}

// --- Factory helpers ---

// StartRun opens a run and returns its ID and the dealt rental offers.
func (ts *TestServer) StartRun(t *testing.T, token string) (runID int64, offers []int) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/factory/runs", nil, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		Run struct {
			ID int64 `json:"id"`
		} `json:"run"`
		Offers []struct {
			SetID int `json:"set_id"`
		} `json:"offers"`
	}
	ReadJSON(t, resp, &result)
	for _, o := range result.Offers {
		offers = append(offers, o.SetID)
	}
	return result.Run.ID, offers
}

// PickTeam drafts the given sets onto the run.
func (ts *TestServer) PickTeam(t *testing.T, token string, runID int64, picks []int) {
	t.Helper()
	resp := ts.PostJSON(t, fmt.Sprintf("/api/factory/runs/%d/team", runID), map[string]interface{}{
		"picks": picks,
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

// --- WebSocket client ---

// WSClient drives one trainer's WebSocket connection. A single
// goroutine owns reads; the receive helpers take frames off inbox with
// their own timeouts.
type WSClient struct {
	Conn  *websocket.Conn
	t     *testing.T
	seq   uint64
	inbox chan inbound
}

type inbound struct {
	data []byte
	err  error
}

var errRecvTimeout = errors.New("ws recv timeout")

// ConnectWS upgrades a new connection using token and starts its read
// pump.
func (ts *TestServer) ConnectWS(t *testing.T, token string) *WSClient {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(ts.WSURL+"?token="+token, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	require.NoError(t, err, "ws dial")

	wc := &WSClient{Conn: conn, t: t, inbox: make(chan inbound, 256)}
	go wc.pump()
	return wc
}

func (wc *WSClient) pump() {
	for {
		_, data, err := wc.Conn.ReadMessage()
		wc.inbox <- inbound{data, err}
		if err != nil {
			return
		}
	}
}

// Send writes one numbered packet of the given type.
func (wc *WSClient) Send(msgType string, payload interface{}) {
	wc.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(wc.t, err)
	data, err := json.Marshal(struct {
		Seq     uint64          `json:"seq"`
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}{atomic.AddUint64(&wc.seq, 1), msgType, raw})
	require.NoError(wc.t, err)
	err = wc.Conn.WriteMessage(websocket.TextMessage, data)
	require.NoError(wc.t, err)
}

// RecvAny returns the next frame as a generic map, or an error on
// timeout or socket failure. It never fails the test itself.
func (wc *WSClient) RecvAny(timeout time.Duration) (map[string]interface{}, error) {
	select {
	case in := <-wc.inbox:
		if in.err != nil {
			return nil, in.err
		}
		var pkt map[string]interface{}
		if err := json.Unmarshal(in.data, &pkt); err != nil {
			return nil, err
		}
		return pkt, nil
	case <-time.After(timeout):
		return nil, errRecvTimeout
	}
}

// RecvType discards frames until one of the wanted type arrives,
// failing the test when timeout passes first.
func (wc *WSClient) RecvType(msgType string, timeout time.Duration) map[string]interface{} {
	wc.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			wc.t.Fatalf("gave up waiting for a %q frame", msgType)
			return nil
		}
		pkt, err := wc.RecvAny(left)
		if err != nil {
			wc.t.Fatalf("recv while waiting for %q: %v", msgType, err)
		}
		if pkt["type"] == msgType {
			return pkt
		}
	}
}

// Close tears the connection down.
func (wc *WSClient) Close() {
	_ = wc.Conn.Close()
}

// PayloadMap coerces a received frame's payload into a map.
func PayloadMap(t *testing.T, pkt map[string]interface{}) map[string]interface{} {
	t.Helper()
	switch v := pkt["payload"].(type) {
	case nil:
		return map[string]interface{}{}
	case map[string]interface{}:
		return v
	default:
		data, err := json.Marshal(v)
		require.NoError(t, err)
		m := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}
}

var nameSeq uint64

// UniqueID builds a username-safe string that cannot collide across
// tests in one run.
func UniqueID(prefix string) string {
	n := atomic.AddUint64(&nameSeq, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%100000, n)
}
