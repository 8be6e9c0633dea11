package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/ts-console/internal/api"
	"github.com/technosupport/ts-console/internal/auth"
	"github.com/technosupport/ts-console/internal/console"
	"github.com/technosupport/ts-console/internal/incidents"
	"github.com/technosupport/ts-console/internal/prefs"
	"github.com/technosupport/ts-console/internal/ratelimit"
	"github.com/technosupport/ts-console/internal/scenario"
	"github.com/technosupport/ts-console/internal/styles"
	"github.com/technosupport/ts-console/internal/tokens"
)

type memOperators struct {
	ops map[string]*auth.Operator
}

func (m *memOperators) GetOperator(_ context.Context, id string) (*auth.Operator, error) {
	op, ok := m.ops[id]
	if !ok {
		return nil, errors.New("no such operator")
	}
	return op, nil
}

func (m *memOperators) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.ops[id].PasswordHash = hash
	return nil
}

type testEnv struct {
	handler http.Handler
	tokens  *tokens.Manager
	hub     *api.PrefsHub
	styles  string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	tm := tokens.NewManager("test-key")
	bl := auth.NewRedisBlacklist(rdb)

	hash, err := auth.NewHasher().Hash("s3cret")
	require.NoError(t, err)
	ops := &memOperators{ops: map[string]*auth.Operator{
		"op-1": {ID: "op-1", Name: "김관제", Role: "operator", PasswordHash: hash},
	}}

	cat := incidents.MustLoadCatalog()
	mgr := console.NewManager(console.NewMemoryStore(), cat, cat, scenario.Default(), console.Options{
		TrackingDuration: 20 * time.Millisecond,
		TrackingTick:     5 * time.Millisecond,
	})
	t.Cleanup(mgr.Close)

	prefSvc := prefs.NewService(prefs.NewMemoryStore())
	hub := api.NewPrefsHub(prefSvc)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, hub.Start(ctx))

	stylePath := filepath.Join(t.TempDir(), "generated.ts")

	h := api.NewRouter(api.Deps{
		Sessions:  mgr,
		Incidents: cat,
		Catalog:   cat,
		Prefs:     prefSvc,
		Styles:    styles.NewManager(stylePath),
		Auth:      auth.NewService(ops, tm, bl),
		Tokens:    tm,
		Blacklist: bl,
		Limiter:   ratelimit.NewLimiter(rdb),
		ChatLimit: ratelimit.LimitConfig{Rate: 3, Window: time.Minute},
		Health:    api.NewHealthHandler(),
		Hub:       hub,
	})
	return &testEnv{handler: h, tokens: tm, hub: hub, styles: stylePath}
}

func (e *testEnv) token(t *testing.T, operator string) string {
	t.Helper()
	tok, err := e.tokens.GenerateAccessToken(operator, "station-a", "operator")
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestReadiness(t *testing.T) {
	h := api.NewHealthHandler().
		Register("redis", func(context.Context) error { return nil }).
		Register("nats", func(context.Context) error { return errors.New("disconnected") })

	w := httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, map[string]string{"redis": "ok", "nats": "disconnected"}, body)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newEnv(t)
	w := env.do(t, http.MethodGet, "/api/v1/incidents", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/incidents", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginLogout(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{OperatorID: "op-1", Password: "wrong", Station: "station-a"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{OperatorID: "op-1", Password: "s3cret", Station: "station-a"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sess := decode[auth.Session](t, w)
	assert.Equal(t, "김관제", sess.Name)

	w = env.do(t, http.MethodGet, "/api/v1/cameras", sess.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/logout", sess.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/cameras", sess.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "revoked token")
}

func TestIncidents(t *testing.T) {
	env := newEnv(t)
	tok := env.token(t, "op-1")

	w := env.do(t, http.MethodGet, "/api/v1/incidents?domain=c&status=URGENT&risk=HIGH", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]incidents.Incident](t, w)
	require.NotEmpty(t, list)
	assert.Equal(t, "EVT-2401", list[0].ID)
	for _, in := range list {
		assert.Equal(t, incidents.DomainVulnerable, in.Domain)
	}

	w = env.do(t, http.MethodGet, "/api/v1/incidents?domain=Z", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/incidents/EVT-2401", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"domain_label"`)

	w = env.do(t, http.MethodGet, "/api/v1/incidents/EVT-9999", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/incidents/EVT-2401/timeline", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[[]incidents.TimelineEntry](t, w))
}

func createSession(t *testing.T, env *testEnv, tok, query string) *console.Session {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/v1/sessions"+query, tok, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[*console.Session](t, w)
}

func TestSessionLifecycle(t *testing.T) {
	env := newEnv(t)
	tok := env.token(t, "op-1")

	s := createSession(t, env, tok, "?eventId=EVT-2401")
	assert.Equal(t, "EVT-2401", s.IncidentID)
	assert.Equal(t, "op-1", s.Operator)
	base := "/api/v1/sessions/" + s.ID

	// another operator cannot see it
	w := env.do(t, http.MethodGet, base, env.token(t, "op-2"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, base+"/messages", tok, map[string]string{"text": "용의자 특징"})
	require.Equal(t, http.StatusCreated, w.Code)
	ex := decode[console.Exchange](t, w)
	assert.Equal(t, "suspect", string(ex.Intent))

	w = env.do(t, http.MethodPost, base+"/popups/cctv", tok, map[string]string{"selection": "CCTV-7"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, base+"/popups/nope", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, base+"/playback", tok, map[string]any{"action": "seek", "value": 45})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 45, decode[*console.Session](t, w).Playback.CurrentTime)

	w = env.do(t, http.MethodPost, base+"/clips", tok, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"0:45 - 5:32"`)

	w = env.do(t, http.MethodDelete, base+"/popups/cctv", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[*console.Session](t, w)
	assert.Zero(t, got.Playback.CurrentTime)
	require.Equal(t, 1, got.Clips.Len())

	clipID := got.Clips.Clips[0].ID
	w = env.do(t, http.MethodPost, base+"/clips/"+clipID+"/draft", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPut, base+"/draft", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[*console.Session](t, w).Draft.Text, "CCTV-7 (현장) 0:45 - 5:32")

	w = env.do(t, http.MethodPost, base+"/draft/send", tok, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "no broadcaster configured")

	w = env.do(t, http.MethodPost, base+"/clips", tok, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "no camera popup open")

	w = env.do(t, http.MethodDelete, base, tok, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, base, tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionKeys(t *testing.T) {
	env := newEnv(t)
	tok := env.token(t, "op-1")
	s := createSession(t, env, tok, "?eventId=EVT-2401")
	base := "/api/v1/sessions/" + s.ID

	type keyResponse struct {
		Result  console.KeyResult `json:"result"`
		Session *console.Session  `json:"session"`
	}

	w := env.do(t, http.MethodPost, base+"/keys", tok, map[string]string{"key": "q"})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[keyResponse](t, w)
	require.NotNil(t, res.Result.Step)
	assert.Equal(t, scenario.StateQ, res.Session.Scenario.State)

	w = env.do(t, http.MethodPost, base+"/keys", tok, map[string]string{"key": "w"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[keyResponse](t, w).Session.Popups.IsOpen("notification"))

	w = env.do(t, http.MethodPost, base+"/tracking/agent", tok, nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		w := env.do(t, http.MethodGet, base, tok, nil)
		return w.Code == http.StatusOK && decode[*console.Session](t, w).Scenario.Flags.VehicleAnalysis
	}, 2*time.Second, 10*time.Millisecond)

	w = env.do(t, http.MethodPost, base+"/keys", tok, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReselectDrag(t *testing.T) {
	env := newEnv(t)
	tok := env.token(t, "op-1")
	s := createSession(t, env, tok, "")
	base := "/api/v1/sessions/" + s.ID

	w := env.do(t, http.MethodPost, base+"/tracking/reselect", tok, map[string]string{"popup": "combined"})
	assert.Equal(t, http.StatusConflict, w.Code, "popup not open")

	env.do(t, http.MethodPost, base+"/popups/combined", tok, map[string]string{"selection": "CCTV-3"})
	w = env.do(t, http.MethodPost, base+"/tracking/reselect", tok, map[string]string{"popup": "combined"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, base+"/tracking/reselect/drag", tok, map[string]any{
		"client_x": 150, "client_y": 25,
		"frame": map[string]float64{"left": 100, "top": 0, "width": 100, "height": 50},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"x":50,"y":50}`, w.Body.String())

	w = env.do(t, http.MethodPost, base+"/tracking/reselect/finish", tok, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestChatRateLimit(t *testing.T) {
	env := newEnv(t)
	tok := env.token(t, "op-1")
	s := createSession(t, env, tok, "?eventId=EVT-2401")
	path := "/api/v1/sessions/" + s.ID + "/messages"

	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, path, tok, map[string]string{"text": "상황 분석"})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := env.do(t, http.MethodPost, path, tok, map[string]string{"text": "상황 분석"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestPrefs(t *testing.T) {
	env := newEnv(t)
	tok := env.token(t, "op-1")

	w := env.do(t, http.MethodPut, "/api/v1/prefs/cctv-show-cctv", tok, map[string]any{"value": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, prefs.Overlay{ShowCCTV: true, ShowViewAngle: true, ShowName: true}, decode[prefs.Overlay](t, w))

	w = env.do(t, http.MethodPut, "/api/v1/prefs/cctv-show-name", tok, map[string]any{"value": false})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/prefs", tok, nil)
	assert.Equal(t, prefs.Overlay{ShowCCTV: true, ShowViewAngle: true}, decode[prefs.Overlay](t, w))

	w = env.do(t, http.MethodGet, "/api/v1/prefs?hydrate=false", tok, nil)
	assert.Equal(t, prefs.Overlay{}, decode[prefs.Overlay](t, w))

	w = env.do(t, http.MethodGet, "/api/v1/prefs", env.token(t, "op-2"), nil)
	assert.Equal(t, prefs.Overlay{}, decode[prefs.Overlay](t, w), "scoped per operator")

	w = env.do(t, http.MethodPut, "/api/v1/prefs/cctv-show-everything", tok, map[string]any{"value": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type wsMsg struct {
	Type    string         `json:"type"`
	Origin  string         `json:"origin"`
	Key     string         `json:"key"`
	Value   string         `json:"value"`
	Overlay *prefs.Overlay `json:"overlay"`
	Error   string         `json:"error"`
}

func dialPrefs(t *testing.T, srv *httptest.Server, tok, origin string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/prefs/ws?token=" + tok + "&origin=" + origin
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	var hello wsMsg
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "hello", hello.Type)
	require.Equal(t, origin, hello.Origin)
	return conn
}

func TestPrefsWebsocketSkipsOrigin(t *testing.T) {
	env := newEnv(t)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)
	tok := env.token(t, "op-1")

	tabA := dialPrefs(t, srv, tok, "tab-a")
	tabB := dialPrefs(t, srv, tok, "tab-b")
	other := dialPrefs(t, srv, env.token(t, "op-2"), "tab-c")
	require.Equal(t, 3, env.hub.Clients())

	require.NoError(t, tabA.WriteJSON(map[string]string{"type": "set", "key": prefs.KeyShowName, "value": "true"}))

	var got wsMsg
	tabB.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, tabB.ReadJSON(&got))
	assert.Equal(t, wsMsg{Type: "change", Origin: "tab-a", Key: prefs.KeyShowName, Value: "true"}, got)

	var ack wsMsg
	tabA.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, tabA.ReadJSON(&ack))
	assert.Equal(t, "ack", ack.Type, "the writer gets an ack, not its own change")
	require.NotNil(t, ack.Overlay)
	assert.True(t, ack.Overlay.ShowName)

	other.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	assert.Error(t, other.ReadJSON(&got), "other operators see nothing")
}

func TestPrefsWebsocketRejectsBadFrames(t *testing.T) {
	env := newEnv(t)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)
	tok := env.token(t, "op-1")

	tabA := dialPrefs(t, srv, tok, "tab-a")
	tabB := dialPrefs(t, srv, tok, "tab-b")

	frames := []map[string]string{
		{"type": "set", "key": prefs.KeyShowName, "value": "yes"},
		{"type": "set", "key": prefs.KeyShowName, "value": ""},
		{"type": "set", "key": prefs.KeyShowName, "value": "TRUE"},
		{"type": "set", "key": "cctv-show-everything", "value": "true"},
	}
	for _, f := range frames {
		require.NoError(t, tabA.WriteJSON(f))
		var got wsMsg
		tabA.SetReadDeadline(time.Now().Add(2 * time.Second))
		require.NoError(t, tabA.ReadJSON(&got))
		assert.Equal(t, "error", got.Type, "frame %v", f)
		assert.NotEmpty(t, got.Error)
	}

	var got wsMsg
	tabB.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	assert.Error(t, tabB.ReadJSON(&got), "rejected frames are not fanned out")

	w := env.do(t, http.MethodGet, "/api/v1/prefs", tok, nil)
	assert.Equal(t, prefs.Overlay{}, decode[prefs.Overlay](t, w))
}

func TestStyles(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodGet, "/api/styles", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"idle"`)

	w = env.do(t, http.MethodPost, "/api/styles", "", map[string]string{"content": "export const theme = {};\n"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"success"`)
	raw, err := os.ReadFile(env.styles)
	require.NoError(t, err)
	assert.Equal(t, "export const theme = {};\n", string(raw))

	w = env.do(t, http.MethodPost, "/api/styles", "", map[string]string{"content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
}
