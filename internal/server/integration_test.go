package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/floydverse/flappy-floyd/internal/protocol"
	"github.com/floydverse/flappy-floyd/internal/session"
	"github.com/floydverse/flappy-floyd/internal/store"
)

// ---------- helpers ----------

type testEnvelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type testServer struct {
	srv   *httptest.Server
	wsURL string
	hub   *Hub
}

// startTestServer runs a registry and hub behind an httptest.Server.
func startTestServer(t *testing.T, db *store.DB, publicURL string) *testServer {
	t.Helper()

	cfg := session.DefaultConfig()
	cfg.Capacity = 1
	cfg.MinimumPlayers = 1

	ctx, cancel := context.WithCancel(context.Background())
	registry := session.NewRegistry(cfg, 50, NewResults(nil))
	hub := NewHub(registry, db, NewIdentity([]byte("integration-test-secret")))
	go registry.Run(ctx)
	go hub.Run(ctx)

	srv := httptest.NewServer(SetupRoutes(hub, publicURL))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return &testServer{
		srv:   srv,
		wsURL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		hub:   hub,
	}
}

func dialWS(t *testing.T, wsURL string, query url.Values) *websocket.Conn {
	t.Helper()
	if len(query) > 0 {
		wsURL += "?" + query.Encode()
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEnvelope reads one message, decoding msgpack frames into the same shape.
func readEnvelope(t *testing.T, conn *websocket.Conn) testEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read WS: %v", err)
	}
	if msgType == websocket.BinaryMessage {
		var m map[string]interface{}
		if err := protocol.DecodeMsgPack(raw, &m); err != nil {
			t.Fatalf("msgpack decode: %v", err)
		}
		if raw, err = json.Marshal(m); err != nil {
			t.Fatalf("re-encode: %v", err)
		}
	}
	var env testEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return env
}

// readUntil skips messages until one with the given action arrives.
func readUntil(t *testing.T, conn *websocket.Conn, action string) testEnvelope {
	t.Helper()
	for i := 0; i < 200; i++ {
		env := readEnvelope(t, conn)
		if env.Action == action {
			return env
		}
	}
	t.Fatalf("never received %q", action)
	return testEnvelope{}
}

func sendAction(t *testing.T, conn *websocket.Conn, action string, data interface{}) {
	t.Helper()
	msg := map[string]interface{}{"action": action}
	if data != nil {
		msg["data"] = data
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// handshake consumes serverInfo and playerInfo.
func handshake(t *testing.T, conn *websocket.Conn) (protocol.ServerInfo, protocol.PlayerInfo) {
	t.Helper()
	env := readEnvelope(t, conn)
	if env.Action != protocol.ActionServerInfo {
		t.Fatalf("first message = %q, want serverInfo", env.Action)
	}
	var si protocol.ServerInfo
	json.Unmarshal(env.Data, &si)

	env = readEnvelope(t, conn)
	if env.Action != protocol.ActionPlayerInfo {
		t.Fatalf("second message = %q, want playerInfo", env.Action)
	}
	var pi protocol.PlayerInfo
	json.Unmarshal(env.Data, &pi)
	return si, pi
}

// ---------- tests ----------

func TestConnectSendsServerAndPlayerInfo(t *testing.T) {
	ts := startTestServer(t, nil, "")
	conn := dialWS(t, ts.wsURL, nil)

	si, pi := handshake(t, conn)
	if si.TicksPerSecond != 50 {
		t.Errorf("ticksPerSecond = %d, want 50", si.TicksPerSecond)
	}
	if pi.PlayerID <= 0 {
		t.Errorf("playerId = %d, want positive", pi.PlayerID)
	}
	if !strings.HasPrefix(pi.Username, "anon_") {
		t.Errorf("username = %q, want anon_ prefix", pi.Username)
	}
	if pi.Token == "" {
		t.Error("expected an identity token")
	}
}

func TestPlayerIDsAreDistinct(t *testing.T) {
	ts := startTestServer(t, nil, "")
	_, a := handshake(t, dialWS(t, ts.wsURL, nil))
	_, b := handshake(t, dialWS(t, ts.wsURL, nil))
	if a.PlayerID == b.PlayerID {
		t.Errorf("both connections got player id %d", a.PlayerID)
	}
}

func TestRequestedUsernameIsSanitized(t *testing.T) {
	ts := startTestServer(t, nil, "")
	conn := dialWS(t, ts.wsURL, url.Values{"username": {"  floyd  "}})
	_, pi := handshake(t, conn)
	if pi.Username != "floyd" {
		t.Errorf("username = %q, want floyd", pi.Username)
	}
}

func TestTokenRestoresUsername(t *testing.T) {
	ts := startTestServer(t, nil, "")
	first := dialWS(t, ts.wsURL, url.Values{"username": {"george"}})
	_, pi := handshake(t, first)

	second := dialWS(t, ts.wsURL, url.Values{"token": {pi.Token}, "username": {"someone-else"}})
	_, restored := handshake(t, second)
	if restored.Username != "george" {
		t.Errorf("username = %q, want george", restored.Username)
	}
	if restored.PlayerID == pi.PlayerID {
		t.Error("reconnect should get a fresh player id")
	}
}

func TestInvalidTokenFallsBackToRequestedName(t *testing.T) {
	ts := startTestServer(t, nil, "")
	conn := dialWS(t, ts.wsURL, url.Values{"token": {"not-a-token"}, "username": {"pipes"}})
	_, pi := handshake(t, conn)
	if pi.Username != "pipes" {
		t.Errorf("username = %q, want pipes", pi.Username)
	}
}

func TestJoinSessionStartsGame(t *testing.T) {
	ts := startTestServer(t, nil, "")
	conn := dialWS(t, ts.wsURL, nil)
	_, pi := handshake(t, conn)

	sendAction(t, conn, protocol.ActionJoinSession, nil)

	env := readUntil(t, conn, protocol.ActionSessionJoin)
	var sj protocol.SessionJoin
	json.Unmarshal(env.Data, &sj)
	if sj.SessionID == "" {
		t.Error("sessionJoin without a session id")
	}

	env = readUntil(t, conn, protocol.ActionSessionState)
	var ss protocol.SessionState
	json.Unmarshal(env.Data, &ss)
	if len(ss.Players) != 1 || ss.Players[0].ID != pi.PlayerID {
		t.Errorf("roster = %+v, want just player %d", ss.Players, pi.PlayerID)
	}

	readUntil(t, conn, protocol.ActionGameStart)

	env = readUntil(t, conn, protocol.ActionGameState)
	var gs protocol.GameState
	if err := json.Unmarshal(env.Data, &gs); err != nil {
		t.Fatalf("gameState: %v", err)
	}
	if len(gs.Players) != 1 || gs.Players[0].ID != pi.PlayerID {
		t.Fatalf("players = %+v", gs.Players)
	}
	if gs.Players[0].Floyd == nil {
		t.Fatal("expected a floyd in the snapshot")
	}
}

func TestJumpChangesVelocity(t *testing.T) {
	ts := startTestServer(t, nil, "")
	conn := dialWS(t, ts.wsURL, nil)
	handshake(t, conn)

	sendAction(t, conn, protocol.ActionJoinSession, nil)
	readUntil(t, conn, protocol.ActionGameStart)
	sendAction(t, conn, protocol.ActionJump, nil)

	for i := 0; i < 100; i++ {
		env := readUntil(t, conn, protocol.ActionGameState)
		var gs protocol.GameState
		json.Unmarshal(env.Data, &gs)
		if len(gs.Players) == 1 && gs.Players[0].Floyd != nil && gs.Players[0].Floyd.Velocity.Y < 0 {
			return
		}
	}
	t.Fatal("floyd never moved upward after jump")
}

func TestMalformedMessageIsIgnored(t *testing.T) {
	ts := startTestServer(t, nil, "")
	conn := dialWS(t, ts.wsURL, nil)
	handshake(t, conn)

	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"data":{}}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"noSuchAction"}`))
	sendAction(t, conn, protocol.ActionJoinSession, nil)

	readUntil(t, conn, protocol.ActionSessionJoin)
}

func TestMsgPackEncoding(t *testing.T) {
	ts := startTestServer(t, nil, "")
	conn := dialWS(t, ts.wsURL, url.Values{"encoding": {"msgpack"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, _, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgType != websocket.BinaryMessage {
		t.Fatalf("message type = %d, want binary", msgType)
	}

	env := readEnvelope(t, conn)
	if env.Action != protocol.ActionPlayerInfo {
		t.Fatalf("action = %q, want playerInfo", env.Action)
	}
	var pi protocol.PlayerInfo
	json.Unmarshal(env.Data, &pi)
	if pi.PlayerID <= 0 || pi.Username == "" {
		t.Errorf("playerInfo = %+v", pi)
	}
}

func TestStoredHighscoreIsReported(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "floyd.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RecordResults([]store.Result{{Username: "champ", Score: 42}}); err != nil {
		t.Fatalf("record: %v", err)
	}

	ts := startTestServer(t, db, "")
	conn := dialWS(t, ts.wsURL, url.Values{"username": {"champ"}})
	handshake(t, conn)
	sendAction(t, conn, protocol.ActionJoinSession, nil)

	env := readUntil(t, conn, protocol.ActionGameState)
	var gs protocol.GameState
	json.Unmarshal(env.Data, &gs)
	if len(gs.Players) != 1 || gs.Players[0].Highscore != 42 {
		t.Errorf("players = %+v, want highscore 42", gs.Players)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, nil, "")
	resp, err := http.Get(ts.srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if _, ok := body["sessions"]; !ok {
		t.Error("missing sessions count")
	}
	if _, ok := body["clients"]; !ok {
		t.Error("missing clients count")
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	ts := startTestServer(t, nil, "")
	resp, err := http.Get(ts.srv.URL + "/leaderboard")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("without a database status = %d, want 503", resp.StatusCode)
	}

	db, err := store.Open(filepath.Join(t.TempDir(), "floyd.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.RecordResults([]store.Result{{Username: "a", Score: 3}, {Username: "b", Score: 9}})

	ts = startTestServer(t, db, "")
	resp, err = http.Get(ts.srv.URL + "/leaderboard")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var entries []store.LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 || entries[0].Username != "b" || entries[0].Rank != 1 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestQREndpoint(t *testing.T) {
	ts := startTestServer(t, nil, "")
	resp, err := http.Get(ts.srv.URL + "/qr")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("without a public URL status = %d, want 404", resp.StatusCode)
	}

	ts = startTestServer(t, nil, "http://floyd.example")
	resp, err = http.Get(ts.srv.URL + "/qr")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestConnectionLimitPerIP(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	for i := 0; i < maxConnsPerIP; i++ {
		if !hub.CanAccept("10.0.0.1") {
			t.Fatalf("connection %d rejected", i)
		}
		hub.TrackConnect("10.0.0.1")
	}
	if hub.CanAccept("10.0.0.1") {
		t.Error("expected per-IP limit to reject")
	}
	if !hub.CanAccept("10.0.0.2") {
		t.Error("other IPs should still be accepted")
	}
	hub.TrackDisconnect("10.0.0.1")
	if !hub.CanAccept("10.0.0.1") {
		t.Error("expected a slot after disconnect")
	}
}
