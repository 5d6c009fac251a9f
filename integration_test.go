package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// ---------- helpers ----------

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// startTestServer spins up an httptest.Server with a Hub over a temp database
// and returns the server, its WebSocket URL, and a cleanup func.
func startTestServer(t *testing.T) (*httptest.Server, string, func()) {
	t.Helper()

	prevIdleTimeout := SessionIdleTimeout
	SessionIdleTimeout = 150 * time.Millisecond

	// Minimal static client dir
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("<html>test</html>"), 0o644)

	db, err := OpenDB(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	analytics := NewAnalytics(db)

	hub := NewHub(db, analytics)
	go hub.Run()

	mux := SetupRoutes(hub, tmpDir)
	srv := httptest.NewServer(mux)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	return srv, wsURL, func() {
		SessionIdleTimeout = prevIdleTimeout
		srv.Close()
		analytics.Stop()
		db.Close()
	}
}

// dialWS opens a WebSocket connection to the test server.
func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	return conn
}

// readMessage reads one message: JSON envelopes come back as-is, binary
// frames come back as Envelope{T: MsgState} with the decoded FrameState.
func readMessage(t *testing.T, conn *websocket.Conn) (Envelope, *FrameState) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read WS: %v", err)
	}
	if msgType == websocket.BinaryMessage {
		var frame FrameState
		if err := msgpack.Unmarshal(raw, &frame); err != nil {
			t.Fatalf("msgpack unmarshal: %v", err)
		}
		return Envelope{T: MsgState}, &frame
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return env, nil
}

// waitForJSON reads until a JSON message of the given type arrives, skipping
// interleaved binary state frames.
func waitForJSON(t *testing.T, conn *websocket.Conn, msgType string) Envelope {
	t.Helper()
	for i := 0; i < 200; i++ {
		env, frame := readMessage(t, conn)
		if frame != nil {
			continue
		}
		if env.T == msgType {
			return env
		}
		if env.T == MsgError {
			t.Fatalf("waiting for %s, got error: %v", msgType, env.Data)
		}
	}
	t.Fatalf("no %s message arrived", msgType)
	return Envelope{}
}

// waitForFrame reads until a binary state frame arrives.
func waitForFrame(t *testing.T, conn *websocket.Conn) *FrameState {
	t.Helper()
	for i := 0; i < 200; i++ {
		_, frame := readMessage(t, conn)
		if frame != nil {
			return frame
		}
	}
	t.Fatal("no state frame arrived")
	return nil
}

// sendMsg sends a typed message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	env := Envelope{T: msgType, Data: data}
	raw, _ := json.Marshal(env)
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

// dataMap extracts the Data field as map[string]interface{}.
func dataMap(t *testing.T, env Envelope) map[string]interface{} {
	t.Helper()
	raw, _ := json.Marshal(env.Data)
	var m map[string]interface{}
	json.Unmarshal(raw, &m)
	return m
}

// joinRun starts a run over the WebSocket and returns the session ID.
func joinRun(t *testing.T, conn *websocket.Conn, name string) string {
	t.Helper()
	sendMsg(t, conn, MsgJoin, JoinMsg{Name: name, Width: 1280, Height: 720})
	joined := waitForJSON(t, conn, MsgJoined)
	sid := dataMap(t, joined)["sid"].(string)
	waitForJSON(t, conn, MsgWelcome)
	return sid
}

// ---------- UUID generation ----------

func TestGenerateUUIDFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		id := GenerateUUID()
		if !uuidRegex.MatchString(id) {
			t.Errorf("GenerateUUID() = %q, does not match UUID v4 format", id)
		}
	}
}

func TestGenerateUUIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateUUID()
		if seen[id] {
			t.Fatalf("duplicate UUID generated: %s", id)
		}
		seen[id] = true
	}
}

// ---------- SPA routing ----------

func TestSPARoutingRoot(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("GET / status = %d, want 200", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected Cache-Control: no-cache, got %q", cc)
	}
}

func TestSPARoutingSessionPath(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/" + GenerateUUID())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("session path status = %d, want 200", resp.StatusCode)
	}
	buf := make([]byte, 100)
	n, _ := resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), "<html>") {
		t.Error("session path should serve index.html")
	}
}

// ---------- QR controller attach ----------

func TestQRCodeEndpoint(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	sid := joinRun(t, c, "QRPilot")

	resp, err := http.Get(srv.URL + "/qr?sid=" + sid)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("QR status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("QR content type = %q, want image/png", ct)
	}
}

func TestQRCodeUnknownSession(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/qr?sid=" + GenerateUUID())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("unknown session QR status = %d, want 404", resp.StatusCode)
	}

	resp2, err := http.Get(srv.URL + "/qr?sid=not-a-uuid")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != 400 {
		t.Errorf("malformed sid QR status = %d, want 400", resp2.StatusCode)
	}
}

// ---------- Join and state broadcast flow ----------

func TestJoinReceivesStateFrames(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	joinRun(t, c, "FramePilot")

	frame := waitForFrame(t, c)
	if frame.Craft.Width <= 0 {
		t.Error("frame should carry a sized craft")
	}
	if len(frame.Stars) == 0 {
		t.Error("frame should carry the starfield")
	}
	if frame.HUD.Fuel <= 0 || frame.HUD.Fuel > frame.HUD.MaxFuel {
		t.Errorf("HUD fuel out of range: %f / %f", frame.HUD.Fuel, frame.HUD.MaxFuel)
	}
	if frame.HUD.GameOver {
		t.Error("fresh run must not be over")
	}

	// Frames keep flowing and ticks advance
	later := waitForFrame(t, c)
	if later.Tick <= frame.Tick {
		t.Errorf("ticks should advance between frames: %d then %d", frame.Tick, later.Tick)
	}
}

func TestJoinRejectsBadViewport(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	sendMsg(t, c, MsgJoin, JoinMsg{Name: "NoScreen", Width: 0, Height: 0})
	env, _ := readMessage(t, c)
	if env.T != MsgError {
		t.Fatalf("expected error for zero viewport, got %s", env.T)
	}
}

// ---------- Binary input frames ----------

func TestBinaryInputFrame(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	joinRun(t, c, "Inputter")

	before := waitForFrame(t, c)

	// Hold left for a while
	frame := []byte{0x01, inputFlagLeft, 0, 0, 0, 0, 0, 0}
	if err := c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var moved bool
	for time.Now().Before(deadline) {
		after := waitForFrame(t, c)
		if after.Craft.X < before.Craft.X {
			moved = true
			break
		}
	}
	if !moved {
		t.Error("held left input should move the craft left")
	}
}

func TestPointerInputFrame(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	joinRun(t, c, "Pointer")

	before := waitForFrame(t, c)

	// Pointer target: top-right area (x=900, y=200)
	frame := []byte{0x01, inputFlagPointer, 900 >> 8, 900 & 0xff, 200 >> 8, 200 & 0xff, 0, 0}
	if err := c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var moved bool
	for time.Now().Before(deadline) {
		after := waitForFrame(t, c)
		if after.Craft.X > before.Craft.X && after.Craft.Y < before.Craft.Y {
			moved = true
			break
		}
	}
	if !moved {
		t.Error("pointer input should home the craft toward the target")
	}
}

func TestInputBeforeJoin(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	// Input without a session must not crash the connection
	frame := []byte{0x01, inputFlagLeft, 0, 0, 0, 0, 0, 0}
	c.WriteMessage(websocket.BinaryMessage, frame)

	sendMsg(t, c, MsgCheck, CheckMsg{SID: GenerateUUID()})
	env := waitForJSON(t, c, MsgChecked)
	if dataMap(t, env)["exists"] != false {
		t.Error("expected exists=false")
	}
}

// ---------- Session check ----------

func TestCheckSession(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c1 := dialWS(t, wsURL)
	defer c1.Close()
	sid := joinRun(t, c1, "Checked")

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	sendMsg(t, c2, MsgCheck, CheckMsg{SID: sid})
	checked := waitForJSON(t, c2, MsgChecked)
	d := dataMap(t, checked)
	if d["exists"] != true {
		t.Error("expected exists=true")
	}
	if d["pilot"] != "Checked" {
		t.Errorf("expected pilot name, got %v", d["pilot"])
	}
}

// ---------- Controller attach over WS ----------

func TestControllerAttach(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	player := dialWS(t, wsURL)
	defer player.Close()
	sid := joinRun(t, player, "Desktop")

	phone := dialWS(t, wsURL)
	defer phone.Close()
	sendMsg(t, phone, MsgControl, ControlMsg{SID: sid})
	waitForJSON(t, phone, MsgControlOK)

	// Desktop is told a controller attached
	waitForJSON(t, player, MsgCtrlOn)

	// Controller receives state frames too
	waitForFrame(t, phone)

	// Controller leaving notifies the desktop
	sendMsg(t, phone, MsgLeave, nil)
	waitForJSON(t, player, MsgCtrlOff)
}

// ---------- Leave and cleanup ----------

func TestLeaveEndsSession(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	sid := joinRun(t, c, "Leaver")

	sendMsg(t, c, MsgLeave, nil)
	time.Sleep(100 * time.Millisecond)

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	sendMsg(t, c2, MsgCheck, CheckMsg{SID: sid})
	checked := waitForJSON(t, c2, MsgChecked)
	if dataMap(t, checked)["exists"] != false {
		t.Error("session should end when the player leaves")
	}
}

func TestDisconnectEndsSession(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	sid := joinRun(t, c, "Dropper")
	c.Close()

	time.Sleep(200 * time.Millisecond)

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	sendMsg(t, c2, MsgCheck, CheckMsg{SID: sid})
	checked := waitForJSON(t, c2, MsgChecked)
	if dataMap(t, checked)["exists"] != false {
		t.Error("session should end when the player disconnects")
	}
}

// ---------- Auth over WS ----------

func TestRegisterLoginOverWS(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	sendMsg(t, c, MsgRegister, RegisterMsg{Username: "wspilot", Password: "secret1"})
	authOK := waitForJSON(t, c, MsgAuthOK)
	d := dataMap(t, authOK)
	token, _ := d["token"].(string)
	if token == "" {
		t.Fatal("register should return a token")
	}
	if d["username"] != "wspilot" {
		t.Errorf("username = %v", d["username"])
	}

	// Fresh connection resumes with the token
	c2 := dialWS(t, wsURL)
	defer c2.Close()
	sendMsg(t, c2, MsgAuth, AuthMsg{Token: token})
	resumed := waitForJSON(t, c2, MsgAuthOK)
	if dataMap(t, resumed)["username"] != "wspilot" {
		t.Error("token auth should restore the username")
	}

	// Profile reflects the account
	sendMsg(t, c2, MsgProfile, nil)
	profile := waitForJSON(t, c2, MsgProfileData)
	if dataMap(t, profile)["username"] != "wspilot" {
		t.Error("profile should carry the username")
	}
}

func TestProfileRequiresAuth(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	sendMsg(t, c, MsgProfile, nil)
	env, _ := readMessage(t, c)
	if env.T != MsgError {
		t.Fatalf("expected error for anonymous profile, got %s", env.T)
	}
}

// ---------- Store over WS ----------

func TestStoreAndBuyOverWS(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	sendMsg(t, c, MsgStore, nil)
	store := waitForJSON(t, c, MsgStoreData)
	raw, _ := json.Marshal(store.Data)
	var items []StoreItem
	json.Unmarshal(raw, &items)
	if len(items) != len(StoreCatalog) {
		t.Fatalf("expected %d catalog items, got %d", len(StoreCatalog), len(items))
	}

	// Anonymous purchase is refused
	sendMsg(t, c, MsgBuy, BuyMsg{ItemID: items[0].ID})
	env, _ := readMessage(t, c)
	if env.T != MsgError {
		t.Fatalf("expected error for anonymous buy, got %s", env.T)
	}

	// Authenticated but broke: also refused
	sendMsg(t, c, MsgRegister, RegisterMsg{Username: "shopper", Password: "secret1"})
	waitForJSON(t, c, MsgAuthOK)
	sendMsg(t, c, MsgBuy, BuyMsg{ItemID: items[0].ID})
	env2, _ := readMessage(t, c)
	if env2.T != MsgError {
		t.Fatalf("expected error for broke buy, got %s", env2.T)
	}
}

// ---------- Restart over WS ----------

func TestRestartOverWS(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	joinRun(t, c, "Restarter")

	// Restart during a live run is a no-op; the run keeps streaming
	sendMsg(t, c, MsgRestart, nil)
	frame := waitForFrame(t, c)
	if frame.HUD.GameOver {
		t.Error("restart during a live run must not end it")
	}
}

// ---------- Hub connection limits ----------

func TestHubTracksConnections(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	_ = srv
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	joinRun(t, c, "Counted")
}
