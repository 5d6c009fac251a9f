package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120
	maxNameLen        = 16
)

// Client represents a WebSocket connection
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	sessionID    string
	remoteAddr   string
	isController bool
	msgCount     int
	msgResetAt   time.Time
	// Auth state
	pilotID  int64  // 0 = unauthenticated/guest
	username string // "" = unauthenticated
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		// Binary input frames: 8 bytes [0x01, flags, px_hi, px_lo, py_hi, py_lo, 0, 0]
		if msgType == websocket.BinaryMessage && len(message) == 8 && message[0] == 0x01 {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgViewport:
		c.handleViewport(env.D)
	case MsgRestart:
		c.handleRestart()
	case MsgLeave:
		c.handleLeave()
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgControl:
		c.handleControl(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	case MsgHighScores:
		c.handleHighScores()
	case MsgStore:
		c.handleStore()
	case MsgBuy:
		c.handleBuy(env.D)
	}
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.sessionID != "" {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "already in a run"}})
		return
	}
	name := msg.Name
	if name == "" {
		if c.username != "" {
			name = c.username
		} else {
			name = GenerateGuestName()
		}
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	if msg.Width <= 0 || msg.Height <= 0 {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "bad viewport"}})
		return
	}

	diff := RunDifficulty(msg.Difficulty)
	if diff < DifficultyCruise || diff > DifficultyHyper {
		diff = DifficultyStandard
	}
	cfg := DefaultRunConfig(diff)
	class := CraftClass(msg.Class)
	if class < 0 || int(class) >= len(CraftClasses) {
		class = ClassInterceptor
	}
	cfg.Class = class

	vp := Viewport{Width: msg.Width, Height: msg.Height}
	sess := c.hub.sessions.CreateSession(name, cfg, vp, c.hub.db, c.hub.analytics)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "too many active runs"}})
		return
	}

	c.sessionID = sess.ID
	if c.pilotID != 0 {
		sess.Game.SetPilot(c.pilotID, c.username)
	}
	sess.Game.SetClient(c)
	sess.MarkActive()

	high := 0
	if c.hub.db != nil {
		high = c.hub.db.GetHighScore()
	}
	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		SessionID: sess.ID,
		Pilot:     name,
		Class:     int(class),
		HighScore: high,
	}})
}

// handleBinaryInput decodes a compact 8-byte binary input frame
func (c *Client) handleBinaryInput(msg []byte) {
	if c.sessionID == "" {
		return
	}
	// Decode: [0x01, flags, px_hi, px_lo, py_hi, py_lo, 0, 0]
	flags := msg[1]
	px := float64(int16(uint16(msg[2])<<8 | uint16(msg[3])))
	py := float64(int16(uint16(msg[4])<<8 | uint16(msg[5])))

	input := InputSnapshot{
		Left:          flags&inputFlagLeft != 0,
		Right:         flags&inputFlagRight != 0,
		Up:            flags&inputFlagUp != 0,
		Down:          flags&inputFlagDown != 0,
		Afterburner:   flags&inputFlagAfterburner != 0,
		Restart:       flags&inputFlagRestart != 0,
		PointerActive: flags&inputFlagPointer != 0,
		PointerX:      px,
		PointerY:      py,
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.MarkActive()
	sess.Game.HandleInput(input)
}

func (c *Client) handleInput(data json.RawMessage) {
	if c.sessionID == "" {
		return
	}
	var input InputSnapshot
	if err := json.Unmarshal(data, &input); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.MarkActive()
	sess.Game.HandleInput(input)
}

func (c *Client) handleViewport(data json.RawMessage) {
	if c.sessionID == "" {
		return
	}
	var msg ViewportMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.Game.SetViewport(msg.Width, msg.Height)
}

func (c *Client) handleRestart() {
	if c.sessionID == "" {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.MarkActive()
	sess.Game.RequestRestart()
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:    msg.SID,
		Exists: true,
		Pilot:  sess.Pilot,
	}})
}

func (c *Client) handleLeave() {
	if c.sessionID == "" {
		return
	}
	if c.isController {
		sess := c.hub.sessions.GetSession(c.sessionID)
		if sess != nil {
			sess.Game.RemoveController()
		}
	} else {
		c.hub.sessions.RemoveSession(c.sessionID)
	}
	c.sessionID = ""
	c.isController = false
}

func (c *Client) handleControl(data json.RawMessage) {
	var msg ControlMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "session not found"}})
		return
	}

	c.sessionID = msg.SID
	c.isController = true

	sess.Game.SetController(c)
	c.SendJSON(Envelope{T: MsgControlOK, Data: map[string]string{"sid": msg.SID}})
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.pilotID = id
	c.username = msg.Username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: msg.Username,
		PilotID:  id,
	}})
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.pilotID = id
	c.username = msg.Username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: msg.Username,
		PilotID:  id,
	}})
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "invalid token"}})
		return
	}
	c.pilotID = id
	c.username = username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    msg.Token,
		Username: username,
		PilotID:  id,
	}})
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.pilotID == 0 {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "not authenticated"}})
		return
	}
	totals, err := c.hub.db.GetPilotTotals(c.pilotID)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "profile not found"}})
		return
	}
	credits, _ := c.hub.db.GetCredits(c.pilotID)
	unlocks, _ := c.hub.db.GetUnlocks(c.pilotID)
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:  c.username,
		HighScore: totals.BestScore,
		Runs:      totals.Runs,
		BestSpeed: totals.BestSpeed,
		Credits:   credits,
		Unlocks:   unlocks,
	}})
}

func (c *Client) handleHighScores() {
	if c.hub.db == nil {
		return
	}
	entries, err := c.hub.db.GetLeaderboard(10)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "leaderboard unavailable"}})
		return
	}
	c.SendJSON(Envelope{T: MsgScores, Data: entries})
}

func (c *Client) handleStore() {
	c.SendJSON(Envelope{T: MsgStoreData, Data: StoreCatalog})
}

func (c *Client) handleBuy(data json.RawMessage) {
	if c.hub.db == nil || c.pilotID == 0 {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "not authenticated"}})
		return
	}
	var msg BuyMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	item, ok := StoreCatalogMap[msg.ItemID]
	if !ok {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "unknown item"}})
		return
	}
	owned, err := c.hub.db.HasUnlock(c.pilotID, item.ID)
	if err == nil && owned {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "already owned"}})
		return
	}
	ok, err = c.hub.db.SpendCredits(c.pilotID, item.Price)
	if err != nil || !ok {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "not enough credits"}})
		return
	}
	if err := c.hub.db.AddUnlock(c.pilotID, item.ID); err != nil {
		log.Printf("unlock write: %v", err)
	}
	if c.hub.analytics != nil {
		c.hub.analytics.Track(EvtPurchase, c.pilotID, c.sessionID, `{"item":"`+item.ID+`"}`)
	}
	credits, _ := c.hub.db.GetCredits(c.pilotID)
	c.SendJSON(Envelope{T: MsgBought, Data: map[string]interface{}{
		"id":      item.ID,
		"credits": credits,
	}})
}
