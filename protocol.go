package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin       = "join"
	MsgLeave      = "leave"
	MsgInput      = "input"
	MsgViewport   = "viewport"
	MsgRestart    = "restart"
	MsgCheck      = "check"   // check if session exists (controller page)
	MsgControl    = "control" // phone pointer-controller attach
	MsgRegister   = "register"
	MsgLogin      = "login"
	MsgAuth       = "auth"
	MsgProfile    = "profile"
	MsgHighScores = "highscores"
	MsgStore      = "store"
	MsgBuy        = "buy"
)

// Server -> Client message types
const (
	MsgJoined      = "joined"
	MsgWelcome     = "welcome"
	MsgState       = "state" // msgpack binary frames, not JSON
	MsgGameOver    = "gameover"
	MsgError       = "error"
	MsgChecked     = "checked"
	MsgControlOK   = "control_ok"
	MsgCtrlOn      = "ctrl_on"  // notify desktop: controller attached
	MsgCtrlOff     = "ctrl_off" // notify desktop: controller detached
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile_data"
	MsgScores      = "scores"
	MsgStoreData   = "store_data"
	MsgBought      = "bought"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// InputSnapshot is the shared input state written by the client's handlers
// and read once at the top of each tick. Keyboard flags preempt the pointer.
type InputSnapshot struct {
	Left        bool `json:"l"`
	Right       bool `json:"r"`
	Up          bool `json:"u"`
	Down        bool `json:"d"`
	Afterburner bool `json:"ab"`
	Restart     bool `json:"rs"`

	PointerActive bool    `json:"pa"`
	PointerX      float64 `json:"px"`
	PointerY      float64 `json:"py"`
}

// Binary input frame flag bits (byte 1 of an 8-byte 0x01 frame)
const (
	inputFlagLeft        = 0x01
	inputFlagRight       = 0x02
	inputFlagUp          = 0x04
	inputFlagDown        = 0x08
	inputFlagAfterburner = 0x10
	inputFlagPointer     = 0x20
	inputFlagRestart     = 0x40
)

// JoinMsg starts a run. Viewport dimensions are required for projection.
type JoinMsg struct {
	Name       string  `json:"name"`
	Width      float64 `json:"w"`
	Height     float64 `json:"h"`
	Difficulty int     `json:"diff"`
	Class      int     `json:"class"`
}

// ViewportMsg is sent on client resize
type ViewportMsg struct {
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// WelcomeMsg is sent once after a successful join
type WelcomeMsg struct {
	SessionID string `json:"sid"`
	Pilot     string `json:"pilot"`
	Class     int    `json:"class"`
	HighScore int    `json:"hs"`
}

// GameOverMsg is sent exactly once per RUNNING -> GAME_OVER transition
type GameOverMsg struct {
	Score        int              `json:"score"`
	HighScore    int              `json:"hs"`
	NewHighScore bool             `json:"newHs"`
	Duration     float64          `json:"dur"`
	Bonuses      int              `json:"bonuses"`
	MaxSpeed     float64          `json:"maxSpeed"`
	Credits      int              `json:"credits,omitempty"`
	Achievements []AchievementDef `json:"achievements,omitempty"`
}

// ControlMsg is sent by a phone controller to attach to a session
type ControlMsg struct {
	SID string `json:"sid"`
}

// CheckMsg asks whether a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID    string `json:"sid"`
	Exists bool   `json:"exists"`
	Pilot  string `json:"pilot,omitempty"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates with credentials
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg authenticates with a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PilotID  int64  `json:"pid"`
}

// ProfileDataMsg carries a pilot's persistent numbers
type ProfileDataMsg struct {
	Username  string  `json:"username"`
	HighScore int     `json:"hs"`
	Runs      int     `json:"runs"`
	BestSpeed float64 `json:"bestSpeed"`
	Credits   int     `json:"credits"`
	Unlocks   []string `json:"unlocks,omitempty"`
}

// ScoreEntry is one leaderboard row
type ScoreEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Score    int     `json:"score"`
	Duration float64 `json:"dur"`
}

// BuyMsg purchases a cosmetic item
type BuyMsg struct {
	ItemID string `json:"id"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// --- Binary frame state (msgpack) ---

// StarState is one star as the renderer needs it: current projection, the
// previous projection for the warp trail, and fade state. HasPrev false
// means "no trail", never an error.
type StarState struct {
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	PrevX   float64 `msgpack:"px"`
	PrevY   float64 `msgpack:"py"`
	HasPrev bool    `msgpack:"hp"`
	Size    float64 `msgpack:"s"`
	Opacity float64 `msgpack:"o"`
}

// AsteroidState carries screen-space transformed contours, ready to draw
// and identical to what the collision engine tested
type AsteroidState struct {
	Outer   [][2]float64 `msgpack:"v"`
	Hole    [][2]float64 `msgpack:"h,omitempty"`
	Color   string       `msgpack:"c"`
	Opacity float64      `msgpack:"o"`
}

// CraftState is the craft rectangle (center + size)
type CraftState struct {
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Width  float64 `msgpack:"w"`
	Height float64 `msgpack:"h"`
}

// PopupState is one live fuel popup. The id keys client-side animations.
type PopupState struct {
	ID      string  `msgpack:"id"`
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	Amount  float64 `msgpack:"a"`
	Opacity float64 `msgpack:"o"`
}

// HUDState carries the progression numbers
type HUDState struct {
	Speed       float64 `msgpack:"sp"`
	Score       int     `msgpack:"sc"`
	Fuel        float64 `msgpack:"f"`
	MaxFuel     float64 `msgpack:"mf"`
	Multiplier  float64 `msgpack:"m"`
	Afterburner bool    `msgpack:"ab"`
	GameOver    bool    `msgpack:"go"`
	HighScore   int     `msgpack:"hs"`
}

// FrameState is the full per-broadcast render state. The renderer is a pure
// consumer; nothing here feeds back into the simulation.
type FrameState struct {
	Tick      uint64          `msgpack:"t"`
	Craft     CraftState      `msgpack:"c"`
	Stars     []StarState     `msgpack:"st"`
	Asteroids []AsteroidState `msgpack:"a"`
	Popups    []PopupState    `msgpack:"pu"`
	HUD       HUDState        `msgpack:"hud"`
}
