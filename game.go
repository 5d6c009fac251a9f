package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 60 // simulation ticks per second
	BroadcastRate  = 30 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

// Broadcaster is the render sink: a consumer of state frames that never
// mutates simulation state
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game runs one single-player session. All simulation state is owned by the
// tick loop goroutine; input handlers only write the snapshot under the
// mutex, and the loop reads it once at the top of each tick.
type Game struct {
	mu       sync.RWMutex
	cfg      RunConfig
	classDef CraftClassDef
	vp       Viewport

	phase  RunPhase
	prog   Progression
	craft  *CraftController
	stars  *Starfield
	field  *AsteroidField
	popups []*FuelPopup
	stats  RunStats

	input         InputSnapshot
	restartQueued bool

	tick     uint64
	stop     chan struct{}
	stopOnce sync.Once

	client     Broadcaster // the player's render sink
	controller Broadcaster // optional phone pointer controller

	db        *DB
	analytics *Analytics
	sessionID string
	pilotID   int64
	pilotName string
	highScore int
}

// NewGame builds a fresh run. The high score is read from the store once at
// startup and only written back when exceeded.
func NewGame(cfg RunConfig, vp Viewport, db *DB, analytics *Analytics) *Game {
	now := time.Now()
	def := GetClassDef(cfg.Class)
	g := &Game{
		cfg:       cfg,
		classDef:  def,
		vp:        vp,
		phase:     PhaseRunning,
		prog:      NewProgression(def),
		craft:     NewCraftController(vp, def),
		stars:     NewStarfield(cfg.StarCount, vp, now),
		field:     NewAsteroidField(cfg.AsteroidCount, vp, cfg.HoleChance),
		stats:     NewRunStats(now),
		stop:      make(chan struct{}),
		db:        db,
		analytics: analytics,
	}
	if db != nil {
		g.highScore = db.GetHighScore()
	}
	return g
}

// Run starts the fixed-tick loop. A new tick is never scheduled before the
// previous one has returned; Stop guarantees no tick fires after it.
func (g *Game) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the loop. Safe to call more than once, and before Run.
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// SetClient attaches the player's render sink
func (g *Game) SetClient(b Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.client = b
}

// SetController attaches a pointer controller; returns the previous one
func (g *Game) SetController(b Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.controller = b
	if g.client != nil {
		g.client.SendJSON(Envelope{T: MsgCtrlOn})
	}
}

// RemoveController detaches the pointer controller
func (g *Game) RemoveController() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.controller = nil
	if g.client != nil {
		g.client.SendJSON(Envelope{T: MsgCtrlOff})
	}
}

// SetPilot links an authenticated pilot to this run
func (g *Game) SetPilot(id int64, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pilotID = id
	g.pilotName = name
}

// HandleInput stores the latest input snapshot. Restart is edge-triggered
// and latched until the next tick consumes it.
func (g *Game) HandleInput(in InputSnapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.input = in
	if in.Restart {
		g.restartQueued = true
	}
}

// RequestRestart queues a restart (JSON control message path)
func (g *Game) RequestRestart() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.restartQueued = true
}

// SetViewport rescales projection and craft sizing without disturbing the
// resolution-independent 3-D positions
func (g *Game) SetViewport(w, h float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if w <= 0 || h <= 0 {
		return
	}
	g.vp = Viewport{Width: w, Height: h}
	g.craft.Resize(g.vp)
	g.stars.Resize(g.vp)
	g.field.Resize(g.vp)
}

// Phase returns the current run phase
func (g *Game) Phase() RunPhase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

// Score returns the current (or frozen) score
func (g *Game) Score() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return int(g.prog.Score)
}

// update runs one simulation tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	dt := 1.0 / float64(TickRate)
	g.tick++
	now := time.Now()
	in := g.input
	restart := g.restartQueued
	g.restartQueued = false

	g.agePopups(now)

	switch g.phase {
	case PhaseGameOver:
		if restart {
			g.restart(now)
		}
	case PhaseRunning:
		g.prog.Tick(dt, in.Afterburner)
		if g.prog.Speed > g.stats.MaxSpeed {
			g.stats.MaxSpeed = g.prog.Speed
		}
		if g.prog.Afterburner {
			g.stats.AfterburnerTime += dt
		}

		g.craft.Update(in, g.prog.Speed, g.prog.Fuel, dt)
		g.stars.Advance(dt, g.prog.Speed)
		g.stars.Recensus(now, g.prog.Speed)
		g.field.Advance(dt, g.prog.Speed)

		g.checkProximity(now)
		if g.checkCollision() {
			g.gameOver(now)
		}
	}

	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

// agePopups drops popups that have fully faded
func (g *Game) agePopups(now time.Time) {
	alive := g.popups[:0]
	for _, p := range g.popups {
		if !p.Age(now) {
			alive = append(alive, p)
		}
	}
	g.popups = alive
}

// checkProximity awards at most one fuel bonus per asteroid instance, based
// on the nearest-approach distance from the craft center to the asteroid's
// outer edges in screen space
func (g *Game) checkProximity(now time.Time) {
	center := Vector2{X: g.craft.Craft.X, Y: g.craft.Craft.Y}
	for _, a := range g.field.Asteroids() {
		if a.BonusAwarded || !g.field.Visible(a) {
			continue
		}
		contours, ok := TransformAsteroid(a, g.vp)
		if !ok {
			continue
		}
		d := NearestEdgeDistance(center, contours[0])
		if d > BonusMaxRadius {
			continue
		}
		amount := BonusForDistance(d)
		g.prog.AddFuel(amount)
		a.BonusAwarded = true
		g.stats.Bonuses++
		g.stats.FuelGained += amount

		ac, _ := Project(Vector3{a.X, a.Y, a.Z}, g.vp)
		g.popups = append(g.popups, NewFuelPopup(center.X, center.Y, ac.X, ac.Y, amount, now))

		if g.analytics != nil {
			g.analytics.Track(EvtFuelBonus, g.pilotID, g.sessionID,
				fmt.Sprintf(`{"dist":%.1f,"amount":%.1f}`, d, amount))
		}
	}
}

// checkCollision tests the craft against every visible asteroid silhouette
func (g *Game) checkCollision() bool {
	for _, a := range g.field.Asteroids() {
		if !g.field.Visible(a) {
			continue
		}
		contours, ok := TransformAsteroid(a, g.vp)
		if !ok {
			continue
		}
		if CraftHits(g.craft.Craft, contours) {
			return true
		}
	}
	return false
}

// gameOver latches the terminal state: score frozen, high score persisted if
// exceeded, notification sent exactly once
func (g *Game) gameOver(now time.Time) {
	g.phase = PhaseGameOver
	g.prog.GameOver = true
	g.stats.Duration = now.Sub(g.stats.StartedAt).Seconds()

	score := int(g.prog.Score)
	newHigh := score > g.highScore
	if newHigh {
		g.highScore = score
		if g.db != nil {
			if err := g.db.SetHighScore(score); err != nil {
				log.Printf("high score write: %v", err)
			}
		}
	}

	credits := CreditsPerRun(score, g.stats.Bonuses)
	var unlocked []AchievementDef
	if g.db != nil {
		if err := g.db.RecordRun(g.pilotID, int(g.cfg.Difficulty), score, g.stats); err != nil {
			log.Printf("run record write: %v", err)
		}
		if g.pilotID != 0 {
			if err := g.db.AddCredits(g.pilotID, credits); err != nil {
				log.Printf("credits write: %v", err)
			}
			unlocked = CheckAchievements(g.db, g.pilotID, score, g.stats)
		}
	}

	if g.analytics != nil {
		g.analytics.Track(EvtCollision, g.pilotID, g.sessionID, "")
		g.analytics.Track(EvtRunEnd, g.pilotID, g.sessionID,
			fmt.Sprintf(`{"score":%d,"dur":%.1f,"bonuses":%d}`, score, g.stats.Duration, g.stats.Bonuses))
	}

	msg := Envelope{T: MsgGameOver, Data: GameOverMsg{
		Score:        score,
		HighScore:    g.highScore,
		NewHighScore: newHigh,
		Duration:     round1(g.stats.Duration),
		Bonuses:      g.stats.Bonuses,
		MaxSpeed:     g.stats.MaxSpeed,
		Credits:      credits,
		Achievements: unlocked,
	}}
	if g.client != nil {
		g.client.SendJSON(msg)
	}
	if g.controller != nil {
		g.controller.SendJSON(msg)
	}
}

// restart resets every field and progression counter; nothing bleeds across
func (g *Game) restart(now time.Time) {
	g.phase = PhaseRunning
	g.prog = NewProgression(g.classDef)
	g.craft.Recenter()
	g.stars = NewStarfield(g.cfg.StarCount, g.vp, now)
	g.field.Regenerate()
	g.popups = nil
	g.stats = NewRunStats(now)
	g.input = InputSnapshot{}

	if g.analytics != nil {
		g.analytics.Track(EvtRunStart, g.pilotID, g.sessionID, "")
	}
}

// broadcastState sends the msgpack frame to the render sinks
func (g *Game) broadcastState() {
	if g.client == nil && g.controller == nil {
		return
	}

	frame := FrameState{
		Tick: g.tick,
		Craft: CraftState{
			X:      g.craft.Craft.X,
			Y:      g.craft.Craft.Y,
			Width:  g.craft.Craft.Width,
			Height: g.craft.Craft.Height,
		},
		HUD: HUDState{
			Speed:       g.prog.Speed,
			Score:       int(g.prog.Score),
			Fuel:        g.prog.Fuel,
			MaxFuel:     g.prog.MaxTank(),
			Multiplier:  g.prog.Accel.Multiplier,
			Afterburner: g.prog.Afterburner,
			GameOver:    g.phase == PhaseGameOver,
			HighScore:   g.highScore,
		},
	}

	frame.Stars = make([]StarState, 0, g.stars.Count())
	for _, s := range g.stars.stars {
		p, ok := Project(Vector3{s.X, s.Y, s.Z}, g.vp)
		if !ok {
			continue
		}
		frame.Stars = append(frame.Stars, StarState{
			X: p.X, Y: p.Y,
			PrevX: s.PrevX, PrevY: s.PrevY, HasPrev: s.HasPrev,
			Size: s.Size, Opacity: s.Opacity,
		})
	}

	for _, a := range g.field.Asteroids() {
		contours, ok := TransformAsteroid(a, g.vp)
		if !ok {
			continue
		}
		st := AsteroidState{Color: a.Color, Opacity: a.Opacity, Outer: packContour(contours[0])}
		if len(contours) > 1 {
			st.Hole = packContour(contours[1])
		}
		frame.Asteroids = append(frame.Asteroids, st)
	}

	for _, p := range g.popups {
		frame.Popups = append(frame.Popups, PopupState{
			ID: p.ID, X: p.X, Y: p.Y, Amount: p.Amount, Opacity: p.Opacity,
		})
	}

	data, err := msgpack.Marshal(frame)
	if err != nil {
		log.Printf("frame marshal: %v", err)
		return
	}
	if g.client != nil {
		g.client.SendBinary(data)
	}
	if g.controller != nil {
		g.controller.SendBinary(data)
	}
}

// packContour flattens screen-space points for the wire format
func packContour(c []Vector2) [][2]float64 {
	out := make([][2]float64, len(c))
	for i, p := range c {
		out[i] = [2]float64{round1(p.X), round1(p.Y)}
	}
	return out
}
