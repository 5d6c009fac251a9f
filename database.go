package main

import (
	"database/sql"
	"log"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PilotRow represents a pilot record in the database
type PilotRow struct {
	ID        int64
	Username  string
	PassHash  string
	IsGuest   bool
	Credits   int
	CreatedAt time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL for better concurrency between the tick loop and analytics writer
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pilots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		is_guest INTEGER NOT NULL DEFAULT 0,
		credits INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pilot_id INTEGER REFERENCES pilots(id),
		difficulty INTEGER NOT NULL DEFAULT 1,
		score INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		bonuses INTEGER NOT NULL DEFAULT 0,
		fuel_gained REAL NOT NULL DEFAULT 0,
		max_speed REAL NOT NULL DEFAULT 0,
		afterburner_time REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS achievements (
		pilot_id INTEGER NOT NULL REFERENCES pilots(id),
		achievement_id TEXT NOT NULL,
		earned_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (pilot_id, achievement_id)
	);

	CREATE TABLE IF NOT EXISTS unlocks (
		pilot_id INTEGER NOT NULL REFERENCES pilots(id),
		item_id TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (pilot_id, item_id)
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		pilot_id INTEGER,
		session_id TEXT,
		data TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_pilot ON runs(pilot_id);
	CREATE INDEX IF NOT EXISTS idx_runs_score ON runs(score DESC);
	CREATE INDEX IF NOT EXISTS idx_pilots_username ON pilots(username);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// CreatePilot creates a new registered pilot (returns pilot ID)
func (db *DB) CreatePilot(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO pilots (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CreateGuest creates a guest pilot (no password)
func (db *DB) CreateGuest(username string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO pilots (username, is_guest) VALUES (?, 1)",
		username,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPilotByUsername returns a pilot by username, nil when absent
func (db *DB) GetPilotByUsername(username string) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, is_guest, credits, created_at FROM pilots WHERE username = ?",
		username,
	)
	return scanPilot(row)
}

// GetPilotByID returns a pilot by ID, nil when absent
func (db *DB) GetPilotByID(id int64) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, is_guest, credits, created_at FROM pilots WHERE id = ?",
		id,
	)
	return scanPilot(row)
}

func scanPilot(row *sql.Row) (*PilotRow, error) {
	p := &PilotRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.IsGuest, &p.Credits, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM pilots WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetSetting returns a settings value, empty string when absent
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting upserts a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

const highScoreKey = "high_score"

// GetHighScore reads the stored high score; 0 when none exists
func (db *DB) GetHighScore() int {
	n, _ := strconv.Atoi(db.GetSetting(highScoreKey))
	return n
}

// SetHighScore persists a new high score
func (db *DB) SetHighScore(score int) error {
	return db.SetSetting(highScoreKey, strconv.Itoa(score))
}

// RecordRun writes a completed run
func (db *DB) RecordRun(pilotID int64, difficulty, score int, stats RunStats) error {
	pid := sql.NullInt64{Int64: pilotID, Valid: pilotID > 0}
	_, err := db.conn.Exec(
		`INSERT INTO runs (pilot_id, difficulty, score, duration, bonuses, fuel_gained, max_speed, afterburner_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pid, difficulty, score, stats.Duration, stats.Bonuses, stats.FuelGained,
		stats.MaxSpeed, stats.AfterburnerTime,
	)
	return err
}

// PilotTotals aggregates a pilot's run history
type PilotTotals struct {
	Runs      int
	BestScore int
	BestSpeed float64
	Playtime  float64
	Bonuses   int
}

// GetPilotTotals returns aggregate run stats for a pilot
func (db *DB) GetPilotTotals(pilotID int64) (PilotTotals, error) {
	var t PilotTotals
	err := db.conn.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(MAX(score), 0),
		       COALESCE(MAX(max_speed), 0),
		       COALESCE(SUM(duration), 0),
		       COALESCE(SUM(bonuses), 0)
		FROM runs WHERE pilot_id = ?`,
		pilotID,
	).Scan(&t.Runs, &t.BestScore, &t.BestSpeed, &t.Playtime, &t.Bonuses)
	return t, err
}

// GetLeaderboard returns the top run scores, guests excluded
func (db *DB) GetLeaderboard(limit int) ([]ScoreEntry, error) {
	rows, err := db.conn.Query(`
		SELECT p.username, MAX(r.score), r.duration
		FROM runs r JOIN pilots p ON p.id = r.pilot_id
		WHERE p.is_guest = 0
		GROUP BY r.pilot_id
		ORDER BY MAX(r.score) DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ScoreEntry
	rank := 1
	for rows.Next() {
		var e ScoreEntry
		if err := rows.Scan(&e.Username, &e.Score, &e.Duration); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// AddCredits grants run credits to a pilot
func (db *DB) AddCredits(pilotID int64, amount int) error {
	_, err := db.conn.Exec("UPDATE pilots SET credits = credits + ? WHERE id = ?", amount, pilotID)
	return err
}

// GetCredits returns a pilot's credit balance
func (db *DB) GetCredits(pilotID int64) (int, error) {
	var credits int
	err := db.conn.QueryRow("SELECT credits FROM pilots WHERE id = ?", pilotID).Scan(&credits)
	return credits, err
}

// SpendCredits atomically deducts credits; returns false when the balance is
// insufficient
func (db *DB) SpendCredits(pilotID int64, amount int) (bool, error) {
	res, err := db.conn.Exec(
		"UPDATE pilots SET credits = credits - ? WHERE id = ? AND credits >= ?",
		amount, pilotID, amount,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UnlockAchievement records an achievement; returns true when newly unlocked
func (db *DB) UnlockAchievement(pilotID int64, achievementID string) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT OR IGNORE INTO achievements (pilot_id, achievement_id) VALUES (?, ?)",
		pilotID, achievementID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetAchievements returns the IDs of a pilot's earned achievements
func (db *DB) GetAchievements(pilotID int64) ([]string, error) {
	rows, err := db.conn.Query("SELECT achievement_id FROM achievements WHERE pilot_id = ?", pilotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddUnlock records a cosmetic purchase
func (db *DB) AddUnlock(pilotID int64, itemID string) error {
	_, err := db.conn.Exec(
		"INSERT OR IGNORE INTO unlocks (pilot_id, item_id) VALUES (?, ?)",
		pilotID, itemID,
	)
	return err
}

// HasUnlock checks whether a pilot owns an item
func (db *DB) HasUnlock(pilotID int64, itemID string) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM unlocks WHERE pilot_id = ? AND item_id = ?",
		pilotID, itemID,
	).Scan(&count)
	return count > 0, err
}

// GetUnlocks returns the item IDs a pilot owns
func (db *DB) GetUnlocks(pilotID int64) ([]string, error) {
	rows, err := db.conn.Query("SELECT item_id FROM unlocks WHERE pilot_id = ?", pilotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
