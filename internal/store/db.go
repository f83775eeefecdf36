// Package store persists player highscores in SQLite.
package store

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// Result is one floyd's final tally from a game
type Result struct {
	Username string
	Score    int
}

// PlayerRow is the stored record of a username
type PlayerRow struct {
	Username    string
	Highscore   int
	GamesPlayed int
	TotalScore  int
}

// LeaderboardEntry is one row of the leaderboard
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Username    string `json:"username"`
	Highscore   int    `json:"highscore"`
	GamesPlayed int    `json:"gamesPlayed"`
}

// Open opens (or creates) the SQLite database at path
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// WAL lets the leaderboard read while results are written
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		username TEXT PRIMARY KEY,
		highscore INTEGER NOT NULL DEFAULT 0,
		games_played INTEGER NOT NULL DEFAULT 0,
		total_score INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_players_highscore ON players(highscore DESC);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Error("DB migration failed", "err", err)
	}
	return err
}

// Highscore returns the best score stored for username, or 0.
func (db *DB) Highscore(username string) (int, error) {
	p, err := db.GetPlayer(username)
	if err != nil || p == nil {
		return 0, err
	}
	return p.Highscore, nil
}

// GetPlayer returns the stored record for username, or nil if unknown.
func (db *DB) GetPlayer(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT username, highscore, games_played, total_score FROM players WHERE username = ?",
		username,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.Username, &p.Highscore, &p.GamesPlayed, &p.TotalScore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// RecordResults stores a batch of results in one transaction.
func (db *DB) RecordResults(results []Result) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO players (username, highscore, games_played, total_score)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(username) DO UPDATE SET
			highscore = MAX(highscore, excluded.highscore),
			games_played = games_played + 1,
			total_score = total_score + excluded.total_score,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.Exec(r.Username, r.Score, r.Score); err != nil {
			return fmt.Errorf("record %s: %w", r.Username, err)
		}
	}
	return tx.Commit()
}

// Leaderboard returns the top players by highscore.
func (db *DB) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(
		"SELECT username, highscore, games_played FROM players ORDER BY highscore DESC, username ASC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []LeaderboardEntry{}
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Highscore, &e.GamesPlayed); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetSetting returns a stored setting, or "" if unset.
func (db *DB) GetSetting(key string) (string, error) {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// SetSetting stores a setting, replacing any previous value.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
