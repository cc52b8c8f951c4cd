package storage

import (
	"database/sql"
	"fmt"
)

// RecordNewGame asynchronously records a new game
func (s *Store) RecordNewGame(record GameRecord) error {
	return s.enqueue("game record", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO games (
			game_id, white_player_id, white_user_id, black_player_id, black_user_id, start_time_utc
		) VALUES (?, ?, ?, ?, ?, ?)`,
			record.GameID,
			record.WhitePlayerID, record.WhiteUserID,
			record.BlackPlayerID, record.BlackUserID,
			record.StartTimeUTC,
		)
		return err
	})
}

// RecordMove asynchronously records a move
func (s *Store) RecordMove(record MoveRecord) error {
	return s.enqueue("move record", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO moves (
			game_id, move_number, from_x, from_y, to_x, to_y, promotion, player_color, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.GameID, record.MoveNumber,
			record.FromX, record.FromY, record.ToX, record.ToY,
			record.Promotion, record.PlayerColor, record.MoveTimeUTC,
		)
		return err
	})
}

// RecordResult asynchronously stores the final state of a game
func (s *Store) RecordResult(gameID, result string) error {
	return s.enqueue("game result", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE games SET result = ? WHERE game_id = ?`, result, gameID)
		return err
	})
}

// RecordSlotClaim asynchronously stores the user owning a color
func (s *Store) RecordSlotClaim(gameID, color, userID string) error {
	column := "white_user_id"
	switch color {
	case "w":
	case "b":
		column = "black_user_id"
	default:
		return fmt.Errorf("invalid color %q", color)
	}
	return s.enqueue("slot claim", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE games SET `+column+` = ? WHERE game_id = ?`, userID, gameID)
		return err
	})
}

// QueryGames retrieves games with optional filtering; "" or "*" match all
func (s *Store) QueryGames(gameID, userID string) ([]GameRecord, error) {
	query := `SELECT
		game_id, white_player_id, white_user_id, black_player_id, black_user_id, start_time_utc, result
	FROM games WHERE 1=1`

	var args []any

	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}

	if userID != "" && userID != "*" {
		query += " AND (white_user_id = ? OR black_user_id = ?)"
		args = append(args, userID, userID)
	}

	query += " ORDER BY start_time_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		err := rows.Scan(
			&g.GameID,
			&g.WhitePlayerID, &g.WhiteUserID,
			&g.BlackPlayerID, &g.BlackUserID,
			&g.StartTimeUTC, &g.Result,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return games, nil
}

// QueryMoves returns the recorded moves of a game in play order
func (s *Store) QueryMoves(gameID string) ([]MoveRecord, error) {
	rows, err := s.db.Query(`SELECT
		move_id, game_id, move_number, from_x, from_y, to_x, to_y, promotion, player_color, move_time_utc
	FROM moves WHERE game_id = ? ORDER BY move_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(
			&m.MoveID, &m.GameID, &m.MoveNumber,
			&m.FromX, &m.FromY, &m.ToX, &m.ToY,
			&m.Promotion, &m.PlayerColor, &m.MoveTimeUTC,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}
