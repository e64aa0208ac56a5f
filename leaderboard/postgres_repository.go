package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetEntry(ctx context.Context, userID int) (*Entry, error) {
	var e Entry
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, week, week_total, last_week_total, grand_total, rank, version
		FROM leaderboard_entries
		WHERE user_id = $1
	`, userID).Scan(&e.UserID, &e.Week, &e.WeekTotal, &e.LastWeekTotal, &e.GrandTotal, &e.Rank, &e.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get leaderboard entry user_id=%d: %w", userID, err)
	}
	return &e, nil
}

func (r *PostgresRepository) CreateEntry(ctx context.Context, entry *Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leaderboard_entries (user_id, week, week_total, last_week_total, grand_total, rank, version)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
	`, entry.UserID, entry.Week, entry.WeekTotal, entry.LastWeekTotal, entry.GrandTotal, entry.Rank)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("create leaderboard entry user_id=%d: %w", entry.UserID, err)
	}
	entry.Version = 0
	return nil
}

func (r *PostgresRepository) UpdateEntry(ctx context.Context, entry *Entry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE leaderboard_entries
		SET week = $1,
		    week_total = $2,
		    last_week_total = $3,
		    grand_total = $4,
		    rank = $5,
		    version = version + 1
		WHERE user_id = $6 AND version = $7
	`, entry.Week, entry.WeekTotal, entry.LastWeekTotal, entry.GrandTotal, entry.Rank, entry.UserID, entry.Version)
	if err != nil {
		return fmt.Errorf("update leaderboard entry user_id=%d: %w", entry.UserID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update leaderboard entry user_id=%d: %w", entry.UserID, err)
	}
	if n == 0 {
		return ErrConflict
	}
	entry.Version++
	return nil
}

func (r *PostgresRepository) WeekStandings(ctx context.Context, week int64) ([]Standing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, week_total
		FROM leaderboard_entries
		WHERE week = $1 AND week_total > 0
		ORDER BY week_total DESC, user_id ASC
	`, week)
	if err != nil {
		return nil, fmt.Errorf("query week %d standings: %w", week, err)
	}
	defer rows.Close()

	standings := make([]Standing, 0)
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.UserID, &s.Score); err != nil {
			return nil, fmt.Errorf("scan week %d standing: %w", week, err)
		}
		standings = append(standings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate week %d standings: %w", week, err)
	}
	return standings, nil
}

func (r *PostgresRepository) SetRanks(ctx context.Context, week int64, ranked []Standing) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rank update transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE leaderboard_entries SET rank = 0 WHERE week = $1
	`, week); err != nil {
		return fmt.Errorf("clear week %d ranks: %w", week, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE leaderboard_entries SET rank = $1 WHERE user_id = $2 AND week = $3
	`)
	if err != nil {
		return fmt.Errorf("prepare rank update: %w", err)
	}
	defer stmt.Close()

	for _, s := range ranked {
		if _, err := stmt.ExecContext(ctx, s.Rank, s.UserID, week); err != nil {
			return fmt.Errorf("set rank user_id=%d rank=%d: %w", s.UserID, s.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rank update transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) StaleWeeks(ctx context.Context, before int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT week FROM leaderboard_entries WHERE week < $1 ORDER BY week ASC
	`, before)
	if err != nil {
		return nil, fmt.Errorf("query stale weeks: %w", err)
	}
	defer rows.Close()

	weeks := make([]int64, 0)
	for rows.Next() {
		var w int64
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan stale week: %w", err)
		}
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale weeks: %w", err)
	}
	return weeks, nil
}

func (r *PostgresRepository) ResetWeek(ctx context.Context, newWeek int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin weekly reset transaction: %w", err)
	}
	defer tx.Rollback()

	// Projections first: the WHERE still sees the old week tags.
	if _, err := tx.ExecContext(ctx, `
		UPDATE users
		SET current_rank = 0, current_week_points = 0
		FROM leaderboard_entries e
		WHERE users.id = e.user_id AND e.week < $1
	`, newWeek); err != nil {
		return fmt.Errorf("reset user projections: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE leaderboard_entries
		SET last_week_total = week_total,
		    week_total = 0,
		    rank = 0,
		    week = $1,
		    version = version + 1
		WHERE week < $1
	`, newWeek); err != nil {
		return fmt.Errorf("reset leaderboard entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit weekly reset transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateSnapshot(ctx context.Context, snapshot *HistorySnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO leaderboard_history (week)
		VALUES ($1)
		RETURNING created_at
	`, snapshot.Week).Scan(&snapshot.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert history snapshot week=%d: %w", snapshot.Week, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO leaderboard_history_entries (week, user_id, rank, score)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("prepare history entry insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range snapshot.Rankings {
		if _, err := stmt.ExecContext(ctx, snapshot.Week, s.UserID, s.Rank, s.Score); err != nil {
			return fmt.Errorf("insert history entry user_id=%d rank=%d: %w", s.UserID, s.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history snapshot transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) HasSnapshot(ctx context.Context, week int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM leaderboard_history WHERE week = $1)
	`, week).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check history snapshot week=%d: %w", week, err)
	}
	return exists, nil
}

func (r *PostgresRepository) GetSnapshot(ctx context.Context, week int64) (*HistorySnapshot, error) {
	snap := &HistorySnapshot{Week: week}
	err := r.db.QueryRowContext(ctx, `
		SELECT created_at FROM leaderboard_history WHERE week = $1
	`, week).Scan(&snap.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get history snapshot week=%d: %w", week, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, rank, score
		FROM leaderboard_history_entries
		WHERE week = $1
		ORDER BY rank ASC
	`, week)
	if err != nil {
		return nil, fmt.Errorf("query history entries week=%d: %w", week, err)
	}
	defer rows.Close()

	snap.Rankings = make([]Standing, 0)
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.UserID, &s.Rank, &s.Score); err != nil {
			return nil, fmt.Errorf("scan history entry week=%d: %w", week, err)
		}
		snap.Rankings = append(snap.Rankings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history entries week=%d: %w", week, err)
	}
	return snap, nil
}

func (r *PostgresRepository) UserExists(ctx context.Context, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user id=%d: %w", userID, err)
	}
	return exists, nil
}

func (r *PostgresRepository) UpdateProjection(ctx context.Context, userID, rank int, weekTotal, grandTotal int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET current_rank = $1, current_week_points = $2, points = $3
		WHERE id = $4
	`, rank, weekTotal, grandTotal, userID)
	if err != nil {
		return fmt.Errorf("update projection user_id=%d: %w", userID, err)
	}
	return nil
}

func (r *PostgresRepository) CurrentLeaderboard(ctx context.Context, week int64) ([]Row, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.full_name, e.week_total, e.rank
		FROM leaderboard_entries e
		JOIN users u ON u.id = e.user_id
		WHERE e.week = $1 AND e.week_total > 0
		ORDER BY e.week_total DESC, e.user_id ASC
	`, week)
	if err != nil {
		return nil, fmt.Errorf("query current leaderboard week=%d: %w", week, err)
	}
	defer rows.Close()

	board := make([]Row, 0)
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.FullName, &row.WeekTotal, &row.Rank); err != nil {
			return nil, fmt.Errorf("scan leaderboard row week=%d: %w", week, err)
		}
		board = append(board, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows week=%d: %w", week, err)
	}
	return board, nil
}

var _ Repository = (*PostgresRepository)(nil)
