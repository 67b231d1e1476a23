// Package journal persists the operator's local session history: dice rolls
// and notable console events. The journal is local-only and never synced to
// the backend.
package journal

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gmconsole/internal/dice"
)

// RollEntry is a persisted dice roll.
type RollEntry struct {
	ID       string
	RolledAt time.Time
	Spec     string
	Results  []int
	Total    int
}

// EventEntry is a persisted console event.
type EventEntry struct {
	ID       string
	LoggedAt time.Time
	Source   string
	Message  string
}

// Journal records and queries session history.
type Journal struct {
	db *sql.DB
}

// NewJournal wraps an open database.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// AddRoll stores a roll and returns its id.
func (j *Journal) AddRoll(ctx context.Context, roll dice.Roll) (string, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO rolls (id, rolled_at, spec, results, total) VALUES (?, ?, ?, ?, ?)`,
		id,
		Now().Format(time.RFC3339),
		roll.Spec.String(),
		encodeResults(roll.Results),
		roll.Total,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecentRolls returns up to limit rolls, newest first.
func (j *Journal) RecentRolls(ctx context.Context, limit int) ([]RollEntry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, rolled_at, spec, results, total FROM rolls ORDER BY rolled_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RollEntry
	for rows.Next() {
		var e RollEntry
		var at, results string
		if err := rows.Scan(&e.ID, &at, &e.Spec, &results, &e.Total); err != nil {
			return nil, err
		}
		e.RolledAt, _ = time.Parse(time.RFC3339, at)
		e.Results = decodeResults(results)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddEvent stores a console event.
func (j *Journal) AddEvent(ctx context.Context, source, message string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (id, logged_at, source, message) VALUES (?, ?, ?, ?)`,
		uuid.NewString(),
		Now().Format(time.RFC3339),
		source,
		message,
	)
	return err
}

// RecentEvents returns up to limit events, newest first.
func (j *Journal) RecentEvents(ctx context.Context, limit int) ([]EventEntry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, logged_at, source, message FROM events ORDER BY logged_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventEntry
	for rows.Next() {
		var e EventEntry
		var at string
		if err := rows.Scan(&e.ID, &at, &e.Source, &e.Message); err != nil {
			return nil, err
		}
		e.LoggedAt, _ = time.Parse(time.RFC3339, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

func encodeResults(results []int) string {
	parts := make([]string, len(results))
	for i, v := range results {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func decodeResults(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
