package postgres

import (
	"context"
	"errors"
	"fmt"

	"gig-escrow/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const eventColumns = `seq, event_type, payload, prev_hash, hash, created_at`

// EventRepo implements ports.EventRepository. The payload is stored as
// text so the hashed bytes round-trip exactly.
type EventRepo struct {
	q Querier
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(q Querier) *EventRepo {
	return &EventRepo{q: q}
}

// Last returns the newest event or nil when the log is empty.
func (r *EventRepo) Last(ctx context.Context) (*domain.Event, error) {
	e, err := scanEvent(r.q.QueryRow(ctx, `SELECT `+eventColumns+` FROM events ORDER BY seq DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last event: %w", err)
	}
	return e, nil
}

// Append inserts e. The primary key on seq rejects duplicates.
func (r *EventRepo) Append(ctx context.Context, e *domain.Event) error {
	query := `INSERT INTO events (seq, event_type, payload, prev_hash, hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.q.Exec(ctx, query, e.Seq, e.Type, string(e.Payload), e.PrevHash, e.Hash, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append event %d: %w", e.Seq, err)
	}
	return nil
}

// List returns events with seq > after in ascending order.
func (r *EventRepo) List(ctx context.Context, after uint64, limit int) ([]*domain.Event, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE seq > $1 ORDER BY seq ASC LIMIT $2`,
		after, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	e := &domain.Event{}
	var payload string
	if err := row.Scan(&e.Seq, &e.Type, &payload, &e.PrevHash, &e.Hash, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Payload = []byte(payload)
	return e, nil
}
