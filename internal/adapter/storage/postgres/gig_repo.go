package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gig-escrow/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const gigColumns = `id, seller, title, description, ai_model, price::text, delivery_time_hours, is_active, created_at, updated_at`

// GigRepo implements ports.GigRepository.
type GigRepo struct {
	q Querier
}

// NewGigRepo creates a new GigRepo.
func NewGigRepo(q Querier) *GigRepo {
	return &GigRepo{q: q}
}

// Create inserts a new gig.
func (r *GigRepo) Create(ctx context.Context, g *domain.Gig) error {
	query := `INSERT INTO gigs (id, seller, title, description, ai_model, price, delivery_time_hours, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10)`

	_, err := r.q.Exec(ctx, query,
		g.ID, g.Seller, g.Title, g.Description, g.AIModel,
		numericArg(g.Price), g.DeliveryTimeHours, g.IsActive, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert gig: %w", err)
	}
	return nil
}

// GetByID fetches a gig by id.
func (r *GigRepo) GetByID(ctx context.Context, id uint64) (*domain.Gig, error) {
	g, err := scanGig(r.q.QueryRow(ctx, `SELECT `+gigColumns+` FROM gigs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get gig: %w", err)
	}
	return g, nil
}

// Update persists the mutable fields. Listing details are fixed after creation.
func (r *GigRepo) Update(ctx context.Context, g *domain.Gig) error {
	tag, err := r.q.Exec(ctx, `UPDATE gigs SET is_active = $1, updated_at = $2 WHERE id = $3`,
		g.IsActive, g.UpdatedAt, g.ID)
	if err != nil {
		return fmt.Errorf("update gig: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("gig not found: %d", g.ID)
	}
	return nil
}

// List fetches gigs in ascending id order with filtering and pagination.
func (r *GigRepo) List(ctx context.Context, filter domain.GigFilter, page domain.Page) ([]*domain.Gig, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.Seller != "" {
		conditions = append(conditions, fmt.Sprintf("seller = $%d", argIdx))
		args = append(args, filter.Seller)
		argIdx++
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.q.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM gigs %s", where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count gigs: %w", err)
	}

	dataQuery := fmt.Sprintf(`SELECT %s FROM gigs %s ORDER BY id ASC LIMIT $%d OFFSET $%d`,
		gigColumns, where, argIdx, argIdx+1)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.q.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list gigs: %w", err)
	}
	defer rows.Close()

	var gigs []*domain.Gig
	for rows.Next() {
		g, err := scanGig(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan gig: %w", err)
		}
		gigs = append(gigs, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate gigs: %w", err)
	}
	return gigs, total, nil
}

func scanGig(row pgx.Row) (*domain.Gig, error) {
	g := &domain.Gig{}
	var price string
	err := row.Scan(
		&g.ID, &g.Seller, &g.Title, &g.Description, &g.AIModel,
		&price, &g.DeliveryTimeHours, &g.IsActive, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if g.Price, err = parseNumeric(price); err != nil {
		return nil, err
	}
	return g, nil
}
