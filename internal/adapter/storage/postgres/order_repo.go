package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gig-escrow/internal/core/domain"
	"gig-escrow/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, gig_id, buyer, seller, price::text, requirements, status, deliverable_ref,
	rating, reject_reason, fee_paid::text, seller_payout::text, created_at, updated_at`

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	q Querier
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create inserts a new order.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (id, gig_id, buyer, seller, price, requirements, status, deliverable_ref,
		rating, reject_reason, fee_paid, seller_payout, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11::numeric, $12::numeric, $13, $14)`

	_, err := r.q.Exec(ctx, query,
		o.ID, o.GigID, o.Buyer, o.Seller, numericArg(o.Price), o.Requirements,
		o.Status, o.DeliverableRef, o.Rating, o.RejectReason,
		numericArg(o.FeePaid), numericArg(o.SellerPayout), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID fetches an order by id.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*domain.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// Update persists the lifecycle fields of an order.
func (r *OrderRepo) Update(ctx context.Context, o *domain.Order) error {
	query := `UPDATE orders
		SET status = $1, deliverable_ref = $2, rating = $3, reject_reason = $4,
			fee_paid = $5::numeric, seller_payout = $6::numeric, updated_at = $7
		WHERE id = $8`

	tag, err := r.q.Exec(ctx, query,
		o.Status, o.DeliverableRef, o.Rating, o.RejectReason,
		numericArg(o.FeePaid), numericArg(o.SellerPayout), o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %d", o.ID)
	}
	return nil
}

// List fetches orders in ascending id order with filtering and pagination.
func (r *OrderRepo) List(ctx context.Context, filter domain.OrderFilter, page domain.Page) ([]*domain.Order, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.Buyer != "" {
		conditions = append(conditions, fmt.Sprintf("buyer = $%d", argIdx))
		args = append(args, filter.Buyer)
		argIdx++
	}
	if filter.Seller != "" {
		conditions = append(conditions, fmt.Sprintf("seller = $%d", argIdx))
		args = append(args, filter.Seller)
		argIdx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.q.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM orders %s", where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	dataQuery := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY id ASC LIMIT $%d OFFSET $%d`,
		orderColumns, where, argIdx, argIdx+1)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.q.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, total, nil
}

// SellerStats aggregates seller's orders in one pass.
func (r *OrderRepo) SellerStats(ctx context.Context, seller domain.Address) (*ports.OrderStats, error) {
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status IN ('PENDING', 'DELIVERED')),
		COUNT(*) FILTER (WHERE status IN ('APPROVED', 'RESOLVED_FOR_SELLER')),
		COUNT(*) FILTER (WHERE status = 'REJECTED'),
		COUNT(*) FILTER (WHERE status = 'RESOLVED_FOR_BUYER'),
		COALESCE(SUM(seller_payout), 0)::text,
		COALESCE(SUM(fee_paid), 0)::text
		FROM orders WHERE seller = $1`

	stats := &ports.OrderStats{}
	var earnings, fees string
	err := r.q.QueryRow(ctx, query, seller).Scan(
		&stats.Total, &stats.Pending, &stats.Completed, &stats.Disputed, &stats.Refunded,
		&earnings, &fees,
	)
	if err != nil {
		return nil, fmt.Errorf("seller stats: %w", err)
	}
	if stats.Earnings, err = parseNumeric(earnings); err != nil {
		return nil, err
	}
	if stats.FeesPaid, err = parseNumeric(fees); err != nil {
		return nil, err
	}
	return stats, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	var price, fee, payout string
	err := row.Scan(
		&o.ID, &o.GigID, &o.Buyer, &o.Seller, &price, &o.Requirements,
		&o.Status, &o.DeliverableRef, &o.Rating, &o.RejectReason,
		&fee, &payout, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if o.Price, err = parseNumeric(price); err != nil {
		return nil, err
	}
	if o.FeePaid, err = parseNumeric(fee); err != nil {
		return nil, err
	}
	if o.SellerPayout, err = parseNumeric(payout); err != nil {
		return nil, err
	}
	return o, nil
}
