package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/repository"
)

var _ repository.BookingRepository = (*PostgresBookingRepo)(nil)

type PostgresBookingRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresBookingRepo(pool *pgxpool.Pool) *PostgresBookingRepo {
	return &PostgresBookingRepo{pool: pool}
}

const bookingColumns = `id, code, offer_id, user_id, quantity, status, created_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.Code, &b.OfferID, &b.UserID, &b.Quantity, &b.Status, &b.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *PostgresBookingRepo) Save(ctx context.Context, tx repository.Tx, b *model.Booking) error {
	const q = `
INSERT INTO bookings (
  id, code, offer_id, user_id, quantity, status, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7
) ON CONFLICT (id) DO UPDATE SET status=$6;
`
	_, err := pickExec(ctx, r.pool, tx, q, b.ID, b.Code, b.OfferID, b.UserID, b.Quantity, b.Status, b.CreatedAt)
	return err
}

func (r *PostgresBookingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Booking, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanBooking(row)
}

func (r *PostgresBookingRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Booking, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+bookingColumns+` FROM bookings WHERE code=$1;`, code)
	if err != nil {
		return nil, err
	}
	return scanBooking(row)
}

func (r *PostgresBookingRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Booking, error) {
	rows, err := pickQuery(ctx, r.pool, tx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresBookingRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.BookingStatus]int, error) {
	rows, err := pickQuery(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM bookings GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.BookingStatus]int)
	for rows.Next() {
		var status model.BookingStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
