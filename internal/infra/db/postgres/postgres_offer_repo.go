package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/repository"
)

var _ repository.OfferRepository = (*PostgresOfferRepo)(nil)

type PostgresOfferRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresOfferRepo(pool *pgxpool.Pool) *PostgresOfferRepo {
	return &PostgresOfferRepo{pool: pool}
}

const offerColumns = `id, store_id, title, photo_id, original_price, discount_price, quantity, unit, category, available_until, status, created_at`

func scanOffer(row pgx.Row) (*model.Offer, error) {
	var o model.Offer
	err := row.Scan(&o.ID, &o.StoreID, &o.Title, &o.PhotoID, &o.OriginalPrice, &o.DiscountPrice,
		&o.Quantity, &o.Unit, &o.Category, &o.AvailableUntil, &o.Status, &o.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *PostgresOfferRepo) Save(ctx context.Context, tx repository.Tx, o *model.Offer) error {
	const q = `
INSERT INTO offers (
  id, store_id, title, photo_id, original_price, discount_price, quantity, unit, category, available_until, status, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
) ON CONFLICT (id) DO UPDATE SET
  title=$3, photo_id=$4, original_price=$5, discount_price=$6, quantity=$7,
  unit=$8, category=$9, available_until=$10, status=$11;
`
	_, err := pickExec(ctx, r.pool, tx, q, o.ID, o.StoreID, o.Title, o.PhotoID, o.OriginalPrice, o.DiscountPrice,
		o.Quantity, o.Unit, o.Category, o.AvailableUntil, o.Status, o.CreatedAt)
	return err
}

func (r *PostgresOfferRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Offer, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+offerColumns+` FROM offers WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanOffer(row)
}

func (r *PostgresOfferRepo) FindByStore(ctx context.Context, tx repository.Tx, storeID string) ([]*model.Offer, error) {
	rows, err := pickQuery(ctx, r.pool, tx,
		`SELECT `+offerColumns+` FROM offers WHERE store_id=$1 ORDER BY created_at DESC;`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (r *PostgresOfferRepo) ListActiveByCity(ctx context.Context, tx repository.Tx, city string, limit, offset int) ([]*model.Offer, error) {
	const q = `
SELECT o.id, o.store_id, o.title, o.photo_id, o.original_price, o.discount_price,
       o.quantity, o.unit, o.category, o.available_until, o.status, o.created_at
  FROM offers o
  JOIN stores s ON s.id = o.store_id
 WHERE s.city = $1 AND s.status = $2 AND o.status = $3 AND o.available_until > now()
 ORDER BY o.created_at DESC
 LIMIT $4 OFFSET $5;
`
	rows, err := pickQuery(ctx, r.pool, tx, q, city, model.StoreActive, model.OfferActive, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (r *PostgresOfferRepo) ExpireBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int, error) {
	tag, err := pickExec(ctx, r.pool, tx,
		`UPDATE offers SET status=$1 WHERE status=$2 AND available_until < $3;`,
		model.OfferInactive, model.OfferActive, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresOfferRepo) CountActive(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT COUNT(*) FROM offers WHERE status=$1;`, model.OfferActive)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func collectOffers(rows pgx.Rows) ([]*model.Offer, error) {
	var out []*model.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
