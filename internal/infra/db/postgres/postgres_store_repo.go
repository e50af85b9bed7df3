package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/repository"
)

var _ repository.StoreRepository = (*PostgresStoreRepo)(nil)

type PostgresStoreRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresStoreRepo(pool *pgxpool.Pool) *PostgresStoreRepo {
	return &PostgresStoreRepo{pool: pool}
}

const storeColumns = `id, owner_id, name, city, address, description, category, phone, status, rejection_reason, created_at`

func scanStore(row pgx.Row) (*model.Store, error) {
	var s model.Store
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.City, &s.Address, &s.Description,
		&s.Category, &s.Phone, &s.Status, &s.RejectionReason, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PostgresStoreRepo) Save(ctx context.Context, tx repository.Tx, s *model.Store) error {
	const q = `
INSERT INTO stores (
  id, owner_id, name, city, address, description, category, phone, status, rejection_reason, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  name=$3, city=$4, address=$5, description=$6, category=$7, phone=$8,
  status=$9, rejection_reason=$10;
`
	_, err := pickExec(ctx, r.pool, tx, q, s.ID, s.OwnerID, s.Name, s.City, s.Address, s.Description,
		s.Category, s.Phone, s.Status, s.RejectionReason, s.CreatedAt)
	return err
}

func (r *PostgresStoreRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Store, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+storeColumns+` FROM stores WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanStore(row)
}

func (r *PostgresStoreRepo) FindByOwner(ctx context.Context, tx repository.Tx, ownerID string) ([]*model.Store, error) {
	rows, err := pickQuery(ctx, r.pool, tx,
		`SELECT `+storeColumns+` FROM stores WHERE owner_id=$1 ORDER BY created_at;`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStores(rows)
}

func (r *PostgresStoreRepo) FindApprovedByOwner(ctx context.Context, tx repository.Tx, ownerID string) ([]*model.Store, error) {
	rows, err := pickQuery(ctx, r.pool, tx,
		`SELECT `+storeColumns+` FROM stores WHERE owner_id=$1 AND status=$2 ORDER BY created_at;`,
		ownerID, model.StoreActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStores(rows)
}

func (r *PostgresStoreRepo) ListPending(ctx context.Context, tx repository.Tx) ([]*model.Store, error) {
	rows, err := pickQuery(ctx, r.pool, tx,
		`SELECT `+storeColumns+` FROM stores WHERE status=$1 ORDER BY created_at;`, model.StorePending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStores(rows)
}

func collectStores(rows pgx.Rows) ([]*model.Store, error) {
	var out []*model.Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresStoreRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.StoreStatus]int, error) {
	rows, err := pickQuery(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM stores GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.StoreStatus]int)
	for rows.Next() {
		var status model.StoreStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("count stores: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}
