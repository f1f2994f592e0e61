package postgres

import (
	"context"

	"github.com/baharkarakas/account-ledger/internal/models"
)

type ownersRepo struct{ q querier }

func (r *ownersRepo) Create(ctx context.Context, name string) (models.Owner, error) {
	var o models.Owner
	err := r.q.QueryRow(ctx,
		`INSERT INTO owners(name) VALUES($1) RETURNING id, name, created_at`, name,
	).Scan(&o.ID, &o.Name, &o.CreatedAt)
	return o, err
}

func (r *ownersRepo) GetByID(ctx context.Context, id int64) (models.Owner, error) {
	var o models.Owner
	err := r.q.QueryRow(ctx,
		`SELECT id, name, created_at FROM owners WHERE id=$1`, id,
	).Scan(&o.ID, &o.Name, &o.CreatedAt)
	return o, notFound(err)
}
