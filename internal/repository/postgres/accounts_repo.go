package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/baharkarakas/account-ledger/internal/models"
	repo "github.com/baharkarakas/account-ledger/internal/repository"
)

type accountsRepo struct{ q querier }

const accountColumns = `id, owner_id, account_number, status, balance, created_at, closed_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.OwnerID, &a.Number, &a.Status, &a.Balance, &a.CreatedAt, &a.ClosedAt)
	return a, err
}

func (r *accountsRepo) Save(ctx context.Context, a models.Account) (models.Account, error) {
	if a.ID == 0 {
		saved, err := scanAccount(r.q.QueryRow(ctx,
			`INSERT INTO accounts(owner_id, account_number, status, balance, created_at, closed_at)
			 VALUES($1,$2,$3,$4,$5,$6)
			 RETURNING `+accountColumns,
			a.OwnerID, a.Number, a.Status, a.Balance, a.CreatedAt, a.ClosedAt,
		))
		if uniqueViolation(err) {
			return models.Account{}, fmt.Errorf("account number %s: %w", a.Number, repo.ErrConflict)
		}
		return saved, err
	}

	saved, err := scanAccount(r.q.QueryRow(ctx,
		`UPDATE accounts
		    SET status=$2, balance=$3, closed_at=$4
		  WHERE id=$1
		  RETURNING `+accountColumns,
		a.ID, a.Status, a.Balance, a.ClosedAt,
	))
	return saved, notFound(err)
}

func (r *accountsRepo) GetByID(ctx context.Context, id int64) (models.Account, error) {
	a, err := scanAccount(r.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	return a, notFound(err)
}

func (r *accountsRepo) GetByNumber(ctx context.Context, number string) (models.Account, error) {
	a, err := scanAccount(r.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number=$1`, number))
	return a, notFound(err)
}

func (r *accountsRepo) HighestNumber(ctx context.Context) (string, bool, error) {
	var n *string
	err := r.q.QueryRow(ctx,
		`SELECT MAX(account_number::bigint)::text FROM accounts`,
	).Scan(&n)
	if err != nil || n == nil {
		return "", false, err
	}
	return *n, true, nil
}

func (r *accountsRepo) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE owner_id=$1`, ownerID,
	).Scan(&n)
	return n, err
}

func (r *accountsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]models.Account, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+accountColumns+`
		   FROM accounts
		  WHERE owner_id=$1
		  ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
