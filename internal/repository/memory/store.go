// Package memory is an in-process Ledger Store with the same contract as
// the Postgres one. It backs tests and STORE=memory runs.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/baharkarakas/account-ledger/internal/models"
	repo "github.com/baharkarakas/account-ledger/internal/repository"
)

type Store struct {
	txMu sync.Mutex // serializes WithTx calls

	mu           sync.RWMutex
	owners       map[int64]models.Owner
	accounts     map[int64]models.Account
	byNumber     map[string]int64
	transactions map[string]models.Transaction
	cancelled    map[string]string
	audit        []models.AuditLog
	seq          int64
}

func New() *Store {
	return &Store{
		owners:       map[int64]models.Owner{},
		accounts:     map[int64]models.Account{},
		byNumber:     map[string]int64{},
		transactions: map[string]models.Transaction{},
		cancelled:    map[string]string{},
	}
}

// NewRepositories returns s wired behind the repository interfaces.
func NewRepositories(s *Store) repo.Repositories {
	r := s.bind(nil)
	r.Tx = s
	return r
}

func (s *Store) bind(u *undoLog) repo.Repositories {
	return repo.Repositories{
		Owners:       ownersRepo{s, u},
		Accounts:     accountsRepo{s, u},
		Transactions: transactionsRepo{s, u},
		AuditLogs:    auditLogsRepo{s, u},
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// undoLog holds the inverse of every write made inside one WithTx call.
// Writes made outside it are never touched by a rollback. A nil log
// records nothing.
type undoLog struct{ ops []func() }

func (u *undoLog) push(op func()) {
	if u != nil {
		u.ops = append(u.ops, op)
	}
}

func (s *Store) rollback(u *undoLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(u.ops) - 1; i >= 0; i-- {
		u.ops[i]()
	}
}

// WithTx runs fn and undoes the writes fn made if it fails. Skipped ids
// are fine, as with a sequence.
func (s *Store) WithTx(ctx context.Context, fn func(repo.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	u := &undoLog{}
	r := s.bind(u)
	r.Tx = nestedTx{r}
	if err := fn(r); err != nil {
		s.rollback(u)
		return err
	}
	return nil
}

type nestedTx struct{ r repo.Repositories }

func (n nestedTx) WithTx(_ context.Context, fn func(repo.Repositories) error) error {
	return fn(n.r)
}

// AuditLogs returns a copy of every audit entry written so far.
func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.audit)
}

type ownersRepo struct {
	s *Store
	u *undoLog
}

func (r ownersRepo) Create(_ context.Context, name string) (models.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o := models.Owner{ID: r.s.nextID(), Name: name, CreatedAt: time.Now().UTC()}
	r.s.owners[o.ID] = o
	r.u.push(func() { delete(r.s.owners, o.ID) })
	return o, nil
}

func (r ownersRepo) GetByID(_ context.Context, id int64) (models.Owner, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.owners[id]
	if !ok {
		return models.Owner{}, repo.ErrNotFound
	}
	return o, nil
}

type accountsRepo struct {
	s *Store
	u *undoLog
}

func (r accountsRepo) Save(_ context.Context, a models.Account) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if a.ID == 0 {
		if _, taken := r.s.byNumber[a.Number]; taken {
			return models.Account{}, fmt.Errorf("account number %s: %w", a.Number, repo.ErrConflict)
		}
		a.ID = r.s.nextID()
		r.s.accounts[a.ID] = a
		r.s.byNumber[a.Number] = a.ID
		r.u.push(func() {
			delete(r.s.accounts, a.ID)
			delete(r.s.byNumber, a.Number)
		})
		return a, nil
	}

	cur, ok := r.s.accounts[a.ID]
	if !ok {
		return models.Account{}, repo.ErrNotFound
	}
	prev := cur
	cur.Status, cur.Balance, cur.ClosedAt = a.Status, a.Balance, a.ClosedAt
	r.s.accounts[a.ID] = cur
	r.u.push(func() { r.s.accounts[prev.ID] = prev })
	return cur, nil
}

func (r accountsRepo) GetByID(_ context.Context, id int64) (models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return models.Account{}, repo.ErrNotFound
	}
	return a, nil
}

func (r accountsRepo) GetByNumber(_ context.Context, number string) (models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byNumber[number]
	if !ok {
		return models.Account{}, repo.ErrNotFound
	}
	return r.s.accounts[id], nil
}

func (r accountsRepo) HighestNumber(_ context.Context) (string, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var (
		best  int64
		found bool
	)
	for number := range r.s.byNumber {
		n, err := strconv.ParseInt(number, 10, 64)
		if err != nil {
			return "", false, fmt.Errorf("account number %q: %w", number, err)
		}
		if !found || n > best {
			best, found = n, true
		}
	}
	if !found {
		return "", false, nil
	}
	return strconv.FormatInt(best, 10), true, nil
}

func (r accountsRepo) CountByOwner(_ context.Context, ownerID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, a := range r.s.accounts {
		if a.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r accountsRepo) ListByOwner(_ context.Context, ownerID int64) ([]models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Account, 0)
	for _, a := range r.s.accounts {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(x, y models.Account) int { return int(x.ID - y.ID) })
	return out, nil
}

type transactionsRepo struct {
	s *Store
	u *undoLog
}

func (r transactionsRepo) Create(_ context.Context, t models.Transaction) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.transactions[t.TransactionID]; taken {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", t.TransactionID, repo.ErrConflict)
	}
	cancels := t.CancelsTransactionID != "" && t.Result == models.TxnSucceeded
	if cancels {
		if _, done := r.s.cancelled[t.CancelsTransactionID]; done {
			return models.Transaction{}, fmt.Errorf("cancellation of %s: %w", t.CancelsTransactionID, repo.ErrConflict)
		}
	}
	t.ID = r.s.nextID()
	r.s.transactions[t.TransactionID] = t
	if cancels {
		r.s.cancelled[t.CancelsTransactionID] = t.TransactionID
	}
	r.u.push(func() {
		delete(r.s.transactions, t.TransactionID)
		if cancels {
			delete(r.s.cancelled, t.CancelsTransactionID)
		}
	})
	return t, nil
}

func (r transactionsRepo) GetByTransactionID(_ context.Context, transactionID string) (models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.transactions[transactionID]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	return t, nil
}

func (r transactionsRepo) HasCancellation(_ context.Context, transactionID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.cancelled[transactionID]
	return ok, nil
}

type auditLogsRepo struct {
	s *Store
	u *undoLog
}

func (r auditLogsRepo) Create(_ context.Context, l models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.nextID()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	r.s.audit = append(r.s.audit, l)
	r.u.push(func() {
		r.s.audit = slices.DeleteFunc(r.s.audit, func(e models.AuditLog) bool { return e.ID == l.ID })
	})
	return nil
}
