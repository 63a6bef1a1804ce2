package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"medstock/m/domain"
	"medstock/m/internal/config"
	"medstock/m/internal/lock"
	"medstock/m/internal/store"
)

// Reservation asks the guard to take Cartons of one item.
type Reservation struct {
	StockID string
	Cartons int64
}

// Guard is the only path that decrements stock. Every decrement is a
// conditional update, so two commits racing for the last cartons cannot
// both succeed; the per-item locks additionally keep a multi-line commit
// from interleaving with another one over the same items.
type Guard struct {
	db     *sqlx.DB
	stock  *store.StockStore
	locker lock.Locker
	logger *logrus.Logger
	now    func() time.Time
}

func NewGuard(db *sqlx.DB, stock *store.StockStore, locker lock.Locker, logger *logrus.Logger) *Guard {
	return &Guard{db: db, stock: stock, locker: locker, logger: logger, now: time.Now}
}

// Commit takes cartons of a single item.
func (g *Guard) Commit(ctx context.Context, stockID string, cartons int64) error {
	return g.CommitAll(ctx, []Reservation{{StockID: stockID, Cartons: cartons}}, nil)
}

// CommitAll decrements every reservation and then runs persist in the same
// transaction. Either all of it commits or none of it does.
func (g *Guard) CommitAll(ctx context.Context, reservations []Reservation, persist func(context.Context, *sqlx.Tx) error) error {
	merged, err := mergeReservations(reservations)
	if err != nil {
		return err
	}

	keys := make([]string, len(merged))
	for i, r := range merged {
		keys[i] = "stock:" + r.StockID
	}
	release, err := g.locker.Lock(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()

	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: "begin stock commit", Err: err}
	}
	defer tx.Rollback()

	at := g.now().UnixNano()
	for _, r := range merged {
		ok, err := g.stock.Decrement(ctx, tx, r.StockID, r.Cartons, at)
		if err != nil {
			config.LogError(g.logger, "inventory", "Guard.CommitAll", "decrement stock", r, err)
			return err
		}
		if ok {
			continue
		}
		available, name, err := g.stock.Quantity(ctx, tx, r.StockID)
		if err != nil {
			return err
		}
		return &domain.InsufficientStockError{StockID: r.StockID, Name: name, Requested: r.Cartons, Available: available}
	}

	if persist != nil {
		if err := persist(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		config.LogError(g.logger, "inventory", "Guard.CommitAll", "commit", merged, err)
		return &domain.StorageError{Op: "commit stock", Err: err}
	}
	return nil
}

// mergeReservations folds repeated items together and orders them by id so
// decrements always run in the same order.
func mergeReservations(reservations []Reservation) ([]Reservation, error) {
	totals := make(map[string]int64, len(reservations))
	for i, r := range reservations {
		if r.StockID == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].stockId", i), "is required")
		}
		if r.Cartons < 1 {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].cartonsOrdered", i), "must be greater than or equal to 1")
		}
		totals[r.StockID] += r.Cartons
	}
	merged := make([]Reservation, 0, len(totals))
	for id, cartons := range totals {
		merged = append(merged, Reservation{StockID: id, Cartons: cartons})
	}
	slices.SortFunc(merged, func(a, b Reservation) int {
		return strings.Compare(a.StockID, b.StockID)
	})
	return merged, nil
}
