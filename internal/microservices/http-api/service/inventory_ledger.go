package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
)

// StockLine is a book and a number of copies.
type StockLine struct {
	BookID   int64
	Quantity int
}

// InventoryLedger is the only writer of inventory counters. Every method must
// run inside a Transactor transaction together with the loan write it backs;
// rows are locked in ascending book_id order.
type InventoryLedger interface {
	// Reserve takes copies out of available. Nothing is written when any line
	// exceeds available stock.
	Reserve(ctx context.Context, lines []StockLine) error
	// Release puts copies back, never letting available exceed total.
	Release(ctx context.Context, lines []StockLine) error
	// Retire removes copies that will never come back (lost) from total.
	Retire(ctx context.Context, lines []StockLine) error
}

var errLedgerOutsideTx = errors.New("inventory ledger used outside a transaction")

type inventoryLedger struct {
	repo repository.InventoryRepository
}

func NewInventoryLedger(repo repository.InventoryRepository) InventoryLedger {
	return &inventoryLedger{repo: repo}
}

// aggregate merges lines per book and returns them sorted by book id.
func aggregate(lines []StockLine) ([]StockLine, error) {
	byBook := make(map[int64]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, invalid("quantity must be positive for book %d", l.BookID)
		}
		byBook[l.BookID] += l.Quantity
	}
	out := make([]StockLine, 0, len(byBook))
	for id, qty := range byBook {
		out = append(out, StockLine{BookID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookID < out[j].BookID })
	return out, nil
}

func bookIDs(lines []StockLine) []int64 {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.BookID
	}
	return ids
}

func (l *inventoryLedger) lock(ctx context.Context, lines []StockLine) ([]StockLine, map[int64]*models.Inventory, error) {
	if !repository.InTx(ctx) {
		return nil, nil, errLedgerOutsideTx
	}
	merged, err := aggregate(lines)
	if err != nil {
		return nil, nil, err
	}
	rows, err := l.repo.LockForUpdate(ctx, bookIDs(merged))
	if err != nil {
		return nil, nil, err
	}
	locked := make(map[int64]*models.Inventory, len(rows))
	for i := range rows {
		locked[rows[i].BookID] = &rows[i]
	}
	return merged, locked, nil
}

func (l *inventoryLedger) Reserve(ctx context.Context, lines []StockLine) error {
	merged, locked, err := l.lock(ctx, lines)
	if err != nil {
		return err
	}
	for _, line := range merged {
		row, ok := locked[line.BookID]
		if !ok {
			return fmt.Errorf("%w: book %d has no inventory", ErrInsufficientStock, line.BookID)
		}
		if line.Quantity > row.Available {
			return fmt.Errorf("%w: book %d requested %d, available %d",
				ErrInsufficientStock, line.BookID, line.Quantity, row.Available)
		}
	}
	for _, line := range merged {
		row := locked[line.BookID]
		row.Available -= line.Quantity
		if err := l.repo.UpdateCounts(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (l *inventoryLedger) Release(ctx context.Context, lines []StockLine) error {
	merged, locked, err := l.lock(ctx, lines)
	if err != nil {
		return err
	}
	for _, line := range merged {
		row, ok := locked[line.BookID]
		if !ok {
			return fmt.Errorf("release: inventory for book %d is missing", line.BookID)
		}
		row.Available = min(row.Available+line.Quantity, row.Total)
		if err := l.repo.UpdateCounts(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (l *inventoryLedger) Retire(ctx context.Context, lines []StockLine) error {
	merged, locked, err := l.lock(ctx, lines)
	if err != nil {
		return err
	}
	for _, line := range merged {
		row, ok := locked[line.BookID]
		if !ok {
			return fmt.Errorf("retire: inventory for book %d is missing", line.BookID)
		}
		row.Total = max(row.Total-line.Quantity, 0)
		row.Available = min(row.Available, row.Total)
		if err := l.repo.UpdateCounts(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
