package rental

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/nekogravitycat/book-rental-backend/internal/pkg/dates"
)

// ActiveRentalFinder returns the active rentals of a book, optionally leaving one rental out.
// An unknown book yields an empty result, not an error.
type ActiveRentalFinder interface {
	FindActiveByBook(ctx context.Context, bookID, excludeRentalID string) ([]*Rental, error)
}

// Engine answers availability questions over the active rentals of a single book.
// It never writes and keeps no state between calls.
type Engine struct {
	finder ActiveRentalFinder
}

func NewEngine(finder ActiveRentalFinder) *Engine {
	return &Engine{finder: finder}
}

// Overlaps reports whether the inclusive intervals [aStart, aEnd] and [bStart, bEnd] share a day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// IsAvailable reports whether the book is free for every day in [start, end].
//
// Only active rentals count, compared on their expected return date. A rental that was
// returned early has already left the active set, so the actual return date is never needed.
// The return day of an existing rental is still occupied, so adjacent intervals conflict.
//
// An inverted range (start after end) is rejected with ErrInvalidDateRange instead of being
// reported as free.
func (e *Engine) IsAvailable(ctx context.Context, bookID string, start, end time.Time, excludeRentalID string) (bool, error) {
	start, end = dates.Truncate(start), dates.Truncate(end)
	if start.After(end) {
		return false, ErrInvalidDateRange
	}

	active, err := e.finder.FindActiveByBook(ctx, bookID, excludeRentalID)
	if err != nil {
		return false, fmt.Errorf("find active rentals for book %s: %w", bookID, err)
	}

	for _, r := range active {
		if r.Status != StatusActive || (excludeRentalID != "" && r.ID == excludeRentalID) {
			continue
		}
		if Overlaps(dates.Truncate(r.StartDate), dates.Truncate(r.ExpectedReturnDate), start, end) {
			return false, nil
		}
	}
	return true, nil
}

// BlockedRanges returns one range per active rental of the book, ordered by start date.
// Ranges end on the actual return date when one is recorded. Overlapping ranges are kept
// as they are.
func (e *Engine) BlockedRanges(ctx context.Context, bookID string) ([]BlockedRange, error) {
	active, err := e.finder.FindActiveByBook(ctx, bookID, "")
	if err != nil {
		return nil, fmt.Errorf("find active rentals for book %s: %w", bookID, err)
	}

	ranges := make([]BlockedRange, 0, len(active))
	for _, r := range active {
		if r.Status != StatusActive {
			continue
		}
		ranges = append(ranges, BlockedRange{
			Start:        dates.Truncate(r.StartDate),
			End:          dates.Truncate(r.EffectiveEnd()),
			CustomerName: r.CustomerName,
		})
	}

	slices.SortStableFunc(ranges, func(a, b BlockedRange) int {
		return a.Start.Compare(b.Start)
	})
	return ranges, nil
}

// BlockedRangeSeq is BlockedRanges as a sequence. The rentals are read once, up front;
// the returned sequence can be ranged over any number of times.
func (e *Engine) BlockedRangeSeq(ctx context.Context, bookID string) (iter.Seq[BlockedRange], error) {
	ranges, err := e.BlockedRanges(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return slices.Values(ranges), nil
}

// Days yields every calendar day covered by the range, start and end included.
// A range whose end precedes its start yields nothing.
func (b BlockedRange) Days() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for d := b.Start; !d.After(b.End); d = dates.AddDays(d, 1) {
			if !yield(d) {
				return
			}
		}
	}
}
