// Package ledger computes aggregates over a user's transaction set and
// round-trips it through CSV. Everything here is pure: no storage
// access, no side effects, exact integer arithmetic throughout.
package ledger

import (
	"sort"
	"time"

	"financeflow/internal/models"
)

// Point is one time-series entry for charting.
type Point struct {
	Date   time.Time
	Kind   models.Kind
	Amount models.Cents
}

// Total sums the amounts of the given kind. Empty input yields 0.
func Total(txs []models.Transaction, kind models.Kind) models.Cents {
	var sum models.Cents
	for _, t := range txs {
		if t.Kind == kind {
			sum += t.Amount
		}
	}
	return sum
}

// Balance is income minus expenses.
func Balance(txs []models.Transaction) models.Cents {
	return Total(txs, models.KindIncome) - Total(txs, models.KindExpense)
}

// ByCategory sums amounts of the given kind grouped by category.
// Categories with no matching transactions are omitted.
func ByCategory(txs []models.Transaction, kind models.Kind) map[models.Category]models.Cents {
	out := make(map[models.Category]models.Cents)
	for _, t := range txs {
		if t.Kind == kind {
			out[t.Category] += t.Amount
		}
	}
	return out
}

// TimeSeries returns one point per transaction ordered by date
// ascending. Same-date entries keep their input order.
func TimeSeries(txs []models.Transaction) []Point {
	points := make([]Point, len(txs))
	for i, t := range txs {
		points[i] = Point{Date: t.Date, Kind: t.Kind, Amount: t.Amount}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}
