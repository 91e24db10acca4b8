// Package recurring detects cadence-regular, amount-stable transaction
// groups. Detection is a full recomputation on every invocation; nothing is
// persisted between runs.
package recurring

import (
	"sort"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

// toleranceDays is how far any single interval may sit from the group's
// mean interval before the group is disqualified.
const toleranceDays = 4

// Detect groups transactions by merchant (falling back to description) and
// reports the groups of at least three occurrences whose inter-occurrence
// intervals all lie within the tolerance of the mean interval. Irregular
// groups are silently excluded.
func Detect(transactions []models.Transaction) map[string]models.RecurringSeries {
	grouped := make(map[string][]models.Transaction)
	for _, txn := range transactions {
		key := txn.Description
		if txn.Merchant != nil {
			key = *txn.Merchant
		}
		grouped[key] = append(grouped[key], txn)
	}

	series := make(map[string]models.RecurringSeries)
	for key, group := range grouped {
		if len(group) < 3 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return group[i].Date.Before(group[j].Date)
		})

		deltas := make([]float64, 0, len(group)-1)
		for i := 1; i < len(group); i++ {
			deltas = append(deltas, group[i].Date.Sub(group[i-1].Date).Hours()/24)
		}
		meanDelta := mean(deltas)
		if minOf(deltas) < meanDelta-toleranceDays || maxOf(deltas) > meanDelta+toleranceDays {
			continue
		}

		amounts := make([]float64, len(group))
		for i, txn := range group {
			amounts[i] = abs(txn.Amount)
		}
		series[key] = models.RecurringSeries{
			Merchant:            key,
			AverageAmount:       mean(amounts),
			AverageIntervalDays: meanDelta,
			Occurrences:         len(group),
		}
	}
	return series
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
