// Package analysis turns a price series into percentage changes and ranked
// extrema. Every function is pure: inputs are never modified and no state is
// kept between calls.
package analysis

import (
	"cmp"
	"slices"

	"github.com/irfndi/ratepulse/internal/models"
)

// ComputeChanges returns the percentage change between each pair of
// consecutive prices. The result has len(prices)-1 elements (none for fewer
// than two prices) and element i is the change from prices[i] to prices[i+1].
func ComputeChanges(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return []float64{}, nil
	}

	changes := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 {
			return nil, &DivisionByZeroError{Index: i - 1}
		}
		changes = append(changes, (prices[i]-prev)/prev*100)
	}
	return changes, nil
}

// TopKIncreases returns up to k changes ordered by value descending. Equal
// values keep ascending index order.
func TopKIncreases(changes []float64, k int) []models.RankedChange {
	return topK(changes, k, func(a, b float64) int { return cmp.Compare(b, a) })
}

// TopKDecreases returns up to k changes ordered by value ascending. Equal
// values keep ascending index order.
func TopKDecreases(changes []float64, k int) []models.RankedChange {
	return topK(changes, k, cmp.Compare[float64])
}

// topK sorts on the (value, index) pair so the order is total and does not
// depend on the sort algorithm's stability.
func topK(changes []float64, k int, byValue func(a, b float64) int) []models.RankedChange {
	if k <= 0 || len(changes) == 0 {
		return []models.RankedChange{}
	}

	ranked := make([]models.RankedChange, len(changes))
	for i, v := range changes {
		ranked[i] = models.RankedChange{Index: i, Value: v}
	}

	slices.SortFunc(ranked, func(a, b models.RankedChange) int {
		if c := byValue(a.Value, b.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}

// RankIncreases computes changes for prices and returns the top k increases.
func RankIncreases(prices []float64, k int) ([]models.RankedChange, error) {
	if len(prices) < 2 {
		return nil, emptyInput("rank increases", 2, len(prices))
	}
	changes, err := ComputeChanges(prices)
	if err != nil {
		return nil, err
	}
	return TopKIncreases(changes, k), nil
}

// RankDecreases computes changes for prices and returns the top k decreases.
func RankDecreases(prices []float64, k int) ([]models.RankedChange, error) {
	if len(prices) < 2 {
		return nil, emptyInput("rank decreases", 2, len(prices))
	}
	changes, err := ComputeChanges(prices)
	if err != nil {
		return nil, err
	}
	return TopKDecreases(changes, k), nil
}

// GlobalExtrema returns the largest and smallest price.
func GlobalExtrema(prices []float64) (maxPrice, minPrice float64, err error) {
	if len(prices) == 0 {
		return 0, 0, emptyInput("global extrema", 1, 0)
	}
	return slices.Max(prices), slices.Min(prices), nil
}
