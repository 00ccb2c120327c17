// Copyright 2026 rectune Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metric

import (
	"math"
	"sort"
)

// Diversity metrics describe how recommendation exposure distributes over
// the catalog. They are computed once over the aggregate of all scored
// users' lists, not averaged per user.

// appearanceCounts tallies how often each item appears across all truncated
// lists. Unscored users (nil lists) are skipped.
func appearanceCounts(rankLists [][]int32, cutoff int) map[int32]int {
	counts := make(map[int32]int)
	for _, rankList := range rankLists {
		if rankList == nil {
			continue
		}
		for _, itemId := range truncate(rankList, cutoff) {
			counts[itemId]++
		}
	}
	return counts
}

// AppearedItems counts the distinct items recommended to any scored user.
func AppearedItems(rankLists [][]int32, cutoff int) int {
	return len(appearanceCounts(rankLists, cutoff))
}

// GiniIndex is the Gini coefficient of the item appearance frequency
// distribution over the whole catalog: 0 means uniform exposure, 1 maximal
// concentration on a single item.
func GiniIndex(rankLists [][]int32, cutoff, nItems int) float64 {
	if nItems == 0 {
		return 0
	}
	counts := appearanceCounts(rankLists, cutoff)
	freq := make([]float64, 0, nItems)
	var total float64
	for _, c := range counts {
		freq = append(freq, float64(c))
		total += float64(c)
	}
	// items never recommended still count as zero-exposure entries
	for i := len(counts); i < nItems; i++ {
		freq = append(freq, 0)
	}
	if total == 0 {
		return 0
	}
	sort.Float64s(freq)
	// G = \sum_i (2i - n - 1) x_i / (n \sum_i x_i), i 1-indexed over sorted x
	var gini float64
	n := float64(len(freq))
	for i, x := range freq {
		gini += (2*float64(i+1) - n - 1) * x
	}
	return gini / (n * total)
}

// Entropy is the Shannon entropy in bits of the item appearance frequency
// distribution. Higher means recommendations spread over more items.
func Entropy(rankLists [][]int32, cutoff int) float64 {
	counts := appearanceCounts(rankLists, cutoff)
	var total float64
	for _, c := range counts {
		total += float64(c)
	}
	if total == 0 {
		return 0
	}
	var entropy float64
	for _, c := range counts {
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// Report maps each metric to its per-cutoff aggregate: ranking metrics are
// means over scored users, diversity metrics aggregates over all lists.
type Report struct {
	Target      Name
	Cutoffs     []int
	Values      map[Name]map[int]float64
	ScoredUsers int
}

// Get returns the aggregate value of a metric at a cutoff.
func (r *Report) Get(name Name, cutoff int) float64 {
	return r.Values[name][cutoff]
}
