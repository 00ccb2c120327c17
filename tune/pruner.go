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

package tune

import (
	"sort"
	"sync"
)

// Pruner decides whether a running trial should be abandoned given its
// intermediate validation score. Implementations must be safe for concurrent
// trials.
type Pruner interface {
	// ShouldPrune records the intermediate value of a trial at an epoch and
	// reports whether the trial should stop.
	ShouldPrune(trialID, epoch int, value float64) bool
}

// NopPruner never prunes.
type NopPruner struct{}

func (NopPruner) ShouldPrune(_, _ int, _ float64) bool {
	return false
}

// MedianPruner prunes a trial whose intermediate score falls below the median
// of the scores earlier trials reported at the same epoch. The first
// warmupTrials trials always run to completion so the median has support.
// Assumes a higher-is-better objective; minimizing searches supply their own
// Pruner.
type MedianPruner struct {
	mu           sync.Mutex
	warmupTrials int
	byEpoch      map[int][]float64
}

// NewMedianPruner creates a MedianPruner.
func NewMedianPruner(warmupTrials int) *MedianPruner {
	return &MedianPruner{
		warmupTrials: warmupTrials,
		byEpoch:      make(map[int][]float64),
	}
}

func (p *MedianPruner) ShouldPrune(trialID, epoch int, value float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	previous := p.byEpoch[epoch]
	p.byEpoch[epoch] = append(previous, value)
	if trialID < p.warmupTrials || len(previous) == 0 {
		return false
	}
	return value < median(previous)
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
