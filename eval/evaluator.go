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

// Package eval binds held-out ground truth to a row offset and turns a
// fitted recommender into a scalar objective or a full metric report.
package eval

import (
	"context"
	"sort"

	"github.com/bits-and-blooms/bitset"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/rectune/rectune/base"
	"github.com/rectune/rectune/common/parallel"
	"github.com/rectune/rectune/dataset"
	"github.com/rectune/rectune/metric"
	"github.com/rectune/rectune/model"
)

// Evaluator scores recommenders against a fixed held-out target group. All
// state is read-only after construction, so a single Evaluator is safe to
// share between concurrent trials as long as each trial fits its own
// recommender instance.
type Evaluator struct {
	truth   []mapset.Set[int32]
	mask    []*bitset.BitSet
	offset  int
	nUsers  int
	nItems  int
	target  metric.Name
	scorer  metric.Metric
	cutoff  int
	jobs    int
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithTargetMetric sets the metric returned by Score. Default is ndcg.
func WithTargetMetric(name metric.Name) Option {
	return func(e *Evaluator) { e.target = name }
}

// WithCutoff sets the cutoff used by Score. Default is 10.
func WithCutoff(cutoff int) Option {
	return func(e *Evaluator) { e.cutoff = cutoff }
}

// WithJobs sets the per-user scoring parallelism. Default is 1.
func WithJobs(jobs int) Option {
	return func(e *Evaluator) { e.jobs = jobs }
}

// NewEvaluator binds the held-out pair of a target user group and the row
// offset of that group inside the larger matrix the recommender is fit on.
// Recommenders are fit on a block that stacks several groups' learn
// interactions; the Evaluator only scores the rows
// [offset, offset+pair.Users()) of their predictions. Items present in the
// group's learn rows are masked out of the ranking so a recommender is
// never credited for re-surfacing already-seen items.
func NewEvaluator(pair *dataset.TrainTestPair, offset int, opts ...Option) (*Evaluator, error) {
	if pair == nil || pair.Users() == 0 || pair.Items() == 0 {
		return nil, errors.Annotate(base.ErrEmptyInput, "evaluator target")
	}
	if offset < 0 {
		return nil, errors.Annotatef(base.ErrInvalidConfiguration, "negative offset %d", offset)
	}
	e := &Evaluator{
		offset: offset,
		nUsers: pair.Users(),
		nItems: pair.Items(),
		target: metric.KeyNDCG,
		cutoff: 10,
		jobs:   1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cutoff <= 0 {
		return nil, errors.Annotatef(base.ErrInvalidConfiguration, "cutoff %d", e.cutoff)
	}
	var err error
	if e.scorer, err = metric.Lookup(e.target); err != nil {
		return nil, errors.Trace(err)
	}
	e.truth = make([]mapset.Set[int32], e.nUsers)
	e.mask = make([]*bitset.BitSet, e.nUsers)
	for u := 0; u < e.nUsers; u++ {
		if heldOut := pair.Predict.RowItems(u); len(heldOut) > 0 {
			e.truth[u] = mapset.NewThreadUnsafeSet(heldOut...)
		}
		seen := bitset.New(uint(e.nItems))
		for _, itemId := range pair.Learn.RowItems(u) {
			seen.Set(uint(itemId))
		}
		e.mask[u] = seen
	}
	return e, nil
}

// TargetMetric returns the metric Score reports.
func (e *Evaluator) TargetMetric() metric.Name {
	return e.target
}

// Cutoff returns the cutoff Score uses.
func (e *Evaluator) Cutoff() int {
	return e.cutoff
}

// Score returns the target metric of the recommender's ranking at the bound
// cutoff. It is the scalar objective fed back to hyperparameter search.
func (e *Evaluator) Score(rec model.Recommender) (float64, error) {
	rankLists, err := e.rank(rec, e.cutoff)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return metric.MeanOf(e.scorer, rankLists, e.truth, e.cutoff), nil
}

// Report computes every ranking and diversity metric at each cutoff.
func (e *Evaluator) Report(rec model.Recommender, cutoffs []int) (*metric.Report, error) {
	if len(cutoffs) == 0 {
		cutoffs = []int{e.cutoff}
	}
	maxCutoff := 0
	for _, cutoff := range cutoffs {
		if cutoff <= 0 {
			return nil, errors.Annotatef(base.ErrInvalidConfiguration, "cutoff %d", cutoff)
		}
		maxCutoff = max(maxCutoff, cutoff)
	}
	rankLists, err := e.rank(rec, maxCutoff)
	if err != nil {
		return nil, errors.Trace(err)
	}
	report := &metric.Report{
		Target:  e.target,
		Cutoffs: cutoffs,
		Values:  make(map[metric.Name]map[int]float64),
	}
	for _, target := range e.truth {
		if target != nil {
			report.ScoredUsers++
		}
	}
	for _, name := range metric.RankingNames() {
		scorer, err := metric.Lookup(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		report.Values[name] = make(map[int]float64)
		for _, cutoff := range cutoffs {
			report.Values[name][cutoff] = metric.MeanOf(scorer, rankLists, e.truth, cutoff)
		}
	}
	appeared := make(map[int]float64)
	gini := make(map[int]float64)
	entropy := make(map[int]float64)
	for _, cutoff := range cutoffs {
		appeared[cutoff] = float64(metric.AppearedItems(rankLists, cutoff))
		gini[cutoff] = metric.GiniIndex(rankLists, cutoff, e.nItems)
		entropy[cutoff] = metric.Entropy(rankLists, cutoff)
	}
	report.Values[metric.KeyAppearedItems] = appeared
	report.Values[metric.KeyGiniIndex] = gini
	report.Values[metric.KeyEntropy] = entropy
	return report, nil
}

// rank asks the recommender for the target block's score rows and builds
// each scored user's top list. Ties rank the lower item index first so
// results are deterministic, and seen items never enter the candidate set.
func (e *Evaluator) rank(rec model.Recommender, cutoff int) ([][]int32, error) {
	scores, err := rec.PredictScores(e.offset, e.offset+e.nUsers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(scores) != e.nUsers {
		return nil, errors.Annotatef(base.ErrInvalidConfiguration,
			"predicted %d rows for %d target users", len(scores), e.nUsers)
	}
	rankLists := make([][]int32, e.nUsers)
	err = parallel.Parallel(context.Background(), e.nUsers, e.jobs, func(_, u int) error {
		if e.truth[u] == nil {
			return nil
		}
		row := scores[u]
		if len(row) != e.nItems {
			return errors.Annotatef(base.ErrInvalidConfiguration,
				"predicted %d item scores for %d items", len(row), e.nItems)
		}
		candidates := make([]int32, 0, e.nItems)
		for itemId := int32(0); itemId < int32(e.nItems); itemId++ {
			if !e.mask[u].Test(uint(itemId)) {
				candidates = append(candidates, itemId)
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return row[candidates[i]] > row[candidates[j]]
		})
		rankLists[u] = candidates[:min(cutoff, len(candidates))]
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return rankLists, nil
}
