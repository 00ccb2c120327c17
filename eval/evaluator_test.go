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

package eval

import (
	"context"
	"testing"

	"github.com/rectune/rectune/base"
	"github.com/rectune/rectune/dataset"
	"github.com/rectune/rectune/metric"
	"github.com/rectune/rectune/model"
	"github.com/stretchr/testify/assert"
)

const epsilon = 1e-4

// mockRecommender serves a fixed score matrix.
type mockRecommender struct {
	model.BaseModel
	scores [][]float32
}

func (m *mockRecommender) Fit(_ context.Context, _ *dataset.Matrix, _ *model.FitConfig) error {
	return nil
}

func (m *mockRecommender) PredictScores(begin, end int) ([][]float32, error) {
	return m.scores[begin:end], nil
}

func (m *mockRecommender) Clear() {
	m.scores = nil
}

func (m *mockRecommender) Invalid() bool {
	return m.scores == nil
}

func newTestPair(t *testing.T) *dataset.TrainTestPair {
	learn, err := dataset.NewMatrixFromTriplets(2, 4, []dataset.Triplet{
		{User: 0, Item: 0, Weight: 1},
		{User: 1, Item: 2, Weight: 1},
	})
	assert.NoError(t, err)
	predict, err := dataset.NewMatrixFromTriplets(2, 4, []dataset.Triplet{
		{User: 0, Item: 1, Weight: 1},
		{User: 0, Item: 3, Weight: 1},
	})
	assert.NoError(t, err)
	pair, err := dataset.NewTrainTestPair(learn, predict)
	assert.NoError(t, err)
	return pair
}

func TestScoreMasksSeenItems(t *testing.T) {
	pair := newTestPair(t)
	e, err := NewEvaluator(pair, 0, WithCutoff(2))
	assert.NoError(t, err)
	// item 0 has the highest score but sits in user 0's learn row, so the
	// ranking is [1, 2, 3] and the cutoff keeps [1, 2]
	rec := &mockRecommender{scores: [][]float32{
		{10, 3, 2, 1},
		{1, 1, 1, 1},
	}}
	score, err := e.Score(rec)
	assert.NoError(t, err)
	// target {1, 3}, hit at rank 1 only
	assert.InDelta(t, 0.6131, score, epsilon)
}

func TestRankTieBreak(t *testing.T) {
	pair := newTestPair(t)
	e, err := NewEvaluator(pair, 0, WithCutoff(3))
	assert.NoError(t, err)
	rec := &mockRecommender{scores: [][]float32{
		{5, 2, 2, 2},
		{0, 0, 0, 0},
	}}
	rankLists, err := e.rank(rec, 3)
	assert.NoError(t, err)
	// equal scores rank the lower item index first
	assert.Equal(t, []int32{1, 2, 3}, rankLists[0])
	// user 1 has no ground truth and is not ranked
	assert.Nil(t, rankLists[1])
}

func TestScoreWithOffset(t *testing.T) {
	pair := newTestPair(t)
	// target block starts at row 3 of the stacked prediction matrix
	e, err := NewEvaluator(pair, 3, WithTargetMetric(metric.KeyHit), WithCutoff(1))
	assert.NoError(t, err)
	rec := &mockRecommender{scores: [][]float32{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 9, 0, 0},
		{0, 0, 0, 0},
	}}
	score, err := e.Score(rec)
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, score, epsilon)
}

func TestReport(t *testing.T) {
	pair := newTestPair(t)
	e, err := NewEvaluator(pair, 0)
	assert.NoError(t, err)
	rec := &mockRecommender{scores: [][]float32{
		{0, 3, 1, 2},
		{4, 3, 2, 1},
	}}
	report, err := e.Report(rec, []int{1, 2})
	assert.NoError(t, err)
	assert.Equal(t, 1, report.ScoredUsers)
	assert.InDelta(t, 1.0, report.Get(metric.KeyHit, 1), epsilon)
	assert.InDelta(t, 0.5, report.Get(metric.KeyRecall, 1), epsilon)
	assert.InDelta(t, 1.0, report.Get(metric.KeyRecall, 2), epsilon)
	// user 0's lists are [1] and [1, 3]
	assert.Equal(t, 1.0, report.Get(metric.KeyAppearedItems, 1))
	assert.Equal(t, 2.0, report.Get(metric.KeyAppearedItems, 2))
	_, err = e.Report(rec, []int{0})
	assert.ErrorIs(t, err, base.ErrInvalidConfiguration)
}

func TestNewEvaluatorInvalid(t *testing.T) {
	pair := newTestPair(t)
	_, err := NewEvaluator(nil, 0)
	assert.ErrorIs(t, err, base.ErrEmptyInput)
	_, err = NewEvaluator(pair, -1)
	assert.ErrorIs(t, err, base.ErrInvalidConfiguration)
	_, err = NewEvaluator(pair, 0, WithCutoff(0))
	assert.ErrorIs(t, err, base.ErrInvalidConfiguration)
	_, err = NewEvaluator(pair, 0, WithTargetMetric("auc"))
	assert.ErrorIs(t, err, base.ErrInvalidConfiguration)
}

func TestScoreShapeMismatch(t *testing.T) {
	pair := newTestPair(t)
	e, err := NewEvaluator(pair, 0)
	assert.NoError(t, err)
	rec := &mockRecommender{scores: [][]float32{{1, 2, 3}, {1, 2, 3}}}
	_, err = e.Score(rec)
	assert.ErrorIs(t, err, base.ErrInvalidConfiguration)
}
