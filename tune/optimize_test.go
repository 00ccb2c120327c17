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
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/rectune/rectune/base"
	"github.com/rectune/rectune/dataset"
	"github.com/rectune/rectune/eval"
	"github.com/rectune/rectune/model"
	"github.com/stretchr/testify/assert"
)

// mockRecommender ranks the item picked by NFactors first; the search should
// discover that NFactors = 0 ranks the single held-out item on top.
type mockRecommender struct {
	model.BaseModel
	nEpochs    int
	epochSleep time.Duration
	fail       bool
	choice     int
}

func (m *mockRecommender) SetParams(params model.Params) {
	m.BaseModel.SetParams(params)
	m.choice = params.GetInt(model.NFactors, 0)
}

func (m *mockRecommender) Fit(_ context.Context, _ *dataset.Matrix, config *model.FitConfig) error {
	if m.fail {
		return errors.Annotate(base.ErrNumericalFit, "mock divergence")
	}
	config = config.LoadDefaultIfNil()
	for epoch := 1; epoch <= m.nEpochs; epoch++ {
		if m.epochSleep > 0 {
			time.Sleep(m.epochSleep)
		}
		if config.OnEpoch != nil && !config.OnEpoch(epoch) {
			return nil
		}
	}
	return nil
}

func (m *mockRecommender) PredictScores(begin, end int) ([][]float32, error) {
	rows := make([][]float32, end-begin)
	for i := range rows {
		row := make([]float32, 3)
		row[m.choice] = 1
		rows[i] = row
	}
	return rows, nil
}

func (m *mockRecommender) Clear() {}

func (m *mockRecommender) Invalid() bool { return false }

func newTestEvaluator(t *testing.T) *eval.Evaluator {
	predict, err := dataset.NewMatrixFromTriplets(1, 3, []dataset.Triplet{
		{User: 0, Item: 0, Weight: 1},
	})
	assert.NoError(t, err)
	pair, err := dataset.NewTrainTestPair(dataset.NewMatrix(1, 3), predict)
	assert.NoError(t, err)
	evaluator, err := eval.NewEvaluator(pair, 0, eval.WithCutoff(2))
	assert.NoError(t, err)
	return evaluator
}

func newTestLearn(t *testing.T) *dataset.Matrix {
	learn, err := dataset.NewMatrixFromTriplets(1, 3, []dataset.Triplet{
		{User: 0, Item: 1, Weight: 1},
	})
	assert.NoError(t, err)
	return learn
}

func TestRandomSearch(t *testing.T) {
	config := NewConfig()
	config.Algorithm = AlgorithmRandom
	config.NumTrials = 10
	opt, err := NewOptimizer(func() model.Recommender {
		return &mockRecommender{nEpochs: 3}
	}, ParamSpace{
		model.NFactors: IntRange(0, 2),
	}, newTestLearn(t), newTestEvaluator(t), config)
	assert.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	assert.NoError(t, err)
	assert.Len(t, result.Trials, 10)
	// the best trial is the earliest complete trial with the maximum score
	best := -1
	for i, trial := range result.Trials {
		assert.Equal(t, TrialComplete, trial.Status)
		if best < 0 || trial.Score > result.Trials[best].Score {
			best = i
		}
	}
	assert.Equal(t, best, result.BestTrial)
	assert.Equal(t, result.Trials[best].Score, result.BestScore)
	assert.Equal(t, result.Trials[best].Params, result.BestParams)
	// derived per-trial seeds are distinct and reproducible
	for i, trial := range result.Trials {
		assert.Equal(t, int64(i), trial.Params.GetInt64(model.RandomState, -1))
	}
}

func TestSearchDeterminism(t *testing.T) {
	run := func() *Result {
		config := NewConfig()
		config.Algorithm = AlgorithmRandom
		config.NumTrials = 5
		config.Seed = 11
		opt, err := NewOptimizer(func() model.Recommender {
			return &mockRecommender{nEpochs: 1}
		}, ParamSpace{
			model.NFactors: IntRange(0, 2),
		}, newTestLearn(t), newTestEvaluator(t), config)
		assert.NoError(t, err)
		result, err := opt.Optimize(context.Background())
		assert.NoError(t, err)
		return result
	}
	a, b := run(), run()
	assert.Equal(t, a.BestScore, b.BestScore)
	for i := range a.Trials {
		assert.Equal(t, a.Trials[i].Params, b.Trials[i].Params)
		assert.Equal(t, a.Trials[i].Score, b.Trials[i].Score)
	}
}

func TestFailedTrials(t *testing.T) {
	config := NewConfig()
	config.Algorithm = AlgorithmRandom
	config.NumTrials = 3
	opt, err := NewOptimizer(func() model.Recommender {
		return &mockRecommender{nEpochs: 1, fail: true}
	}, ParamSpace{
		model.NFactors: IntRange(0, 2),
	}, newTestLearn(t), newTestEvaluator(t), config)
	assert.NoError(t, err)
	_, err = opt.Optimize(context.Background())
	// every trial failed, so there is no best
	assert.ErrorIs(t, err, base.ErrNumericalFit)
	trials := opt.trials
	assert.Len(t, trials, 3)
	for _, trial := range trials {
		assert.Equal(t, TrialFailed, trial.Status)
	}
}

type thresholdPruner struct {
	from int
}

func (p thresholdPruner) ShouldPrune(trialID, _ int, _ float64) bool {
	return trialID >= p.from
}

func TestPrunedTrials(t *testing.T) {
	config := NewConfig()
	config.Algorithm = AlgorithmRandom
	config.NumTrials = 8
	config.PruneEvery = 1
	config.Pruner = thresholdPruner{from: 4}
	opt, err := NewOptimizer(func() model.Recommender {
		return &mockRecommender{nEpochs: 3}
	}, ParamSpace{
		model.NFactors: IntRange(0, 2),
	}, newTestLearn(t), newTestEvaluator(t), config)
	assert.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	assert.NoError(t, err)
	assert.Len(t, result.Trials, 8)
	var complete, pruned int
	for _, trial := range result.Trials {
		switch trial.Status {
		case TrialComplete:
			complete++
			assert.Less(t, trial.ID, 4)
		case TrialPruned:
			pruned++
			assert.GreaterOrEqual(t, trial.ID, 4)
		}
	}
	assert.Equal(t, 4, complete)
	assert.Equal(t, 4, pruned)
	assert.Less(t, result.BestTrial, 4)
}

func TestNewOptimizerInvalid(t *testing.T) {
	learn := newTestLearn(t)
	evaluator := newTestEvaluator(t)
	creator := func() model.Recommender { return &mockRecommender{} }
	space := ParamSpace{model.NFactors: IntRange(0, 2)}

	_, err := NewOptimizer(nil, space, learn, evaluator, nil)
	assert.ErrorIs(t, err, base.ErrInvalidConfiguration)
	_, err = NewOptimizer(creator, nil, learn, evaluator, nil)
	assert.ErrorIs(t, err, base.ErrEmptyInput)
	_, err = NewOptimizer(creator, space, dataset.NewMatrix(1, 3), evaluator, nil)
	assert.ErrorIs(t, err, base.ErrEmptyInput)
	config := NewConfig()
	config.NumTrials = 0
	_, err = NewOptimizer(creator, space, learn, evaluator, config)
	assert.ErrorIs(t, err, base.ErrInvalidConfiguration)
	config = NewConfig()
	config.Algorithm = "grid"
	_, err = NewOptimizer(creator, space, learn, evaluator, config)
	assert.ErrorIs(t, err, base.ErrInvalidConfiguration)
	config = NewConfig()
	config.Direction = "descend"
	_, err = NewOptimizer(creator, space, learn, evaluator, config)
	assert.ErrorIs(t, err, base.ErrInvalidConfiguration)
}

func TestMinimizeDirection(t *testing.T) {
	config := NewConfig()
	config.Algorithm = AlgorithmRandom
	config.NumTrials = 10
	config.Direction = DirectionMinimize
	opt, err := NewOptimizer(func() model.Recommender {
		return &mockRecommender{nEpochs: 1}
	}, ParamSpace{
		model.NFactors: IntRange(0, 2),
	}, newTestLearn(t), newTestEvaluator(t), config)
	assert.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	assert.NoError(t, err)
	best := -1
	for i, trial := range result.Trials {
		assert.Equal(t, TrialComplete, trial.Status)
		if best < 0 || trial.Score < result.Trials[best].Score {
			best = i
		}
	}
	assert.Equal(t, best, result.BestTrial)
	assert.Equal(t, result.Trials[best].Score, result.BestScore)
}

func TestConcurrentTrials(t *testing.T) {
	config := NewConfig()
	config.Algorithm = AlgorithmRandom
	config.NumTrials = 6
	config.TrialJobs = 3
	opt, err := NewOptimizer(func() model.Recommender {
		return &mockRecommender{nEpochs: 2}
	}, ParamSpace{
		model.NFactors: IntRange(0, 2),
	}, newTestLearn(t), newTestEvaluator(t), config)
	assert.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	assert.NoError(t, err)
	assert.Len(t, result.Trials, 6)
	for _, trial := range result.Trials {
		assert.Equal(t, TrialComplete, trial.Status)
	}
	assert.Equal(t, result.Trials[result.BestTrial].Score, result.BestScore)
}

func TestSearchTimeout(t *testing.T) {
	config := NewConfig()
	config.Algorithm = AlgorithmRandom
	config.NumTrials = 100
	config.Timeout = 50 * time.Millisecond
	trial := 0
	opt, err := NewOptimizer(func() model.Recommender {
		// the first trial finishes instantly, later trials outlive the timeout
		trial++
		if trial == 1 {
			return &mockRecommender{nEpochs: 1}
		}
		return &mockRecommender{nEpochs: 1000, epochSleep: 10 * time.Millisecond}
	}, ParamSpace{
		model.NFactors: IntRange(0, 2),
	}, newTestLearn(t), newTestEvaluator(t), config)
	assert.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, result.BestTrial, 0)
	assert.Less(t, len(result.Trials), 100)
}

func TestTPESearch(t *testing.T) {
	config := NewConfig()
	config.NumTrials = 10
	opt, err := NewOptimizer(func() model.Recommender {
		return &mockRecommender{nEpochs: 1}
	}, ParamSpace{
		model.InitStdDev: LogUniform(0.001, 0.1),
		model.Lr:         Uniform(0.01, 0.1),
		model.NFactors:   IntRange(0, 2),
	}, newTestLearn(t), newTestEvaluator(t), config)
	assert.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	assert.NoError(t, err)
	assert.Len(t, result.Trials, 10)
	assert.GreaterOrEqual(t, result.BestTrial, 0)
}
