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
	"math"
	"sync"
	"time"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/juju/errors"
	"github.com/rectune/rectune/base"
	"github.com/rectune/rectune/base/log"
	"github.com/rectune/rectune/dataset"
	"github.com/rectune/rectune/eval"
	"github.com/rectune/rectune/model"
	"go.uber.org/zap"
)

// Search algorithms.
const (
	AlgorithmTPE    = "tpe"
	AlgorithmRandom = "random"
)

// Objective directions. Every built-in ranking metric maximizes.
const (
	DirectionMaximize = "maximize"
	DirectionMinimize = "minimize"
)

// TrialStatus is the terminal state of one trial.
type TrialStatus string

const (
	TrialComplete TrialStatus = "complete"
	TrialPruned   TrialStatus = "pruned"
	TrialFailed   TrialStatus = "failed"
)

// Trial is the record of one parameter evaluation.
type Trial struct {
	ID     int
	Params model.Params
	Score  float64
	Status TrialStatus
}

// Result summarizes a finished search. BestTrial indexes into Trials; among
// equally good scores the earliest complete trial wins.
type Result struct {
	BestParams model.Params
	BestScore  float64
	BestTrial  int
	Trials     []Trial
}

// Config parameterizes a search.
type Config struct {
	NumTrials int
	Seed      int64
	Algorithm string
	Direction string
	// PruneEvery is the epoch interval between intermediate evaluations; 0
	// disables mid-fit evaluation even when a Pruner is set.
	PruneEvery int
	Pruner     Pruner
	// TrialJobs runs that many trials concurrently. History updates are
	// serialized; determinism is only guaranteed for TrialJobs == 1.
	TrialJobs int
	// Jobs is the data parallelism inside each fit and evaluation.
	Jobs    int
	Verbose int
	// Timeout ends the search normally with the trials finished so far; 0
	// means no limit.
	Timeout time.Duration
}

// NewConfig returns the default search configuration: 10 sequential TPE
// trials maximizing the target metric, no pruning, single-threaded fits.
func NewConfig() *Config {
	return &Config{
		NumTrials: 10,
		Algorithm: AlgorithmTPE,
		Direction: DirectionMaximize,
		TrialJobs: 1,
		Jobs:      1,
		Verbose:   10,
	}
}

// Optimizer searches a parameter space for the assignment optimizing the
// evaluator's target metric. The evaluator and learn matrix are shared
// read-only state; each trial fits a fresh recommender from the creator.
type Optimizer struct {
	creator   func() model.Recommender
	space     ParamSpace
	learn     *dataset.Matrix
	evaluator *eval.Evaluator
	config    *Config

	mu     sync.Mutex
	trials []Trial
	nextID int
}

// NewOptimizer creates an Optimizer. Configuration errors surface here,
// before any trial runs.
func NewOptimizer(creator func() model.Recommender, space ParamSpace,
	learn *dataset.Matrix, evaluator *eval.Evaluator, config *Config) (*Optimizer, error) {
	if creator == nil || evaluator == nil {
		return nil, errors.Annotate(base.ErrInvalidConfiguration, "optimizer requires a model creator and an evaluator")
	}
	if len(space) == 0 {
		return nil, errors.Annotate(base.ErrEmptyInput, "empty parameter space")
	}
	if learn == nil || learn.NNZ() == 0 {
		return nil, errors.Annotate(base.ErrEmptyInput, "empty learn matrix")
	}
	if config == nil {
		config = NewConfig()
	}
	if config.NumTrials <= 0 {
		return nil, errors.Annotatef(base.ErrInvalidConfiguration, "num trials %d", config.NumTrials)
	}
	switch config.Algorithm {
	case AlgorithmTPE, AlgorithmRandom:
	default:
		return nil, errors.Annotatef(base.ErrInvalidConfiguration, "unknown algorithm %q", config.Algorithm)
	}
	switch config.Direction {
	case "":
		config.Direction = DirectionMaximize
	case DirectionMaximize, DirectionMinimize:
	default:
		return nil, errors.Annotatef(base.ErrInvalidConfiguration, "unknown direction %q", config.Direction)
	}
	return &Optimizer{
		creator:   creator,
		space:     space,
		learn:     learn,
		evaluator: evaluator,
		config:    config,
	}, nil
}

// Optimize runs the configured number of trials and returns the search
// result. Cancelling ctx aborts the search; an elapsed Timeout ends it
// normally with the trials finished so far.
func (opt *Optimizer) Optimize(ctx context.Context) (*Result, error) {
	var sampler goptuna.Sampler
	switch opt.config.Algorithm {
	case AlgorithmRandom:
		sampler = goptuna.NewRandomSampler(goptuna.RandomSamplerOptionSeed(opt.config.Seed))
	default:
		sampler = tpe.NewSampler(tpe.SamplerOptionSeed(opt.config.Seed))
	}
	direction := goptuna.StudyDirectionMaximize
	if opt.config.Direction == DirectionMinimize {
		direction = goptuna.StudyDirectionMinimize
	}
	study, err := goptuna.CreateStudy("rectune",
		goptuna.StudyOptionDirection(direction),
		goptuna.StudyOptionSampler(sampler))
	if err != nil {
		return nil, errors.Trace(err)
	}
	if opt.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opt.config.Timeout)
		defer cancel()
	}
	log.Logger().Info("start search",
		zap.String("algorithm", opt.config.Algorithm),
		zap.String("direction", opt.config.Direction),
		zap.Int("num_trials", opt.config.NumTrials),
		zap.String("target", string(opt.evaluator.TargetMetric())),
		zap.Int("cutoff", opt.evaluator.Cutoff()))
	if err = opt.runTrials(ctx, study); err != nil {
		if opt.config.Timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
			log.Logger().Info("search timed out", zap.Duration("timeout", opt.config.Timeout))
		} else {
			return nil, errors.Trace(err)
		}
	}
	result, err := opt.result()
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("search complete",
		zap.Int("best_trial", result.BestTrial),
		zap.Float64("best_score", result.BestScore),
		zap.Any("best_params", result.BestParams))
	return result, nil
}

// runTrials drives study.Optimize, fanning trials over TrialJobs workers.
// goptuna's in-memory storage is safe for concurrent objectives; the trial
// history is appended under the optimizer's own mutex.
func (opt *Optimizer) runTrials(ctx context.Context, study *goptuna.Study) error {
	objective := opt.objective(ctx)
	nWorkers := min(opt.config.TrialJobs, opt.config.NumTrials)
	if nWorkers <= 1 {
		return errors.Trace(study.Optimize(objective, opt.config.NumTrials))
	}
	var wg sync.WaitGroup
	errs := make([]error, nWorkers)
	for w := 0; w < nWorkers; w++ {
		workerId := w
		// spread the remainder over the first workers
		n := opt.config.NumTrials / nWorkers
		if workerId < opt.config.NumTrials%nWorkers {
			n++
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[workerId] = study.Optimize(objective, n)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// objective wraps one trial: sample parameters, fit, score. Fit failures mark
// the trial failed without aborting the search; only context cancellation
// propagates as an error.
func (opt *Optimizer) objective(ctx context.Context) func(goptuna.Trial) (float64, error) {
	return func(trial goptuna.Trial) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		opt.mu.Lock()
		id := opt.nextID
		opt.nextID++
		opt.mu.Unlock()
		params, err := opt.space.SuggestParams(trial)
		if err != nil {
			return 0, errors.Trace(err)
		}
		// Distinct derived seeds keep trials reproducible yet decorrelated.
		params[model.RandomState] = opt.config.Seed + int64(id)
		rec := opt.creator()
		rec.SetParams(params)
		pruned := false
		fitConfig := model.NewFitConfig().
			SetJobs(opt.config.Jobs).
			SetVerbose(opt.config.Verbose).
			SetOnEpoch(func(epoch int) bool {
				if ctx.Err() != nil {
					return false
				}
				if opt.config.Pruner == nil || opt.config.PruneEvery <= 0 || epoch%opt.config.PruneEvery != 0 {
					return true
				}
				score, scoreErr := opt.evaluator.Score(rec)
				if scoreErr != nil {
					log.Logger().Warn("intermediate evaluation failed",
						zap.Int("trial", id), zap.Int("epoch", epoch), zap.Error(scoreErr))
					return true
				}
				if opt.config.Pruner.ShouldPrune(id, epoch, score) {
					pruned = true
					return false
				}
				return true
			})
		if err = rec.Fit(ctx, opt.learn, fitConfig); err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			log.Logger().Warn("trial failed", zap.Int("trial", id), zap.Error(err))
			opt.record(Trial{ID: id, Params: params, Score: opt.worstScore(), Status: TrialFailed})
			return opt.worstScore(), nil
		}
		if err = ctx.Err(); err != nil {
			return 0, err
		}
		if pruned {
			log.Logger().Info("trial pruned", zap.Int("trial", id))
			opt.record(Trial{ID: id, Params: params, Score: opt.worstScore(), Status: TrialPruned})
			return 0, goptuna.ErrTrialPruned
		}
		score, err := opt.evaluator.Score(rec)
		if err != nil {
			log.Logger().Warn("trial evaluation failed", zap.Int("trial", id), zap.Error(err))
			opt.record(Trial{ID: id, Params: params, Score: opt.worstScore(), Status: TrialFailed})
			return opt.worstScore(), nil
		}
		log.Logger().Info("trial complete",
			zap.Int("trial", id),
			zap.Float64("score", score),
			zap.Any("params", params))
		opt.record(Trial{ID: id, Params: params, Score: score, Status: TrialComplete})
		return score, nil
	}
}

// worstScore is the sentinel recorded for failed and pruned trials.
func (opt *Optimizer) worstScore() float64 {
	if opt.config.Direction == DirectionMinimize {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

func (opt *Optimizer) better(a, b float64) bool {
	if opt.config.Direction == DirectionMinimize {
		return a < b
	}
	return a > b
}

func (opt *Optimizer) record(trial Trial) {
	opt.mu.Lock()
	defer opt.mu.Unlock()
	opt.trials = append(opt.trials, trial)
}

// result reduces the trial history. The best trial is the earliest complete
// trial with the best score, independent of sampler internals.
func (opt *Optimizer) result() (*Result, error) {
	opt.mu.Lock()
	defer opt.mu.Unlock()
	result := &Result{
		BestTrial: -1,
		BestScore: opt.worstScore(),
		Trials:    opt.trials,
	}
	for i, trial := range opt.trials {
		if trial.Status == TrialComplete &&
			(result.BestTrial < 0 || opt.better(trial.Score, result.BestScore)) {
			result.BestTrial = i
			result.BestScore = trial.Score
			result.BestParams = trial.Params
		}
	}
	if result.BestTrial < 0 {
		return nil, errors.Annotate(base.ErrNumericalFit, "no trial completed")
	}
	return result, nil
}
