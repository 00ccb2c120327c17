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

// Package model implements implicit-feedback recommenders that fit on a
// sparse interaction matrix and score every (user, item) pair on demand.
package model

import (
	"context"

	"github.com/juju/errors"
	"github.com/rectune/rectune/base"
	"github.com/rectune/rectune/dataset"
)

// FitConfig carries the runtime knobs of a single fit, as opposed to the
// hyper-parameters carried by Params.
type FitConfig struct {
	Jobs    int
	Verbose int
	// OnEpoch is invoked after each training epoch; returning false stops
	// training early with the factors learned so far. Hyper-parameter search
	// uses it to prune hopeless trials mid-fit.
	OnEpoch func(epoch int) bool
}

// NewFitConfig returns the default fit configuration.
func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 10,
	}
}

func (config *FitConfig) SetJobs(nJobs int) *FitConfig {
	config.Jobs = nJobs
	return config
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetOnEpoch(hook func(epoch int) bool) *FitConfig {
	config.OnEpoch = hook
	return config
}

func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

// Recommender is an implicit-feedback model. A Recommender is single-fit:
// Clear and refit to reuse an instance, or create a fresh one per trial.
type Recommender interface {
	// SetParams sets hyper-parameters, resetting the seeded random generator
	// from RandomState.
	SetParams(params Params)
	// GetParams returns the hyper-parameters.
	GetParams() Params
	// Fit trains on the learn matrix. Cancelling ctx aborts between epochs.
	Fit(ctx context.Context, learn *dataset.Matrix, config *FitConfig) error
	// PredictScores returns one dense score row per user in [begin, end),
	// covering every item of the fitted matrix.
	PredictScores(begin, end int) ([][]float32, error)
	// Clear drops the fitted state.
	Clear()
	// Invalid reports whether the model has no fitted state.
	Invalid() bool
}

// BaseModel holds the hyper-parameters and the seeded random generator shared
// by all recommenders.
type BaseModel struct {
	Params      Params
	randomState int64
	rng         base.RandomGenerator
}

// SetParams sets hyper-parameters and reseeds the generator.
func (model *BaseModel) SetParams(params Params) {
	model.Params = params
	model.randomState = model.Params.GetInt64(RandomState, 0)
	model.rng = base.NewRandomGenerator(model.randomState)
}

// GetParams returns the hyper-parameters.
func (model *BaseModel) GetParams() Params {
	return model.Params
}

// GetRandomGenerator returns the seeded random generator.
func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return model.rng
}

// checkFitInput validates the common preconditions of Fit.
func checkFitInput(learn *dataset.Matrix) error {
	if learn == nil || learn.Users() == 0 || learn.Items() == 0 || learn.NNZ() == 0 {
		return errors.Annotate(base.ErrEmptyInput, "fit")
	}
	return nil
}

// checkPredictRange validates a PredictScores row range against the fitted
// user count.
func checkPredictRange(begin, end, nUsers int) error {
	if begin < 0 || end < begin || end > nUsers {
		return errors.Annotatef(base.ErrInvalidConfiguration,
			"predict range [%d,%d) outside %d fitted users", begin, end, nUsers)
	}
	return nil
}
