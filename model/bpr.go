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

package model

import (
	"context"

	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/rectune/rectune/base"
	"github.com/rectune/rectune/base/log"
	"github.com/rectune/rectune/common/floats"
	"github.com/rectune/rectune/common/parallel"
	"github.com/rectune/rectune/dataset"
	"go.uber.org/zap"
)

// BPR means Bayesian Personalized Ranking, a pairwise learning algorithm for
// matrix factorization with implicit feedback. The pairwise ranking between
// item i and j for user u is estimated by:
//
//	p(i >_u j) = \sigma( p_u^T (q_i - q_j) )
//
// Hyper-parameters:
//
//	Reg        - The regularization parameter of the cost function that is
//	             optimized. Default is 0.01.
//	Lr         - The learning rate of SGD. Default is 0.05.
//	NFactors   - The number of latent factors. Default is 10.
//	NEpochs    - The number of iterations of the SGD procedure. Default is 100.
//	InitMean   - The mean of initial random latent factors. Default is 0.
//	InitStdDev - The standard deviation of initial random latent factors. Default is 0.001.
type BPR struct {
	BaseModel
	// Model parameters
	UserFactor [][]float32 // p_u
	ItemFactor [][]float32 // q_i
	// Hyper parameters
	nFactors   int
	nEpochs    int
	lr         float32
	reg        float32
	initMean   float32
	initStdDev float32
}

// NewBPR creates a BPR model.
func NewBPR(params Params) *BPR {
	bpr := new(BPR)
	bpr.SetParams(params)
	return bpr
}

// SetParams sets hyper-parameters of the BPR model.
func (bpr *BPR) SetParams(params Params) {
	bpr.BaseModel.SetParams(params)
	bpr.nFactors = bpr.Params.GetInt(NFactors, 10)
	bpr.nEpochs = bpr.Params.GetInt(NEpochs, 100)
	bpr.lr = bpr.Params.GetFloat32(Lr, 0.05)
	bpr.reg = bpr.Params.GetFloat32(Reg, 0.01)
	bpr.initMean = bpr.Params.GetFloat32(InitMean, 0)
	bpr.initStdDev = bpr.Params.GetFloat32(InitStdDev, 0.001)
}

// Fit the BPR model by stochastic gradient descent over sampled
// (user, positive, negative) triples. One epoch draws as many triples as the
// matrix has interactions.
func (bpr *BPR) Fit(ctx context.Context, learn *dataset.Matrix, config *FitConfig) error {
	config = config.LoadDefaultIfNil()
	if err := checkFitInput(learn); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("fit bpr",
		zap.Int("n_users", learn.Users()),
		zap.Int("n_items", learn.Items()),
		zap.Int("n_interactions", learn.NNZ()),
		zap.Any("params", bpr.GetParams()),
		zap.Int("jobs", config.Jobs))
	bpr.UserFactor = bpr.GetRandomGenerator().NormalMatrix(learn.Users(), bpr.nFactors, bpr.initMean, bpr.initStdDev)
	bpr.ItemFactor = bpr.GetRandomGenerator().NormalMatrix(learn.Items(), bpr.nFactors, bpr.initMean, bpr.initStdDev)
	// Per-worker buffers and derived generators keep workers lock-free.
	temp := newMatrix32(config.Jobs, bpr.nFactors)
	userFactor := newMatrix32(config.Jobs, bpr.nFactors)
	positiveItemFactor := newMatrix32(config.Jobs, bpr.nFactors)
	negativeItemFactor := newMatrix32(config.Jobs, bpr.nFactors)
	rng := make([]base.RandomGenerator, config.Jobs)
	for i := range rng {
		rng[i] = base.NewRandomGenerator(bpr.GetRandomGenerator().Int63())
	}
	// Convert rows to hash sets for negative sampling.
	userFeedback := make([]mapset.Set[int32], learn.Users())
	for u := range userFeedback {
		userFeedback[u] = mapset.NewThreadUnsafeSet(learn.RowItems(u)...)
	}
	cost := make([]float32, config.Jobs)
	for epoch := 1; epoch <= bpr.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		for i := range cost {
			cost[i] = 0
		}
		err := parallel.Parallel(ctx, learn.NNZ(), config.Jobs, func(workerId, _ int) error {
			// Select a user with at least one interaction
			var userIndex int32
			var ratingCount int
			for {
				userIndex = rng[workerId].Int31n(int32(learn.Users()))
				ratingCount = len(learn.RowItems(int(userIndex)))
				if ratingCount > 0 {
					break
				}
			}
			posIndex := learn.RowItems(int(userIndex))[rng[workerId].Intn(ratingCount)]
			// Select a negative sample
			var negIndex int32
			for {
				temp := rng[workerId].Int31n(int32(learn.Items()))
				if !userFeedback[userIndex].Contains(temp) {
					negIndex = temp
					break
				}
			}
			diff := floats.Dot(bpr.UserFactor[userIndex], bpr.ItemFactor[posIndex]) -
				floats.Dot(bpr.UserFactor[userIndex], bpr.ItemFactor[negIndex])
			cost[workerId] += math32.Log(1 + math32.Exp(-diff))
			grad := math32.Exp(-diff) / (1.0 + math32.Exp(-diff))
			// Pairwise update
			copy(userFactor[workerId], bpr.UserFactor[userIndex])
			copy(positiveItemFactor[workerId], bpr.ItemFactor[posIndex])
			copy(negativeItemFactor[workerId], bpr.ItemFactor[negIndex])
			// Update positive item latent factor: +w_u
			floats.MulConstTo(userFactor[workerId], grad, temp[workerId])
			floats.MulConstAdd(positiveItemFactor[workerId], -bpr.reg, temp[workerId])
			floats.MulConstAdd(temp[workerId], bpr.lr, bpr.ItemFactor[posIndex])
			// Update negative item latent factor: -w_u
			floats.MulConstTo(userFactor[workerId], -grad, temp[workerId])
			floats.MulConstAdd(negativeItemFactor[workerId], -bpr.reg, temp[workerId])
			floats.MulConstAdd(temp[workerId], bpr.lr, bpr.ItemFactor[negIndex])
			// Update user latent factor: h_i-h_j
			floats.SubTo(positiveItemFactor[workerId], negativeItemFactor[workerId], temp[workerId])
			floats.MulConst(temp[workerId], grad)
			floats.MulConstAdd(userFactor[workerId], -bpr.reg, temp[workerId])
			floats.MulConstAdd(temp[workerId], bpr.lr, bpr.UserFactor[userIndex])
			return nil
		})
		if err != nil {
			return errors.Trace(err)
		}
		epochCost := floats.Sum(cost)
		if math32.IsNaN(epochCost) || math32.IsInf(epochCost, 0) {
			return errors.Annotatef(base.ErrNumericalFit,
				"bpr diverged at epoch %d with lr %v", epoch, bpr.lr)
		}
		if config.Verbose > 0 && (epoch%config.Verbose == 0 || epoch == bpr.nEpochs) {
			log.Logger().Debug("fit bpr",
				zap.Int("epoch", epoch),
				zap.Int("n_epochs", bpr.nEpochs),
				zap.Float32("cost", epochCost))
		}
		if config.OnEpoch != nil && !config.OnEpoch(epoch) {
			log.Logger().Debug("fit bpr stopped early", zap.Int("epoch", epoch))
			return nil
		}
	}
	return nil
}

// PredictScores returns dense score rows q_i^T p_u for users in [begin, end).
func (bpr *BPR) PredictScores(begin, end int) ([][]float32, error) {
	if bpr.Invalid() {
		return nil, errors.Annotate(base.ErrInvalidConfiguration, "predict before fit")
	}
	if err := checkPredictRange(begin, end, len(bpr.UserFactor)); err != nil {
		return nil, errors.Trace(err)
	}
	scores := make([][]float32, end-begin)
	for u := begin; u < end; u++ {
		row := make([]float32, len(bpr.ItemFactor))
		for i := range bpr.ItemFactor {
			row[i] = floats.Dot(bpr.UserFactor[u], bpr.ItemFactor[i])
		}
		scores[u-begin] = row
	}
	return scores, nil
}

func (bpr *BPR) Clear() {
	bpr.UserFactor = nil
	bpr.ItemFactor = nil
}

func (bpr *BPR) Invalid() bool {
	return bpr == nil || bpr.UserFactor == nil || bpr.ItemFactor == nil
}

func newMatrix32(row, col int) [][]float32 {
	ret := make([][]float32, row)
	for i := range ret {
		ret[i] = make([]float32, col)
	}
	return ret
}
