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

// Package split partitions interaction data into leakage-free train,
// validation and test groups for held-out evaluation.
package split

import (
	"math"
	"sort"

	"github.com/juju/errors"
	"github.com/rectune/rectune/base"
	"github.com/rectune/rectune/base/log"
	"github.com/rectune/rectune/dataset"
	"go.uber.org/zap"
)

// Interaction splits a user-selected sub-matrix row-wise: for each user with
// k interactions, round(k*testRatio) of them move into predict, the rest
// stay in learn. The element-wise sum of learn and predict reproduces X with
// zero overlap.
//
// Edge rule: a user with fewer than 2 interactions never has anything held
// out, and for k >= 2 at least one interaction always stays in learn (the
// holdout count is capped at k-1). All randomness derives from seed alone;
// rows are visited in ascending user order, so reruns are bit-identical.
func Interaction(X *dataset.Matrix, testRatio float64, seed int64) (learn, predict *dataset.Matrix, err error) {
	if X == nil || X.Users() == 0 || X.Items() == 0 {
		return nil, nil, errors.Annotate(base.ErrEmptyInput, "split interaction")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, errors.Annotatef(base.ErrInvalidConfiguration, "test ratio %v not in (0,1)", testRatio)
	}
	rng := base.NewRandomGenerator(seed)
	learnItems := make([][]int32, X.Users())
	learnWeights := make([][]float32, X.Users())
	predictItems := make([][]int32, X.Users())
	predictWeights := make([][]float32, X.Users())
	for u := 0; u < X.Users(); u++ {
		items, weights := X.RowItems(u), X.RowWeights(u)
		k := len(items)
		nHeldOut := 0
		if k >= 2 {
			nHeldOut = min(int(math.Round(float64(k)*testRatio)), k-1)
		}
		if nHeldOut == 0 {
			learnItems[u], learnWeights[u] = items, weights
			continue
		}
		// pick held-out positions without replacement
		heldOut := make(map[int]struct{}, nHeldOut)
		for _, p := range rng.Perm(k)[:nHeldOut] {
			heldOut[p] = struct{}{}
		}
		learnItems[u] = make([]int32, 0, k-nHeldOut)
		learnWeights[u] = make([]float32, 0, k-nHeldOut)
		predictItems[u] = make([]int32, 0, nHeldOut)
		predictWeights[u] = make([]float32, 0, nHeldOut)
		for p := 0; p < k; p++ {
			if _, ok := heldOut[p]; ok {
				predictItems[u] = append(predictItems[u], items[p])
				predictWeights[u] = append(predictWeights[u], weights[p])
			} else {
				learnItems[u] = append(learnItems[u], items[p])
				learnWeights[u] = append(learnWeights[u], weights[p])
			}
		}
	}
	learn = dataset.MatrixFromSortedRows(learnItems, learnWeights, X.Items())
	predict = dataset.MatrixFromSortedRows(predictItems, predictWeights, X.Items())
	return learn, predict, nil
}

// Users partitions the user indices 0..n-1 into three disjoint groups by a
// seeded permutation. Train receives the remainder. Each returned group is
// sorted ascending so the partition is ordering-stable.
func Users(n int, valRatio, testRatio float64, seed int64) (train, val, test []int32, err error) {
	if n <= 0 {
		return nil, nil, nil, errors.Annotate(base.ErrEmptyInput, "split users")
	}
	if valRatio <= 0 || valRatio >= 1 || testRatio <= 0 || testRatio >= 1 || valRatio+testRatio >= 1 {
		return nil, nil, nil, errors.Annotatef(base.ErrInvalidConfiguration,
			"user split ratios val=%v test=%v", valRatio, testRatio)
	}
	nVal := int(math.Round(float64(n) * valRatio))
	nTest := int(math.Round(float64(n) * testRatio))
	rng := base.NewRandomGenerator(seed)
	perm := rng.Perm(n)
	val = make([]int32, 0, nVal)
	test = make([]int32, 0, nTest)
	train = make([]int32, 0, n-nVal-nTest)
	for i, p := range perm {
		switch {
		case i < nVal:
			val = append(val, int32(p))
		case i < nVal+nTest:
			test = append(test, int32(p))
		default:
			train = append(train, int32(p))
		}
	}
	sortInt32(train)
	sortInt32(val)
	sortInt32(test)
	return train, val, test, nil
}

func sortInt32(a []int32) {
	sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
}

// Feedback is one observed (user, item) interaction keyed by external ids.
type Feedback struct {
	UserId string
	ItemId string
}

// HoldoutConfig parameterizes PartialUserHoldout.
type HoldoutConfig struct {
	ValUserRatio     float64
	TestUserRatio    float64
	ValHeldoutRatio  float64
	TestHeldoutRatio float64
	Seed             int64
}

// NewHoldoutConfig returns the default partial-user holdout configuration.
func NewHoldoutConfig() *HoldoutConfig {
	return &HoldoutConfig{
		ValUserRatio:     0.2,
		TestUserRatio:    0.2,
		ValHeldoutRatio:  0.5,
		TestHeldoutRatio: 0.5,
	}
}

// Holdout is the result of a partial-user holdout split: one learn/predict
// pair per user group plus the dense id mappings shared by all groups. The
// train pair's Predict is an explicit all-zero matrix.
type Holdout struct {
	Train      *dataset.TrainTestPair
	Validation *dataset.TrainTestPair
	Test       *dataset.TrainTestPair
	// Original dense user indices of each group, ascending.
	TrainUsers      []int32
	ValidationUsers []int32
	TestUsers       []int32
	UserIndex       *dataset.FreqDict
	ItemIndex       *dataset.FreqDict
}

// ValidationOffset returns the row offset of the validation block inside the
// matrix obtained by stacking the train and validation learn matrices.
func (h *Holdout) ValidationOffset() int {
	return h.Train.Users()
}

// TestOffset returns the row offset of the test block inside the matrix
// obtained by stacking the train, validation and test learn matrices.
func (h *Holdout) TestOffset() int {
	return h.Train.Users() + h.Validation.Users()
}

// PartialUserHoldout composes Users and Interaction over raw feedback pairs:
// it builds stable dense user and item index mappings, partitions users into
// train/validation/test groups, and holds out part of the validation and
// test users' interactions as ground truth. Group seeds derive from
// cfg.Seed, so equal seeds reproduce bit-identical splits.
func PartialUserHoldout(feedback []Feedback, cfg *HoldoutConfig) (*Holdout, error) {
	if len(feedback) == 0 {
		return nil, errors.Annotate(base.ErrEmptyInput, "no feedback")
	}
	if cfg.ValHeldoutRatio <= 0 || cfg.ValHeldoutRatio >= 1 ||
		cfg.TestHeldoutRatio <= 0 || cfg.TestHeldoutRatio >= 1 {
		return nil, errors.Annotatef(base.ErrInvalidConfiguration,
			"heldout ratios val=%v test=%v", cfg.ValHeldoutRatio, cfg.TestHeldoutRatio)
	}
	// Index users and items in first-seen order.
	userIndex, itemIndex := dataset.NewFreqDict(), dataset.NewFreqDict()
	triplets := make([]dataset.Triplet, 0, len(feedback))
	for _, f := range feedback {
		triplets = append(triplets, dataset.Triplet{
			User:   userIndex.Id(f.UserId),
			Item:   itemIndex.Id(f.ItemId),
			Weight: 1,
		})
	}
	X, err := dataset.NewMatrixFromTriplets(userIndex.Count(), itemIndex.Count(), triplets)
	if err != nil {
		return nil, errors.Trace(err)
	}
	trainUsers, valUsers, testUsers, err := Users(X.Users(), cfg.ValUserRatio, cfg.TestUserRatio, cfg.Seed)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// Train users expose everything; predict is an all-zero matrix of
	// matching shape to keep a uniform pair type across groups.
	trainLearn := X.SelectRows(trainUsers)
	trainPair, err := dataset.NewTrainTestPair(trainLearn, dataset.NewMatrix(trainLearn.Users(), X.Items()))
	if err != nil {
		return nil, errors.Trace(err)
	}
	valPair, err := holdOutGroup(X.SelectRows(valUsers), cfg.ValHeldoutRatio, cfg.Seed+1)
	if err != nil {
		return nil, errors.Trace(err)
	}
	testPair, err := holdOutGroup(X.SelectRows(testUsers), cfg.TestHeldoutRatio, cfg.Seed+2)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("partial user holdout",
		zap.Int("n_users", X.Users()),
		zap.Int("n_items", X.Items()),
		zap.Int("n_train_users", len(trainUsers)),
		zap.Int("n_val_users", len(valUsers)),
		zap.Int("n_test_users", len(testUsers)),
		zap.Int("n_val_ground_truth", valPair.Predict.NNZ()),
		zap.Int("n_test_ground_truth", testPair.Predict.NNZ()))
	return &Holdout{
		Train:           trainPair,
		Validation:      valPair,
		Test:            testPair,
		TrainUsers:      trainUsers,
		ValidationUsers: valUsers,
		TestUsers:       testUsers,
		UserIndex:       userIndex,
		ItemIndex:       itemIndex,
	}, nil
}

func holdOutGroup(group *dataset.Matrix, heldoutRatio float64, seed int64) (*dataset.TrainTestPair, error) {
	learn, predict, err := Interaction(group, heldoutRatio, seed)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return dataset.NewTrainTestPair(learn, predict)
}
