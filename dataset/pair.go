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

package dataset

import (
	"github.com/juju/errors"
	"github.com/rectune/rectune/base"
)

// TrainTestPair owns two matrices over the same user index space: Learn
// holds the interactions exposed to a recommender, Predict the held-out
// ground truth. Per user the two sets are disjoint and their union
// reproduces the original interactions. For train-group users Predict is an
// all-zero matrix of matching shape, never nil.
type TrainTestPair struct {
	Learn   *Matrix
	Predict *Matrix
}

// NewTrainTestPair validates the learn/predict invariant and wraps both
// matrices. An overlap means held-out data leaked into the learning side and
// yields ErrLeakageViolation.
func NewTrainTestPair(learn, predict *Matrix) (*TrainTestPair, error) {
	if learn == nil || predict == nil {
		return nil, errors.Annotate(base.ErrEmptyInput, "nil matrix in pair")
	}
	if learn.Users() != predict.Users() || learn.Items() != predict.Items() {
		return nil, errors.Annotatef(base.ErrInvalidConfiguration,
			"shape mismatch: learn %dx%d vs predict %dx%d",
			learn.Users(), learn.Items(), predict.Users(), predict.Items())
	}
	for u := 0; u < learn.Users(); u++ {
		if overlaps(learn.RowItems(u), predict.RowItems(u)) {
			return nil, errors.Annotatef(base.ErrLeakageViolation, "user %d", u)
		}
	}
	return &TrainTestPair{Learn: learn, Predict: predict}, nil
}

// overlaps reports whether two ascending-sorted rows share an item.
func overlaps(a, b []int32) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// Users returns the number of users in the pair.
func (p *TrainTestPair) Users() int {
	return p.Learn.Users()
}

// Items returns the number of items in the pair.
func (p *TrainTestPair) Items() int {
	return p.Learn.Items()
}

// ConcatPairs stacks two pairs row-wise, a's users first, preserving the
// relative order of both operands, and re-validates the disjointness
// invariant on the result.
func ConcatPairs(a, b *TrainTestPair) (*TrainTestPair, error) {
	learn, err := a.Learn.Concat(b.Learn)
	if err != nil {
		return nil, errors.Trace(err)
	}
	predict, err := a.Predict.Concat(b.Predict)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewTrainTestPair(learn, predict)
}
