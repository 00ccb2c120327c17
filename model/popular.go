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

	"github.com/juju/errors"
	"github.com/rectune/rectune/base"
	"github.com/rectune/rectune/common/heap"
	"github.com/rectune/rectune/dataset"
)

// MostPopular is the non-personalized popularity baseline: every user gets
// the same scores, the per-item interaction counts smoothed by Alpha. It is
// deterministic and parameter-light, which makes it the floor any tuned model
// has to beat.
type MostPopular struct {
	BaseModel
	itemScore []float32
	nUsers    int
	alpha     float32
}

// NewMostPopular creates a MostPopular model.
func NewMostPopular(params Params) *MostPopular {
	pop := new(MostPopular)
	pop.SetParams(params)
	return pop
}

// SetParams sets hyper-parameters of the MostPopular model.
func (pop *MostPopular) SetParams(params Params) {
	pop.BaseModel.SetParams(params)
	pop.alpha = pop.Params.GetFloat32(Alpha, 0)
}

// Fit counts interactions per item.
func (pop *MostPopular) Fit(_ context.Context, learn *dataset.Matrix, _ *FitConfig) error {
	if err := checkFitInput(learn); err != nil {
		return errors.Trace(err)
	}
	pop.nUsers = learn.Users()
	pop.itemScore = make([]float32, learn.Items())
	for i := range pop.itemScore {
		pop.itemScore[i] = pop.alpha
	}
	for u := 0; u < learn.Users(); u++ {
		for _, itemId := range learn.RowItems(u) {
			pop.itemScore[itemId]++
		}
	}
	return nil
}

// PredictScores returns the shared popularity row for each user in
// [begin, end). Rows alias the same slice; callers must not modify them.
func (pop *MostPopular) PredictScores(begin, end int) ([][]float32, error) {
	if pop.Invalid() {
		return nil, errors.Annotate(base.ErrInvalidConfiguration, "predict before fit")
	}
	if err := checkPredictRange(begin, end, pop.nUsers); err != nil {
		return nil, errors.Trace(err)
	}
	scores := make([][]float32, end-begin)
	for u := range scores {
		scores[u] = pop.itemScore
	}
	return scores, nil
}

// TopItems returns the n most interacted items, most popular first. Ties
// break on heap order, which is deterministic for a fixed fit.
func (pop *MostPopular) TopItems(n int) ([]int32, []float32, error) {
	if pop.Invalid() {
		return nil, nil, errors.Annotate(base.ErrInvalidConfiguration, "top items before fit")
	}
	filter := heap.NewTopKFilter[int32, float32](n)
	for itemId, score := range pop.itemScore {
		filter.Push(int32(itemId), score)
	}
	items, scores := filter.PopAll()
	return items, scores, nil
}

func (pop *MostPopular) Clear() {
	pop.itemScore = nil
	pop.nUsers = 0
}

func (pop *MostPopular) Invalid() bool {
	return pop == nil || pop.itemScore == nil
}
