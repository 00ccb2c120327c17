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
	"testing"

	"github.com/rectune/rectune/base"
	"github.com/rectune/rectune/dataset"
	"github.com/stretchr/testify/assert"
)

func popularityMatrix(t *testing.T) *dataset.Matrix {
	// item 2 seen by 3 users, item 0 by 2, item 1 by 1
	m, err := dataset.NewMatrixFromTriplets(3, 4, []dataset.Triplet{
		{User: 0, Item: 2, Weight: 1},
		{User: 1, Item: 2, Weight: 1},
		{User: 2, Item: 2, Weight: 1},
		{User: 0, Item: 0, Weight: 1},
		{User: 1, Item: 0, Weight: 1},
		{User: 2, Item: 1, Weight: 1},
	})
	assert.NoError(t, err)
	return m
}

func TestMostPopular(t *testing.T) {
	pop := NewMostPopular(nil)
	assert.True(t, pop.Invalid())
	_, err := pop.PredictScores(0, 1)
	assert.ErrorIs(t, err, base.ErrInvalidConfiguration)

	err = pop.Fit(context.Background(), popularityMatrix(t), nil)
	assert.NoError(t, err)
	assert.False(t, pop.Invalid())
	scores, err := pop.PredictScores(0, 3)
	assert.NoError(t, err)
	assert.Len(t, scores, 3)
	// every user gets the same popularity row
	assert.Equal(t, scores[0], scores[1])
	assert.Equal(t, []float32{2, 1, 3, 0}, scores[0])
	_, err = pop.PredictScores(0, 4)
	assert.ErrorIs(t, err, base.ErrInvalidConfiguration)

	pop.Clear()
	assert.True(t, pop.Invalid())
}

func TestMostPopularTopItems(t *testing.T) {
	pop := NewMostPopular(nil)
	err := pop.Fit(context.Background(), popularityMatrix(t), nil)
	assert.NoError(t, err)
	items, counts, err := pop.TopItems(2)
	assert.NoError(t, err)
	assert.Equal(t, []int32{2, 0}, items)
	assert.Equal(t, []float32{3, 2}, counts)
}

func TestMostPopularAlpha(t *testing.T) {
	pop := NewMostPopular(Params{Alpha: float64(0.5)})
	err := pop.Fit(context.Background(), popularityMatrix(t), nil)
	assert.NoError(t, err)
	scores, err := pop.PredictScores(0, 1)
	assert.NoError(t, err)
	assert.Equal(t, []float32{2.5, 1.5, 3.5, 0.5}, scores[0])
}

func TestMostPopularEmptyInput(t *testing.T) {
	pop := NewMostPopular(nil)
	err := pop.Fit(context.Background(), nil, nil)
	assert.ErrorIs(t, err, base.ErrEmptyInput)
}
