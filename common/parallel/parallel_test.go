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

package parallel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestParallel(t *testing.T) {
	for _, nWorkers := range []int{1, 4} {
		var visited int64
		hit := make([]int32, 100)
		err := Parallel(context.Background(), 100, nWorkers, func(_, jobId int) error {
			atomic.AddInt64(&visited, 1)
			atomic.AddInt32(&hit[jobId], 1)
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(100), visited)
		for jobId, count := range hit {
			assert.Equal(t, int32(1), count, "job %d", jobId)
		}
	}
}

func TestParallelError(t *testing.T) {
	expected := errors.New("boom")
	err := Parallel(context.Background(), 100, 4, func(_, jobId int) error {
		if jobId == 42 {
			return expected
		}
		return nil
	})
	assert.ErrorIs(t, err, expected)
}

func TestParallelCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Parallel(ctx, 10, 1, func(_, _ int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFor(t *testing.T) {
	for _, nWorkers := range []int{1, 3} {
		var sum int64
		For(10, nWorkers, func(i int) {
			atomic.AddInt64(&sum, int64(i))
		})
		assert.Equal(t, int64(45), sum)
	}
}

func TestForEach(t *testing.T) {
	values := []int64{1, 2, 3, 4, 5}
	var sum int64
	ForEach(values, 2, func(_ int, v int64) {
		atomic.AddInt64(&sum, v)
	})
	assert.Equal(t, int64(15), sum)
}

func TestSplit(t *testing.T) {
	a := []int{1, 2, 3, 4, 5}
	chunks := Split(a, 2)
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5}}, chunks)
	assert.Len(t, Split(a, 10), 5)
	assert.Nil(t, Split([]int{}, 3))
}
