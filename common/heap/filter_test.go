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

package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopKFilter(t *testing.T) {
	filter := NewTopKFilter[int32, float32](3)
	for i, w := range []float32{5, 1, 9, 3, 7} {
		filter.Push(int32(i), w)
	}
	items, weights := filter.PopAll()
	assert.Equal(t, []int32{2, 4, 0}, items)
	assert.Equal(t, []float32{9, 7, 5}, weights)
}

func TestTopKFilterShort(t *testing.T) {
	filter := NewTopKFilter[string, int](10)
	filter.Push("a", 2)
	filter.Push("b", 1)
	items, weights := filter.PopAll()
	assert.Equal(t, []string{"a", "b"}, items)
	assert.Equal(t, []int{2, 1}, weights)
}
