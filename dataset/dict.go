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

// FreqDict maps external string ids to dense contiguous indices in first-seen
// order and counts id frequencies. The splitter uses it to build the user and
// item index spaces shared by all split groups.
type FreqDict struct {
	si  map[string]int32
	is  []string
	cnt []int
}

func NewFreqDict() *FreqDict {
	return &FreqDict{si: map[string]int32{}}
}

// Count returns the number of distinct ids.
func (d *FreqDict) Count() int {
	return len(d.is)
}

// Id returns the dense index of s, allocating the next index for a new id,
// and bumps its frequency.
func (d *FreqDict) Id(s string) int32 {
	if y, ok := d.si[s]; ok {
		d.cnt[y]++
		return y
	}
	y := int32(len(d.is))
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 1)
	return y
}

// String returns the id at the given index.
func (d *FreqDict) String(id int32) (string, bool) {
	if int(id) >= len(d.is) || id < 0 {
		return "", false
	}
	return d.is[id], true
}

// Freq returns how often the id at the given index was observed.
func (d *FreqDict) Freq(id int32) int {
	if int(id) >= len(d.cnt) || id < 0 {
		return 0
	}
	return d.cnt[id]
}
