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

// Package floats provides portable float32 vector helpers used by model
// training and metric aggregation.
package floats

// Dot returns the dot product of two vectors.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Sum returns the sum of all elements.
func Sum(a []float32) float32 {
	var sum float32
	for _, v := range a {
		sum += v
	}
	return sum
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(a []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return Sum(a) / float32(len(a))
}

// MulConst multiplies a vector by a constant in place.
func MulConst(a []float32, c float32) {
	for i := range a {
		a[i] *= c
	}
}

// MulConstTo writes a*c into dst.
func MulConstTo(a []float32, c float32, dst []float32) {
	for i := range a {
		dst[i] = a[i] * c
	}
}

// MulConstAdd adds a*c to dst element-wise.
func MulConstAdd(a []float32, c float32, dst []float32) {
	for i := range a {
		dst[i] += a[i] * c
	}
}

// SubTo writes a-b into dst.
func SubTo(a, b, dst []float32) {
	for i := range a {
		dst[i] = a[i] - b[i]
	}
}
