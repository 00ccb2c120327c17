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

// Package dataset holds the sparse interaction data structures shared by the
// splitter, the evaluator and the models.
package dataset

import (
	"sort"

	"github.com/juju/errors"
	"github.com/rectune/rectune/base"
)

// Triplet is one (user, item, weight) interaction.
type Triplet struct {
	User   int32
	Item   int32
	Weight float32
}

// Matrix is a sparse user-by-item interaction matrix in row-major form:
// every row keeps its item indices sorted ascending with a parallel weight
// slice, so per-user lookup is O(nnz of the row). A Matrix is immutable once
// built; derived matrices (row subsets, concatenations, splits) are new
// values. Accessors return internal slices which callers must not modify.
type Matrix struct {
	items   [][]int32
	weights [][]float32
	nItems  int
	nnz     int
}

// NewMatrix creates an all-zero matrix with the given shape.
func NewMatrix(nUsers, nItems int) *Matrix {
	return &Matrix{
		items:   make([][]int32, nUsers),
		weights: make([][]float32, nUsers),
		nItems:  nItems,
	}
}

// NewMatrixFromTriplets builds a matrix from interaction triplets. Rows are
// sorted by item index and weights of duplicated (user, item) pairs are
// summed. Implicit binary feedback uses weight 1.
func NewMatrixFromTriplets(nUsers, nItems int, triplets []Triplet) (*Matrix, error) {
	if nUsers <= 0 || nItems <= 0 {
		return nil, errors.Annotatef(base.ErrEmptyInput, "matrix shape %dx%d", nUsers, nItems)
	}
	m := NewMatrix(nUsers, nItems)
	for _, t := range triplets {
		if t.User < 0 || int(t.User) >= nUsers || t.Item < 0 || int(t.Item) >= nItems {
			return nil, errors.Annotatef(base.ErrInvalidConfiguration,
				"interaction (%d,%d) outside %dx%d", t.User, t.Item, nUsers, nItems)
		}
		m.items[t.User] = append(m.items[t.User], t.Item)
		m.weights[t.User] = append(m.weights[t.User], t.Weight)
	}
	for u := range m.items {
		m.items[u], m.weights[u] = sortRow(m.items[u], m.weights[u])
		m.nnz += len(m.items[u])
	}
	return m, nil
}

// MatrixFromSortedRows wraps rows whose item indices are already sorted
// ascending, without copying. The splitter uses it to assemble learn and
// predict matrices from rows of an existing matrix.
func MatrixFromSortedRows(items [][]int32, weights [][]float32, nItems int) *Matrix {
	return newMatrixFromRows(items, weights, nItems)
}

// newMatrixFromRows wraps pre-sorted rows without copying. Internal use only.
func newMatrixFromRows(items [][]int32, weights [][]float32, nItems int) *Matrix {
	m := &Matrix{items: items, weights: weights, nItems: nItems}
	for _, row := range items {
		m.nnz += len(row)
	}
	return m
}

// sortRow sorts a row by item index and merges duplicates by summing weights.
func sortRow(items []int32, weights []float32) ([]int32, []float32) {
	if len(items) == 0 {
		return items, weights
	}
	perm := make([]int, len(items))
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool { return items[perm[a]] < items[perm[b]] })
	outItems := make([]int32, 0, len(items))
	outWeights := make([]float32, 0, len(weights))
	for _, p := range perm {
		if n := len(outItems); n > 0 && outItems[n-1] == items[p] {
			outWeights[n-1] += weights[p]
		} else {
			outItems = append(outItems, items[p])
			outWeights = append(outWeights, weights[p])
		}
	}
	return outItems, outWeights
}

// Users returns the number of rows.
func (m *Matrix) Users() int {
	return len(m.items)
}

// Items returns the number of columns.
func (m *Matrix) Items() int {
	return m.nItems
}

// NNZ returns the number of stored interactions.
func (m *Matrix) NNZ() int {
	return m.nnz
}

// RowItems returns the sorted item indices of a user's row.
func (m *Matrix) RowItems(user int) []int32 {
	return m.items[user]
}

// RowWeights returns the weights parallel to RowItems.
func (m *Matrix) RowWeights(user int) []float32 {
	return m.weights[user]
}

// Has reports whether the (user, item) interaction is stored.
func (m *Matrix) Has(user int, item int32) bool {
	row := m.items[user]
	i := sort.Search(len(row), func(i int) bool { return row[i] >= item })
	return i < len(row) && row[i] == item
}

// SelectRows returns a new matrix containing the given rows in the given
// order. Row contents are shared, not copied: rows are never mutated.
func (m *Matrix) SelectRows(rows []int32) *Matrix {
	items := make([][]int32, len(rows))
	weights := make([][]float32, len(rows))
	for i, r := range rows {
		items[i] = m.items[r]
		weights[i] = m.weights[r]
	}
	return newMatrixFromRows(items, weights, m.nItems)
}

// Concat stacks the rows of m and other into a new matrix, m's rows first.
// Both operands must share the item space.
func (m *Matrix) Concat(other *Matrix) (*Matrix, error) {
	if m.nItems != other.nItems {
		return nil, errors.Annotatef(base.ErrInvalidConfiguration,
			"item count mismatch: %d vs %d", m.nItems, other.nItems)
	}
	items := make([][]int32, 0, len(m.items)+len(other.items))
	items = append(items, m.items...)
	items = append(items, other.items...)
	weights := make([][]float32, 0, len(m.weights)+len(other.weights))
	weights = append(weights, m.weights...)
	weights = append(weights, other.weights...)
	return newMatrixFromRows(items, weights, m.nItems), nil
}
