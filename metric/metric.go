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

// Package metric scores ranked recommendation lists against held-out ground
// truth at one or more cutoffs.
package metric

import (
	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/rectune/rectune/base"
)

// Metric scores a single user: target holds the user's held-out items,
// rankList the predicted ranking truncated to the cutoff.
type Metric func(target mapset.Set[int32], rankList []int32) float32

// Name identifies a metric in reports and configuration.
type Name string

const (
	KeyNDCG      Name = "ndcg"
	KeyRecall    Name = "recall"
	KeyPrecision Name = "precision"
	KeyHit       Name = "hit"
	KeyMAP       Name = "map"

	KeyAppearedItems Name = "appeared_item"
	KeyGiniIndex     Name = "gini_index"
	KeyEntropy       Name = "entropy"
)

// RankingNames lists the per-user ranking metrics in report order.
func RankingNames() []Name {
	return []Name{KeyNDCG, KeyRecall, KeyPrecision, KeyHit, KeyMAP}
}

// DiversityNames lists the aggregate diversity metrics in report order.
func DiversityNames() []Name {
	return []Name{KeyAppearedItems, KeyGiniIndex, KeyEntropy}
}

// Lookup resolves a ranking metric by name.
func Lookup(name Name) (Metric, error) {
	switch name {
	case KeyNDCG:
		return NDCG, nil
	case KeyRecall:
		return Recall, nil
	case KeyPrecision:
		return Precision, nil
	case KeyHit:
		return HR, nil
	case KeyMAP:
		return MAP, nil
	default:
		return nil, errors.Annotatef(base.ErrInvalidConfiguration, "unknown metric %q", name)
	}
}

// NDCG means Normalized Discounted Cumulative Gain. Gains are binary and the
// ideal DCG is computed for the held-out size capped at the cutoff.
func NDCG(target mapset.Set[int32], rankList []int32) float32 {
	// IDCG = \sum^{min(|REL|,K)}_{i=1} \frac {1} {\log_2(i+1)}
	idcg := float32(0)
	for i := 0; i < target.Cardinality() && i < len(rankList); i++ {
		idcg += 1.0 / math32.Log2(float32(i)+2.0)
	}
	if idcg == 0 {
		return 0
	}
	// DCG = \sum^{K}_{i=1} \frac {rel_i} {\log_2(i+1)}
	dcg := float32(0)
	for i, itemId := range rankList {
		if target.Contains(itemId) {
			dcg += 1.0 / math32.Log2(float32(i)+2.0)
		}
	}
	return dcg / idcg
}

// Precision is the fraction of recommended items that are relevant.
//
//	\frac{|relevant| \cap |retrieved|} {|retrieved|}
func Precision(target mapset.Set[int32], rankList []int32) float32 {
	if len(rankList) == 0 {
		return 0
	}
	hit := float32(0)
	for _, itemId := range rankList {
		if target.Contains(itemId) {
			hit++
		}
	}
	return hit / float32(len(rankList))
}

// Recall is the fraction of relevant items that have been recommended.
//
//	\frac{|relevant| \cap |retrieved|} {|relevant|}
func Recall(target mapset.Set[int32], rankList []int32) float32 {
	if target.Cardinality() == 0 {
		return 0
	}
	hit := 0
	for _, itemId := range rankList {
		if target.Contains(itemId) {
			hit++
		}
	}
	return float32(hit) / float32(target.Cardinality())
}

// HR means Hit Ratio: 1 if any held-out item made the list.
func HR(target mapset.Set[int32], rankList []int32) float32 {
	for _, itemId := range rankList {
		if target.Contains(itemId) {
			return 1
		}
	}
	return 0
}

// MAP means Mean Average Precision: the mean of precision at each hit
// position, normalized by min(|held-out|, K).
func MAP(target mapset.Set[int32], rankList []int32) float32 {
	norm := min(target.Cardinality(), len(rankList))
	if norm == 0 {
		return 0
	}
	sumPrecision := float32(0)
	hit := 0
	for i, itemId := range rankList {
		if target.Contains(itemId) {
			hit++
			sumPrecision += float32(hit) / float32(i+1)
		}
	}
	return sumPrecision / float32(norm)
}

// MeanOf averages a metric over users with a non-empty held-out set; users
// with no ground truth are excluded from both numerator and denominator
// rather than averaged in as zero or NaN. rankLists[u] is user u's full
// ranked list, truncated here to the cutoff; a nil list marks an unscored
// user. Summation order is fixed by the user order.
func MeanOf(scorer Metric, rankLists [][]int32, targets []mapset.Set[int32], cutoff int) float64 {
	var sum float64
	var count int
	for u, target := range targets {
		if target == nil || target.Cardinality() == 0 || rankLists[u] == nil {
			continue
		}
		sum += float64(scorer(target, truncate(rankLists[u], cutoff)))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func truncate(rankList []int32, cutoff int) []int32 {
	if len(rankList) > cutoff {
		return rankList[:cutoff]
	}
	return rankList
}
