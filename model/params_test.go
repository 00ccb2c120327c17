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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsGetters(t *testing.T) {
	params := Params{
		NFactors:    10,
		Lr:          0.5,
		RandomState: int64(42),
	}
	assert.Equal(t, 10, params.GetInt(NFactors, 0))
	assert.Equal(t, 3, params.GetInt(NEpochs, 3))
	assert.Equal(t, int64(42), params.GetInt64(RandomState, 0))
	assert.Equal(t, int64(10), params.GetInt64(NFactors, 0))
	assert.Equal(t, float32(0.5), params.GetFloat32(Lr, 0))
	assert.Equal(t, float32(10), params.GetFloat32(NFactors, 0))
	assert.Equal(t, float32(0.1), params.GetFloat32(Reg, 0.1))
	assert.Equal(t, "tpe", params.GetString("Algo", "tpe"))
	// type mismatch falls back to the default
	assert.Equal(t, 7, params.GetInt(Lr, 7))
}

func TestParamsCopyOverwrite(t *testing.T) {
	params := Params{Lr: 0.1, Reg: 0.2}
	copied := params.Copy()
	copied[Lr] = 0.5
	assert.Equal(t, 0.1, params[Lr])
	merged := params.Overwrite(Params{Lr: 0.9, NEpochs: 5})
	assert.Equal(t, 0.9, merged[Lr])
	assert.Equal(t, 0.2, merged[Reg])
	assert.Equal(t, 5, merged[NEpochs])
	assert.Equal(t, 0.1, params[Lr])
}

func TestBaseModelSeed(t *testing.T) {
	var a, b BaseModel
	a.SetParams(Params{RandomState: int64(1)})
	b.SetParams(Params{RandomState: int64(1)})
	assert.Equal(t, a.GetRandomGenerator().Int63(), b.GetRandomGenerator().Int63())
	var c BaseModel
	c.SetParams(Params{RandomState: int64(2)})
	assert.NotEqual(t, a.GetRandomGenerator().Int63(), c.GetRandomGenerator().Int63())
}
