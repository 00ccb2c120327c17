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

// Package tune searches recommender hyper-parameters against a held-out
// validation objective.
package tune

import (
	"github.com/c-bata/goptuna"
	"github.com/juju/errors"
	"github.com/rectune/rectune/model"
)

// Domain is the sampling range of one hyper-parameter.
type Domain interface {
	suggest(trial goptuna.Trial, name string) (interface{}, error)
}

type uniformDomain struct {
	low, high float64
}

func (d uniformDomain) suggest(trial goptuna.Trial, name string) (interface{}, error) {
	return trial.SuggestFloat(name, d.low, d.high)
}

// Uniform samples a float uniformly from [low, high].
func Uniform(low, high float64) Domain {
	return uniformDomain{low, high}
}

type logUniformDomain struct {
	low, high float64
}

func (d logUniformDomain) suggest(trial goptuna.Trial, name string) (interface{}, error) {
	return trial.SuggestLogFloat(name, d.low, d.high)
}

// LogUniform samples a float log-uniformly from [low, high]. Use it for
// scale-type parameters like learning rates and regularization strengths.
func LogUniform(low, high float64) Domain {
	return logUniformDomain{low, high}
}

type discreteDomain struct {
	low, high, q float64
}

func (d discreteDomain) suggest(trial goptuna.Trial, name string) (interface{}, error) {
	return trial.SuggestDiscreteFloat(name, d.low, d.high, d.q)
}

// DiscreteUniform samples a float from [low, high] on a grid with step q.
func DiscreteUniform(low, high, q float64) Domain {
	return discreteDomain{low, high, q}
}

type intDomain struct {
	low, high int
}

func (d intDomain) suggest(trial goptuna.Trial, name string) (interface{}, error) {
	return trial.SuggestInt(name, d.low, d.high)
}

// IntRange samples an integer uniformly from [low, high].
func IntRange(low, high int) Domain {
	return intDomain{low, high}
}

type categoricalDomain struct {
	choices []string
}

func (d categoricalDomain) suggest(trial goptuna.Trial, name string) (interface{}, error) {
	return trial.SuggestCategorical(name, d.choices)
}

// Categorical samples one of the given choices.
func Categorical(choices ...string) Domain {
	return categoricalDomain{choices}
}

// ParamSpace maps each searched hyper-parameter to its sampling domain.
// Parameters absent from the space keep their model defaults.
type ParamSpace map[model.ParamName]Domain

// SuggestParams draws one parameter assignment from the space.
func (space ParamSpace) SuggestParams(trial goptuna.Trial) (model.Params, error) {
	params := make(model.Params, len(space))
	for name, domain := range space {
		value, err := domain.suggest(trial, string(name))
		if err != nil {
			return nil, errors.Trace(err)
		}
		params[name] = value
	}
	return params, nil
}
