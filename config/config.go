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

// Package config loads the harness configuration from a file and the
// RECTUNE_* environment.
package config

import (
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/rectune/rectune/base"
	"github.com/rectune/rectune/metric"
	"github.com/rectune/rectune/split"
	"github.com/rectune/rectune/tune"
	"github.com/spf13/viper"
)

// Config is the configuration of one evaluation or search run.
type Config struct {
	Split SplitConfig `mapstructure:"split"`
	Eval  EvalConfig  `mapstructure:"eval"`
	Tune  TuneConfig  `mapstructure:"tune"`
}

// SplitConfig configures the partial-user holdout split.
type SplitConfig struct {
	ValUserRatio     float64 `mapstructure:"val_user_ratio"`
	TestUserRatio    float64 `mapstructure:"test_user_ratio"`
	ValHeldoutRatio  float64 `mapstructure:"val_heldout_ratio"`
	TestHeldoutRatio float64 `mapstructure:"test_heldout_ratio"`
	Seed             int64   `mapstructure:"seed"`
}

// EvalConfig configures the evaluator.
type EvalConfig struct {
	TargetMetric string `mapstructure:"target_metric"`
	Cutoff       int    `mapstructure:"cutoff"`
	Cutoffs      []int  `mapstructure:"cutoffs"`
	Jobs         int    `mapstructure:"jobs"`
}

// TuneConfig configures hyper-parameter search.
type TuneConfig struct {
	NumTrials  int           `mapstructure:"num_trials"`
	Algorithm  string        `mapstructure:"algorithm"`
	Direction  string        `mapstructure:"direction"`
	Seed       int64         `mapstructure:"seed"`
	PruneEvery int           `mapstructure:"prune_every"`
	TrialJobs  int           `mapstructure:"trial_jobs"`
	FitJobs    int           `mapstructure:"fit_jobs"`
	Verbose    int           `mapstructure:"verbose"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func setDefault() {
	viper.SetDefault("split.val_user_ratio", 0.2)
	viper.SetDefault("split.test_user_ratio", 0.2)
	viper.SetDefault("split.val_heldout_ratio", 0.5)
	viper.SetDefault("split.test_heldout_ratio", 0.5)
	viper.SetDefault("split.seed", 0)
	viper.SetDefault("eval.target_metric", string(metric.KeyNDCG))
	viper.SetDefault("eval.cutoff", 10)
	viper.SetDefault("eval.cutoffs", []int{5, 10, 20})
	viper.SetDefault("eval.jobs", 1)
	viper.SetDefault("tune.num_trials", 10)
	viper.SetDefault("tune.algorithm", tune.AlgorithmTPE)
	viper.SetDefault("tune.direction", tune.DirectionMaximize)
	viper.SetDefault("tune.seed", 0)
	viper.SetDefault("tune.prune_every", 0)
	viper.SetDefault("tune.trial_jobs", 1)
	viper.SetDefault("tune.fit_jobs", 1)
	viper.SetDefault("tune.verbose", 10)
	viper.SetDefault("tune.timeout", time.Duration(0))
}

// LoadConfig loads the configuration from a file, overridden by RECTUNE_*
// environment variables (RECTUNE_EVAL_CUTOFF=20 overrides eval.cutoff). An
// empty path loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	setDefault()
	viper.SetEnvPrefix("rectune")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "failed to read config %s", path)
		}
	}
	var conf Config
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks ratio ranges and positive counts.
func (conf *Config) Validate() error {
	s := conf.Split
	if s.ValUserRatio <= 0 || s.ValUserRatio >= 1 ||
		s.TestUserRatio <= 0 || s.TestUserRatio >= 1 ||
		s.ValUserRatio+s.TestUserRatio >= 1 {
		return errors.Annotatef(base.ErrInvalidConfiguration,
			"user split ratios val=%v test=%v", s.ValUserRatio, s.TestUserRatio)
	}
	if s.ValHeldoutRatio <= 0 || s.ValHeldoutRatio >= 1 ||
		s.TestHeldoutRatio <= 0 || s.TestHeldoutRatio >= 1 {
		return errors.Annotatef(base.ErrInvalidConfiguration,
			"heldout ratios val=%v test=%v", s.ValHeldoutRatio, s.TestHeldoutRatio)
	}
	if conf.Eval.Cutoff <= 0 {
		return errors.Annotatef(base.ErrInvalidConfiguration, "cutoff %d", conf.Eval.Cutoff)
	}
	for _, cutoff := range conf.Eval.Cutoffs {
		if cutoff <= 0 {
			return errors.Annotatef(base.ErrInvalidConfiguration, "cutoff %d", cutoff)
		}
	}
	if _, err := metric.Lookup(metric.Name(conf.Eval.TargetMetric)); err != nil {
		return errors.Trace(err)
	}
	if conf.Tune.NumTrials <= 0 {
		return errors.Annotatef(base.ErrInvalidConfiguration, "num trials %d", conf.Tune.NumTrials)
	}
	switch conf.Tune.Direction {
	case tune.DirectionMaximize, tune.DirectionMinimize:
	default:
		return errors.Annotatef(base.ErrInvalidConfiguration, "unknown direction %q", conf.Tune.Direction)
	}
	return nil
}

// HoldoutConfig converts the split section.
func (conf *Config) HoldoutConfig() *split.HoldoutConfig {
	return &split.HoldoutConfig{
		ValUserRatio:     conf.Split.ValUserRatio,
		TestUserRatio:    conf.Split.TestUserRatio,
		ValHeldoutRatio:  conf.Split.ValHeldoutRatio,
		TestHeldoutRatio: conf.Split.TestHeldoutRatio,
		Seed:             conf.Split.Seed,
	}
}

// TuneSearchConfig converts the tune section.
func (conf *Config) TuneSearchConfig() *tune.Config {
	return &tune.Config{
		NumTrials:  conf.Tune.NumTrials,
		Seed:       conf.Tune.Seed,
		Algorithm:  conf.Tune.Algorithm,
		Direction:  conf.Tune.Direction,
		PruneEvery: conf.Tune.PruneEvery,
		TrialJobs:  conf.Tune.TrialJobs,
		Jobs:       conf.Tune.FitJobs,
		Verbose:    conf.Tune.Verbose,
		Timeout:    conf.Tune.Timeout,
	}
}
