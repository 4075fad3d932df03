package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/utkarsh5026/taskpool/pool"
	"gopkg.in/yaml.v3"
)

// FileConfig is the layout of a scenario file.
type FileConfig struct {
	Scenarios []ScenarioConfig `yaml:"scenarios" json:"scenarios"`
}

// ScenarioConfig is one scenario as written in a file. Durations are strings
// in time.ParseDuration format.
type ScenarioConfig struct {
	Name         string `yaml:"name" json:"name"`
	Workers      int    `yaml:"workers" json:"workers"`
	Tasks        int    `yaml:"tasks" json:"tasks"`
	Sleep        string `yaml:"sleep" json:"sleep"`
	Delayed      int    `yaml:"delayed" json:"delayed"`
	DelayedAfter string `yaml:"delayed_after" json:"delayed_after"`
	FailEvery    int    `yaml:"fail_every" json:"fail_every"`
	PanicEvery   int    `yaml:"panic_every" json:"panic_every"`

	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	LockOSThread bool `yaml:"lock_os_thread" json:"lock_os_thread"`
	PinCPU       bool `yaml:"pin_cpu" json:"pin_cpu"`
}

// RetryConfig configures pool.WithRetryPolicy.
type RetryConfig struct {
	Attempts     int    `yaml:"attempts" json:"attempts"`
	InitialDelay string `yaml:"initial_delay" json:"initial_delay"`
}

// RateLimitConfig configures pool.WithRateLimit.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second" json:"per_second"`
	Burst     int     `yaml:"burst" json:"burst"`
}

// Scenario is a validated, ready-to-run scenario.
//
// Tasks are numbered from 1. Task j panics when PanicEvery divides j,
// otherwise fails when FailEvery divides j, otherwise sleeps and increments
// the shared counter. Delayed more tasks are submitted DelayedAfter after
// the first batch.
type Scenario struct {
	Name         string
	Workers      int
	Tasks        int
	Sleep        time.Duration
	Delayed      int
	DelayedAfter time.Duration
	FailEvery    int
	PanicEvery   int

	RetryAttempts     int
	RetryInitialDelay time.Duration
	RatePerSecond     float64
	RateBurst         int
	LockOSThread      bool
	PinCPU            bool
}

// defaultScenarios are the two reference workloads: many short sleeps on a
// small pool, and a single worker woken again after going idle.
func defaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:    "hundred-sleeps",
			Workers: 4,
			Tasks:   100,
			Sleep:   time.Millisecond,
		},
		{
			Name:         "single-worker-delayed",
			Workers:      1,
			Tasks:        10,
			Delayed:      1,
			DelayedAfter: 50 * time.Millisecond,
		},
	}
}

// LoadScenarios reads a YAML or JSON scenario file, chosen by extension.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return config.ToScenarios()
}

// ToScenarios validates every entry and fills in defaults.
func (f *FileConfig) ToScenarios() ([]Scenario, error) {
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("config lists no scenarios")
	}

	out := make([]Scenario, 0, len(f.Scenarios))
	for i, sc := range f.Scenarios {
		s, err := sc.toScenario()
		if err != nil {
			return nil, fmt.Errorf("scenario %d (%s): %w", i, sc.Name, err)
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("scenario-%d", i+1)
		}
		out = append(out, s)
	}
	return out, nil
}

func (sc ScenarioConfig) toScenario() (Scenario, error) {
	s := Scenario{
		Name:          sc.Name,
		Workers:       max(sc.Workers, 1),
		Tasks:         sc.Tasks,
		Delayed:       sc.Delayed,
		FailEvery:     sc.FailEvery,
		PanicEvery:    sc.PanicEvery,
		RetryAttempts: sc.Retry.Attempts,
		RatePerSecond: sc.RateLimit.PerSecond,
		RateBurst:     sc.RateLimit.Burst,
		LockOSThread:  sc.LockOSThread,
		PinCPU:        sc.PinCPU,
	}

	if s.Tasks < 0 || s.Delayed < 0 {
		return s, fmt.Errorf("task counts must not be negative")
	}
	if s.Tasks+s.Delayed == 0 {
		return s, fmt.Errorf("scenario submits no tasks")
	}
	if s.FailEvery < 0 || s.PanicEvery < 0 {
		return s, fmt.Errorf("fail_every and panic_every must not be negative")
	}

	var err error
	if s.Sleep, err = parseDuration(sc.Sleep); err != nil {
		return s, fmt.Errorf("invalid sleep: %w", err)
	}
	if s.DelayedAfter, err = parseDuration(sc.DelayedAfter); err != nil {
		return s, fmt.Errorf("invalid delayed_after: %w", err)
	}
	if s.RetryInitialDelay, err = parseDuration(sc.Retry.InitialDelay); err != nil {
		return s, fmt.Errorf("invalid retry initial_delay: %w", err)
	}

	return s, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// total is the number of tasks the scenario submits.
func (s Scenario) total() int {
	return s.Tasks + s.Delayed
}

// outcome reports how task j (1-based) is meant to end.
func (s Scenario) outcome(j int) (panics, fails bool) {
	if s.PanicEvery > 0 && j%s.PanicEvery == 0 {
		return true, false
	}
	if s.FailEvery > 0 && j%s.FailEvery == 0 {
		return false, true
	}
	return false, false
}

// expected returns how many tasks should succeed, fail and panic.
func (s Scenario) expected() (succeeded, failed, panicked int) {
	for j := 1; j <= s.total(); j++ {
		p, f := s.outcome(j)
		switch {
		case p:
			panicked++
		case f:
			failed++
		default:
			succeeded++
		}
	}
	return succeeded, failed, panicked
}

// poolOptions translates the scenario into pool options.
func (s Scenario) poolOptions() []pool.Option {
	var opts []pool.Option
	if s.RetryAttempts > 1 {
		opts = append(opts, pool.WithRetryPolicy(s.RetryAttempts, s.RetryInitialDelay))
	}
	if s.RatePerSecond > 0 {
		opts = append(opts, pool.WithRateLimit(s.RatePerSecond, max(s.RateBurst, 1)))
	}
	switch {
	case s.PinCPU:
		opts = append(opts, pool.WithCPUAffinity())
	case s.LockOSThread:
		opts = append(opts, pool.WithLockOSThread())
	}
	return opts
}
