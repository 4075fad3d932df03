package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadScenarios_YAML(t *testing.T) {
	path := writeConfig(t, "scenarios.yaml", `
scenarios:
  - name: flaky
    workers: 3
    tasks: 20
    sleep: 2ms
    fail_every: 5
    retry:
      attempts: 2
      initial_delay: 1ms
  - tasks: 4
    delayed: 2
    delayed_after: 10ms
    rate_limit:
      per_second: 100
      burst: 2
`)

	scenarios, err := LoadScenarios(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(scenarios))
	}

	first := scenarios[0]
	if first.Name != "flaky" || first.Workers != 3 || first.Tasks != 20 {
		t.Errorf("unexpected first scenario: %+v", first)
	}
	if first.Sleep != 2*time.Millisecond {
		t.Errorf("sleep = %v, want 2ms", first.Sleep)
	}
	if first.RetryAttempts != 2 || first.RetryInitialDelay != time.Millisecond {
		t.Errorf("unexpected retry settings: %+v", first)
	}

	second := scenarios[1]
	if second.Name != "scenario-2" {
		t.Errorf("expected generated name, got %q", second.Name)
	}
	if second.Workers != 1 {
		t.Errorf("expected workers to default to 1, got %d", second.Workers)
	}
	if second.total() != 6 || second.DelayedAfter != 10*time.Millisecond {
		t.Errorf("unexpected delayed settings: %+v", second)
	}
	if second.RatePerSecond != 100 || second.RateBurst != 2 {
		t.Errorf("unexpected rate limit: %+v", second)
	}
}

func TestLoadScenarios_JSON(t *testing.T) {
	path := writeConfig(t, "scenarios.json", `{"scenarios":[{"name":"j","workers":2,"tasks":8}]}`)

	scenarios, err := LoadScenarios(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenarios) != 1 || scenarios[0].Name != "j" || scenarios[0].Tasks != 8 {
		t.Errorf("unexpected scenarios: %+v", scenarios)
	}
}

func TestLoadScenarios_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unsupported extension", "s.toml", "", "unsupported config format"},
		{"broken yaml", "s.yaml", "scenarios: [", "failed to parse YAML"},
		{"empty list", "s.yaml", "scenarios: []", "no scenarios"},
		{"no tasks", "s.yaml", "scenarios: [{name: idle}]", "submits no tasks"},
		{"negative tasks", "s.yaml", "scenarios: [{tasks: -1, delayed: 3}]", "must not be negative"},
		{"bad duration", "s.yaml", "scenarios: [{tasks: 1, sleep: soon}]", "invalid sleep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := LoadScenarios(path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadScenarios_MissingFile(t *testing.T) {
	if _, err := LoadScenarios(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestScenario_Expected(t *testing.T) {
	tests := []struct {
		name                                    string
		sc                                      Scenario
		wantSucceeded, wantFailed, wantPanicked int
	}{
		{"all succeed", Scenario{Tasks: 10}, 10, 0, 0},
		{"fail every third", Scenario{Tasks: 9, FailEvery: 3}, 6, 3, 0},
		{"panic wins over fail", Scenario{Tasks: 6, FailEvery: 2, PanicEvery: 3}, 2, 2, 2},
		{"panic and fail spread out", Scenario{Tasks: 5, FailEvery: 2, PanicEvery: 3}, 3, 1, 1},
		{"delayed tasks count", Scenario{Tasks: 10, Delayed: 1}, 11, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, f, p := tt.sc.expected()
			if s != tt.wantSucceeded || f != tt.wantFailed || p != tt.wantPanicked {
				t.Errorf("expected() = %d/%d/%d, want %d/%d/%d",
					s, f, p, tt.wantSucceeded, tt.wantFailed, tt.wantPanicked)
			}
		})
	}
}

func TestScenario_PoolOptions(t *testing.T) {
	tests := []struct {
		name string
		sc   Scenario
		want int
	}{
		{"plain", Scenario{}, 0},
		{"single attempt is no retry", Scenario{RetryAttempts: 1}, 0},
		{"retry", Scenario{RetryAttempts: 3}, 1},
		{"everything", Scenario{RetryAttempts: 2, RatePerSecond: 10, LockOSThread: true}, 3},
		{"pin implies lock", Scenario{LockOSThread: true, PinCPU: true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.sc.poolOptions()); got != tt.want {
				t.Errorf("expected %d options, got %d", tt.want, got)
			}
		})
	}
}
