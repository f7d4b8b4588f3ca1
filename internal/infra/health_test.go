package infra

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestHealthRegistry_Register(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name:     "test",
		Critical: true,
		Checker: func(ctx context.Context) DependencyCheck {
			return DependencyCheck{
				Name:   "test",
				Status: DependencyHealthy,
			}
		},
	})

	names := registry.Names()
	if len(names) != 1 || names[0] != "test" {
		t.Errorf("expected 1 check named 'test', got %v", names)
	}
}

func TestHealthRegistry_RegisterSimple(t *testing.T) {
	registry := NewHealthRegistry()

	registry.RegisterSimple("db", func(ctx context.Context) error {
		return nil
	})

	result, ok := registry.Check(context.Background(), "db")
	if !ok {
		t.Fatal("expected check to be found")
	}
	if result.Status != DependencyHealthy {
		t.Errorf("expected healthy status, got %s", result.Status)
	}
}

func TestHealthRegistry_RegisterSimpleError(t *testing.T) {
	registry := NewHealthRegistry()

	registry.RegisterSimple("db", func(ctx context.Context) error {
		return errors.New("connection failed")
	})

	result, ok := registry.Check(context.Background(), "db")
	if !ok {
		t.Fatal("expected check to be found")
	}
	if result.Status != DependencyUnhealthy {
		t.Errorf("expected unhealthy status, got %s", result.Status)
	}
	if result.Message != "connection failed" {
		t.Errorf("expected error message, got %s", result.Message)
	}
}

func TestHealthRegistry_Unregister(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name:    "test",
		Checker: LivenessChecker(),
	})

	registry.Unregister("test")

	names := registry.Names()
	if len(names) != 0 {
		t.Errorf("expected 0 checks after unregister, got %d", len(names))
	}
}

func TestHealthRegistry_Check(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name: "test",
		Checker: func(ctx context.Context) DependencyCheck {
			return DependencyCheck{
				Name:   "test",
				Status: DependencyHealthy,
				Metadata: map[string]string{
					"version": "1.0",
				},
			}
		},
	})

	result, ok := registry.Check(context.Background(), "test")
	if !ok {
		t.Fatal("expected check to be found")
	}
	if result.Status != DependencyHealthy {
		t.Errorf("expected healthy, got %s", result.Status)
	}
	if result.Metadata["version"] != "1.0" {
		t.Errorf("expected version metadata, got %v", result.Metadata)
	}
}

func TestHealthRegistry_CheckNotFound(t *testing.T) {
	registry := NewHealthRegistry()

	_, ok := registry.Check(context.Background(), "nonexistent")
	if ok {
		t.Error("expected check not found")
	}
}

func TestHealthRegistry_CheckTimeout(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name:    "slow",
		Timeout: 50 * time.Millisecond,
		Checker: func(ctx context.Context) DependencyCheck {
			time.Sleep(200 * time.Millisecond)
			return DependencyCheck{
				Name:   "slow",
				Status: DependencyHealthy,
			}
		},
	})

	result, ok := registry.Check(context.Background(), "slow")
	if !ok {
		t.Fatal("expected check to be found")
	}
	if result.Status != DependencyUnhealthy {
		t.Errorf("expected unhealthy due to timeout, got %s", result.Status)
	}
	if result.Message != "health check timed out" {
		t.Errorf("expected timeout message, got %s", result.Message)
	}
}

func TestHealthRegistry_CheckAll(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name:    "check1",
		Checker: LivenessChecker(),
	})
	registry.Register(CheckSpec{
		Name: "check2",
		Checker: func(ctx context.Context) DependencyCheck {
			return DependencyCheck{
				Name:   "check2",
				Status: DependencyHealthy,
			}
		},
	})

	report := registry.CheckAll(context.Background())

	if report.Status != DependencyHealthy {
		t.Errorf("expected overall healthy, got %s", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(report.Checks))
	}
}

func TestHealthRegistry_CheckAllUnhealthy(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name:     "healthy",
		Critical: false,
		Checker:  LivenessChecker(),
	})
	registry.Register(CheckSpec{
		Name:     "unhealthy",
		Critical: true,
		Checker: func(ctx context.Context) DependencyCheck {
			return DependencyCheck{
				Name:   "unhealthy",
				Status: DependencyUnhealthy,
			}
		},
	})

	report := registry.CheckAll(context.Background())

	if report.Status != DependencyUnhealthy {
		t.Errorf("expected overall unhealthy due to critical check, got %s", report.Status)
	}
}

func TestHealthRegistry_CheckAllDegraded(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name:     "healthy",
		Critical: true,
		Checker:  LivenessChecker(),
	})
	registry.Register(CheckSpec{
		Name:     "unhealthy",
		Critical: false, // Not critical
		Checker: func(ctx context.Context) DependencyCheck {
			return DependencyCheck{
				Name:   "unhealthy",
				Status: DependencyUnhealthy,
			}
		},
	})

	report := registry.CheckAll(context.Background())

	if report.Status != DependencyDegraded {
		t.Errorf("expected degraded (non-critical failure), got %s", report.Status)
	}
}

func TestHealthRegistry_GetCached(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name:    "test",
		Checker: LivenessChecker(),
	})

	// Run check to populate cache
	registry.CheckAll(context.Background())

	result, ok := registry.GetCached("test")
	if !ok {
		t.Fatal("expected cached result")
	}
	if result.Status != DependencyHealthy {
		t.Errorf("expected healthy, got %s", result.Status)
	}
}

func TestHealthRegistry_GetAllCached(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name:    "test1",
		Checker: LivenessChecker(),
	})
	registry.Register(CheckSpec{
		Name:    "test2",
		Checker: LivenessChecker(),
	})

	// Run checks to populate cache
	registry.CheckAll(context.Background())

	report := registry.GetAllCached()
	if len(report.Checks) != 2 {
		t.Errorf("expected 2 cached checks, got %d", len(report.Checks))
	}
}

func TestHealthRegistry_BackgroundChecks(t *testing.T) {
	registry := NewHealthRegistry()

	var count int32

	registry.Register(CheckSpec{
		Name:     "counter",
		Interval: 20 * time.Millisecond,
		Checker: func(ctx context.Context) DependencyCheck {
			atomic.AddInt32(&count, 1)
			return DependencyCheck{
				Name:   "counter",
				Status: DependencyHealthy,
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry.StartBackgroundChecks(ctx)

	// Wait for a few intervals
	time.Sleep(100 * time.Millisecond)

	registry.Stop()

	finalCount := atomic.LoadInt32(&count)
	if finalCount < 3 {
		t.Errorf("expected at least 3 checks, got %d", finalCount)
	}
}

func TestHealthRegistry_Stop(t *testing.T) {
	registry := NewHealthRegistry()

	var count int32

	registry.Register(CheckSpec{
		Name:     "counter",
		Interval: 10 * time.Millisecond,
		Checker: func(ctx context.Context) DependencyCheck {
			atomic.AddInt32(&count, 1)
			return DependencyCheck{
				Name:   "counter",
				Status: DependencyHealthy,
			}
		},
	})

	ctx := context.Background()
	registry.StartBackgroundChecks(ctx)

	time.Sleep(50 * time.Millisecond)
	registry.Stop()

	countAtStop := atomic.LoadInt32(&count)
	time.Sleep(50 * time.Millisecond)
	countAfterStop := atomic.LoadInt32(&count)

	if countAfterStop > countAtStop+1 {
		t.Errorf("expected checks to stop, count went from %d to %d", countAtStop, countAfterStop)
	}
}

func TestReadinessReport_IsHealthy(t *testing.T) {
	report := ReadinessReport{Status: DependencyHealthy}
	if !report.IsHealthy() {
		t.Error("expected IsHealthy() to return true")
	}

	report = ReadinessReport{Status: DependencyUnhealthy}
	if report.IsHealthy() {
		t.Error("expected IsHealthy() to return false")
	}
}

func TestReadinessReport_FailedChecks(t *testing.T) {
	report := ReadinessReport{
		Checks: []DependencyCheck{
			{Name: "healthy", Status: DependencyHealthy},
			{Name: "unhealthy", Status: DependencyUnhealthy},
			{Name: "degraded", Status: DependencyDegraded},
		},
	}

	failed := report.FailedChecks()
	if len(failed) != 2 {
		t.Errorf("expected 2 failed checks, got %d", len(failed))
	}
}

func TestLivenessChecker(t *testing.T) {
	checker := LivenessChecker()
	result := checker(context.Background())

	if result.Name != "liveness" {
		t.Errorf("expected name 'liveness', got %s", result.Name)
	}
	if result.Status != DependencyHealthy {
		t.Errorf("expected healthy, got %s", result.Status)
	}
}

func TestReadinessChecker(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name:    "db",
		Checker: LivenessChecker(),
	})

	// Run to populate cache
	registry.CheckAll(context.Background())

	checker := ReadinessChecker(registry, []string{"db"})
	result := checker(context.Background())

	if result.Status != DependencyHealthy {
		t.Errorf("expected healthy readiness, got %s", result.Status)
	}
}

func TestReadinessChecker_UnhealthyDependency(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name: "db",
		Checker: func(ctx context.Context) DependencyCheck {
			return DependencyCheck{
				Name:   "db",
				Status: DependencyUnhealthy,
			}
		},
	})

	// Run to populate cache
	registry.CheckAll(context.Background())

	checker := ReadinessChecker(registry, []string{"db"})
	result := checker(context.Background())

	if result.Status != DependencyUnhealthy {
		t.Errorf("expected unhealthy readiness, got %s", result.Status)
	}
}

func TestReadinessChecker_MissingDependency(t *testing.T) {
	registry := NewHealthRegistry()

	checker := ReadinessChecker(registry, []string{"nonexistent"})
	result := checker(context.Background())

	if result.Status != DependencyUnknown {
		t.Errorf("expected unknown status for missing dependency, got %s", result.Status)
	}
}

func TestDependencyCheck_MarshalJSON(t *testing.T) {
	result := DependencyCheck{
		Name:      "test",
		Status:    DependencyHealthy,
		Latency:   150 * time.Millisecond,
		Timestamp: time.Now(),
	}

	data, err := result.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	// Should contain latency_ms as number
	if string(data) == "" {
		t.Error("expected non-empty JSON")
	}
}

func TestHealthRegistry_CheckRecordsLatency(t *testing.T) {
	registry := NewHealthRegistry()

	registry.Register(CheckSpec{
		Name: "slow",
		Checker: func(ctx context.Context) DependencyCheck {
			time.Sleep(50 * time.Millisecond)
			return DependencyCheck{
				Name:   "slow",
				Status: DependencyHealthy,
			}
		},
	})

	result, ok := registry.Check(context.Background(), "slow")
	if !ok {
		t.Fatal("expected check to be found")
	}

	if result.Latency < 40*time.Millisecond {
		t.Errorf("expected latency >= 40ms, got %v", result.Latency)
	}
}
