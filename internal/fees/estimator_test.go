package fees

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/solana"
)

// rpcServer answers getRecentPrioritizationFees with the given fee
// samples, in JSON-RPC shape.
func rpcServer(t *testing.T, fees []uint64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any    `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode RPC request: %v", err)
		}
		if req.Method != "getRecentPrioritizationFees" {
			t.Errorf("unexpected RPC method: %s", req.Method)
		}

		result := make([]map[string]uint64, 0, len(fees))
		for i, fee := range fees {
			result = append(result, map[string]uint64{
				"slot":              uint64(348000000 + i),
				"prioritizationFee": fee,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"result":  result,
			"id":      req.ID,
		})
	}))
}

func poolFor(t *testing.T, url string) *solana.Pool {
	t.Helper()
	pool, err := solana.NewPool(solana.PoolConfig{
		Endpoints:      []string{url},
		HealthCheckTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestStatic_Units(t *testing.T) {
	static := NewStatic(10000)
	if got := static.Units(); got != 10000 {
		t.Errorf("expected 10000, got %d", got)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []uint64
		want   uint64
	}{
		{"empty", nil, 0},
		{"single", []uint64{42}, 42},
		{"odd", []uint64{300, 100, 200}, 200},
		{"even", []uint64{100, 200, 300, 400}, 250},
		{"all zero", []uint64{0, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := median(tt.values); got != tt.want {
				t.Errorf("median(%v) = %d, want %d", tt.values, got, tt.want)
			}
		})
	}
}

func TestRPCEstimator_Estimate(t *testing.T) {
	server := rpcServer(t, []uint64{100, 200, 300})
	defer server.Close()

	estimator, err := NewRPCEstimator(RPCEstimatorConfig{
		Pool:           poolFor(t, server.URL),
		SignatureCount: 3,
		ComputeUnits:   600_000,
	})
	if err != nil {
		t.Fatalf("NewRPCEstimator failed: %v", err)
	}

	units, err := estimator.Estimate(context.Background())
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	// 3 signatures * 5000 + median(200) micro-lamports/CU * 600k CU / 1e6
	want := uint64(3*5000 + 200*600_000/1_000_000)
	if units != want {
		t.Errorf("expected %d lamports, got %d", want, units)
	}

	t.Log("✓ Estimate combines signature fees and median prioritization fee")
}

func TestRPCEstimator_IdleCluster(t *testing.T) {
	server := rpcServer(t, []uint64{0, 0, 0})
	defer server.Close()

	estimator, _ := NewRPCEstimator(RPCEstimatorConfig{
		Pool: poolFor(t, server.URL),
	})

	units, err := estimator.Estimate(context.Background())
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	// Default 3 signatures, zero prioritization
	if units != 15000 {
		t.Errorf("expected 15000 lamports on idle cluster, got %d", units)
	}
}

func TestRPCEstimator_RequiresPool(t *testing.T) {
	if _, err := NewRPCEstimator(RPCEstimatorConfig{}); err == nil {
		t.Fatal("expected error without RPC pool")
	}
}

// stubEstimator returns scripted estimates for refresher tests.
type stubEstimator struct {
	units atomic.Uint64
	err   atomic.Bool
	calls atomic.Int32
}

func (s *stubEstimator) Estimate(ctx context.Context) (uint64, error) {
	s.calls.Add(1)
	if s.err.Load() {
		return 0, errors.New("rpc unavailable")
	}
	return s.units.Load(), nil
}

func TestRefresher_FallbackBeforeFirstRefresh(t *testing.T) {
	refresher := NewRefresher(RefresherConfig{
		Estimator: &stubEstimator{},
		Fallback:  10000,
	})

	if got := refresher.Units(); got != 10000 {
		t.Errorf("expected fallback 10000 before start, got %d", got)
	}
}

func TestRefresher_RefreshesImmediately(t *testing.T) {
	stub := &stubEstimator{}
	stub.units.Store(23456)

	refresher := NewRefresher(RefresherConfig{
		Estimator: stub,
		Fallback:  10000,
		Interval:  time.Hour,
	})
	refresher.Start()
	defer refresher.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for refresher.Units() != 23456 {
		if time.Now().After(deadline) {
			t.Fatalf("refresher never picked up estimate, have %d", refresher.Units())
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Log("✓ First refresh runs immediately on start")
}

func TestRefresher_KeepsLastGoodValueOnFailure(t *testing.T) {
	stub := &stubEstimator{}
	stub.units.Store(20000)

	refresher := NewRefresher(RefresherConfig{
		Estimator: stub,
		Fallback:  10000,
		Interval:  10 * time.Millisecond,
	})
	refresher.Start()
	defer refresher.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for refresher.Units() != 20000 {
		if time.Now().After(deadline) {
			t.Fatal("refresher never picked up initial estimate")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Estimator starts failing; the last good value must survive
	stub.err.Store(true)
	before := stub.calls.Load()
	deadline = time.Now().Add(2 * time.Second)
	for stub.calls.Load() < before+2 {
		if time.Now().After(deadline) {
			t.Fatal("refresher stopped polling")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := refresher.Units(); got != 20000 {
		t.Errorf("expected last good value 20000 after failures, got %d", got)
	}

	t.Log("✓ Failed refreshes keep serving the last good estimate")
}

func TestRefresher_StopIsRepeatable(t *testing.T) {
	refresher := NewRefresher(RefresherConfig{
		Estimator: &stubEstimator{},
		Fallback:  10000,
		Interval:  time.Hour,
	})
	refresher.Start()

	refresher.Stop()
	refresher.Stop()
}
