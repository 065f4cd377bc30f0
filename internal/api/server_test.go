package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lp-arena-agent/internal/battle"
	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/engine"
	"lp-arena-agent/internal/routing"
)

// fakeReader is an in-memory arena used by the handler tests.
type fakeReader struct {
	mu      sync.Mutex
	battles map[uint64]domain.Battle
	ids     map[domain.BattleStatus][]uint64
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		battles: make(map[uint64]domain.Battle),
		ids:     make(map[domain.BattleStatus][]uint64),
	}
}

func (f *fakeReader) add(b domain.Battle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	core := b.Core()
	f.battles[core.ID] = b
	f.ids[core.Status] = append(f.ids[core.Status], core.ID)
}

func (f *fakeReader) Battle(_ context.Context, id uint64) (domain.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.battles[id]
	if !ok {
		return nil, fmt.Errorf("battle %d not found", id)
	}
	return b, nil
}

func (f *fakeReader) BattleIDsByStatus(_ context.Context, status domain.BattleStatus) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.ids[status]...), nil
}

func (f *fakeReader) BattleCount(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.battles)), nil
}

func (f *fakeReader) IsExpired(_ context.Context, id uint64) (bool, error) {
	b, err := f.Battle(context.Background(), id)
	if err != nil {
		return false, err
	}
	return b.Core().Status >= domain.BattleStatusExpired, nil
}

func (f *fakeReader) TimeRemaining(_ context.Context, id uint64) (time.Duration, error) {
	b, err := f.Battle(context.Background(), id)
	if err != nil {
		return 0, err
	}
	return b.Core().TimeRemaining(time.Now()), nil
}

func (f *fakeReader) CurrentPerformance(_ context.Context, id uint64) (*domain.Performance, error) {
	return &domain.Performance{
		CreatorScore:    big.NewInt(5e18),
		OpponentScore:   big.NewInt(3e18),
		CreatorInRange:  true,
		OpponentInRange: false,
	}, nil
}

// fakeLeaderboard serves canned player stats.
type fakeLeaderboard struct {
	stats *domain.PlayerStats
	err   error
}

func (f *fakeLeaderboard) PlayerStats(_ context.Context, player common.Address) (*domain.PlayerStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func (f *fakeLeaderboard) PlayerCount(_ context.Context) (uint64, error) {
	return 1, nil
}

func testAddr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func activeRange(id uint64) *domain.RangeBattle {
	return &domain.RangeBattle{
		BattleCore: domain.BattleCore{
			ID:        id,
			Creator:   testAddr(1),
			Opponent:  testAddr(2),
			DEX:       domain.DEXUniswapV4,
			Status:    domain.BattleStatusActive,
			StartTime: uint64(time.Now().Add(-30 * time.Minute).Unix()),
			Duration:  7200,
		},
		CreatorTickLower:    -100,
		CreatorTickUpper:    100,
		OpponentTickLower:   -500,
		OpponentTickUpper:   500,
		CreatorInRangeTime:  1500,
		OpponentInRangeTime: 900,
	}
}

func pendingRange(id uint64) *domain.RangeBattle {
	return &domain.RangeBattle{
		BattleCore: domain.BattleCore{
			ID:       id,
			Creator:  testAddr(1),
			DEX:      domain.DEXUniswapV4,
			Status:   domain.BattleStatusPending,
			Duration: 7200,
		},
		CreatorTickLower: -100,
		CreatorTickUpper: 100,
	}
}

// newTestServer builds a facade over an engine with the given reader.
func newTestServer(t *testing.T, reader *fakeReader, opts func(*Options)) (*Server, *engine.Engine) {
	t.Helper()

	eng, err := engine.New(engine.Options{
		Reader:   reader,
		Logger:   zap.NewNop().Sugar(),
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}

	o := Options{
		Engine:   eng,
		Analyzer: battle.NewAnalyzer(reader),
		Logger:   zap.NewNop().Sugar(),
	}
	if opts != nil {
		opts(&o)
	}

	srv, err := NewServer(o)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv, eng
}

func doJSON(t *testing.T, h http.Handler, method, path string, body []byte, out any) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s response: %v\nbody: %s", method, path, err, rec.Body.String())
		}
	}
	return rec
}

func TestNewServerRequiresEngine(t *testing.T) {
	_, err := NewServer(Options{Analyzer: battle.NewAnalyzer(newFakeReader())})
	if err == nil {
		t.Fatal("expected an error without an engine")
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestStatusBeforeFirstCycle(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), nil)

	var resp StatusResponse
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/status", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Status != "stopped" {
		t.Errorf("Status = %q, want %q", resp.Status, "stopped")
	}
	if resp.Cycle != 0 {
		t.Errorf("Cycle = %d, want 0", resp.Cycle)
	}
}

func TestStatusAfterCycle(t *testing.T) {
	reader := newFakeReader()
	reader.add(activeRange(22))
	reader.add(pendingRange(7))
	srv, eng := newTestServer(t, reader, nil)

	eng.RunOnce(context.Background())

	var resp StatusResponse
	doJSON(t, srv.Handler(), http.MethodGet, "/status", nil, &resp)
	if resp.Cycle != 1 {
		t.Errorf("Cycle = %d, want 1", resp.Cycle)
	}
	if resp.ActiveBattles != 1 || resp.PendingBattles != 1 {
		t.Errorf("battle counts = %d/%d, want 1/1", resp.ActiveBattles, resp.PendingBattles)
	}
	if resp.LastCycleDuration == "" {
		t.Error("LastCycleDuration should be set after a cycle")
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	reader := newFakeReader()
	reader.add(activeRange(22))
	srv, eng := newTestServer(t, reader, nil)

	eng.RunOnce(context.Background())

	var resp SnapshotResponse
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/snapshot", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Cycle != 1 {
		t.Errorf("Cycle = %d, want 1", resp.Cycle)
	}
	if len(resp.Analyses) != 1 {
		t.Fatalf("Analyses = %d, want 1", len(resp.Analyses))
	}
	a := resp.Analyses[0]
	if a.BattleID != 22 || a.Type != "RANGE" || a.Status != "ACTIVE" {
		t.Errorf("analysis = %+v, want battle 22 RANGE ACTIVE", a)
	}
	if a.CreatorScore != "5000000000000000000" {
		t.Errorf("CreatorScore = %q, want live tuple value", a.CreatorScore)
	}
	if len(resp.Actions) == 0 {
		t.Error("expected at least one decided action")
	}
}

func TestBattleAnalysis(t *testing.T) {
	reader := newFakeReader()
	reader.add(activeRange(22))
	srv, _ := newTestServer(t, reader, nil)

	var resp AnalysisResponse
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/battles/22/analysis", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if resp.BattleID != 22 || resp.Type != "RANGE" {
		t.Errorf("analysis = %+v, want battle 22 RANGE", resp)
	}
	if resp.Leader != "creator" {
		t.Errorf("Leader = %q, want creator", resp.Leader)
	}
	if resp.Recommendation == "" {
		t.Error("Recommendation should not be empty")
	}
}

func TestBattleAnalysisBadID(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), nil)

	for _, path := range []string{"/battles/abc/analysis", "/battles/0/analysis"} {
		rec := doJSON(t, srv.Handler(), http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestBattleAnalysisUpstreamFailure(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/battles/404/analysis", nil, nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestLeaderboard(t *testing.T) {
	lb := &fakeLeaderboard{stats: &domain.PlayerStats{
		Address:       testAddr(1).Hex(),
		ELO:           1032,
		Wins:          3,
		Losses:        1,
		TotalBattles:  4,
		TotalValueWon: 2_500_000_000, // 25 USD at 8 decimals
	}}
	srv, _ := newTestServer(t, newFakeReader(), func(o *Options) { o.Leaderboard = lb })

	var resp LeaderboardResponse
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/leaderboard/"+testAddr(1).Hex(), nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.ELO != 1032 {
		t.Errorf("ELO = %d, want 1032", resp.ELO)
	}
	if resp.WinRate != 0.75 {
		t.Errorf("WinRate = %f, want 0.75", resp.WinRate)
	}
	if resp.TotalValueWonUSD != 25.0 {
		t.Errorf("TotalValueWonUSD = %f, want 25.0", resp.TotalValueWonUSD)
	}
}

func TestLeaderboardBadAddress(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), func(o *Options) {
		o.Leaderboard = &fakeLeaderboard{stats: &domain.PlayerStats{}}
	})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/leaderboard/nothex", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLeaderboardNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/leaderboard/"+testAddr(1).Hex(), nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func withRouting(o *Options) {
	o.Selector = routing.NewSelector(routing.SelectorOptions{Logger: zap.NewNop().Sugar()})
	o.Planner = routing.NewPlanner(routing.PlannerOptions{ArenaAddress: testAddr(9)})
}

func TestRoutePlan(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), withRouting)

	body := []byte(`{"source_chain":1,"amount":"50000000","sender":"0x1111111111111111111111111111111111111111"}`)
	var resp RoutePlanResponse
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/routes/plan", body, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	if !resp.Valid {
		t.Fatalf("Valid = false, issues: %v", resp.Issues)
	}
	if len(resp.Options) != 1 {
		t.Fatalf("Options = %d, want 1 (native only)", len(resp.Options))
	}
	if resp.Options[0].Provider != "cctp" {
		t.Errorf("Provider = %q, want cctp", resp.Options[0].Provider)
	}
	if resp.Plan == nil {
		t.Fatal("Plan should be built for a valid intent")
	}
	last := resp.Plan.Steps[len(resp.Plan.Steps)-1]
	if last.Kind != "create_battle" {
		t.Errorf("last step = %q, want create_battle", last.Kind)
	}
}

func TestRoutePlanJoinsNamedBattle(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), withRouting)

	body := []byte(`{"source_chain":1,"amount":"50000000","sender":"0x1111111111111111111111111111111111111111","battle_id":42}`)
	var resp RoutePlanResponse
	doJSON(t, srv.Handler(), http.MethodPost, "/routes/plan", body, &resp)

	if resp.Plan == nil {
		t.Fatal("Plan should be built")
	}
	last := resp.Plan.Steps[len(resp.Plan.Steps)-1]
	if last.Kind != "join_battle" {
		t.Errorf("last step = %q, want join_battle", last.Kind)
	}
}

func TestRoutePlanInvalidIntent(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), withRouting)

	body := []byte(`{"source_chain":999,"amount":"50000000","sender":"0x1111111111111111111111111111111111111111"}`)
	var resp RoutePlanResponse
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/routes/plan", body, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (validation reported in body)", rec.Code)
	}
	if resp.Valid {
		t.Error("Valid = true, want false for an unsupported chain")
	}
	if len(resp.Options) != 0 || resp.Plan != nil {
		t.Error("invalid intents must produce no options and no plan")
	}
}

func TestRoutePlanBadRequests(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), withRouting)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"bad sender", `{"source_chain":1,"amount":"50000000","sender":"nope"}`},
		{"bad amount", `{"source_chain":1,"amount":"12.5","sender":"0x1111111111111111111111111111111111111111"}`},
	}
	for _, tc := range cases {
		rec := doJSON(t, srv.Handler(), http.MethodPost, "/routes/plan", []byte(tc.body), nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestRoutePlanNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), nil)

	body := []byte(`{"source_chain":1,"amount":"50000000","sender":"0x1111111111111111111111111111111111111111"}`)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/routes/plan", body, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, newFakeReader(), nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/status", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
