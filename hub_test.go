package server

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"purrfect-run/server/internal/state"
)

var hubEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// sharedStores hands every hub instance the same per-session store so
// persistence survives a simulated server restart.
func sharedStores() func(string) state.Store {
	var mu sync.Mutex
	stores := make(map[string]state.Store)
	return func(id string) state.Store {
		mu.Lock()
		defer mu.Unlock()
		if s, ok := stores[id]; ok {
			return s
		}
		s := state.NewMemoryStore()
		stores[id] = s
		return s
	}
}

func newTestHub(clock *testClock, stores func(string) state.Store) *Hub {
	cfg := DefaultHubConfig()
	cfg.Logger = log.New(io.Discard, "", 0)
	cfg.Clock = clock.Now
	if stores != nil {
		cfg.NewStore = stores
	}
	return NewHubWithConfig(cfg)
}

func TestJoinAssignsSessionIDs(t *testing.T) {
	h := newTestHub(&testClock{now: hubEpoch}, nil)
	first := h.Join()
	second := h.Join()
	if first.ID != "player-1" || second.ID != "player-2" {
		t.Fatalf("ids %q, %q", first.ID, second.ID)
	}
	if first.Ver != ProtocolVersion {
		t.Fatalf("protocol version %d", first.Ver)
	}
	if first.Resumed {
		t.Fatal("fresh join should not be resumed")
	}
	if len(first.Characters) == 0 {
		t.Fatal("roster missing")
	}
	if first.State.Active {
		t.Fatal("fresh session should have no live run")
	}
}

func TestJoinAsReusesLiveSession(t *testing.T) {
	h := newTestHub(&testClock{now: hubEpoch}, nil)
	h.JoinAs("cat-lover")
	if !h.SelectCharacter("cat-lover", "guardianCat") {
		t.Fatal("select failed")
	}
	resp := h.JoinAs("cat-lover")
	if !resp.Resumed {
		t.Fatal("rejoin should be flagged as resumed")
	}
	if resp.State.CharacterID != "guardianCat" {
		t.Fatalf("session state lost: %+v", resp.State)
	}
}

func TestRunLifecycleThroughHub(t *testing.T) {
	clock := &testClock{now: hubEpoch}
	h := newTestHub(clock, nil)
	resp := h.Join()
	id := resp.ID

	if h.StartRun(id, 42) {
		t.Fatal("run without a character should be rejected")
	}
	if !h.SelectCharacter(id, "guardianCat") {
		t.Fatal("select failed")
	}
	if !h.StartRun(id, 42) {
		t.Fatal("start failed")
	}
	if !h.Click(id) {
		t.Fatal("click dispatch failed")
	}
	view := h.JoinAs(id).State
	if !view.Active || view.Happy != 1 || view.TotalPets != 1 {
		t.Fatalf("view %+v", view)
	}

	if !h.AbandonRun(id) {
		t.Fatal("abandon dispatch failed")
	}
	view = h.JoinAs(id).State
	if view.Active {
		t.Fatal("run should be over")
	}
	if view.CatSouls != 1 {
		t.Fatalf("souls %d, want 1", view.CatSouls)
	}
	if view.Summary == nil || view.Summary.Kind != "abandon" {
		t.Fatalf("summary %+v", view.Summary)
	}
}

func TestStartRunDerivesSeedFromClock(t *testing.T) {
	h := newTestHub(&testClock{now: hubEpoch}, nil)
	id := h.Join().ID
	h.SelectCharacter(id, "guardianCat")
	if !h.StartRun(id, 0) {
		t.Fatal("zero-seed start failed")
	}
	if h.JoinAs(id).State.Seed == 0 {
		t.Fatal("seed should be derived from the clock")
	}
}

func TestDispatchUnknownSession(t *testing.T) {
	h := newTestHub(&testClock{now: hubEpoch}, nil)
	if h.SelectCharacter("ghost", "guardianCat") || h.Click("ghost") || h.StartRun("ghost", 1) {
		t.Fatal("unknown session should reject dispatch")
	}
	if _, ok := h.MetaShop("ghost"); ok {
		t.Fatal("unknown session should have no meta shop")
	}
}

func TestMetaPersistsAcrossHubRestart(t *testing.T) {
	clock := &testClock{now: hubEpoch}
	stores := sharedStores()

	h1 := newTestHub(clock, stores)
	h1.JoinAs("returning")
	h1.SelectCharacter("returning", "guardianCat")
	h1.StartRun("returning", 42)
	h1.AbandonRun("returning")

	h2 := newTestHub(clock, stores)
	resp := h2.JoinAs("returning")
	if resp.Resumed {
		t.Fatal("a fresh hub has no live session to resume")
	}
	if resp.State.CatSouls != 1 {
		t.Fatalf("souls %d, want 1 carried across restart", resp.State.CatSouls)
	}
}

func TestRunResumesAcrossHubRestart(t *testing.T) {
	clock := &testClock{now: hubEpoch}
	stores := sharedStores()

	h1 := newTestHub(clock, stores)
	h1.JoinAs("returning")
	h1.SelectCharacter("returning", "guardianCat")
	h1.StartRun("returning", 42)
	h1.Click("returning")
	runID := h1.JoinAs("returning").State.RunID
	h1.Disconnect("returning")

	h2 := newTestHub(clock, stores)
	resp := h2.JoinAs("returning")
	if !resp.State.Active {
		t.Fatal("persisted run should resume")
	}
	if resp.State.RunID != runID {
		t.Fatalf("run id %q, want %q", resp.State.RunID, runID)
	}
	if resp.State.Happy != 1 {
		t.Fatalf("happy %v, want 1", resp.State.Happy)
	}
}

func TestStepTicksSessions(t *testing.T) {
	clock := &testClock{now: hubEpoch}
	h := newTestHub(clock, nil)
	id := h.Join().ID
	h.SelectCharacter(id, "summonerCat")
	h.StartRun(id, 42)

	// summonerCat starts with 0.5 pps and a 1.2 passive multiplier; ten
	// seconds of simulated time pays out 6 Happy.
	clock.Advance(10 * time.Second)
	h.Step(clock.Now(), 10)
	view := h.JoinAs(id).State
	if view.Happy != 6 {
		t.Fatalf("happy %v, want 6", view.Happy)
	}
}

func TestStepExpiresIdleSessions(t *testing.T) {
	clock := &testClock{now: hubEpoch}
	stores := sharedStores()
	h := newTestHub(clock, stores)
	id := h.JoinAs("idle").ID
	h.SelectCharacter(id, "guardianCat")
	h.StartRun(id, 42)
	h.AbandonRun(id)

	clock.Advance(sessionExpiry + time.Minute)
	h.Step(clock.Now(), 0.1)
	if h.SelectCharacter(id, "guardianCat") {
		t.Fatal("expired session should be gone")
	}

	// Progression survives the eviction through the store.
	resp := h.JoinAs(id)
	if resp.State.CatSouls != 1 {
		t.Fatalf("souls %d, want 1 after re-join", resp.State.CatSouls)
	}
}

func TestUpdateHeartbeat(t *testing.T) {
	clock := &testClock{now: hubEpoch}
	h := newTestHub(clock, nil)
	id := h.Join().ID

	rtt, ok := h.UpdateHeartbeat(id, clock.Now(), clock.Now().Add(-50*time.Millisecond).UnixMilli())
	if !ok {
		t.Fatal("heartbeat on a live session should succeed")
	}
	if rtt != 50*time.Millisecond {
		t.Fatalf("rtt %v, want 50ms", rtt)
	}
	if _, ok := h.UpdateHeartbeat("ghost", clock.Now(), 0); ok {
		t.Fatal("heartbeat on an unknown session should fail")
	}
}

func TestDiagnosticsSnapshot(t *testing.T) {
	clock := &testClock{now: hubEpoch}
	h := newTestHub(clock, nil)
	id := h.Join().ID
	h.SelectCharacter(id, "guardianCat")
	h.StartRun(id, 42)

	players := h.DiagnosticsSnapshot()
	if len(players) != 1 {
		t.Fatalf("%d players, want 1", len(players))
	}
	if players[0].ID != id || !players[0].RunActive {
		t.Fatalf("diagnostics %+v", players[0])
	}
}
