// Package server owns the session hub: one run engine per connected
// player, the fixed-rate simulation loop, and the WebSocket broadcast of
// per-session state snapshots.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"purrfect-run/server/internal/content"
	"purrfect-run/server/internal/meta"
	"purrfect-run/server/internal/run"
	"purrfect-run/server/internal/state"
	"purrfect-run/server/logging"
)

// subscriber wraps a websocket connection with a write lock.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// session is one player's engine plus its persistence store. All access
// goes through hub methods under the hub mutex; the engine itself is not
// safe for concurrent use.
type session struct {
	id            string
	engine        *run.Engine
	store         state.Store
	lastHeartbeat time.Time
	lastRTT       time.Duration
	lastSeen      time.Time
}

// HubConfig carries the hub's injectable collaborators.
type HubConfig struct {
	Logger    *log.Logger
	Publisher logging.Publisher
	// NewStore builds the persistence store for a session. Defaults to an
	// in-memory store per session.
	NewStore func(sessionID string) state.Store
	// Clock supplies the hub's wall time; tests inject a fixed clock.
	Clock func() time.Time
}

// DefaultHubConfig returns the production defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		Logger:    log.Default(),
		Publisher: logging.NopPublisher(),
		NewStore:  func(string) state.Store { return state.NewMemoryStore() },
		Clock:     time.Now,
	}
}

// Hub owns every live session and subscriber.
type Hub struct {
	mu          sync.Mutex
	sessions    map[string]*session
	subscribers map[string]*subscriber
	nextID      atomic.Uint64
	tick        atomic.Uint64

	logger *log.Logger
	pub    logging.Publisher
	store  func(string) state.Store
	clock  func() time.Time
}

// NewHub creates a hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a hub; zero config fields fall back to defaults.
func NewHubWithConfig(cfg HubConfig) *Hub {
	def := DefaultHubConfig()
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	if cfg.Publisher == nil {
		cfg.Publisher = def.Publisher
	}
	if cfg.NewStore == nil {
		cfg.NewStore = def.NewStore
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	return &Hub{
		sessions:    make(map[string]*session),
		subscribers: make(map[string]*subscriber),
		logger:      cfg.Logger,
		pub:         cfg.Publisher,
		store:       cfg.NewStore,
		clock:       cfg.Clock,
	}
}

// Join registers a new session, rehydrating any persisted meta progression
// and run snapshot, and returns the initial snapshot.
func (h *Hub) Join() joinResponse {
	return h.JoinAs("")
}

// JoinAs registers a session under a caller-chosen id (a returning player)
// or a generated one when id is empty. Rejoining an id that is already
// live reuses the existing session.
func (h *Hub) JoinAs(id string) joinResponse {
	now := h.clock()

	h.mu.Lock()
	defer h.mu.Unlock()

	if id == "" {
		id = sessionIDFor(h.nextID.Add(1))
	}
	s, resumed := h.sessions[id]
	if s == nil {
		s = h.newSessionLocked(id, now)
		h.sessions[id] = s
	}
	s.lastHeartbeat = now
	s.lastSeen = now

	h.pub.Publish(context.Background(), logging.Event{
		Type:     "session.joined",
		Actor:    logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Payload:  map[string]any{"resumed": resumed},
	})

	return joinResponse{
		Ver:        ProtocolVersion,
		ID:         id,
		State:      s.engine.View(now),
		Characters: characterRoster(),
		MetaShop:   h.metaShopLocked(s),
		Resumed:    resumed,
	}
}

func (h *Hub) newSessionLocked(id string, now time.Time) *session {
	store := h.store(id)
	metaStore := meta.NewStore()
	if progress, ok := state.LoadMeta(store); ok {
		metaStore.Restore(progress)
	}
	engine := run.NewEngine(metaStore, logging.WithFields(h.pub, map[string]any{"player": id}))
	if snap, ok := state.LoadRun(store); ok {
		if !engine.RestoreSnapshot(snap, now) {
			if err := state.ClearRun(store); err != nil {
				h.logger.Printf("failed to clear stale run for %s: %v", id, err)
			}
		}
	}
	return &session{id: id, engine: engine, store: store}
}

func (h *Hub) metaShopLocked(s *session) metaShopInfo {
	levels := s.engine.Meta().Levels()
	return metaShopFor(levels, func(spec content.MetaUpgradeSpec, level int) int {
		return meta.UpgradeCost(spec.BaseCost, spec.CostGrowth, level)
	})
}

// Subscribe attaches a websocket connection to an existing session and
// returns the initial state message. A second subscription replaces the
// first.
func (h *Hub) Subscribe(sessionID string, conn *websocket.Conn) (*subscriber, stateMessage, bool) {
	now := h.clock()

	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		return nil, stateMessage{}, false
	}
	s.lastHeartbeat = now
	s.lastSeen = now

	if existing, ok := h.subscribers[sessionID]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn}
	h.subscribers[sessionID] = sub

	return sub, h.stateMessageLocked(s, now), true
}

// Disconnect detaches the subscriber and persists the session. The session
// itself is retained for sessionExpiry so a reconnect resumes the run.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	sub, subOK := h.subscribers[sessionID]
	if subOK {
		delete(h.subscribers, sessionID)
	}
	if s, ok := h.sessions[sessionID]; ok {
		s.lastSeen = h.clock()
		h.persistLocked(s)
	}
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
		h.pub.Publish(context.Background(), logging.Event{
			Type:     "session.disconnected",
			Actor:    logging.EntityRef{ID: sessionID, Kind: logging.EntityKindPlayer},
			Severity: logging.SeverityInfo,
			Category: logging.CategorySession,
		})
	}
}

// dispatch runs op on the named session under the hub lock, persisting the
// session afterwards when the op reports a mutation.
func (h *Hub) dispatch(sessionID string, op func(s *session, now time.Time) bool) bool {
	now := h.clock()

	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		return false
	}
	s.lastSeen = now
	mutated := op(s, now)
	if mutated {
		h.persistLocked(s)
	}
	return mutated
}

// SelectCharacter picks the character for the session's next run.
func (h *Hub) SelectCharacter(sessionID, characterID string) bool {
	return h.dispatch(sessionID, func(s *session, _ time.Time) bool {
		return s.engine.SelectCharacter(characterID)
	})
}

// StartRun begins a fresh run. A zero seed derives one from the clock.
func (h *Hub) StartRun(sessionID string, seed uint32) bool {
	return h.dispatch(sessionID, func(s *session, now time.Time) bool {
		if seed == 0 {
			seed = uint32(now.UnixNano())
		}
		return s.engine.NewRun(seed, now)
	})
}

// Click performs one pet on the current encounter.
func (h *Hub) Click(sessionID string) bool {
	return h.dispatch(sessionID, func(s *session, now time.Time) bool {
		s.engine.Click(now)
		return true
	})
}

// HitBoss performs one boss strike.
func (h *Hub) HitBoss(sessionID string) bool {
	return h.dispatch(sessionID, func(s *session, now time.Time) bool {
		s.engine.HitBoss(now)
		return true
	})
}

// OpenBoss engages the stage boss.
func (h *Hub) OpenBoss(sessionID string) bool {
	return h.dispatch(sessionID, func(s *session, now time.Time) bool {
		s.engine.OpenBoss(now)
		return true
	})
}

// CloseBoss disengages from the boss, keeping the remaining time limit.
func (h *Hub) CloseBoss(sessionID string) bool {
	return h.dispatch(sessionID, func(s *session, _ time.Time) bool {
		s.engine.CloseBoss()
		return true
	})
}

// PickReward commits a reward card choice.
func (h *Hub) PickReward(sessionID, cardID string) bool {
	return h.dispatch(sessionID, func(s *session, now time.Time) bool {
		return s.engine.ApplyReward(cardID, now)
	})
}

// BuyShop purchases a run-scoped shop item.
func (h *Hub) BuyShop(sessionID, itemID string) bool {
	return h.dispatch(sessionID, func(s *session, now time.Time) bool {
		return s.engine.BuyShopItem(itemID, now)
	})
}

// TriggerSkill activates an ability.
func (h *Hub) TriggerSkill(sessionID, skillID string) bool {
	return h.dispatch(sessionID, func(s *session, now time.Time) bool {
		return s.engine.TriggerSkill(skillID, now)
	})
}

// BuyMetaUpgrade purchases a skill meta upgrade with Cat Souls.
func (h *Hub) BuyMetaUpgrade(sessionID, upgradeID string) bool {
	return h.dispatch(sessionID, func(s *session, _ time.Time) bool {
		return s.engine.BuyMetaUpgrade(upgradeID)
	})
}

// BuyMetaNode purchases a permanent build node with Cat Souls.
func (h *Hub) BuyMetaNode(sessionID, nodeID string) bool {
	return h.dispatch(sessionID, func(s *session, _ time.Time) bool {
		return s.engine.BuyMetaNode(nodeID)
	})
}

// AbandonRun ends the live run early.
func (h *Hub) AbandonRun(sessionID string) bool {
	return h.dispatch(sessionID, func(s *session, now time.Time) bool {
		s.engine.Abandon(now)
		return true
	})
}

// DismissSummary acknowledges the end-of-run summary overlay.
func (h *Hub) DismissSummary(sessionID string) bool {
	return h.dispatch(sessionID, func(s *session, _ time.Time) bool {
		s.engine.DismissSummary()
		return true
	})
}

// MetaShop returns the current soul-shop listing for a session.
func (h *Hub) MetaShop(sessionID string) (metaShopInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[sessionID]
	if !ok {
		return metaShopInfo{}, false
	}
	return h.metaShopLocked(s), true
}

// UpdateHeartbeat records the latest heartbeat and derives the RTT.
func (h *Hub) UpdateHeartbeat(sessionID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		return 0, false
	}
	s.lastHeartbeat = receivedAt
	s.lastSeen = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			s.lastRTT = rtt
		}
	}
	return s.lastRTT, true
}

// RunSimulation drives the fixed-rate tick loop until stop closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	last := h.clock()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := h.clock()
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(tickRate)
			}
			last = now
			h.Step(now, dt)
		}
	}
}

// Step advances every session by dt and broadcasts fresh snapshots.
// Exposed so tests can drive the loop with a deterministic clock.
func (h *Hub) Step(now time.Time, dt float64) {
	tick := h.tick.Add(1)

	type outgoing struct {
		id   string
		sub  *subscriber
		data []byte
	}

	h.mu.Lock()
	var toClose []*subscriber
	var sends []outgoing
	for id, s := range h.sessions {
		s.engine.Tick(dt, now)

		if sub, ok := h.subscribers[id]; ok {
			if now.Sub(s.lastHeartbeat) > disconnectAfter {
				toClose = append(toClose, sub)
				delete(h.subscribers, id)
				h.logger.Printf("dropping subscriber %s after heartbeat timeout", id)
			} else if data, err := json.Marshal(h.stateMessageLocked(s, now)); err != nil {
				h.logger.Printf("failed to marshal state for %s: %v", id, err)
			} else {
				sends = append(sends, outgoing{id: id, sub: sub, data: data})
			}
		} else if now.Sub(s.lastSeen) > sessionExpiry {
			h.persistLocked(s)
			delete(h.sessions, id)
			continue
		}

		if tick%persistEveryTicks == 0 {
			h.persistLocked(s)
		}
	}
	h.mu.Unlock()

	for _, sub := range toClose {
		sub.conn.Close()
	}
	for _, out := range sends {
		if err := out.sub.WriteMessage(websocket.TextMessage, out.data); err != nil {
			h.logger.Printf("failed to send update to %s: %v", out.id, err)
			h.Disconnect(out.id)
		}
	}
}

func (h *Hub) stateMessageLocked(s *session, now time.Time) stateMessage {
	return stateMessage{
		Ver:        ProtocolVersion,
		Type:       "state",
		Tick:       h.tick.Load(),
		State:      s.engine.View(now),
		ServerTime: now.UnixMilli(),
	}
}

// persistLocked saves the session's run snapshot (clearing it when no run
// is live) and meta progression. Persistence failures are logged, never
// surfaced to gameplay.
func (h *Hub) persistLocked(s *session) {
	if snap, ok := s.engine.Snapshot(); ok {
		if err := state.SaveRun(s.store, snap); err != nil {
			h.logger.Printf("failed to persist run for %s: %v", s.id, err)
		}
	} else if err := state.ClearRun(s.store); err != nil {
		h.logger.Printf("failed to clear run for %s: %v", s.id, err)
	}
	if err := state.SaveMeta(s.store, s.engine.Meta().Progress()); err != nil {
		h.logger.Printf("failed to persist meta for %s: %v", s.id, err)
	}
}

// DiagnosticsSnapshot exposes heartbeat data for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsPlayer {
	h.mu.Lock()
	defer h.mu.Unlock()

	players := make([]diagnosticsPlayer, 0, len(h.sessions))
	for _, s := range h.sessions {
		players = append(players, diagnosticsPlayer{
			Ver:           ProtocolVersion,
			ID:            s.id,
			LastHeartbeat: s.lastHeartbeat.UnixMilli(),
			RTTMillis:     s.lastRTT.Milliseconds(),
			RunActive:     s.engine.Active(),
		})
	}
	return players
}

func sessionIDFor(n uint64) string {
	return fmt.Sprintf("player-%d", n)
}
