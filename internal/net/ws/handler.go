// Package ws owns the per-connection WebSocket loop: one reader goroutine
// per client, dispatching input events into the hub.
package ws

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	server "purrfect-run/server"
)

type HandlerConfig struct {
	Logger *log.Logger
}

type Handler struct {
	hub      *server.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

// clientMessage is the single envelope for every client input event. Only
// the fields relevant to the given type are read.
type clientMessage struct {
	Ver         int    `json:"ver,omitempty"`
	Type        string `json:"type"`
	Seed        uint32 `json:"seed,omitempty"`
	CharacterID string `json:"characterId,omitempty"`
	CardID      string `json:"cardId,omitempty"`
	ItemID      string `json:"itemId,omitempty"`
	SkillID     string `json:"skillId,omitempty"`
	UpgradeID   string `json:"upgradeId,omitempty"`
	NodeID      string `json:"nodeId,omitempty"`
	SentAt      int64  `json:"sentAt,omitempty"`
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	sessionID := r.URL.Query().Get("id")
	if sessionID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", sessionID, err)
		return
	}

	sub, initial, ok := h.hub.Subscribe(sessionID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown session")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	data, err := json.Marshal(initial)
	if err != nil {
		h.logger.Printf("failed to marshal initial state for %s: %v", sessionID, err)
		h.hub.Disconnect(sessionID)
		return
	}
	if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
		h.hub.Disconnect(sessionID)
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(sessionID)
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", sessionID, err)
			continue
		}

		switch msg.Type {
		case "select_character":
			h.hub.SelectCharacter(sessionID, msg.CharacterID)
		case "new_run":
			h.hub.StartRun(sessionID, msg.Seed)
		case "click":
			h.hub.Click(sessionID)
		case "hit_boss":
			h.hub.HitBoss(sessionID)
		case "open_boss":
			h.hub.OpenBoss(sessionID)
		case "close_boss":
			h.hub.CloseBoss(sessionID)
		case "pick_reward":
			h.hub.PickReward(sessionID, msg.CardID)
		case "buy_shop":
			h.hub.BuyShop(sessionID, msg.ItemID)
		case "trigger_skill":
			h.hub.TriggerSkill(sessionID, msg.SkillID)
		case "buy_meta":
			h.hub.BuyMetaUpgrade(sessionID, msg.UpgradeID)
		case "buy_meta_node":
			h.hub.BuyMetaNode(sessionID, msg.NodeID)
		case "abandon":
			h.hub.AbandonRun(sessionID)
		case "dismiss_summary":
			h.hub.DismissSummary(sessionID)
		case "heartbeat":
			now := time.Now()
			rtt, ok := h.hub.UpdateHeartbeat(sessionID, now, msg.SentAt)
			if !ok {
				continue
			}
			ack := heartbeatAck{
				Ver:        server.ProtocolVersion,
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}
			data, err := json.Marshal(ack)
			if err != nil {
				h.logger.Printf("failed to marshal heartbeat ack for %s: %v", sessionID, err)
				continue
			}
			if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
				h.hub.Disconnect(sessionID)
				return
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, sessionID)
		}
	}
}

type heartbeatAck struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}
