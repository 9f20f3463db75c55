package server

import "time"

// ProtocolVersion tags every wire message so clients can detect skew.
const ProtocolVersion = 1

const (
	// tickRate is the simulation frequency in ticks per second.
	tickRate = 10

	// writeWait bounds a single websocket write.
	writeWait = 5 * time.Second

	heartbeatInterval = 2 * time.Second

	// disconnectAfter is the heartbeat silence that evicts a session's
	// subscriber. The session itself survives for sessionExpiry so a
	// reconnect resumes the run.
	disconnectAfter = 30 * time.Second

	// sessionExpiry is how long an unsubscribed session is retained.
	sessionExpiry = 10 * time.Minute

	// persistEveryTicks spaces out periodic run snapshots.
	persistEveryTicks = 50
)

// TickRate exposes the simulation frequency for diagnostics.
func TickRate() int { return tickRate }

// HeartbeatInterval is the cadence clients are expected to heartbeat at.
func HeartbeatInterval() time.Duration { return heartbeatInterval }
