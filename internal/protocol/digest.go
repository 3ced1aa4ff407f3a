package protocol

const Version = "1.0"

// Observer message types.
const (
	TypeSubscribe = "SUBSCRIBE"
	TypeDigest    = "DIGEST"
)

// TickDigest summarizes one tick for observers and the tick log.
type TickDigest struct {
	Type string `json:"type"`
	Tick uint64 `json:"tick"`

	Agents   int `json:"agents"`
	Spawning int `json:"spawning"`
	Hostiles int `json:"hostiles"`

	// Assignment counts by kind after the assigner pass.
	Assignments map[string]int `json:"assignments"`

	ActionsIssued int `json:"actions_issued"`
	MovesIssued   int `json:"moves_issued"`
	Drops         int `json:"drops"`
	Warnings      int `json:"warnings"`
	Spawned       int `json:"spawned"`
	Culled        int `json:"culled"`
}

// SubscribeMsg is the mandatory first observer frame.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// BootstrapResponse describes the running scenario to a new observer.
type BootstrapResponse struct {
	ProtocolVersion string `json:"protocol_version"`
	ScenarioID      string `json:"scenario_id"`
	Tick            uint64 `json:"tick"`
	TickRateHz      int    `json:"tick_rate_hz"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}
