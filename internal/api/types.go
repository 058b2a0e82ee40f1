package api

// ServerStatus is the managed server as reported by GET /status.
type ServerStatus struct {
	Running bool   `json:"running" yaml:"running"`
	Type    string `json:"type" yaml:"type"`
	Version string `json:"version" yaml:"version"`
	Memory  string `json:"memory" yaml:"memory"`
	Players string `json:"players" yaml:"players"` // "<used>/<max>"
}

// TunnelStatus is the network tunnel as reported by GET /tunnel.
type TunnelStatus struct {
	Mode    string `json:"mode" yaml:"mode"`
	Running bool   `json:"running" yaml:"running"`
	URL     string `json:"url" yaml:"url"`
}

// Ack is the reply to POST /start and POST /stop.
type Ack struct {
	Message string `json:"message" yaml:"message"`
	// Success is nil when the server did not say. The server answers 200 with
	// success=false when the command was redundant on its side.
	Success   *bool  `json:"success,omitempty" yaml:"success,omitempty"`
	RequestID string `json:"-" yaml:"-"`
}

// Rejected reports whether the server explicitly refused the command.
func (a Ack) Rejected() bool {
	return a.Success != nil && !*a.Success
}

// Wire shapes: pointers mark fields that must be present.

type serverStatusWire struct {
	Running *bool  `json:"running"`
	Type    string `json:"type"`
	Version string `json:"version"`
	Memory  string `json:"memory"`
	Players string `json:"players"`
}

type tunnelStatusWire struct {
	Mode    string `json:"mode"`
	Running *bool  `json:"running"`
	URL     string `json:"url"`
}
