package models

import "time"

// HealthSample is one tick of stream telemetry shown on the broadcaster HUD.
type HealthSample struct {
	Uptime      string    `json:"uptime"`
	BitrateKbps int       `json:"bitrate_kbps"`
	FPS         int       `json:"fps"`
	At          time.Time `json:"at"`
}
