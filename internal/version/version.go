// ABOUTME: Version constants for the player
// ABOUTME: Reported in the session handshake and CLI output
package version

const (
	Version      = "0.1.0"
	Product      = "Driftwave Player"
	Manufacturer = "Driftwave Audio"
)
