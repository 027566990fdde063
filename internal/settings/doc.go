// Package settings persists the clock's user settings.
//
// Settings live in a single YAML file, by default
// $XDG_CONFIG_HOME/segclock/settings.yaml (or the platform equivalent).
// Writes go to a temporary file that is renamed over the original, so a
// crash mid-save never leaves a truncated file behind.
//
// Besides typed access through Settings, the Store exposes the flat
// key/value view the configuration form uses:
//
//	netssid     Wi-Fi network name (max 32 bytes)
//	netpw       Wi-Fi password (max 64 bytes)
//	timezone    IANA zone name, empty for UTC
//	brightness  display level 0..15
package settings
