package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device represents a clock discovered on the network
type Device struct {
	// Name is the mDNS instance name (e.g., "Hall Clock")
	Name string

	// Hostname is the mDNS hostname (e.g., "pi-hall.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Version is the daemon version from the TXT record
	Version string

	// Metadata contains all mDNS TXT record data
	// Common fields: "model=segclock", "version=v1.2.0", "path=/"
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("segclock %q (%s) at %s:%d", d.Name, d.Hostname, d.IP, d.Port)
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + d.Addr()
}

// Addr returns host:port suitable for dialing
func (d *Device) Addr() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
