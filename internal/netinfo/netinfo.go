// Package netinfo reports the IPv4 address the clock shows when its button
// is pressed.
package netinfo

import (
	"net"

	"github.com/muurk/segclock/internal/logging"
	"go.uber.org/zap"
)

// Provider implements display.AddressSource.
type Provider struct {
	// Static, when set, is returned as-is.
	Static string
	// Interface restricts the lookup to one interface name (e.g. "wlan0").
	Interface string

	interfaces func() ([]net.Interface, error)
}

// New creates a provider. Both arguments may be empty.
func New(static, iface string) *Provider {
	return &Provider{Static: static, Interface: iface, interfaces: net.Interfaces}
}

// Address returns the first non-loopback IPv4 address of an up interface,
// or "" when none is found.
func (p *Provider) Address() string {
	if p.Static != "" {
		return p.Static
	}

	list := p.interfaces
	if list == nil {
		list = net.Interfaces
	}
	ifaces, err := list()
	if err != nil {
		logging.Warn("Failed to list network interfaces", zap.Error(err))
		return ""
	}

	for _, iface := range ifaces {
		if p.Interface != "" && iface.Name != p.Interface {
			continue
		}
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			logging.Debug("Failed to read interface addresses",
				zap.String("interface", iface.Name),
				zap.Error(err),
			)
			continue
		}
		if ip := FirstIPv4(addrs); ip != "" {
			return ip
		}
	}
	return ""
}

// FirstIPv4 returns the first non-loopback IPv4 address in addrs.
func FirstIPv4(addrs []net.Addr) string {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		default:
			continue
		}
		if ip.IsLoopback() {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}
