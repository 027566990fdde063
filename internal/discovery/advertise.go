package discovery

import (
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/segclock/internal/logging"
	"go.uber.org/zap"
)

// Advertiser announces this clock on the LAN so segclock-cfg can find it.
type Advertiser struct {
	server *zeroconf.Server
	once   sync.Once
}

// TXTRecords returns the TXT strings a clock advertises.
func TXTRecords(version string) []string {
	return []string{
		ModelKey + "=" + ModelValue,
		"version=" + version,
		"path=/",
	}
}

// Advertise registers instance as an _http._tcp service on port.
func Advertise(instance string, port int, version string) (*Advertiser, error) {
	if instance == "" {
		return nil, fmt.Errorf("instance name is required")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, TXTRecords(version), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising on mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the advertisement. Safe to call more than once.
func (a *Advertiser) Shutdown() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		a.server.Shutdown()
		logging.Info("mDNS advertisement withdrawn")
	})
}
