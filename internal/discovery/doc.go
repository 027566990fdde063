// Package discovery advertises and finds clocks on the local network with
// multicast DNS.
//
// A running segclockd registers an "_http._tcp" service whose TXT record
// carries "model=segclock" and the daemon version. The Scanner browses the
// same service type and keeps only entries with that model marker, so other
// HTTP services on the LAN are ignored.
//
// # Usage Example
//
//	// Daemon side
//	adv, err := discovery.Advertise("Hall Clock", 80, version.Version)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adv.Shutdown()
//
//	// Client side
//	devices, err := discovery.NewScanner().ScanForDevices()
//	for _, d := range devices {
//	    fmt.Println(d)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
