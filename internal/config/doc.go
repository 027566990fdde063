// Package config remembers the clocks segclock-cfg has talked to.
//
// The registry is a YAML file next to the daemon's settings (clocks.yaml in
// the segclock configuration directory). It records each clock's last known
// address so a clock can be reached by name when mDNS is unavailable, and an
// optional default clock used when no clock is named on the command line.
//
// # Usage Example
//
//	reg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reg.UpdateClockLastSeen("Hall Clock", "192.168.1.40:80", "0.3.0")
//	reg.Preferences.DefaultClock = "Hall Clock"
//	if err := reg.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// Network passwords are never written to this file.
package config
