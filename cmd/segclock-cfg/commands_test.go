package main

import "testing"

func TestClockURL(t *testing.T) {
	tests := []struct {
		addr string
		port int
		want string
	}{
		{"192.168.1.40", 80, "http://192.168.1.40:80"},
		{"192.168.1.40:8080", 80, "http://192.168.1.40:8080"},
		{"hall.local", 8080, "http://hall.local:8080"},
		{"fe80::1", 80, "http://[fe80::1]:80"},
		{"[fe80::1]:81", 80, "http://[fe80::1]:81"},
		{"http://clock.lan/", 80, "http://clock.lan"},
	}

	for _, tt := range tests {
		if got := clockURL(tt.addr, tt.port); got != tt.want {
			t.Errorf("clockURL(%q, %d) = %q, want %q", tt.addr, tt.port, got, tt.want)
		}
	}
}
