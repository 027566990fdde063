package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("silent logger should not enable any level")
	}
}

func TestLogHTTPRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogHTTPRequest("10.0.0.2:5555", "POST", "/cfg", 5)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["resource"] != "/cfg" {
		t.Errorf("resource = %v, want /cfg", fields["resource"])
	}
	if fields["content_length"] != int64(5) {
		t.Errorf("content_length = %v, want 5", fields["content_length"])
	}
}

func TestDumpsAreCapped(t *testing.T) {
	data := []byte(strings.Repeat("a", maxDumpBytes+10))

	if got := asciiDump(data); len(got) != maxDumpBytes {
		t.Errorf("asciiDump length = %d, want %d", len(got), maxDumpBytes)
	}
	if got := hexDump(data); !strings.HasSuffix(got, "...") {
		t.Errorf("hexDump should mark truncation, got suffix %q", got[len(got)-5:])
	}
	if got := asciiDump([]byte{0x00, 'A', '\n'}); got != ".A." {
		t.Errorf("asciiDump = %q, want %q", got, ".A.")
	}
}
