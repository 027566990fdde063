package i2c

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenMissingDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i2c-9")
	if _, err := Open(path); err == nil {
		t.Errorf("Open(%q) should fail", path)
	}
}

func TestTxErrorUnwrap(t *testing.T) {
	cause := errors.New("remote I/O error")
	err := error(&TxError{Addr: 0x70, Op: "write", Err: cause})

	if !errors.Is(err, cause) {
		t.Error("TxError should unwrap to its cause")
	}
	if got, want := err.Error(), "i2c write at 0x70: remote I/O error"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
