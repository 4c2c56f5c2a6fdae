package portaudio

import (
	"errors"
	"testing"

	pa "github.com/gordonklaus/portaudio"

	"github.com/normacomex/normabot/pkg/voicecall"
)

func TestDeviceError(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{errors.New("Operation not permitted"), voicecall.ErrPermissionDenied},
		{errors.New("microphone access denied by the user"), voicecall.ErrPermissionDenied},
		{errors.New("Invalid device"), voicecall.ErrDeviceUnavailable},
		{pa.DeviceUnavailable, voicecall.ErrDeviceUnavailable},
	}
	for _, tt := range tests {
		err := deviceError("open", tt.err)
		if !errors.Is(err, tt.want) {
			t.Errorf("deviceError(%v) = %v, want %v", tt.err, err, tt.want)
		}
		if !errors.Is(err, tt.err) {
			t.Errorf("deviceError(%v) lost the cause", tt.err)
		}
	}
}

func TestTransient(t *testing.T) {
	if !transient(pa.InputOverflowed) || !transient(pa.OutputUnderflowed) {
		t.Error("overflow and underflow should be transient")
	}
	if transient(pa.DeviceUnavailable) {
		t.Error("device loss is not transient")
	}
}
