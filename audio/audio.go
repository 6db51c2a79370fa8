package audio

import (
	"fmt"
	"strings"
)

// Default capture format requested from the platform backend. The backend
// converts the device's native stream to this shape; dsp.Normalize takes it
// the rest of the way to the engine format.
const (
	DefaultSampleRate = 44100
	DefaultChannels   = 1
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth reports whether a device name looks like a Bluetooth headset.
// Bluetooth input profiles cap at telephony sample rates and hurt
// transcription quality, so capture start logs a warning for them.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DataCallback receives interleaved S16LE PCM as it arrives from the device.
type DataCallback func(data []byte, frameCount uint32)

// Callbacks bundles the per-capture notifications a backend delivers.
// Interrupt fires when the device stops on its own (disconnect, backend
// failure) rather than by request.
type Callbacks struct {
	Data      DataCallback
	Interrupt func(err error)
}

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig, cbs Callbacks) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
}

// RawCapture is an accumulated capture buffer in the shape the device
// delivered it: interleaved S16 samples tagged with rate and channel count.
type RawCapture struct {
	PCM        []int16
	SampleRate int
	Channels   int
}

// Frames returns the number of whole sample frames in the buffer.
func (r RawCapture) Frames() int {
	if r.Channels <= 0 {
		return 0
	}
	return len(r.PCM) / r.Channels
}

// Duration returns the buffer length in seconds of audio.
func (r RawCapture) Duration() float64 {
	if r.SampleRate <= 0 {
		return 0
	}
	return float64(r.Frames()) / float64(r.SampleRate)
}

// FindDevice resolves a device by case-insensitive substring match against
// the enumerated capture devices. An empty name selects the system default
// (nil). An unmatched name is an error so a typo never silently records
// from the wrong microphone.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	needle := strings.ToLower(name)
	for i, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no capture device matching %q", name)
}
