// Package recorder drives bounded-duration microphone capture. A Recorder
// owns the platform audio context (opened lazily, kept for the process
// lifetime) and serializes capture so no two sessions hold the device at
// the same time.
package recorder

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"sttmcp/audio"
	"sttmcp/log"
)

var (
	// ErrDeviceUnavailable means no input device could be opened.
	ErrDeviceUnavailable = errors.New("audio input device unavailable")
	// ErrCaptureInterrupted means the device stopped mid-capture.
	ErrCaptureInterrupted = errors.New("audio capture interrupted")
)

type state int

const (
	stateIdle state = iota
	stateCapturing
	stateStopped
)

type Config struct {
	SampleRate int
	Channels   int
	// DeviceName selects a capture device by substring match; empty means
	// the system default.
	DeviceName string
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = audio.DefaultSampleRate
	}
	if c.Channels <= 0 {
		c.Channels = audio.DefaultChannels
	}
	return c
}

// Recorder records from one microphone. Safe for concurrent use;
// overlapping Record calls are serialized.
type Recorder struct {
	cfg        Config
	newContext func() (audio.Context, error)

	mu     sync.Mutex // guards everything below and the device itself
	ctx    audio.Context
	device *audio.DeviceInfo
	state  state
}

// New returns a Recorder using newContext to open the platform audio
// backend on first use. Injecting the constructor keeps the device out of
// global state and lets tests substitute audio.NewFakeContext.
func New(cfg Config, newContext func() (audio.Context, error)) *Recorder {
	return &Recorder{cfg: cfg.withDefaults(), newContext: newContext}
}

// Record captures from the configured device until d elapses or ctx is
// canceled, and returns the accumulated buffer. The device is released on
// every path. The capture loop itself enforces the bound: once d elapses
// the capture stops regardless of how many frames arrived.
func (r *Recorder) Record(ctx context.Context, d time.Duration) (audio.RawCapture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureContext(); err != nil {
		return audio.RawCapture{}, err
	}

	var (
		bufMu sync.Mutex
		pcm   []int16
	)
	interrupted := make(chan error, 1)

	cbs := audio.Callbacks{
		Data: func(data []byte, _ uint32) {
			bufMu.Lock()
			for i := 0; i+1 < len(data); i += 2 {
				pcm = append(pcm, int16(binary.LittleEndian.Uint16(data[i:])))
			}
			bufMu.Unlock()
		},
		Interrupt: func(err error) {
			select {
			case interrupted <- err:
			default:
			}
		},
	}

	dev, err := r.ctx.NewCapture(r.device, audio.CaptureConfig{
		SampleRate: uint32(r.cfg.SampleRate),
		Channels:   uint32(r.cfg.Channels),
	}, cbs)
	if err != nil {
		return audio.RawCapture{}, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	defer dev.Close()

	if err := dev.Start(); err != nil {
		return audio.RawCapture{}, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	r.state = stateCapturing
	defer func() { r.state = stateStopped }()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case err := <-interrupted:
		dev.Stop()
		return audio.RawCapture{}, fmt.Errorf("%w: %v", ErrCaptureInterrupted, err)
	case <-ctx.Done():
		dev.Stop()
		return audio.RawCapture{}, ctx.Err()
	}
	dev.Stop()

	bufMu.Lock()
	defer bufMu.Unlock()
	return audio.RawCapture{
		PCM:        pcm,
		SampleRate: r.cfg.SampleRate,
		Channels:   r.cfg.Channels,
	}, nil
}

// ensureContext opens the platform backend and resolves the configured
// device on first use. A failed open is retried on the next call; a
// successful one is cached for the process lifetime.
func (r *Recorder) ensureContext() error {
	if r.ctx != nil {
		return nil
	}
	ctx, err := r.newContext()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	dev, err := audio.FindDevice(ctx, r.cfg.DeviceName)
	if err != nil {
		ctx.Close()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if dev != nil && audio.IsBluetooth(dev.Name) {
		log.Warnf("capture device %q looks like a Bluetooth headset; expect reduced transcription quality", dev.Name)
	}
	r.ctx = ctx
	r.device = dev
	return nil
}

// Close releases the platform audio context.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != nil {
		r.ctx.Close()
		r.ctx = nil
	}
}
