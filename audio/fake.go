package audio

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"
)

const fakeFrameSize = 256 // frames per callback

var errDeviceGone = errors.New("fake capture device disconnected")

// FakeContext is a test double for Context. It counts device opens and
// tracks how many captures are held at once so tests can assert that the
// microphone is never shared.
type FakeContext struct {
	// Source samples repeated for as long as the capture runs. Empty
	// means silence.
	Source []int16
	// StartErr, when set, is returned from FakeCapture.Start to simulate
	// an unavailable device.
	StartErr error
	// InterruptAfter, when > 0, fires the interrupt callback after that
	// many frames have been delivered, simulating a mid-capture
	// disconnect.
	InterruptAfter int
	// DeviceList is what Devices() returns.
	DeviceList []DeviceInfo
	// Realtime paces delivery at the configured sample rate. Off, chunks
	// arrive every millisecond regardless of rate.
	Realtime bool

	mu      sync.Mutex
	opens   int
	held    int
	maxHeld int
}

func NewFakeContext() *FakeContext {
	return &FakeContext{Realtime: true}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return f.DeviceList, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, config CaptureConfig, cbs Callbacks) (CaptureDevice, error) {
	f.mu.Lock()
	f.opens++
	f.mu.Unlock()
	return &FakeCapture{parent: f, config: config, cbs: cbs}, nil
}

// Opens returns how many capture devices have been created.
func (f *FakeContext) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// MaxConcurrent returns the peak number of simultaneously held captures.
func (f *FakeContext) MaxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxHeld
}

// Held returns the number of captures currently started and not yet closed.
func (f *FakeContext) Held() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held
}

func (f *FakeContext) acquire() {
	f.mu.Lock()
	f.held++
	if f.held > f.maxHeld {
		f.maxHeld = f.held
	}
	f.mu.Unlock()
}

func (f *FakeContext) release() {
	f.mu.Lock()
	f.held--
	f.mu.Unlock()
}

type FakeCapture struct {
	parent *FakeContext
	config CaptureConfig
	cbs    Callbacks

	mu       sync.Mutex
	started  bool
	closed   bool
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (c *FakeCapture) Start() error {
	if err := c.parent.StartErr; err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	c.started = true
	c.parent.acquire()

	c.stopCh = make(chan struct{})
	c.feedDone = make(chan struct{})
	go c.feed()
	return nil
}

func (c *FakeCapture) feed() {
	defer close(c.feedDone)

	channels := int(c.config.Channels)
	if channels <= 0 {
		channels = 1
	}
	chunkSamples := fakeFrameSize * channels
	interval := time.Millisecond
	if c.config.SampleRate > 0 {
		interval = time.Duration(fakeFrameSize) * time.Second / time.Duration(c.config.SampleRate)
	}

	pos := 0
	fed := 0
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		chunk := make([]int16, chunkSamples)
		for i := range chunk {
			if len(c.parent.Source) > 0 {
				chunk[i] = c.parent.Source[pos%len(c.parent.Source)]
				pos++
			}
		}
		data := make([]byte, len(chunk)*2)
		for i, s := range chunk {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
		}
		if c.cbs.Data != nil {
			c.cbs.Data(data, fakeFrameSize)
		}
		fed += fakeFrameSize

		if n := c.parent.InterruptAfter; n > 0 && fed >= n {
			if c.cbs.Interrupt != nil {
				c.cbs.Interrupt(errDeviceGone)
			}
			return
		}

		pace := interval
		if !c.parent.Realtime {
			pace = time.Millisecond
		}
		select {
		case <-c.stopCh:
			return
		case <-time.After(pace):
		}
	}
}

func (c *FakeCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
	<-c.feedDone
}

func (c *FakeCapture) Close() {
	c.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started && !c.closed {
		c.closed = true
		c.parent.release()
	}
}
