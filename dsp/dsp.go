// Package dsp converts raw capture buffers into the fixed format the
// transcription engine requires: mono float32 in [-1, 1] at EngineRate.
package dsp

import (
	"errors"
	"math"

	"sttmcp/audio"
)

// EngineRate is the sample rate whisper models are trained on.
const EngineRate = 16000

// ErrEmptyBuffer is returned for a capture with zero frames. Silence is
// not empty: a muted microphone still produces frames.
var ErrEmptyBuffer = errors.New("capture buffer contains no frames")

// Buffer is engine-ready audio: single channel, Samples in [-1, 1].
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the audio length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Normalize converts a RawCapture to the engine format: channels are
// averaged per frame into mono, amplitude is scaled to [-1, 1], and the
// result is resampled to EngineRate when the capture rate differs.
// A trailing partial frame is dropped.
func Normalize(raw audio.RawCapture) (Buffer, error) {
	frames := raw.Frames()
	if frames == 0 {
		return Buffer{}, ErrEmptyBuffer
	}

	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < raw.Channels; c++ {
			sum += float64(raw.PCM[i*raw.Channels+c])
		}
		mono[i] = float32(sum / float64(raw.Channels) / 32768.0)
	}

	if raw.SampleRate != EngineRate {
		mono = Resample(mono, raw.SampleRate, EngineRate)
	}
	return Buffer{Samples: mono, SampleRate: EngineRate}, nil
}

// Resample converts between sample rates by linear interpolation. Lossy
// but adequate for speech; transcription quality, not correctness,
// depends on it.
func Resample(input []float32, fromRate, toRate int) []float32 {
	if len(input) == 0 || fromRate == toRate {
		return input
	}
	ratio := float64(fromRate) / float64(toRate)
	outputLen := int(math.Ceil(float64(len(input)) / ratio))
	output := make([]float32, 0, outputLen)
	for i := 0; i < outputLen; i++ {
		srcIdx := float64(i) * ratio
		idx := int(srcIdx)
		frac := srcIdx - float64(idx)
		var sample float64
		if idx+1 < len(input) {
			sample = float64(input[idx])*(1.0-frac) + float64(input[idx+1])*frac
		} else {
			sample = float64(input[min(idx, len(input)-1)])
		}
		output = append(output, float32(sample))
	}
	return output
}

// silenceRMS is the energy floor below which a buffer is treated as
// carrying no speech. Chosen well under conversational speech levels
// (~0.05 RMS) but above line noise on typical capture chains.
const silenceRMS = 0.004

// RMS returns the root-mean-square amplitude of the buffer.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// IsSilence reports whether the buffer has no meaningful speech energy.
// Used for diagnostics only; silent captures still go to the engine.
func IsSilence(samples []float32) bool {
	return RMS(samples) < silenceRMS
}
