package main

import (
	"context"
	"time"

	"sttmcp/dsp"
	"sttmcp/log"
	"sttmcp/recorder"
	"sttmcp/transcriber"
)

type sessionState int

const (
	stateIdle sessionState = iota
	stateCapturing
	stateTranscribing
	stateDone
	stateFailed
)

func (s sessionState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateCapturing:
		return "capturing"
	case stateTranscribing:
		return "transcribing"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// recordingSession carries one record-and-transcribe invocation through
// capture, normalization and inference. Each tool call gets its own
// session; it is never shared and dies with the handler.
type recordingSession struct {
	duration time.Duration
	language string
	rec      *recorder.Recorder
	eng      transcriber.Transcriber

	state sessionState
}

func newRecordingSession(d time.Duration, language string, rec *recorder.Recorder, eng transcriber.Transcriber) *recordingSession {
	return &recordingSession{duration: d, language: language, rec: rec, eng: eng}
}

func (s *recordingSession) fail(err error) error {
	s.state = stateFailed
	log.Errorf("session %s: %v", s.state, err)
	return err
}

// run executes the pipeline and returns the transcript. All failures come
// back as errors for the handler to wrap as tool errors; nothing here
// terminates the protocol session.
func (s *recordingSession) run(ctx context.Context) (string, error) {
	s.state = stateCapturing
	raw, err := s.rec.Record(ctx, s.duration)
	if err != nil {
		return "", s.fail(err)
	}
	log.Capture(raw.Duration(), raw.Frames(), raw.SampleRate, raw.Channels)

	buf, err := dsp.Normalize(raw)
	if err != nil {
		return "", s.fail(err)
	}
	if dsp.IsSilence(buf.Samples) {
		log.Info("capture has no speech energy; transcribing anyway")
	}

	s.state = stateTranscribing
	res, err := s.eng.Transcribe(ctx, buf.Samples, s.language)
	if err != nil {
		return "", s.fail(err)
	}

	s.state = stateDone
	return res.Text, nil
}
