// Package ogg encodes mono audio as Opus packets in an Ogg container.
//
// Opus runs at 48 kHz only, so input at other rates is resampled first. The
// package needs libopus through cgo.
package ogg

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"gopkg.in/hraban/opus.v2"

	"github.com/cwbudde/algo-sfx/internal/wavio"
)

const (
	// OpusRate is the only rate the stream is written at.
	OpusRate = 48000
	// FrameSize is 20 ms at OpusRate.
	FrameSize = 960

	maxPacket = 4000
)

// ErrChannels is returned for anything but mono input.
var ErrChannels = errors.New("ogg: only mono input is supported")

// Config describes the input and the target quality.
type Config struct {
	Channels   int
	SampleRate int
	// Quality follows the Vorbis VBR scale from -1 to 10.
	Quality float64
}

// Bitrate maps Quality onto an Opus target bitrate in bits per second.
func (c Config) Bitrate() int {
	q := math.Max(-1, math.Min(10, c.Quality))
	return int(48000 + 16000*q)
}

// Encoder writes one Ogg Opus stream. Pages are buffered until drained by
// Encode or Finalize.
type Encoder struct {
	cfg     Config
	enc     *opus.Encoder
	w       *oggwriter.OggWriter
	out     bytes.Buffer
	pending []float32
	packet  []byte
	ts      uint32
	seq     uint16
	done    bool
}

// NewEncoder configures the Opus encoder and writes the stream headers.
func NewEncoder(cfg Config) (*Encoder, error) {
	if cfg.Channels != 1 {
		return nil, ErrChannels
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("ogg: invalid sample rate %d", cfg.SampleRate)
	}
	enc, err := opus.NewEncoder(OpusRate, 1, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("ogg: opus encoder: %w", err)
	}
	if err := enc.SetBitrate(cfg.Bitrate()); err != nil {
		return nil, fmt.Errorf("ogg: set bitrate: %w", err)
	}
	e := &Encoder{cfg: cfg, enc: enc, packet: make([]byte, maxPacket)}
	e.w, err = oggwriter.NewWith(&e.out, OpusRate, 1)
	if err != nil {
		return nil, fmt.Errorf("ogg: writer: %w", err)
	}
	return e, nil
}

// Encode consumes samples at the configured rate and returns the bytes
// completed so far, headers included on the first call.
func (e *Encoder) Encode(samples []float32) ([]byte, error) {
	if e.done {
		return nil, errors.New("ogg: encoder finalized")
	}
	in, err := e.resample(samples)
	if err != nil {
		return nil, err
	}
	e.pending = append(e.pending, in...)
	for len(e.pending) >= FrameSize {
		if err := e.writeFrame(e.pending[:FrameSize]); err != nil {
			return nil, err
		}
		e.pending = e.pending[FrameSize:]
	}
	return e.drain(), nil
}

// Finalize pads and writes the last partial frame and closes the stream.
func (e *Encoder) Finalize() ([]byte, error) {
	if e.done {
		return nil, nil
	}
	e.done = true
	if len(e.pending) > 0 {
		frame := make([]float32, FrameSize)
		copy(frame, e.pending)
		e.pending = nil
		if err := e.writeFrame(frame); err != nil {
			return nil, err
		}
	}
	if err := e.w.Close(); err != nil {
		return nil, fmt.Errorf("ogg: close: %w", err)
	}
	return e.drain(), nil
}

func (e *Encoder) writeFrame(frame []float32) error {
	n, err := e.enc.EncodeFloat32(frame, e.packet)
	if err != nil {
		return fmt.Errorf("ogg: encode frame: %w", err)
	}
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			SequenceNumber: e.seq,
			Timestamp:      e.ts,
		},
		Payload: append([]byte(nil), e.packet[:n]...),
	}
	e.seq++
	e.ts += FrameSize
	if err := e.w.WriteRTP(pkt); err != nil {
		return fmt.Errorf("ogg: write page: %w", err)
	}
	return nil
}

func (e *Encoder) resample(samples []float32) ([]float32, error) {
	if e.cfg.SampleRate == OpusRate {
		return samples, nil
	}
	in := make([]float64, len(samples))
	for i, s := range samples {
		in[i] = float64(s)
	}
	res, err := wavio.Resample(in, e.cfg.SampleRate, OpusRate)
	if err != nil {
		return nil, fmt.Errorf("ogg: resample: %w", err)
	}
	out := make([]float32, len(res))
	for i, s := range res {
		out[i] = float32(s)
	}
	return out, nil
}

func (e *Encoder) drain() []byte {
	out := append([]byte(nil), e.out.Bytes()...)
	e.out.Reset()
	return out
}

// Encode runs a whole buffer through a fresh Encoder and returns the
// concatenated stream.
func Encode(samples []float32, cfg Config) ([]byte, error) {
	e, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}
	body, err := e.Encode(samples)
	if err != nil {
		return nil, err
	}
	tail, err := e.Finalize()
	if err != nil {
		return nil, err
	}
	return append(body, tail...), nil
}
