// Package playback streams the live graph to the default audio device.
package playback

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// ErrNoAudioDevice is returned when no output context can be created.
var ErrNoAudioDevice = errors.New("playback: no audio device")

// Source renders len(out) mono frames. graph.Graph satisfies it.
type Source interface {
	Process(out []float32)
}

// Reader adapts a Source to the float32 little-endian stream oto pulls from.
// Read runs on the audio goroutine and does not allocate once warmed up.
type Reader struct {
	src Source
	buf []float32
}

// NewReader pre-allocates room for frames samples per pull.
func NewReader(src Source, frames int) *Reader {
	if frames < 1 {
		frames = 1024
	}
	return &Reader{src: src, buf: make([]float32, frames)}
}

func (r *Reader) Read(p []byte) (int, error) {
	n := len(p) / 4
	for off := 0; off < n; {
		chunk := r.buf[:min(len(r.buf), n-off)]
		r.src.Process(chunk)
		for i, s := range chunk {
			binary.LittleEndian.PutUint32(p[(off+i)*4:], math.Float32bits(s))
		}
		off += len(chunk)
	}
	return n * 4, nil
}

// Device owns the oto context and the player pulling from a Reader.
type Device struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	started bool
}

// Open creates a mono float32 output at sampleRate. Only one Device may be
// open per process.
func Open(sampleRate int, src Source) (*Device, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAudioDevice, err)
	}
	<-ready

	return &Device{
		ctx:    ctx,
		player: ctx.NewPlayer(NewReader(src, 4096)),
	}, nil
}

// Start begins pulling audio. Extra calls are ignored.
func (d *Device) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started && d.player != nil {
		d.player.Play()
		d.started = true
	}
}

// Close stops the player. It is safe to call more than once.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	d.started = false
	return err
}
