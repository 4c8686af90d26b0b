package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/braheezy/shine-mp3/pkg/mp3"

	"github.com/cwbudde/algo-sfx/internal/wavio"
)

// MP3FrameSize is the sample count of one MPEG-1 Layer III frame.
const MP3FrameSize = 1152

// EncodeWAV writes b as a 16-bit mono RIFF/WAVE file. Samples go through
// PCM16 first so the stored values are exactly round(s*32768).
func EncodeWAV(b *Buffer) ([]byte, error) {
	data := make([]float32, len(b.samples))
	for i, s := range b.samples {
		data[i] = float32(PCM16(s)) / 32768
	}
	var f wavio.MemFile
	if err := wavio.WriteMono(&f, data, b.sampleRate); err != nil {
		return nil, &EncodeError{Format: FormatWAV, Err: err}
	}
	return f.Bytes(), nil
}

// EncodeMP3 writes b as constant bitrate mono MP3. The last frame is padded
// with silence to a full MP3FrameSize.
func EncodeMP3(b *Buffer) ([]byte, error) {
	pcm := b.PCM16()
	if rem := len(pcm) % MP3FrameSize; rem != 0 {
		pcm = append(pcm, make([]int16, MP3FrameSize-rem)...)
	}
	enc := mp3.NewEncoder(b.sampleRate, 1)
	var out bytes.Buffer
	if err := enc.Write(&out, pcm); err != nil {
		return nil, &EncodeError{Format: FormatMP3, Err: err}
	}
	if out.Len() == 0 {
		return nil, &EncodeError{Format: FormatMP3, Err: fmt.Errorf("encoder produced no data")}
	}
	return out.Bytes(), nil
}

// Save writes data to path, creating parent directories.
func Save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
