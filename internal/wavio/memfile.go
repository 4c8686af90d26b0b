package wavio

import (
	"errors"
	"io"
)

var errNegativeOffset = errors.New("wavio: negative offset")

// MemFile is an in-memory io.WriteSeeker. The WAV encoder seeks back to patch
// chunk sizes, which bytes.Buffer cannot do.
type MemFile struct {
	buf []byte
	pos int
}

func (m *MemFile) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		if end > cap(m.buf) {
			grown := make([]byte, end, 2*end)
			copy(grown, m.buf)
			m.buf = grown
		} else {
			m.buf = m.buf[:end]
		}
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *MemFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, errors.New("wavio: invalid whence")
	}
	if abs < 0 {
		return 0, errNegativeOffset
	}
	m.pos = int(abs)
	return abs, nil
}

// Bytes returns the written contents. The slice aliases the file.
func (m *MemFile) Bytes() []byte {
	return m.buf
}
