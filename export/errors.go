package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format names an output encoding.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
	FormatOGG Format = "ogg"
)

// Extension returns the file suffix including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatWAV, FormatMP3, FormatOGG:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (use wav, mp3 or ogg)", s)
}

// ErrInvalidDuration is returned by Render for negative or non-finite lengths.
var ErrInvalidDuration = errors.New("export: invalid duration")

// EncodeError reports a failed encoder. The rendered buffer is untouched.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
