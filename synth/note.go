package synth

import (
	"github.com/cwbudde/algo-sfx/params"
)

// Note selects the pitch of a play or preview request. The zero value means
// the current frequency parameter.
type Note struct {
	hz   float64
	name string
}

// Hz requests an explicit frequency.
func Hz(f float64) Note { return Note{hz: f} }

// Name requests a note by name, such as "C4" or "F#3".
func Name(n string) Note { return Note{name: n} }

func (n Note) resolve(current float64) (float64, error) {
	switch {
	case n.name != "":
		f, err := params.NoteToFrequency(n.name)
		if err != nil {
			return 0, err
		}
		return params.Clamp(params.KeyFrequency, f), nil
	case n.hz != 0:
		return params.Clamp(params.KeyFrequency, n.hz), nil
	default:
		return current, nil
	}
}
