package wavio

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestMemFileSeekOverwrite(t *testing.T) {
	var m MemFile
	if _, err := m.Write([]byte("abcdef")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := m.Seek(2, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if _, err := m.Write([]byte("XY")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if pos, _ := m.Seek(0, io.SeekEnd); pos != 6 {
		t.Fatalf("end = %d, want 6", pos)
	}
	if got := string(m.Bytes()); got != "abXYef" {
		t.Fatalf("bytes = %q", got)
	}
	if _, err := m.Seek(-1, io.SeekStart); err == nil {
		t.Fatalf("expected error for negative offset")
	}
}

func TestWriteReadMonoRoundTrip(t *testing.T) {
	const rate = 22050
	data := make([]float32, 500)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*float64(i)/50))
	}
	var m MemFile
	if err := WriteMono(&m, data, rate); err != nil {
		t.Fatalf("WriteMono: %v", err)
	}

	path := filepath.Join(t.TempDir(), "x.wav")
	if err := os.WriteFile(path, m.Bytes(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	got, gotRate, err := ReadMonoFile(path)
	if err != nil {
		t.Fatalf("ReadMonoFile: %v", err)
	}
	if gotRate != rate {
		t.Fatalf("rate = %d, want %d", gotRate, rate)
	}
	if len(got) != len(data) {
		t.Fatalf("frames = %d, want %d", len(got), len(data))
	}
	for i := range data {
		if math.Abs(got[i]-float64(data[i])) > 2.0/32768 {
			t.Fatalf("sample %d = %f, want %f", i, got[i], data[i])
		}
	}
}

func TestReadMonoRejectsGarbage(t *testing.T) {
	if _, _, err := ReadMono(bytes.NewReader([]byte("not a wav file at all"))); err == nil {
		t.Fatalf("expected error")
	}
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	in := []float64{1, 2, 3}
	out, err := Resample(in, 44100, 44100)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if &out[0] != &in[0] {
		t.Fatalf("expected input slice back")
	}
}

func TestParseWorkers(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "4", want: 4},
		{in: " 2 ", want: 2},
		{in: "0", wantErr: true},
		{in: "", wantErr: true},
		{in: "many", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseWorkers(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseWorkers(%q) err = %v", tc.in, err)
		}
		if !tc.wantErr && got != tc.want {
			t.Fatalf("ParseWorkers(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if n, err := ParseWorkers("auto"); err != nil || n < 1 {
		t.Fatalf("auto = %d, %v", n, err)
	}
}

func TestReadMonoKeepsFullScale(t *testing.T) {
	var m MemFile
	if err := WriteMono(&m, []float32{0.5, -0.5, 0.25, 0}, 44100); err != nil {
		t.Fatalf("WriteMono: %v", err)
	}
	got, _, err := ReadMono(bytes.NewReader(m.Bytes()))
	if err != nil {
		t.Fatalf("ReadMono: %v", err)
	}
	want := []float64{0.5, -0.5, 0.25, 0}
	if len(got) != len(want) {
		t.Fatalf("frames = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1.0/32768 {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}
