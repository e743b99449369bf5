package encoder

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	qrerrors "github.com/gsinghjay/mvp-qr-gen-sub001/internal/errors"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestParseColor(t *testing.T) {
	tests := []struct {
		spec    string
		want    color.RGBA
		wantErr bool
	}{
		{spec: "black", want: color.RGBA{0x00, 0x00, 0x00, 0xff}},
		{spec: "WHITE", want: color.RGBA{0xff, 0xff, 0xff, 0xff}},
		{spec: "#fff", want: color.RGBA{0xff, 0xff, 0xff, 0xff}},
		{spec: "#00ff00", want: color.RGBA{0x00, 0xff, 0x00, 0xff}},
		{spec: "#1A2B3C", want: color.RGBA{0x1a, 0x2b, 0x3c, 0xff}},
		{spec: "chartreuse", wantErr: true},
		{spec: "#12345", wantErr: true},
		{spec: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.spec)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseColor(%q) succeeded, want error", tt.spec)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseColor(%q) failed: %v", tt.spec, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.spec, got, tt.want)
		}
	}
}

func TestEncodeReturnsPNG(t *testing.T) {
	enc := NewEncoder()

	png, err := enc.Encode("https://example.com/r/abc12345", StyleOptions{}.WithDefaults())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatal("Encode() output is not a PNG")
	}
}

// TestEncodeDeterministic underpins idempotent re-rendering: the same payload
// and style must produce identical bytes.
func TestEncodeDeterministic(t *testing.T) {
	enc := NewEncoder()
	style := StyleOptions{FillColor: "#1A2B3C", BackColor: "white", Size: 256, Border: 4}

	first, err := enc.Encode("hello world", style)
	if err != nil {
		t.Fatalf("first Encode() failed: %v", err)
	}
	second, err := enc.Encode("hello world", style)
	if err != nil {
		t.Fatalf("second Encode() failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("Encode() is not deterministic for identical inputs")
	}
}

func TestEncodeRejectsBadColor(t *testing.T) {
	enc := NewEncoder()

	_, err := enc.Encode("hello", StyleOptions{FillColor: "nope", BackColor: "white", Size: 256, Border: 4})
	var encodingFailed qrerrors.ErrEncodingFailed
	if !errors.As(err, &encodingFailed) {
		t.Fatalf("Encode() error = %v, want ErrEncodingFailed", err)
	}
}

func TestEncodeRejectsEmptyPayload(t *testing.T) {
	enc := NewEncoder()

	_, err := enc.Encode("", StyleOptions{}.WithDefaults())
	var encodingFailed qrerrors.ErrEncodingFailed
	if !errors.As(err, &encodingFailed) {
		t.Fatalf("Encode() error = %v, want ErrEncodingFailed", err)
	}
}

func TestWithDefaults(t *testing.T) {
	got := StyleOptions{}.WithDefaults()
	if got.FillColor != DefaultFillColor || got.BackColor != DefaultBackColor || got.Size != DefaultSize {
		t.Errorf("WithDefaults() = %+v, defaults not applied", got)
	}

	custom := StyleOptions{FillColor: "red", Size: 512}.WithDefaults()
	if custom.FillColor != "red" || custom.Size != 512 {
		t.Errorf("WithDefaults() = %+v, explicit values overwritten", custom)
	}
}
