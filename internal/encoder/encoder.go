// Package encoder wraps the QR rendering library behind the small surface the
// lifecycle service needs: payload string + style options in, PNG bytes out.
package encoder

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	qrerrors "github.com/gsinghjay/mvp-qr-gen-sub001/internal/errors"
)

// Style bounds. Size is the output image edge length in pixels; Border toggles
// the quiet zone around the modules (0 disables it).
const (
	MinSize   = 64
	MaxSize   = 2048
	MaxBorder = 10
)

// Defaults applied when a request leaves style options empty.
const (
	DefaultFillColor = "black"
	DefaultBackColor = "white"
	DefaultSize      = 256
	DefaultBorder    = 4
)

// StyleOptions are the rendering options of a code. They are fixed once the
// image has been generated; a changed style means a re-render, never a record
// update.
type StyleOptions struct {
	FillColor string `json:"fill_color"`
	BackColor string `json:"back_color"`
	Size      int    `json:"size"`
	Border    int    `json:"border"`
}

// WithDefaults returns a copy with empty fields replaced by defaults.
func (s StyleOptions) WithDefaults() StyleOptions {
	if s.FillColor == "" {
		s.FillColor = DefaultFillColor
	}
	if s.BackColor == "" {
		s.BackColor = DefaultBackColor
	}
	if s.Size == 0 {
		s.Size = DefaultSize
	}
	return s
}

// namedColors covers the specifiers seen on printed codes; everything else
// must be hex.
var namedColors = map[string]color.RGBA{
	"black":  {0x00, 0x00, 0x00, 0xff},
	"white":  {0xff, 0xff, 0xff, 0xff},
	"red":    {0xff, 0x00, 0x00, 0xff},
	"green":  {0x00, 0x80, 0x00, 0xff},
	"blue":   {0x00, 0x00, 0xff, 0xff},
	"gray":   {0x80, 0x80, 0x80, 0xff},
	"yellow": {0xff, 0xff, 0x00, 0xff},
}

// ParseColor turns a color specifier into an RGBA value. Accepted forms are
// the named colors above and hex notation "#RGB" or "#RRGGBB".
func ParseColor(spec string) (color.RGBA, error) {
	if c, ok := namedColors[strings.ToLower(spec)]; ok {
		return c, nil
	}
	if !strings.HasPrefix(spec, "#") {
		return color.RGBA{}, fmt.Errorf("unknown color %q", spec)
	}
	hex := spec[1:]
	switch len(hex) {
	case 3:
		// Short form: each digit doubles, #abc == #aabbcc.
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return color.RGBA{}, fmt.Errorf("malformed color %q", spec)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("malformed color %q", spec)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Encoder renders payload strings into PNG images. The zero value is usable;
// rendering is a pure function of payload and style, so the same inputs always
// produce the same bytes.
type Encoder struct{}

// NewEncoder creates and returns a new Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode renders payload into a PNG of style.Size pixels per edge.
// Returns ErrEncodingFailed when the payload or options are rejected by the
// underlying library (e.g. payload exceeds QR capacity at medium error
// correction).
func (e *Encoder) Encode(payload string, style StyleOptions) ([]byte, error) {
	style = style.WithDefaults()

	fill, err := ParseColor(style.FillColor)
	if err != nil {
		return nil, qrerrors.ErrEncodingFailed{Reason: err.Error()}
	}
	back, err := ParseColor(style.BackColor)
	if err != nil {
		return nil, qrerrors.ErrEncodingFailed{Reason: err.Error()}
	}

	q, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, qrerrors.ErrEncodingFailed{Reason: err.Error()}
	}
	q.ForegroundColor = fill
	q.BackgroundColor = back
	q.DisableBorder = style.Border == 0

	png, err := q.PNG(style.Size)
	if err != nil {
		return nil, qrerrors.ErrEncodingFailed{Reason: err.Error()}
	}
	return png, nil
}
