package server

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"cogentcore.org/core/math32"

	"github.com/ayusman/giftwrap/internal/morph"
)

// frameMagic starts every binary frame message.
var frameMagic = [4]byte{'G', 'W', 'F', '1'}

// maxInstances bounds decoded ensemble sizes.
const maxInstances = 1 << 16

const matrixSize = 16 * 4

// ErrBadFrame is returned for binary frames that cannot be decoded.
var ErrBadFrame = errors.New("bad frame")

// frameHeader is the fixed little-endian prefix of a binary frame. It is
// followed by the tree and topper matrices, then the gift and bauble
// matrices, each as 16 column-major float32 values.
type frameHeader struct {
	Magic          [4]byte
	Seq            uint64
	Elapsed        float32
	Assembled      uint8
	_              [3]byte
	AutoRotate     float32
	GiftProgress   float32
	BaubleProgress float32
	Gifts          uint32
	Baubles        uint32
}

var headerSize = binary.Size(frameHeader{})

// EncodeFrame appends the binary form of f to buf, which is reset first.
func EncodeFrame(buf *bytes.Buffer, f *morph.Frame) error {
	buf.Reset()
	buf.Grow(headerSize + (2+len(f.Gifts)+len(f.Baubles))*matrixSize)

	h := frameHeader{
		Magic:          frameMagic,
		Seq:            f.Seq,
		Elapsed:        f.Elapsed,
		AutoRotate:     f.AutoRotateSpeed,
		GiftProgress:   float32(f.GiftProgress),
		BaubleProgress: float32(f.BaubleProgress),
		Gifts:          uint32(len(f.Gifts)),
		Baubles:        uint32(len(f.Baubles)),
	}
	if f.Assembled {
		h.Assembled = 1
	}

	for _, v := range []any{h, f.Tree, f.Topper, f.Gifts, f.Baubles} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("encode frame: %w", err)
		}
	}
	return nil
}

// DecodeFrame parses a message produced by EncodeFrame.
func DecodeFrame(data []byte) (*morph.Frame, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrBadFrame, len(data))
	}

	r := bytes.NewReader(data)
	var h frameHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if h.Magic != frameMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadFrame, h.Magic[:])
	}
	if h.Gifts > maxInstances || h.Baubles > maxInstances {
		return nil, fmt.Errorf("%w: %d gifts, %d baubles", ErrBadFrame, h.Gifts, h.Baubles)
	}
	want := headerSize + (2+int(h.Gifts)+int(h.Baubles))*matrixSize
	if len(data) != want {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrBadFrame, len(data), want)
	}

	f := &morph.Frame{
		Seq:             h.Seq,
		Elapsed:         h.Elapsed,
		Assembled:       h.Assembled != 0,
		AutoRotateSpeed: h.AutoRotate,
		GiftProgress:    float64(h.GiftProgress),
		BaubleProgress:  float64(h.BaubleProgress),
		Gifts:           make([]math32.Matrix4, h.Gifts),
		Baubles:         make([]math32.Matrix4, h.Baubles),
	}
	for _, v := range []any{&f.Tree, &f.Topper, f.Gifts, f.Baubles} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
	}
	return f, nil
}
