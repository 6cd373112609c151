// Package bincodec implements component B: the little-endian fixed-width
// primitives used to encode AST payloads inside a snapshot (§4.B).
package bincodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/codex-vfs/vfsh/internal/vfserr"
)

const maxStringLen = math.MaxUint32

// Writer accumulates a binary payload in the wire format §4.B describes.
// It never fails: every method panics only on a programmer error (a string
// longer than 2^32-1 bytes), matching the spec's "fatal encode error".
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) U8(v uint8) *Writer {
	w.buf.WriteByte(v)
	return w
}

func (w *Writer) U32(v uint32) *Writer {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
	return w
}

func (w *Writer) I64(v int64) *Writer {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
	return w
}

func (w *Writer) Str(s string) *Writer {
	if uint64(len(s)) > maxStringLen {
		panic(fmt.Sprintf("bincodec: string of %d bytes exceeds u32 length prefix", len(s)))
	}
	w.U32(uint32(len(s)))
	w.buf.WriteString(s)
	return w
}

// Reader decodes a payload produced by Writer, failing with
// vfserr.ErrUnexpectedEOF on premature end.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, r.pos, len(r.data)-r.pos, vfserr.ErrUnexpectedEOF)
	}
	return nil
}

func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *Reader) I64() (int64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(r.data[r.pos : r.pos+8]))
	r.pos += 8
	return v, nil
}

func (r *Reader) Str() (string, error) {
	n, err := r.U32()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// Remaining reports how many bytes are left unconsumed.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// ExpectEOF fails with vfserr.ErrTrailingBytes if any bytes remain.
func (r *Reader) ExpectEOF() error {
	if r.Remaining() != 0 {
		return fmt.Errorf("%d bytes remain: %w", r.Remaining(), vfserr.ErrTrailingBytes)
	}
	return nil
}
