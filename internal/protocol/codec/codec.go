// Package codec reads and writes the length-prefixed primitives of the
// treexfer wire format on any byte stream.
//
// Readers never assume a single Read fills a buffer. A stream that ends
// before a declared length is delivered yields protocol.ErrConnectionClosed.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/danmuck/treexfer/internal/protocol"
)

// MaxStringBytes bounds a single string frame. Strings carry entry names, so
// anything larger indicates a desynchronized or hostile stream.
const MaxStringBytes = 64 * 1024

// ReadExact reads exactly n bytes. When the stream ends early the bytes
// collected so far are returned together with protocol.ErrConnectionClosed.
func ReadExact(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, invalidLength(int64(n))
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(r, buf)
	if err != nil {
		return buf[:got], closedEarly(err, int64(got), int64(n))
	}
	return buf, nil
}

// CopyExact streams exactly n bytes from r into dst.
func CopyExact(dst io.Writer, r io.Reader, n int64) (int64, error) {
	if n < 0 {
		return 0, invalidLength(n)
	}
	copied, err := io.CopyN(dst, r, n)
	if err != nil {
		return copied, closedEarly(err, copied, n)
	}
	return copied, nil
}

func ReadInt32(r io.Reader) (int32, error) {
	var b [protocol.Int32Size]byte
	if n, err := io.ReadFull(r, b[:]); err != nil {
		return 0, closedEarly(err, int64(n), protocol.Int32Size)
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func ReadInt8(r io.Reader) (int8, error) {
	var b [protocol.Int8Size]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, closedEarly(err, 0, protocol.Int8Size)
	}
	return int8(b[0]), nil
}

// ReadLength reads an int32 length field and rejects negative values.
func ReadLength(r io.Reader) (int64, error) {
	v, err := ReadInt32(r)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, invalidLength(int64(v))
	}
	return int64(v), nil
}

func ReadString(r io.Reader) (string, error) {
	b, err := ReadBytes(r, MaxStringBytes)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %d bytes", protocol.ErrDecode, len(b))
	}
	return string(b), nil
}

// ReadBytes reads a length-prefixed blob of at most limit bytes.
func ReadBytes(r io.Reader, limit int) ([]byte, error) {
	n, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	if n > int64(limit) {
		return nil, invalidLength(n)
	}
	return ReadExact(r, int(n))
}

func WriteInt32(w io.Writer, v int32) error {
	var b [protocol.Int32Size]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return writeFull(w, b[:])
}

func WriteInt8(w io.Writer, v int8) error {
	return writeFull(w, []byte{byte(v)})
}

func WriteTag(w io.Writer, t protocol.Tag) error {
	return WriteInt8(w, int8(t))
}

// ReadTag reads one tag byte and rejects values outside END/FILE/DIR.
func ReadTag(r io.Reader) (protocol.Tag, error) {
	v, err := ReadInt8(r)
	if err != nil {
		return 0, err
	}
	return protocol.ParseTag(v)
}

func WriteString(w io.Writer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %q", protocol.ErrDecode, s)
	}
	return WriteBytes(w, []byte(s))
}

// WriteBytes writes len(b) as an int32 followed by b.
func WriteBytes(w io.Writer, b []byte) error {
	if int64(len(b)) > protocol.MaxLength {
		return invalidLength(int64(len(b)))
	}
	if err := WriteInt32(w, int32(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return writeFull(w, b)
}

func writeFull(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}

func closedEarly(err error, got, want int64) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: got %d of %d bytes", protocol.ErrConnectionClosed, got, want)
	}
	return err
}

func invalidLength(n int64) error {
	return fmt.Errorf("%w: %w: %d", protocol.ErrProtocol, protocol.ErrInvalidLength, n)
}
