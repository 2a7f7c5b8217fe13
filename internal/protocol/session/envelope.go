package session

import (
	"fmt"
	"io"

	"github.com/danmuck/treexfer/internal/protocol"
	"github.com/danmuck/treexfer/internal/protocol/codec"
)

// Envelope precedes the first tree node. TotalSize is advisory and only sizes
// a progress display.
type Envelope struct {
	Kind      protocol.Tag
	TotalSize int32
}

func WriteEnvelope(w io.Writer, env Envelope) error {
	if err := validKind(env.Kind); err != nil {
		return err
	}
	if err := codec.WriteTag(w, env.Kind); err != nil {
		return err
	}
	return codec.WriteInt32(w, env.TotalSize)
}

func ReadEnvelope(r io.Reader) (Envelope, error) {
	kind, err := codec.ReadTag(r)
	if err != nil {
		return Envelope{}, err
	}
	if err := validKind(kind); err != nil {
		return Envelope{}, err
	}
	size, err := codec.ReadInt32(r)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: kind, TotalSize: size}, nil
}

func validKind(kind protocol.Tag) error {
	if kind == protocol.TagFile || kind == protocol.TagDir {
		return nil
	}
	return fmt.Errorf("%w: %w: envelope kind %s", protocol.ErrProtocol, protocol.ErrUnknownTag, kind)
}
