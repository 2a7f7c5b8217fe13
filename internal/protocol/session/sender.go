package session

import (
	"bufio"
	"io"
	"time"

	"github.com/danmuck/treexfer/internal/protocol"
	"github.com/danmuck/treexfer/internal/protocol/tree"
)

// Sender pushes one file or directory per call.
type Sender struct {
	FS tree.FS
	// OnEnvelope runs just before the envelope is written.
	OnEnvelope func(Envelope)
	// OnFileSent runs after each file's contents are handed to the stream.
	OnFileSent func(path string, size int64)
}

// Send writes the envelope then the tree rooted at path, and flushes.
func (s *Sender) Send(w io.Writer, path string) (Result, error) {
	start := time.Now()
	engine := tree.New(s.FS)
	res := Result{Path: path}

	kind, _, err := engine.Classify(path)
	if err != nil {
		return res, err
	}
	res.Kind = kind
	sum, err := tree.Measure(engine.FS(), path)
	if err != nil {
		return res, err
	}
	res.Declared = sum.SizeHint()

	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	engine.OnFileSent = func(p string, size int64) {
		res.Files++
		if s.OnFileSent != nil {
			s.OnFileSent(p, size)
		}
	}

	engine.OnDirSent = func(string) {
		res.Dirs++
	}

	env := Envelope{Kind: kind, TotalSize: res.Declared}
	if s.OnEnvelope != nil {
		s.OnEnvelope(env)
	}
	if err := WriteEnvelope(bw, env); err != nil {
		return finish(res, cw.n.Load(), start), err
	}
	switch kind {
	case protocol.TagFile:
		err = engine.SendFile(bw, path)
	default:
		err = engine.SendDir(bw, path)
	}
	if err == nil {
		err = bw.Flush()
	}
	return finish(res, cw.n.Load(), start), err
}

func finish(res Result, n int64, start time.Time) Result {
	res.Bytes = n
	res.Duration = time.Since(start)
	return res
}
