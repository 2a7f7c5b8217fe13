package session

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/danmuck/treexfer/internal/protocol"
	"github.com/danmuck/treexfer/internal/protocol/tree"
)

// Receiver materializes one incoming transfer per call.
type Receiver struct {
	FS tree.FS
	// OnEnvelope runs once the envelope is read, before any node.
	OnEnvelope func(Envelope)
	// OnFileReceived runs after each file is written, in traversal order.
	OnFileReceived func(path string)
}

// Receive reads the envelope and the tree that follows into destDir, which
// must be an existing directory.
func (rc *Receiver) Receive(r io.Reader, destDir string) (Result, error) {
	start := time.Now()
	engine := tree.New(rc.FS)
	res := Result{}

	info, err := engine.FS().Stat(destDir)
	if err != nil || !info.IsDir() {
		return res, fmt.Errorf("%w: %s", protocol.ErrNotADirectory, destDir)
	}

	cr := &countingReader{r: r}
	br := bufio.NewReader(cr)

	env, err := ReadEnvelope(br)
	if err != nil {
		return finish(res, cr.n.Load(), start), err
	}
	res.Kind = env.Kind
	res.Declared = env.TotalSize
	if rc.OnEnvelope != nil {
		rc.OnEnvelope(env)
	}

	onFile := func(path string) {
		res.Files++
		if rc.OnFileReceived != nil {
			rc.OnFileReceived(path)
		}
	}

	switch env.Kind {
	case protocol.TagFile:
		var path string
		path, err = engine.RecvFile(br, destDir)
		if err == nil {
			res.Path = path
			onFile(path)
		}
	default:
		engine.OnDirCreated = func(path string) {
			if res.Dirs == 0 {
				res.Path = path
			}
			res.Dirs++
		}
		err = engine.RecvDir(br, destDir, onFile)
	}
	return finish(res, cr.n.Load(), start), err
}
