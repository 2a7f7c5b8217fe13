package session

import (
	"time"

	"github.com/danmuck/treexfer/internal/protocol"
)

// Result describes one finished or failed transfer. On failure the counts
// cover what was exchanged before the error.
type Result struct {
	Kind protocol.Tag `json:"kind"`
	// Path is the source path on the sender and the created path on the
	// receiver.
	Path     string        `json:"path"`
	Files    int           `json:"files"`
	Dirs     int           `json:"dirs"`
	Bytes    int64         `json:"bytes"`
	Declared int32         `json:"declared"`
	Duration time.Duration `json:"duration"`
}
