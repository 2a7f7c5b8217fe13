// Package session runs one transfer over one connection.
//
// Ownership boundary:
// - the one-time envelope (top-level tag + total size hint)
// - transport deadlines and byte accounting around the stream
// - Sender/Receiver orchestration over the tree engine
//
// A session never retries mid-stream. Any error means the connection must be
// closed and the whole transfer restarted.
package session
