// Package protocol owns the treexfer wire vocabulary.
//
// Ownership boundary:
// - type tags and fixed field sizes
// - error kinds shared by codec, tree and session
// - codec/ length-prefixed primitives
// - tree/ recursive file/directory encoding
// - session/ one-shot envelope and transfer orchestration
//
// Wire layout (big-endian throughout):
//
//	string    int32 byte-length, UTF-8 bytes
//	tag       int8: 0x00 END, 0x01 FILE, 0x02 DIR
//	file      string name, int32 byte-length, raw bytes
//	directory string name, (tag, node)*, END
//	envelope  tag (FILE|DIR), int32 total size hint
package protocol
