package protocol

import "errors"

var (
	ErrNotFound         = errors.New("protocol: path not found or wrong kind")
	ErrUnsupportedEntry = errors.New("protocol: entry is neither file nor directory")
	ErrProtocol         = errors.New("protocol: stream violation")
	ErrNotADirectory    = errors.New("protocol: destination is not a directory")
	ErrDecode           = errors.New("protocol: invalid utf-8 string")
	ErrConnectionClosed = errors.New("protocol: connection closed before declared length")
	ErrFileTooLarge     = errors.New("protocol: file exceeds int32 length field")

	// Refinements of ErrProtocol. Functions that return them join ErrProtocol
	// so callers can match either.
	ErrUnknownTag    = errors.New("protocol: unknown type tag")
	ErrInvalidLength = errors.New("protocol: invalid length")
	ErrInvalidName   = errors.New("protocol: invalid entry name")
)
