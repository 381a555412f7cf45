// Package codec decodes and encodes the fixed-layout little-endian
// structures that make up one FFXIV bundle: the bundle header, its
// messages, the IPC envelope inside a segment-type-3 message, and the
// five typed IPC payloads this proxy understands.
package codec

import "errors"

// ErrIncomplete means the buffer is shorter than the structure being
// decoded. The caller should keep the bytes and retry once more arrive.
var ErrIncomplete = errors.New("codec: incomplete data")

// ErrInvalid means the buffer is long enough but structurally
// contradicts itself (bad magic, an over-long length, a corrupt zlib
// stream). The frame cannot be salvaged.
var ErrInvalid = errors.New("codec: invalid data")
