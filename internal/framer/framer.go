// Package framer locates bundle boundaries in an append-only byte
// stream by magic scanning, tolerating resynchronization on malformed
// or adversarial data.
package framer

import (
	"bytes"
	"errors"

	"github.com/Vayhyr/XivMitmLatencyMitigator/internal/codec"
)

// Item is either a parsed Bundle or a Discarded byte span that could
// not be framed.
type Item struct {
	Bundle    codec.Bundle
	Discarded []byte
	IsBundle  bool
}

// Find scans buf for bundles, returning every item found in order and
// the unconsumed tail (which the caller must prepend to the next
// read). It never blocks and always makes progress: on invalid data it
// discards exactly one byte and rescans.
func Find(buf []byte) ([]Item, []byte) {
	var items []Item
	offset := 0

	for offset < len(buf) {
		magicPos, found := nextMagic(buf, offset)
		if !found {
			items = append(items, Item{Discarded: buf[offset:]})
			return items, nil
		}

		if magicPos != offset {
			items = append(items, Item{Discarded: buf[offset:magicPos]})
			offset = magicPos
		}

		if len(buf)-offset < codec.BundleHeaderSize {
			return items, buf[offset:]
		}

		bundle, consumed, err := codec.DecodeBundle(buf[offset:])
		switch {
		case err == nil:
			items = append(items, Item{Bundle: bundle, IsBundle: true})
			offset += consumed
		case errors.Is(err, codec.ErrIncomplete):
			return items, buf[offset:]
		case errors.Is(err, codec.ErrInvalid):
			items = append(items, Item{Discarded: buf[offset : offset+1]})
			offset++
		default:
			// Unreachable: DecodeBundle only ever returns the two
			// sentinel kinds above.
			items = append(items, Item{Discarded: buf[offset : offset+1]})
			offset++
		}
	}

	return items, nil
}

// nextMagic finds the earliest occurrence of either magic constant at
// or after offset. Near the end of buf, where fewer bytes remain than
// a full magic constant, it searches for the matching length-limited
// prefix instead so a magic constant spanning the next read is not
// missed.
func nextMagic(buf []byte, offset int) (int, bool) {
	remaining := len(buf) - offset
	needleA := codec.MagicA[:]
	needleB := codec.MagicB[:]
	if remaining < len(needleA) {
		needleA = needleA[:remaining]
		needleB = needleB[:remaining]
	}

	posA := indexFrom(buf, needleA, offset)
	posB := indexFrom(buf, needleB, offset)

	switch {
	case posA == -1 && posB == -1:
		return 0, false
	case posA == -1:
		return posB, true
	case posB == -1:
		return posA, true
	case posA < posB:
		return posA, true
	default:
		return posB, true
	}
}

func indexFrom(buf, needle []byte, offset int) int {
	if len(needle) == 0 {
		return -1
	}
	i := bytes.Index(buf[offset:], needle)
	if i == -1 {
		return -1
	}
	return offset + i
}
