package codec

import (
	"bytes"
	"compress/zlib"
	"io"
)

// BundleHeaderSize is the encoded size of a Bundle's fixed header:
// 16 (magic) + 8 (timestamp) + 2 (length) + 2 (unk1) + 2 (conn_type) +
// 2 (message_count) + 1 (encoding) + 1 (zlib_compressed) + 6 (unk2).
const BundleHeaderSize = 40

// BundleMaxLength is the hard ceiling on a bundle's on-wire Length.
const BundleMaxLength = 65536

// MagicA and MagicB are the two values a bundle's 16-byte magic may hold.
var (
	MagicA = [16]byte{0x52, 0x52, 0xa0, 0x41, 0xff, 0x5d, 0x46, 0xe2, 0x7f, 0x2a, 0x64, 0x4d, 0x7b, 0x99, 0xc4, 0x75}
	MagicB = [16]byte{}
)

// Bundle is the outermost on-wire frame.
type Bundle struct {
	Magic          [16]byte
	Timestamp      uint64
	Unknown1       [2]byte
	ConnType       uint16
	Encoding       uint8
	ZlibCompressed uint8
	Unknown2       [6]byte
	Messages       []Message
}

// DecodeBundle decodes a single bundle from the start of buf, returning
// the bundle and how many leading bytes of buf it consumed (its
// on-wire Length). buf may hold extra trailing bytes belonging to the
// next frame.
func DecodeBundle(buf []byte) (Bundle, int, error) {
	var b Bundle
	c := newCursor(buf)

	magic, err := c.bytes(16)
	if err != nil {
		return b, 0, err
	}
	copy(b.Magic[:], magic)
	if b.Magic != MagicA && b.Magic != MagicB {
		return b, 0, ErrInvalid
	}

	if b.Timestamp, err = c.u64(); err != nil {
		return b, 0, err
	}
	length, err := c.u16()
	if err != nil {
		return b, 0, err
	}
	unk1, err := c.bytes(2)
	if err != nil {
		return b, 0, err
	}
	copy(b.Unknown1[:], unk1)
	if b.ConnType, err = c.u16(); err != nil {
		return b, 0, err
	}
	messageCount, err := c.u16()
	if err != nil {
		return b, 0, err
	}
	if b.Encoding, err = c.u8(); err != nil {
		return b, 0, err
	}
	if b.ZlibCompressed, err = c.u8(); err != nil {
		return b, 0, err
	}
	unk2, err := c.bytes(6)
	if err != nil {
		return b, 0, err
	}
	copy(b.Unknown2[:], unk2)

	if int(length) < BundleHeaderSize || int(length) > BundleMaxLength {
		return b, 0, ErrInvalid
	}
	if len(buf) < int(length) {
		return b, 0, ErrIncomplete
	}

	blob := buf[BundleHeaderSize:length]
	if b.ZlibCompressed != 0 {
		r, err := zlib.NewReader(bytes.NewReader(blob))
		if err != nil {
			return b, 0, ErrInvalid
		}
		decompressed, err := io.ReadAll(r)
		if err != nil {
			return b, 0, ErrInvalid
		}
		blob = decompressed
	}

	b.Messages = make([]Message, 0, messageCount)
	offset := 0
	for i := 0; i < int(messageCount); i++ {
		msg, err := DecodeMessage(blob[offset:])
		if err != nil {
			// The bundle already claims to hold messageCount whole
			// messages in blob; any failure decoding one (including a
			// local ErrIncomplete) means the bundle itself is malformed.
			return b, 0, ErrInvalid
		}
		offset += int(msg.Length)
		if offset > len(blob) {
			return b, 0, ErrInvalid
		}
		b.Messages = append(b.Messages, msg)
	}

	return b, int(length), nil
}

// Encode serializes the bundle, recomputing Length from the actual
// on-wire size of the (possibly recompressed) message blob. The
// decoded Length is never trusted on re-emission.
func (b Bundle) Encode() []byte {
	var data []byte
	for _, m := range b.Messages {
		data = append(data, m.Encode()...)
	}
	if b.ZlibCompressed != 0 {
		var out bytes.Buffer
		w := zlib.NewWriter(&out)
		_, _ = w.Write(data)
		_ = w.Close()
		data = out.Bytes()
	}

	length := uint16(BundleHeaderSize + len(data))
	buf := make([]byte, 0, length)
	buf = append(buf, b.Magic[:]...)
	buf = putU64(buf, b.Timestamp)
	buf = putU16(buf, length)
	buf = append(buf, b.Unknown1[:]...)
	buf = putU16(buf, b.ConnType)
	buf = putU16(buf, uint16(len(b.Messages)))
	buf = append(buf, b.Encoding, b.ZlibCompressed)
	buf = append(buf, b.Unknown2[:]...)
	buf = append(buf, data...)
	return buf
}
