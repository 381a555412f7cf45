package codec

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"
)

func TestActionEffectRoundTrip(t *testing.T) {
	e := ActionEffect{
		AnimationTargetActor:  0xdeadbeef,
		Unknown1:              [4]byte{1, 2, 3, 4},
		ActionID:              0x1234,
		GlobalEffectCounter:   7,
		AnimationLockDuration: 0.6,
		UnknownTargetID:       0xcafef00d,
		HideAnimation:         1,
		Rotation:              0x2222,
		ActionAnimationID:     0x3333,
		Variation:             9,
		EffectDisplayType:     2,
		Unknown2:              [1]byte{0xff},
		EffectCount:           3,
		Unknown3:              [2]byte{0xaa, 0xbb},
	}

	encoded := e.Encode()
	if len(encoded) != ActionEffectSize {
		t.Fatalf("encoded size = %d, want %d", len(encoded), ActionEffectSize)
	}

	decoded, err := DecodeActionEffect(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != e {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, e)
	}
}

func TestActionEffectReservedBytesSurviveRewrite(t *testing.T) {
	e := ActionEffect{
		Unknown1: [4]byte{0x11, 0x22, 0x33, 0x44},
		Unknown2: [1]byte{0x55},
		Unknown3: [2]byte{0x66, 0x77},
	}

	e.AnimationLockDuration = 0.475 // simulate a tracker rewrite

	encoded := e.Encode()
	decoded, err := DecodeActionEffect(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Unknown1 != e.Unknown1 || decoded.Unknown2 != e.Unknown2 || decoded.Unknown3 != e.Unknown3 {
		t.Fatalf("reserved bytes mutated: got %+v", decoded)
	}
	if decoded.AnimationLockDuration != 0.475 {
		t.Fatalf("AnimationLockDuration = %v, want 0.475", decoded.AnimationLockDuration)
	}
}

func TestDecodeActionEffectIncomplete(t *testing.T) {
	_, err := DecodeActionEffect(make([]byte, ActionEffectSize-1))
	if err != ErrIncomplete {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	m := Message{
		SourceActor: 10,
		TargetActor: 10,
		SegmentType: SegmentTypeIPC,
		Unknown1:    [2]byte{1, 2},
		Data:        []byte{0xde, 0xad, 0xbe, 0xef},
	}

	encoded := m.Encode()
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.SourceActor != m.SourceActor || decoded.TargetActor != m.TargetActor ||
		decoded.SegmentType != m.SegmentType || decoded.Unknown1 != m.Unknown1 ||
		!bytes.Equal(decoded.Data, m.Data) {
		t.Fatalf("round trip mismatch: got %+v", decoded)
	}
}

func TestDecodeMessageRejectsShortLength(t *testing.T) {
	m := Message{Data: []byte{1, 2, 3}}
	buf := m.Encode()
	// Corrupt the length field to claim less than the header size.
	buf[0], buf[1], buf[2], buf[3] = 4, 0, 0, 0
	_, err := DecodeMessage(buf)
	if err != ErrInvalid {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestDecodeMessageIncompleteOnTruncatedBuffer(t *testing.T) {
	m := Message{Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	buf := m.Encode()
	_, err := DecodeMessage(buf[:len(buf)-2])
	if err != ErrIncomplete {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
}

func TestBundleRoundTripUncompressed(t *testing.T) {
	b := Bundle{
		Magic:     MagicA,
		Timestamp: 123456789,
		Unknown1:  [2]byte{1, 2},
		ConnType:  1,
		Encoding:  0,
		Unknown2:  [6]byte{1, 2, 3, 4, 5, 6},
		Messages: []Message{
			{SourceActor: 1, TargetActor: 1, SegmentType: SegmentTypeIPC, Data: []byte{1, 2, 3, 4}},
			{SourceActor: 2, TargetActor: 2, SegmentType: 0, Data: []byte{5, 6}},
		},
	}

	encoded := b.Encode()
	decoded, consumed, err := DecodeBundle(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != len(encoded) {
		t.Fatalf("consumed = %d, want %d", consumed, len(encoded))
	}
	if decoded.Magic != b.Magic || decoded.Timestamp != b.Timestamp || decoded.ConnType != b.ConnType {
		t.Fatalf("header mismatch: %+v", decoded)
	}
	if len(decoded.Messages) != len(b.Messages) {
		t.Fatalf("message count = %d, want %d", len(decoded.Messages), len(b.Messages))
	}
	for i, m := range decoded.Messages {
		if !bytes.Equal(m.Data, b.Messages[i].Data) {
			t.Fatalf("message %d data mismatch", i)
		}
	}

	reencoded := decoded.Encode()
	if !bytes.Equal(reencoded, encoded) {
		t.Fatalf("re-encode not byte-identical:\ngot  % x\nwant % x", reencoded, encoded)
	}
}

func TestBundleRoundTripCompressed(t *testing.T) {
	b := Bundle{
		Magic:          MagicB,
		Timestamp:      42,
		ZlibCompressed: 1,
		Messages: []Message{
			{SourceActor: 9, TargetActor: 9, SegmentType: SegmentTypeIPC, Data: bytes.Repeat([]byte{0xAB}, 64)},
		},
	}

	encoded := b.Encode()
	decoded, consumed, err := DecodeBundle(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != len(encoded) {
		t.Fatalf("consumed = %d, want %d", consumed, len(encoded))
	}
	if len(decoded.Messages) != 1 || !bytes.Equal(decoded.Messages[0].Data, b.Messages[0].Data) {
		t.Fatalf("compressed message mismatch: %+v", decoded.Messages)
	}
}

func TestDecodeBundleRejectsBadMagic(t *testing.T) {
	buf := make([]byte, BundleHeaderSize)
	_, _, err := DecodeBundle(buf)
	if err != ErrInvalid {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestDecodeBundleMaxLengthFieldIsWithinCeiling(t *testing.T) {
	b := Bundle{Magic: MagicA}
	buf := b.Encode()
	buf[24] = 0xff
	buf[25] = 0xff // 0xffff, the largest 16-bit length, is still within BundleMaxLength
	_, _, err := DecodeBundle(buf)
	if err != ErrIncomplete {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
}

func TestDecodeBundleRejectsLengthBelowHeaderSize(t *testing.T) {
	b := Bundle{Magic: MagicA}
	buf := b.Encode()
	buf[24] = 4
	buf[25] = 0 // length now claims a header smaller than BundleHeaderSize
	_, _, err := DecodeBundle(buf)
	if err != ErrInvalid {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestDecodeBundleIncompleteWhenBodyMissing(t *testing.T) {
	b := Bundle{
		Magic: MagicA,
		Messages: []Message{
			{SourceActor: 1, TargetActor: 1, Data: []byte{1, 2, 3, 4}},
		},
	}
	buf := b.Encode()
	_, _, err := DecodeBundle(buf[:len(buf)-2])
	if err != ErrIncomplete {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
}

func TestDecodeBundleInvalidZlibStream(t *testing.T) {
	b := Bundle{
		Magic:          MagicA,
		ZlibCompressed: 1,
		Messages: []Message{
			{SourceActor: 1, TargetActor: 1, Data: bytes.Repeat([]byte{0x42}, 64)},
		},
	}
	buf := b.Encode()
	// Truncate the zlib stream mid-checksum and shrink length to match,
	// so DecodeBundle sees a short but structurally-claimed-complete blob.
	truncated := buf[:len(buf)-2]
	truncated[24] = byte(len(truncated))
	truncated[25] = byte(len(truncated) >> 8)

	_, _, err := DecodeBundle(truncated)
	if err != ErrInvalid {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestZlibBlobDecompressesThroughStdlib(t *testing.T) {
	// Sanity check that our zlib usage round-trips via the stdlib reader
	// the rest of the ecosystem expects.
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write([]byte("hello"))
	_ = w.Close()

	r, err := zlib.NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("decompressed = %q, want %q", got, "hello")
	}
}
