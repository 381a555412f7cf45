package codec

// MessageHeaderSize is the encoded size of a Message's fixed header.
const MessageHeaderSize = 16

// SegmentTypeIPC is the only segment type this proxy decodes further.
const SegmentTypeIPC = 3

// Message is a second-level frame inside a bundle, addressed to/from
// actor IDs and typed by a segment code.
type Message struct {
	Length      uint32
	SourceActor uint32
	TargetActor uint32
	SegmentType uint16
	Unknown1    [2]byte
	Data        []byte
}

// DecodeMessage decodes one message at the start of buf. If buf holds
// fewer than the message's declared Length bytes it returns
// ErrIncomplete; the bundle decoder reports that case as ErrInvalid,
// since a bundle's blob must hold all of its messages.
func DecodeMessage(buf []byte) (Message, error) {
	var m Message
	c := newCursor(buf)

	var err error
	if m.Length, err = c.u32(); err != nil {
		return m, err
	}
	if m.SourceActor, err = c.u32(); err != nil {
		return m, err
	}
	if m.TargetActor, err = c.u32(); err != nil {
		return m, err
	}
	if m.SegmentType, err = c.u16(); err != nil {
		return m, err
	}
	b, err := c.bytes(2)
	if err != nil {
		return m, err
	}
	copy(m.Unknown1[:], b)

	if m.Length < MessageHeaderSize {
		return m, ErrInvalid
	}
	if uint32(len(buf)) < m.Length {
		return m, ErrIncomplete
	}
	m.Data = append([]byte(nil), buf[MessageHeaderSize:m.Length]...)
	return m, nil
}

// Encode serializes the message, recomputing Length from the current Data.
func (m Message) Encode() []byte {
	length := uint32(MessageHeaderSize + len(m.Data))
	buf := make([]byte, 0, length)
	buf = putU32(buf, length)
	buf = putU32(buf, m.SourceActor)
	buf = putU32(buf, m.TargetActor)
	buf = putU16(buf, m.SegmentType)
	buf = append(buf, m.Unknown1[:]...)
	buf = append(buf, m.Data...)
	return buf
}
