package codec

// IPCHeaderSize is the encoded size of an IPC envelope's fixed header.
const IPCHeaderSize = 16

// IPCTypeInterested is the only IPC type this proxy decodes payloads for.
const IPCTypeInterested = 0x14

// IPC is the (type, subtype, data) envelope carried by a segment-type-3
// message's Data.
type IPC struct {
	Type     uint16
	Subtype  uint16
	Unknown1 [2]byte
	ServerID uint16
	Epoch    uint32
	Unknown2 [4]byte
	Data     []byte
}

// DecodeIPC decodes an IPC envelope at the start of buf. Data is
// whatever trails the header, regardless of its eventual typed shape.
func DecodeIPC(buf []byte) (IPC, error) {
	var ipc IPC
	c := newCursor(buf)

	var err error
	if ipc.Type, err = c.u16(); err != nil {
		return ipc, err
	}
	if ipc.Subtype, err = c.u16(); err != nil {
		return ipc, err
	}
	b, err := c.bytes(2)
	if err != nil {
		return ipc, err
	}
	copy(ipc.Unknown1[:], b)
	if ipc.ServerID, err = c.u16(); err != nil {
		return ipc, err
	}
	if ipc.Epoch, err = c.u32(); err != nil {
		return ipc, err
	}
	b, err = c.bytes(4)
	if err != nil {
		return ipc, err
	}
	copy(ipc.Unknown2[:], b)

	ipc.Data = append([]byte(nil), buf[IPCHeaderSize:]...)
	return ipc, nil
}

// Encode serializes the IPC envelope.
func (ipc IPC) Encode() []byte {
	buf := make([]byte, 0, IPCHeaderSize+len(ipc.Data))
	buf = putU16(buf, ipc.Type)
	buf = putU16(buf, ipc.Subtype)
	buf = append(buf, ipc.Unknown1[:]...)
	buf = putU16(buf, ipc.ServerID)
	buf = putU32(buf, ipc.Epoch)
	buf = append(buf, ipc.Unknown2[:]...)
	buf = append(buf, ipc.Data...)
	return buf
}
