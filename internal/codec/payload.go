package codec

// CategoryCancelCast and CategoryRollback are the ActorControl /
// ActorControlSelf category values the tracker reacts to; every other
// category is inert as far as the pending queue is concerned.
const (
	CategoryCancelCast = 0x000f
	CategoryRollback   = 0x02bc
)

// ActionEffectSize is the on-wire size of an ActionEffect payload.
const ActionEffectSize = 36

// ActionEffect carries the animation-lock duration this proxy rewrites.
// unknown_* / reserved fields are kept as opaque byte arrays and
// re-emitted verbatim on encode.
type ActionEffect struct {
	AnimationTargetActor  uint32
	Unknown1              [4]byte
	ActionID              uint32
	GlobalEffectCounter   uint32
	AnimationLockDuration float32
	UnknownTargetID       uint32
	HideAnimation         uint16
	Rotation              uint16
	ActionAnimationID     uint16
	Variation             uint8
	EffectDisplayType     uint8
	Unknown2              [1]byte
	EffectCount           uint8
	Unknown3              [2]byte
}

// DecodeActionEffect decodes a fixed ActionEffectSize payload at offset 0.
func DecodeActionEffect(data []byte) (ActionEffect, error) {
	var e ActionEffect
	c := newCursor(data)

	var err error
	if e.AnimationTargetActor, err = c.u32(); err != nil {
		return e, err
	}
	if b, err := c.bytes(4); err != nil {
		return e, err
	} else {
		copy(e.Unknown1[:], b)
	}
	if e.ActionID, err = c.u32(); err != nil {
		return e, err
	}
	if e.GlobalEffectCounter, err = c.u32(); err != nil {
		return e, err
	}
	if e.AnimationLockDuration, err = c.f32(); err != nil {
		return e, err
	}
	if e.UnknownTargetID, err = c.u32(); err != nil {
		return e, err
	}
	if e.HideAnimation, err = c.u16(); err != nil {
		return e, err
	}
	if e.Rotation, err = c.u16(); err != nil {
		return e, err
	}
	if e.ActionAnimationID, err = c.u16(); err != nil {
		return e, err
	}
	if e.Variation, err = c.u8(); err != nil {
		return e, err
	}
	if e.EffectDisplayType, err = c.u8(); err != nil {
		return e, err
	}
	if b, err := c.bytes(1); err != nil {
		return e, err
	} else {
		copy(e.Unknown2[:], b)
	}
	if e.EffectCount, err = c.u8(); err != nil {
		return e, err
	}
	if b, err := c.bytes(2); err != nil {
		return e, err
	} else {
		copy(e.Unknown3[:], b)
	}
	return e, nil
}

// Encode serializes the ActionEffect back to ActionEffectSize bytes.
func (e ActionEffect) Encode() []byte {
	buf := make([]byte, 0, ActionEffectSize)
	buf = putU32(buf, e.AnimationTargetActor)
	buf = append(buf, e.Unknown1[:]...)
	buf = putU32(buf, e.ActionID)
	buf = putU32(buf, e.GlobalEffectCounter)
	buf = putF32(buf, e.AnimationLockDuration)
	buf = putU32(buf, e.UnknownTargetID)
	buf = putU16(buf, e.HideAnimation)
	buf = putU16(buf, e.Rotation)
	buf = putU16(buf, e.ActionAnimationID)
	buf = append(buf, e.Variation, e.EffectDisplayType)
	buf = append(buf, e.Unknown2[:]...)
	buf = append(buf, e.EffectCount)
	buf = append(buf, e.Unknown3[:]...)
	return buf
}

// ActorControlSize is the on-wire size of an ActorControl payload.
const ActorControlSize = 24

// ActorControl carries a category and four generic params.
type ActorControl struct {
	Category uint16
	Unknown1 [2]byte
	Param1   uint32
	Param2   uint32
	Param3   uint32
	Param4   uint32
	Unknown2 [4]byte
}

// DecodeActorControl decodes a fixed ActorControlSize payload at offset 0.
func DecodeActorControl(data []byte) (ActorControl, error) {
	var a ActorControl
	c := newCursor(data)
	var err error
	if a.Category, err = c.u16(); err != nil {
		return a, err
	}
	if b, err := c.bytes(2); err != nil {
		return a, err
	} else {
		copy(a.Unknown1[:], b)
	}
	if a.Param1, err = c.u32(); err != nil {
		return a, err
	}
	if a.Param2, err = c.u32(); err != nil {
		return a, err
	}
	if a.Param3, err = c.u32(); err != nil {
		return a, err
	}
	if a.Param4, err = c.u32(); err != nil {
		return a, err
	}
	if b, err := c.bytes(4); err != nil {
		return a, err
	} else {
		copy(a.Unknown2[:], b)
	}
	return a, nil
}

// ActorControlSelfSize is the on-wire size of an ActorControlSelf payload.
const ActorControlSelfSize = 32

// ActorControlSelf is ActorControl with two extra params.
type ActorControlSelf struct {
	Category uint16
	Unknown1 [2]byte
	Param1   uint32
	Param2   uint32
	Param3   uint32
	Param4   uint32
	Param5   uint32
	Param6   uint32
	Unknown2 [4]byte
}

// DecodeActorControlSelf decodes a fixed ActorControlSelfSize payload at offset 0.
func DecodeActorControlSelf(data []byte) (ActorControlSelf, error) {
	var a ActorControlSelf
	c := newCursor(data)
	var err error
	if a.Category, err = c.u16(); err != nil {
		return a, err
	}
	if b, err := c.bytes(2); err != nil {
		return a, err
	} else {
		copy(a.Unknown1[:], b)
	}
	for _, p := range []*uint32{&a.Param1, &a.Param2, &a.Param3, &a.Param4, &a.Param5, &a.Param6} {
		if *p, err = c.u32(); err != nil {
			return a, err
		}
	}
	if b, err := c.bytes(4); err != nil {
		return a, err
	} else {
		copy(a.Unknown2[:], b)
	}
	return a, nil
}

// DecodeRequestActionID reads the action_id carried at offset 4 of a
// REQUEST_ACTION payload. The rest of the payload is of no interest to
// the tracker and is never decoded.
func DecodeRequestActionID(data []byte) (uint32, error) {
	c := newCursor(data)
	if _, err := c.bytes(4); err != nil {
		return 0, err
	}
	return c.u32()
}

// ActorCastSize is the on-wire size of an ActorCast payload.
const ActorCastSize = 32

// ActorCast announces an upcoming cast.
type ActorCast struct {
	ActionID  uint16
	SkillType uint8
	Unknown1  [1]byte
	ActionID2 uint16
	Unknown2  [2]byte
	CastTime  float32
	TargetID  uint32
	Rotation  float32
	Unknown3  [4]byte
	X         uint16
	Y         uint16
	Z         uint16
	Unknown4  [2]byte
}

// DecodeActorCast decodes a fixed ActorCastSize payload at offset 0.
func DecodeActorCast(data []byte) (ActorCast, error) {
	var a ActorCast
	c := newCursor(data)
	var err error
	if a.ActionID, err = c.u16(); err != nil {
		return a, err
	}
	if a.SkillType, err = c.u8(); err != nil {
		return a, err
	}
	if b, err := c.bytes(1); err != nil {
		return a, err
	} else {
		copy(a.Unknown1[:], b)
	}
	if a.ActionID2, err = c.u16(); err != nil {
		return a, err
	}
	if b, err := c.bytes(2); err != nil {
		return a, err
	} else {
		copy(a.Unknown2[:], b)
	}
	if a.CastTime, err = c.f32(); err != nil {
		return a, err
	}
	if a.TargetID, err = c.u32(); err != nil {
		return a, err
	}
	if a.Rotation, err = c.f32(); err != nil {
		return a, err
	}
	if b, err := c.bytes(4); err != nil {
		return a, err
	} else {
		copy(a.Unknown3[:], b)
	}
	if a.X, err = c.u16(); err != nil {
		return a, err
	}
	if a.Y, err = c.u16(); err != nil {
		return a, err
	}
	if a.Z, err = c.u16(); err != nil {
		return a, err
	}
	if b, err := c.bytes(2); err != nil {
		return a, err
	} else {
		copy(a.Unknown4[:], b)
	}
	return a, nil
}
