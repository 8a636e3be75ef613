package slippi

import (
	"encoding/binary"
	"math"

	"github.com/slipkit/slip/types"
)

// Event codes used by the binary stream. The payload-sizes event is always
// first and declares the payload length of every other code.
const (
	codeMessageSplitter byte = 0x10
	codePayloadSizes    byte = 0x35
	codeGameStart       byte = 0x36
	codePreFrame        byte = 0x37
	codePostFrame       byte = 0x38
	codeGameEnd         byte = 0x39
	codeFrameStart      byte = 0x3A
	codeItem            byte = 0x3B
	codeFrameBookend    byte = 0x3C
	codeGeckoList       byte = 0x3D
)

// Event is the closed set of decoded stream events.
type Event interface {
	isEvent()
}

// StartEvent carries the decoded game configuration and the raw payload.
type StartEvent struct {
	Start types.Start
	Raw   []byte
}

// PreFrameEvent is one character's pre-physics state for one frame.
type PreFrameEvent struct {
	Frame    int32
	Port     int // 1-based
	Follower bool
	Pre      types.Pre
}

// PostFrameEvent is one character's post-physics state for one frame.
type PostFrameEvent struct {
	Frame    int32
	Port     int // 1-based
	Follower bool
	Post     types.Post
}

// ItemEvent is one item's state for one frame.
type ItemEvent struct {
	Frame int32
	Item  types.Item
}

// FrameStartEvent opens a frame's integrity bracket (v2.2+).
type FrameStartEvent struct {
	Frame int32
	Start types.FrameStart
}

// BookendEvent closes a frame's integrity bracket (v3.0+).
type BookendEvent struct {
	Frame int32
	End   types.FrameEnd
}

// EndEvent carries the decoded end-of-game record and the raw payload.
type EndEvent struct {
	End types.End
	Raw []byte
}

func (StartEvent) isEvent()      {}
func (PreFrameEvent) isEvent()   {}
func (PostFrameEvent) isEvent()  {}
func (ItemEvent) isEvent()       {}
func (FrameStartEvent) isEvent() {}
func (BookendEvent) isEvent()    {}
func (EndEvent) isEvent()        {}

// eventDecoder decodes one payload into a typed event. The stream version
// selects which trailing fields are present; fields the version predates
// stay nil in the produced model values.
type eventDecoder func(payload []byte, v types.FormatVersion) (Event, error)

// frameDecoders dispatches the per-frame event codes. Game Start is handled
// separately because it establishes the version the others depend on.
var frameDecoders = map[byte]eventDecoder{
	codePreFrame:     decodePreFrame,
	codePostFrame:    decodePostFrame,
	codeItem:         decodeItem,
	codeFrameStart:   decodeFrameStart,
	codeFrameBookend: decodeBookend,
}

// Game Start payload layout constants. Offsets are relative to the payload
// (the on-wire offsets minus the command byte).
const (
	startInfoBlock   = 0x4
	startPlayerBase  = startInfoBlock + 0x60
	startPlayerSize  = 0x24
	startRandomSeed  = 0x13C
	startDashback    = 0x140
	startNametag     = 0x160
	startPAL         = 0x1A0
	startFrozenPS    = 0x1A1
	startSceneMinor  = 0x1A2
	startSceneMajor  = 0x1A3
	startDisplayName = 0x1A4
	startConnectCode = 0x220
	startSlippiUID   = 0x248
	startLanguage    = 0x2BC
	startMatchID     = 0x2BD
	startGameNumber  = 0x2F0
	startTiebreaker  = 0x2F4
)

// startReader reads fixed-offset fields out of the Game Start payload.
// Any out-of-bounds access marks the whole event malformed: there is no
// safe default game configuration.
type startReader struct {
	p    []byte
	fail bool
}

func (r *startReader) slice(off, n int) []byte {
	if r.fail || off+n > len(r.p) {
		r.fail = true
		return nil
	}
	return r.p[off : off+n]
}

func (r *startReader) u8(off int) uint8 {
	b := r.slice(off, 1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *startReader) u16(off int) uint16 {
	b := r.slice(off, 2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *startReader) u32(off int) uint32 {
	b := r.slice(off, 4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *startReader) f32(off int) float32 {
	return math.Float32frombits(r.u32(off))
}

func decodeGameStart(payload []byte) (*StartEvent, error) {
	r := &startReader{p: payload}

	version := types.FormatVersion{
		Major:    r.u8(0),
		Minor:    r.u8(1),
		Revision: r.u8(2),
	}

	start := types.Start{Version: version}
	for i := 0; i < 4; i++ {
		start.Bitfields[i] = r.u8(startInfoBlock + i)
	}
	start.IsTeams = r.u8(startInfoBlock+0x8) != 0
	start.SelfDestructs = int8(r.u8(startInfoBlock + 0xC))
	start.Stage = r.u16(startInfoBlock + 0xE)
	start.Timer = r.u32(startInfoBlock + 0x10)
	for i := 0; i < 5; i++ {
		start.ItemSpawn[i] = r.u8(startInfoBlock + 0x23 + i)
	}
	start.DamageRatio = r.f32(startInfoBlock + 0x30)
	start.RandomSeed = r.u32(startRandomSeed)

	for i := 0; i < 4; i++ {
		base := startPlayerBase + i*startPlayerSize
		ptype := types.PlayerType(r.u8(base + 0x1))
		if ptype == types.PlayerEmpty {
			continue
		}
		p := types.Player{
			Port:         i + 1,
			Character:    r.u8(base + 0x0),
			Type:         ptype,
			Stocks:       r.u8(base + 0x2),
			Costume:      r.u8(base + 0x3),
			TeamShade:    r.u8(base + 0x9),
			Handicap:     r.u8(base + 0xA),
			Team:         r.u8(base + 0xB),
			Bitfield:     r.u8(base + 0xD),
			CPULevel:     r.u8(base + 0xF),
			OffenseRatio: r.f32(base + 0x18),
			DefenseRatio: r.f32(base + 0x1C),
			ModelScale:   r.f32(base + 0x20),
		}
		if version.AtLeast(1, 0, 0) {
			dashback := r.u32(startDashback + i*0x8)
			shieldDrop := r.u32(startDashback + i*0x8 + 0x4)
			p.DashbackFix = &dashback
			p.ShieldDropFix = &shieldDrop
		}
		if version.AtLeast(1, 3, 0) {
			tag := shiftJISString(r.slice(startNametag+i*0x10, 0x10))
			p.Nametag = &tag
		}
		if version.AtLeast(3, 9, 0) {
			name := shiftJISString(r.slice(startDisplayName+i*0x1F, 0x1F))
			code := shiftJISString(r.slice(startConnectCode+i*0xA, 0xA))
			p.DisplayName = &name
			p.ConnectCode = &code
		}
		if version.AtLeast(3, 11, 0) {
			uid := asciiString(r.slice(startSlippiUID+i*0x1D, 0x1D))
			p.SlippiUID = &uid
		}
		start.Players = append(start.Players, p)
	}

	if version.AtLeast(1, 5, 0) {
		pal := r.u8(startPAL) != 0
		start.IsPAL = &pal
	}
	if version.AtLeast(2, 0, 0) {
		frozen := r.u8(startFrozenPS) != 0
		start.IsFrozenPS = &frozen
	}
	if version.AtLeast(3, 7, 0) {
		minor := r.u8(startSceneMinor)
		major := r.u8(startSceneMajor)
		start.SceneMinor = &minor
		start.SceneMajor = &major
	}
	if version.AtLeast(3, 12, 0) {
		lang := r.u8(startLanguage)
		start.Language = &lang
	}
	if version.AtLeast(3, 14, 0) {
		matchID := asciiString(r.slice(startMatchID, 51))
		gameNumber := r.u32(startGameNumber)
		tiebreaker := r.u32(startTiebreaker)
		start.MatchID = &matchID
		start.GameNumber = &gameNumber
		start.Tiebreaker = &tiebreaker
	}

	if r.fail {
		return nil, &DecodeError{
			Kind: KindMalformedEvent,
			Code: codeGameStart,
			Msg:  "game start payload too short for declared version",
		}
	}

	raw := make([]byte, len(payload))
	copy(raw, payload)
	return &StartEvent{Start: start, Raw: raw}, nil
}

func decodePreFrame(payload []byte, v types.FormatVersion) (Event, error) {
	c := newCursor(payload)
	ev := PreFrameEvent{}
	ev.Frame = c.i32()
	ev.Port = int(c.u8()) + 1
	ev.Follower = c.boolean()

	pre := types.Pre{}
	pre.RandomSeed = c.u32()
	pre.State = c.u16()
	pre.Position.X = c.f32()
	pre.Position.Y = c.f32()
	pre.Facing = c.f32()
	pre.Joystick.X = c.f32()
	pre.Joystick.Y = c.f32()
	pre.Cstick.X = c.f32()
	pre.Cstick.Y = c.f32()
	pre.Trigger = c.f32()
	pre.Buttons = c.u32()
	pre.PhysicalButtons = c.u16()
	pre.TriggerL = c.f32()
	pre.TriggerR = c.f32()
	if v.AtLeast(1, 2, 0) {
		raw := c.u8()
		pre.RawAnalogX = &raw
	}
	if v.AtLeast(1, 4, 0) {
		pct := c.f32()
		pre.Percent = &pct
	}
	if err := c.Err(); err != nil {
		return nil, wrapEventErr(err, codePreFrame)
	}
	ev.Pre = pre
	return ev, nil
}

func decodePostFrame(payload []byte, v types.FormatVersion) (Event, error) {
	c := newCursor(payload)
	ev := PostFrameEvent{}
	ev.Frame = c.i32()
	ev.Port = int(c.u8()) + 1
	ev.Follower = c.boolean()

	post := types.Post{}
	post.Character = c.u8()
	post.State = c.u16()
	post.Position.X = c.f32()
	post.Position.Y = c.f32()
	post.Facing = c.f32()
	post.Percent = c.f32()
	post.Shield = c.f32()
	post.LastAttackLanded = c.u8()
	post.ComboCount = c.u8()
	post.LastHitBy = c.u8()
	post.Stocks = c.u8()
	if v.AtLeast(0, 2, 0) {
		age := c.f32()
		post.StateAge = &age
	}
	if v.AtLeast(2, 0, 0) {
		// Five state bitfield bytes, packed low-to-high.
		var flags uint64
		for i := 0; i < 5; i++ {
			flags |= uint64(c.u8()) << (8 * i)
		}
		post.Flags = &flags
		misc := c.f32()
		post.MiscAS = &misc
		airborne := c.boolean()
		post.Airborne = &airborne
		ground := c.u16()
		post.Ground = &ground
		jumps := c.u8()
		post.Jumps = &jumps
		lCancel := c.u8()
		post.LCancel = &lCancel
	}
	if v.AtLeast(2, 1, 0) {
		hurtbox := c.u8()
		post.HurtboxState = &hurtbox
	}
	if v.AtLeast(3, 5, 0) {
		speeds := types.Speeds{
			AirX:       c.f32(),
			Y:          c.f32(),
			KnockbackX: c.f32(),
			KnockbackY: c.f32(),
			GroundX:    c.f32(),
		}
		post.Speeds = &speeds
	}
	if v.AtLeast(3, 8, 0) {
		hitlag := c.f32()
		post.HitlagFrames = &hitlag
	}
	if v.AtLeast(3, 11, 0) {
		anim := c.u32()
		post.AnimationIndex = &anim
	}
	if err := c.Err(); err != nil {
		return nil, wrapEventErr(err, codePostFrame)
	}
	ev.Post = post
	return ev, nil
}

func decodeItem(payload []byte, v types.FormatVersion) (Event, error) {
	c := newCursor(payload)
	ev := ItemEvent{}
	ev.Frame = c.i32()

	item := types.Item{}
	item.Type = c.u16()
	item.State = c.u8()
	item.Facing = c.f32()
	item.Velocity.X = c.f32()
	item.Velocity.Y = c.f32()
	item.Position.X = c.f32()
	item.Position.Y = c.f32()
	item.DamageTaken = c.u16()
	item.ExpirationTimer = c.f32()
	item.ID = c.u32()
	if v.AtLeast(3, 2, 0) {
		var misc [4]uint8
		copy(misc[:], c.bytes(4))
		item.Misc = &misc
	}
	if v.AtLeast(3, 6, 0) {
		owner := c.i8()
		item.Owner = &owner
	}
	if v.AtLeast(3, 16, 0) {
		instance := c.u16()
		item.InstanceID = &instance
	}
	if err := c.Err(); err != nil {
		return nil, wrapEventErr(err, codeItem)
	}
	ev.Item = item
	return ev, nil
}

func decodeFrameStart(payload []byte, v types.FormatVersion) (Event, error) {
	c := newCursor(payload)
	ev := FrameStartEvent{}
	ev.Frame = c.i32()
	ev.Start.RandomSeed = c.u32()
	if v.AtLeast(3, 10, 0) {
		counter := c.u32()
		ev.Start.SceneFrameCounter = &counter
	}
	if err := c.Err(); err != nil {
		return nil, wrapEventErr(err, codeFrameStart)
	}
	return ev, nil
}

func decodeBookend(payload []byte, v types.FormatVersion) (Event, error) {
	c := newCursor(payload)
	ev := BookendEvent{}
	ev.Frame = c.i32()
	if v.AtLeast(3, 7, 0) {
		finalized := c.i32()
		ev.End.LatestFinalizedFrame = &finalized
	}
	if err := c.Err(); err != nil {
		return nil, wrapEventErr(err, codeFrameBookend)
	}
	return ev, nil
}

func decodeGameEnd(payload []byte, v types.FormatVersion) (Event, error) {
	c := newCursor(payload)
	end := types.End{}
	end.Method = c.u8()
	if v.AtLeast(2, 0, 0) {
		lras := c.i8()
		end.LRASInitiator = &lras
	}
	if v.AtLeast(3, 13, 0) {
		var placements [4]int8
		for i := range placements {
			placements[i] = c.i8()
		}
		end.Placements = &placements
	}
	if err := c.Err(); err != nil {
		return nil, wrapEventErr(err, codeGameEnd)
	}
	raw := make([]byte, len(payload))
	copy(raw, payload)
	return EndEvent{End: end, Raw: raw}, nil
}

// wrapEventErr reclassifies a cursor truncation as a malformed event: the
// stream itself had the declared number of bytes, the payload just did not
// decode at the version's expected width.
func wrapEventErr(err error, code byte) error {
	if de, ok := err.(*DecodeError); ok {
		return &DecodeError{Kind: KindMalformedEvent, Code: code, Offset: de.Offset, Msg: "payload shorter than version requires"}
	}
	return err
}
