package types

// ICEClimbers is the external character ID whose ports carry follower
// (secondary character) frame data.
const ICEClimbers uint8 = 14

// Position is a 2D coordinate or vector with game-native float32 precision.
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Pre is the state sampled before physics resolution for one character on
// one frame: inputs plus the state carried in from the previous frame.
type Pre struct {
	RandomSeed      uint32   `json:"random_seed"`
	State           uint16   `json:"state" label:"action_state"`
	Position        Position `json:"position"`
	Facing          float32  `json:"facing"`
	Joystick        Position `json:"joystick"`
	Cstick          Position `json:"cstick"`
	Trigger         float32  `json:"trigger"`
	Buttons         uint32   `json:"buttons"`
	PhysicalButtons uint16   `json:"physical_buttons"`
	TriggerL        float32  `json:"trigger_l"`
	TriggerR        float32  `json:"trigger_r"`

	// Added in v1.2.0.
	RawAnalogX *uint8 `json:"raw_analog_x"`

	// Added in v1.4.0.
	Percent *float32 `json:"percent"`
}

// Speeds holds the self-induced speed breakdown added in v3.5.0.
type Speeds struct {
	AirX       float32 `json:"air_x"`
	Y          float32 `json:"y"`
	KnockbackX float32 `json:"knockback_x"`
	KnockbackY float32 `json:"knockback_y"`
	GroundX    float32 `json:"ground_x"`
}

// Post is the resolved state after physics for one character on one frame.
type Post struct {
	Character        uint8    `json:"character" label:"character_internal"`
	State            uint16   `json:"state" label:"action_state"`
	Position         Position `json:"position"`
	Facing           float32  `json:"facing"`
	Percent          float32  `json:"percent"`
	Shield           float32  `json:"shield"`
	LastAttackLanded uint8    `json:"last_attack_landed"`
	ComboCount       uint8    `json:"combo_count"`
	LastHitBy        uint8    `json:"last_hit_by"`
	Stocks           uint8    `json:"stocks"`

	// Added in v0.2.0.
	StateAge *float32 `json:"state_age"`

	// Added in v2.0.0.
	Flags    *uint64 `json:"flags"`
	MiscAS   *float32 `json:"misc_as"`
	Airborne *bool    `json:"airborne"`
	Ground   *uint16  `json:"ground"`
	Jumps    *uint8   `json:"jumps"`
	LCancel  *uint8   `json:"l_cancel"`

	// Added in v2.1.0.
	HurtboxState *uint8 `json:"hurtbox_state"`

	// Added in v3.5.0.
	Speeds *Speeds `json:"speeds"`

	// Added in v3.8.0.
	HitlagFrames *float32 `json:"hitlag_frames"`

	// Added in v3.11.0.
	AnimationIndex *uint32 `json:"animation_index"`
}

// Data pairs the pre- and post-frame state for one controlled character.
// Either half may be nil when the stream was cut mid-frame.
type Data struct {
	Pre  *Pre  `json:"pre"`
	Post *Post `json:"post"`
}

// PortData is one active port's state on one frame. Follower is present
// only on frames where a secondary character reported data.
type PortData struct {
	Port     int   `json:"port"`
	Leader   Data  `json:"leader"`
	Follower *Data `json:"follower"`
}

// Item is one item's state on one frame. Items are not keyed: the same
// spawn ID may appear on many frames and IDs may be reused after despawn.
type Item struct {
	Type            uint16   `json:"type"`
	State           uint8    `json:"state"`
	Facing          float32  `json:"facing"`
	Velocity        Position `json:"velocity"`
	Position        Position `json:"position"`
	DamageTaken     uint16   `json:"damage_taken"`
	ExpirationTimer float32  `json:"expiration_timer"`
	ID              uint32   `json:"id"`

	// Added in v3.2.0.
	Misc *[4]uint8 `json:"misc"`

	// Added in v3.6.0.
	Owner *int8 `json:"owner"`

	// Added in v3.16.0.
	InstanceID *uint16 `json:"instance_id"`
}

// FrameStart is the per-frame integrity marker added in v2.2.0.
type FrameStart struct {
	RandomSeed uint32 `json:"random_seed"`

	// Added in v3.10.0.
	SceneFrameCounter *uint32 `json:"scene_frame_counter"`
}

// FrameEnd is the bookend marker closing a frame, added in v3.0.0.
type FrameEnd struct {
	// Added in v3.7.0.
	LatestFinalizedFrame *int32 `json:"latest_finalized_frame"`
}

// Frame is one simulation step. Index is signed: the pre-game countdown
// runs from -123 to -1.
type Frame struct {
	Index int32       `json:"index"`
	Start *FrameStart `json:"start"`
	Ports []PortData  `json:"ports"`
	Items []Item      `json:"items"`
	End   *FrameEnd   `json:"end"`
}

// PortData returns the frame's state for a 1-based port number, or nil.
func (f *Frame) PortData(port int) *PortData {
	for i := range f.Ports {
		if f.Ports[i].Port == port {
			return &f.Ports[i]
		}
	}
	return nil
}
