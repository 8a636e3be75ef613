package types

// End is the end-of-game record. Most casually saved replays end by
// truncation instead, in which case Replay.End is nil.
type End struct {
	Method uint8 `json:"method" label:"game_end_method"`

	// Added in v2.0.0. -1 when no player triggered an LRAS quit-out.
	LRASInitiator *int8 `json:"lras_initiator"`

	// Added in v3.13.0. One placement per port, -1 for inactive ports.
	Placements *[4]int8 `json:"placements"`
}
