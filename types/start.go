package types

// PlayerType classifies a port's occupant in the Game Start configuration.
type PlayerType uint8

// Player types per the game's start struct.
const (
	PlayerHuman PlayerType = 0
	PlayerCPU   PlayerType = 1
	PlayerDemo  PlayerType = 2
	PlayerEmpty PlayerType = 3
)

// Player is the immutable per-port configuration from the Game Start event.
// A port is active only if its declared type is not PlayerEmpty; inactive
// ports are omitted from Start.Players entirely.
type Player struct {
	Port      int        `json:"port"`
	Character uint8      `json:"character" label:"character"`
	Type      PlayerType `json:"type"`
	Stocks    uint8      `json:"stocks"`
	Costume   uint8      `json:"costume"`
	TeamShade uint8      `json:"team_shade"`
	Handicap  uint8      `json:"handicap"`
	Team      uint8      `json:"team"`
	Bitfield  uint8      `json:"bitfield"`
	CPULevel  uint8      `json:"cpu_level"`

	OffenseRatio float32 `json:"offense_ratio"`
	DefenseRatio float32 `json:"defense_ratio"`
	ModelScale   float32 `json:"model_scale"`

	// Added in v1.0.0.
	DashbackFix   *uint32 `json:"dashback_fix"`
	ShieldDropFix *uint32 `json:"shield_drop_fix"`

	// Added in v1.3.0.
	Nametag *string `json:"nametag"`

	// Added in v3.9.0.
	DisplayName *string `json:"display_name"`
	ConnectCode *string `json:"connect_code"`

	// Added in v3.11.0.
	SlippiUID *string `json:"slippi_uid"`
}

// Start is the immutable game configuration decoded from the Game Start
// event. Created once from the first event after the size table; never
// mutated thereafter.
type Start struct {
	Version FormatVersion `json:"version"`

	Bitfields     [4]uint8 `json:"bitfields"`
	IsTeams       bool     `json:"is_teams"`
	ItemSpawn     [5]uint8 `json:"item_spawn"`
	SelfDestructs int8     `json:"self_destructs"`
	Stage         uint16   `json:"stage" label:"stage"`
	Timer         uint32   `json:"timer"`
	DamageRatio   float32  `json:"damage_ratio"`

	Players []Player `json:"players"`

	RandomSeed uint32 `json:"random_seed"`

	// Added in v1.5.0.
	IsPAL *bool `json:"is_pal"`

	// Added in v2.0.0.
	IsFrozenPS *bool `json:"is_frozen_ps"`

	// Added in v3.7.0.
	SceneMinor *uint8 `json:"scene_minor"`
	SceneMajor *uint8 `json:"scene_major"`

	// Added in v3.12.0.
	Language *uint8 `json:"language"`

	// Added in v3.14.0.
	MatchID    *string `json:"match_id"`
	GameNumber *uint32 `json:"game_number"`
	Tiebreaker *uint32 `json:"tiebreaker"`
}

// PlayerByPort returns the active player config for a 1-based port number,
// or nil if the port is inactive.
func (s *Start) PlayerByPort(port int) *Player {
	for i := range s.Players {
		if s.Players[i].Port == port {
			return &s.Players[i]
		}
	}
	return nil
}
