package types

// CharacterUsage counts the frames a port spent as one internal character.
// Characters can change mid-game (Zelda/Sheik transformations), so usage is
// bucketed by each frame's own post-frame character, not the Start config.
type CharacterUsage struct {
	Character uint8 `json:"character" label:"character_internal"`
	Frames    int   `json:"frames"`
}

// Netplay holds the display-name bindings from the side-channel metadata
// block, present only for online games.
type Netplay struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// PlayerMetadata is the derived per-port summary.
type PlayerMetadata struct {
	Port       int              `json:"port"`
	Frames     int              `json:"frames"`
	Characters []CharacterUsage `json:"characters"`
	Netplay    *Netplay         `json:"netplay"`
}

// Metadata is derived, not decoded: frame bounds and character usage are
// computed from the frame table after the stream is consumed, then merged
// with whatever the optional side-channel metadata block carried.
type Metadata struct {
	StartAt    *string          `json:"start_at"`
	Platform   *string          `json:"platform"`
	FirstFrame int32            `json:"first_frame"`
	LastFrame  int32            `json:"last_frame"`
	FrameCount int              `json:"frame_count"`
	Players    []PlayerMetadata `json:"players"`
}

// PlayerByPort returns the metadata entry for a 1-based port, or nil.
func (m *Metadata) PlayerByPort(port int) *PlayerMetadata {
	for i := range m.Players {
		if m.Players[i].Port == port {
			return &m.Players[i]
		}
	}
	return nil
}
