package cmd

import (
	"testing"

	"github.com/slipkit/slip/labels"
	"github.com/slipkit/slip/types"
)

func TestGameDuration(t *testing.T) {
	tests := []struct {
		frames int
		want   string
	}{
		{0, "0:00"},
		{-5, "0:00"},
		{59, "0:00"},
		{60, "0:01"},
		{3600, "1:00"},
		{28800, "8:00"},
		{9000, "2:30"},
	}
	for _, tt := range tests {
		if got := gameDuration(tt.frames); got != tt.want {
			t.Errorf("gameDuration(%d) = %q, want %q", tt.frames, got, tt.want)
		}
	}
}

func TestEnumName(t *testing.T) {
	table := labels.Default()
	if got := enumName(table, "stage", 32); got != "FINAL_DESTINATION" {
		t.Errorf("enumName(stage, 32) = %q", got)
	}
	if got := enumName(table, "stage", 9999); got != "9999" {
		t.Errorf("enumName(stage, 9999) = %q, want numeric fallback", got)
	}
}

func TestEndMethod(t *testing.T) {
	table := labels.Default()
	if got := endMethod(table, nil); got != "NONE" {
		t.Errorf("endMethod(nil) = %q, want NONE", got)
	}
	if got := endMethod(table, &types.End{Method: 7}); got != "NO_CONTEST" {
		t.Errorf("endMethod(7) = %q, want NO_CONTEST", got)
	}
}

func TestPlayerSummary(t *testing.T) {
	tag := "PPMD"
	placements := [4]int8{1, 0, -1, -1}
	replay := &types.Replay{
		Start: types.Start{Players: []types.Player{
			{Port: 1, Character: 9, Stocks: 4, Nametag: &tag},
		}},
		End: &types.End{Method: 2, Placements: &placements},
		Frames: []types.Frame{
			{Index: -123, Ports: []types.PortData{{
				Port:   1,
				Leader: types.Data{Post: &types.Post{Character: 18, Stocks: 1}},
			}}},
		},
	}

	s := playerSummary(replay, labels.Default(), &replay.Start.Players[0])
	if s.Character != "MARTH" {
		t.Errorf("Character = %q, want MARTH", s.Character)
	}
	if s.Nametag != "PPMD" {
		t.Errorf("Nametag = %q, want PPMD", s.Nametag)
	}
	if s.Stocks != 1 {
		t.Errorf("Stocks = %d, want 1 (last observed frame)", s.Stocks)
	}
	if s.Placement != "2" {
		t.Errorf("Placement = %q, want 2 (0-based on the wire)", s.Placement)
	}
}
