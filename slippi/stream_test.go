package slippi

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/slipkit/slip/encode"
	"github.com/slipkit/slip/query"
	"github.com/slipkit/slip/types"
)

// wtr builds event payloads field by field, mirroring the wire layout.
type wtr struct{ b []byte }

func (w *wtr) u8(v uint8) *wtr { w.b = append(w.b, v); return w }

func (w *wtr) u16(v uint16) *wtr {
	w.b = binary.BigEndian.AppendUint16(w.b, v)
	return w
}

func (w *wtr) u32(v uint32) *wtr {
	w.b = binary.BigEndian.AppendUint32(w.b, v)
	return w
}

func (w *wtr) i32(v int32) *wtr { return w.u32(uint32(v)) }

func (w *wtr) f32(v float32) *wtr { return w.u32(math.Float32bits(v)) }

func (w *wtr) boolean(v bool) *wtr {
	if v {
		return w.u8(1)
	}
	return w.u8(0)
}

// startPayloadLen returns the Game Start payload length a recorder of the
// given version writes: enough bytes to cover the last gated field.
func startPayloadLen(v types.FormatVersion) int {
	size := startRandomSeed + 4
	switch {
	case v.AtLeast(3, 14, 0):
		size = startTiebreaker + 4
	case v.AtLeast(3, 12, 0):
		size = startLanguage + 1
	case v.AtLeast(3, 11, 0):
		size = startSlippiUID + 4*0x1D
	case v.AtLeast(3, 9, 0):
		size = startConnectCode + 4*0xA
	case v.AtLeast(3, 7, 0):
		size = startSceneMajor + 1
	case v.AtLeast(2, 0, 0):
		size = startFrozenPS + 1
	case v.AtLeast(1, 5, 0):
		size = startPAL + 1
	case v.AtLeast(1, 3, 0):
		size = startNametag + 4*0x10
	case v.AtLeast(1, 0, 0):
		size = startDashback + 4*0x8
	}
	return size
}

type testPlayer struct {
	port      int
	character uint8
	stocks    uint8
}

func startPayload(v types.FormatVersion, stage uint16, players []testPlayer) []byte {
	p := make([]byte, startPayloadLen(v))
	p[0], p[1], p[2] = v.Major, v.Minor, v.Revision
	binary.BigEndian.PutUint16(p[startInfoBlock+0xE:], stage)
	binary.BigEndian.PutUint32(p[startRandomSeed:], 0xDEADBEEF)

	for i := 0; i < 4; i++ {
		base := startPlayerBase + i*startPlayerSize
		p[base+0x1] = uint8(types.PlayerEmpty)
	}
	for _, tp := range players {
		base := startPlayerBase + (tp.port-1)*startPlayerSize
		p[base+0x0] = tp.character
		p[base+0x1] = uint8(types.PlayerHuman)
		p[base+0x2] = tp.stocks
	}
	return p
}

func prePayload(v types.FormatVersion, frame int32, port int, follower bool, state uint16, percent float32) []byte {
	w := &wtr{}
	w.i32(frame).u8(uint8(port - 1)).boolean(follower)
	w.u32(1).u16(state)
	w.f32(0).f32(0)          // position
	w.f32(1)                 // facing
	w.f32(0).f32(0)          // joystick
	w.f32(0).f32(0)          // cstick
	w.f32(0)                 // trigger
	w.u32(0)                 // buttons
	w.u16(0)                 // physical buttons
	w.f32(0).f32(0)          // trigger L/R
	if v.AtLeast(1, 2, 0) {
		w.u8(128)
	}
	if v.AtLeast(1, 4, 0) {
		w.f32(percent)
	}
	return w.b
}

func postPayload(v types.FormatVersion, frame int32, port int, follower bool, character uint8, state uint16, stocks uint8) []byte {
	w := &wtr{}
	w.i32(frame).u8(uint8(port - 1)).boolean(follower)
	w.u8(character).u16(state)
	w.f32(10).f32(-20) // position
	w.f32(1)           // facing
	w.f32(42.5)        // percent
	w.f32(60)          // shield
	w.u8(0).u8(0).u8(6).u8(stocks)
	if v.AtLeast(0, 2, 0) {
		w.f32(3)
	}
	if v.AtLeast(2, 0, 0) {
		w.u8(0x01).u8(0x02).u8(0).u8(0).u8(0) // flags
		w.f32(0)
		w.boolean(true)
		w.u16(0)
		w.u8(2)
		w.u8(0)
	}
	if v.AtLeast(2, 1, 0) {
		w.u8(0)
	}
	if v.AtLeast(3, 5, 0) {
		w.f32(0).f32(0).f32(0).f32(0).f32(0)
	}
	if v.AtLeast(3, 8, 0) {
		w.f32(0)
	}
	if v.AtLeast(3, 11, 0) {
		w.u32(7)
	}
	return w.b
}

func itemPayload(v types.FormatVersion, frame int32, id uint32) []byte {
	w := &wtr{}
	w.i32(frame)
	w.u16(0x30).u8(1).f32(1)
	w.f32(0).f32(0) // velocity
	w.f32(5).f32(5) // position
	w.u16(0).f32(100).u32(id)
	if v.AtLeast(3, 2, 0) {
		w.u8(1).u8(2).u8(3).u8(4)
	}
	if v.AtLeast(3, 6, 0) {
		w.u8(0)
	}
	if v.AtLeast(3, 16, 0) {
		w.u16(9)
	}
	return w.b
}

func endPayload(v types.FormatVersion, method uint8) []byte {
	w := &wtr{}
	w.u8(method)
	if v.AtLeast(2, 0, 0) {
		w.u8(0xFF) // -1: no LRAS
	}
	if v.AtLeast(3, 13, 0) {
		w.u8(0).u8(1).u8(0xFF).u8(0xFF)
	}
	return w.b
}

// stream assembles a payload-sizes table plus events into one stream.
// Payload lengths are declared from the actual built payloads.
func stream(events ...[]byte) []byte {
	sizes := map[byte]uint16{}
	for _, ev := range events {
		sizes[ev[0]] = uint16(len(ev) - 1)
	}
	codes := make([]int, 0, len(sizes))
	for code := range sizes {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)

	out := []byte{codePayloadSizes, uint8(1 + 3*len(codes))}
	for _, code := range codes {
		out = append(out, byte(code))
		out = binary.BigEndian.AppendUint16(out, sizes[byte(code)])
	}
	for _, ev := range events {
		out = append(out, ev...)
	}
	return out
}

func event(code byte, payload []byte) []byte {
	return append([]byte{code}, payload...)
}

var (
	v010  = types.FormatVersion{Major: 0, Minor: 1}
	v313  = types.FormatVersion{Major: 3, Minor: 13}
	stage = uint16(32) // Final Destination
)

func minimalGame(t *testing.T, v types.FormatVersion) []byte {
	t.Helper()
	players := []testPlayer{{port: 1, character: 2, stocks: 4}, {port: 2, character: 20, stocks: 4}}
	return stream(
		event(codeGameStart, startPayload(v, stage, players)),
		event(codePreFrame, prePayload(v, -123, 1, false, 14, 0)),
		event(codePreFrame, prePayload(v, -123, 2, false, 14, 0)),
		event(codePostFrame, postPayload(v, -123, 1, false, 1, 14, 4)),
		event(codePostFrame, postPayload(v, -123, 2, false, 22, 14, 4)),
		event(codePreFrame, prePayload(v, -122, 1, false, 14, 0)),
		event(codePreFrame, prePayload(v, -122, 2, false, 14, 0)),
		event(codePostFrame, postPayload(v, -122, 1, false, 1, 14, 4)),
		event(codePostFrame, postPayload(v, -122, 2, false, 22, 14, 3)),
		event(codeGameEnd, endPayload(v, 2)),
	)
}

func TestDecodeMinimalGame(t *testing.T) {
	replay, err := Decode(minimalGame(t, v010), Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if !strings.HasPrefix(replay.Hash, "xxh64:") {
		t.Errorf("Hash = %q, want xxh64 prefix", replay.Hash)
	}
	if replay.Start.Stage != stage {
		t.Errorf("Stage = %d, want %d", replay.Start.Stage, stage)
	}
	if got := len(replay.Start.Players); got != 2 {
		t.Fatalf("len(Players) = %d, want 2", got)
	}
	if replay.Start.Players[1].Port != 2 || replay.Start.Players[1].Character != 20 {
		t.Errorf("Players[1] = %+v, want port 2 character 20", replay.Start.Players[1])
	}
	if replay.Start.IsPAL != nil {
		t.Error("IsPAL should be nil below v1.5")
	}

	if got := len(replay.Frames); got != 2 {
		t.Fatalf("len(Frames) = %d, want 2", got)
	}
	if replay.Frames[0].Index != -123 || replay.Frames[1].Index != -122 {
		t.Errorf("frame indices = %d, %d, want -123, -122", replay.Frames[0].Index, replay.Frames[1].Index)
	}

	pd := replay.Frames[0].PortData(1)
	if pd == nil || pd.Leader.Pre == nil || pd.Leader.Post == nil {
		t.Fatal("frame -123 port 1 missing pre or post data")
	}
	if pd.Leader.Pre.Percent != nil {
		t.Error("Pre.Percent should be nil below v1.4")
	}
	if pd.Leader.Post.StateAge != nil {
		t.Error("Post.StateAge should be nil below v0.2")
	}
	if pd.Leader.Post.Percent != 42.5 {
		t.Errorf("Post.Percent = %v, want 42.5", pd.Leader.Post.Percent)
	}

	if replay.End == nil {
		t.Fatal("End = nil")
	}
	if replay.End.Method != 2 {
		t.Errorf("End.Method = %d, want 2", replay.End.Method)
	}
	if replay.End.Placements != nil {
		t.Error("Placements should be nil below v3.13")
	}
	if replay.Truncated {
		t.Error("Truncated = true on a complete stream")
	}
}

func TestDecodeDerivedMetadata(t *testing.T) {
	replay, err := Decode(minimalGame(t, v010), Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	meta := replay.Metadata
	if meta.FirstFrame != -123 || meta.LastFrame != -122 || meta.FrameCount != 2 {
		t.Errorf("frame bounds = %d..%d (%d), want -123..-122 (2)",
			meta.FirstFrame, meta.LastFrame, meta.FrameCount)
	}
	if got := len(meta.Players); got != 2 {
		t.Fatalf("len(meta.Players) = %d, want 2", got)
	}

	for _, pm := range meta.Players {
		total := 0
		for _, usage := range pm.Characters {
			total += usage.Frames
		}
		if total != pm.Frames {
			t.Errorf("port %d: histogram total = %d, want %d", pm.Port, total, pm.Frames)
		}
	}
	p2 := meta.PlayerByPort(2)
	if p2 == nil {
		t.Fatal("no metadata for port 2")
	}
	if len(p2.Characters) != 1 || p2.Characters[0].Character != 22 || p2.Characters[0].Frames != 2 {
		t.Errorf("port 2 usage = %+v, want [{22 2}]", p2.Characters)
	}
}

func TestDecodeVersionGatedFields(t *testing.T) {
	players := []testPlayer{{port: 1, character: 2, stocks: 4}}
	data := stream(
		event(codeGameStart, startPayload(v313, stage, players)),
		event(codeFrameStart, (&wtr{}).i32(-123).u32(1).u32(0).b),
		event(codePreFrame, prePayload(v313, -123, 1, false, 14, 12.5)),
		event(codePostFrame, postPayload(v313, -123, 1, false, 1, 14, 4)),
		event(codeItem, itemPayload(v313, -123, 77)),
		event(codeFrameBookend, (&wtr{}).i32(-123).i32(-123).b),
		event(codeGameEnd, endPayload(v313, 1)),
	)

	replay, err := Decode(data, Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if replay.Start.IsPAL == nil || replay.Start.SceneMajor == nil || replay.Start.Language == nil {
		t.Error("v3.13 start fields missing")
	}
	if replay.Start.MatchID != nil {
		t.Error("MatchID should be nil below v3.14")
	}

	fr := replay.Frames[0]
	if fr.Start == nil || fr.Start.SceneFrameCounter == nil {
		t.Error("frame start missing or ungated")
	}
	if fr.End == nil || fr.End.LatestFinalizedFrame == nil || *fr.End.LatestFinalizedFrame != -123 {
		t.Error("frame bookend missing or ungated")
	}

	pre := fr.PortData(1).Leader.Pre
	if pre.Percent == nil || *pre.Percent != 12.5 {
		t.Errorf("Pre.Percent = %v, want 12.5", pre.Percent)
	}
	post := fr.PortData(1).Leader.Post
	if post.Flags == nil || *post.Flags != 0x0201 {
		t.Errorf("Post.Flags = %v, want 0x0201", post.Flags)
	}
	if post.Airborne == nil || !*post.Airborne {
		t.Error("Post.Airborne = nil or false, want true")
	}
	if post.AnimationIndex == nil || *post.AnimationIndex != 7 {
		t.Errorf("Post.AnimationIndex = %v, want 7", post.AnimationIndex)
	}

	if got := len(fr.Items); got != 1 {
		t.Fatalf("len(Items) = %d, want 1", got)
	}
	item := fr.Items[0]
	if item.ID != 77 || item.Misc == nil || item.Owner == nil {
		t.Errorf("item = %+v, want id 77 with misc and owner set", item)
	}
	if item.InstanceID != nil {
		t.Error("InstanceID should be nil below v3.16")
	}

	if replay.End.Placements == nil {
		t.Fatal("Placements = nil at v3.13")
	}
	if replay.End.Placements[0] != 0 || replay.End.Placements[2] != -1 {
		t.Errorf("Placements = %v, want [0 1 -1 -1]", replay.End.Placements)
	}
}

func TestDecodeTruncatedStream(t *testing.T) {
	data := minimalGame(t, v010)
	// Cut inside the final event's payload.
	data = data[:len(data)-3]

	stats := NewCollector()
	replay, err := Decode(data, Options{Stats: stats})
	if replay == nil {
		t.Fatal("Decode() = nil replay, want partial")
	}
	if !IsTruncated(err) {
		t.Fatalf("error = %v, want truncated stream", err)
	}
	if !replay.Truncated {
		t.Error("Truncated = false")
	}
	if got := len(replay.Frames); got != 2 {
		t.Errorf("len(Frames) = %d, want 2 (complete events retained)", got)
	}
	if replay.End != nil {
		t.Error("End decoded from a cut payload")
	}
	if !stats.Snapshot().Truncated {
		t.Error("collector not marked truncated")
	}
}

func TestDecodeUnknownEventCode(t *testing.T) {
	players := []testPlayer{{port: 1, character: 2, stocks: 4}}
	data := stream(event(codeGameStart, startPayload(v010, stage, players)))
	data = append(data, 0x7F) // undeclared code

	replay, err := Decode(data, Options{})
	if replay == nil {
		t.Fatal("Decode() = nil replay, want partial")
	}
	if !IsUnknownEvent(err) {
		t.Fatalf("error = %v, want unknown event", err)
	}
	if replay.Truncated {
		t.Error("unknown code must not mark the replay truncated")
	}
}

func TestDecodeBadSignature(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("not a replay at all")},
		{"no size table", []byte{0x36, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replay, err := Decode(tt.data, Options{})
			if replay != nil {
				t.Fatal("Decode() returned a replay for unusable input")
			}
			if !IsMalformedHeader(err) {
				t.Errorf("error = %v, want malformed header", err)
			}
		})
	}
}

func TestDecodeRollbackOverwrite(t *testing.T) {
	players := []testPlayer{{port: 1, character: 2, stocks: 4}}
	v := v010
	data := stream(
		event(codeGameStart, startPayload(v, stage, players)),
		event(codePostFrame, postPayload(v, -123, 1, false, 1, 14, 4)),
		event(codePostFrame, postPayload(v, -123, 1, false, 1, 20, 4)), // rollback rewrite
	)

	stats := NewCollector()
	replay, err := Decode(data, Options{Stats: stats})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := stats.Snapshot().Rollbacks; got != 1 {
		t.Errorf("Rollbacks = %d, want 1", got)
	}
	post := replay.Frames[0].PortData(1).Leader.Post
	if post.State != 20 {
		t.Errorf("State = %d, want 20 (last write wins)", post.State)
	}
}

func TestDecodeSkipFrames(t *testing.T) {
	replay, err := Decode(minimalGame(t, v010), Options{SkipFrames: true})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(replay.Frames) != 0 {
		t.Errorf("len(Frames) = %d, want 0", len(replay.Frames))
	}
	if replay.End == nil {
		t.Error("End should still decode with SkipFrames")
	}
}

func ubjKey(s string) []byte {
	return append([]byte{'U', byte(len(s))}, s...)
}

func ubjStr(s string) []byte {
	return append([]byte{'S', 'U', byte(len(s))}, s...)
}

func TestDecodeContainerAndMetadata(t *testing.T) {
	events := minimalGame(t, v010)

	var meta []byte
	meta = append(meta, '{')
	meta = append(meta, ubjKey("startAt")...)
	meta = append(meta, ubjStr("2023-07-01T12:00:00Z")...)
	meta = append(meta, ubjKey("playedOn")...)
	meta = append(meta, ubjStr("dolphin")...)
	meta = append(meta, ubjKey("players")...)
	meta = append(meta, '{')
	meta = append(meta, ubjKey("0")...)
	meta = append(meta, '{')
	meta = append(meta, ubjKey("names")...)
	meta = append(meta, '{')
	meta = append(meta, ubjKey("netplay")...)
	meta = append(meta, ubjStr("MANG0")...)
	meta = append(meta, ubjKey("code")...)
	meta = append(meta, ubjStr("MANG#0")...)
	meta = append(meta, '}', '}', '}', '}')

	var file []byte
	file = append(file, rawHeader...)
	file = binary.BigEndian.AppendUint32(file, uint32(len(events)))
	file = append(file, events...)
	file = append(file, metadataKey...)
	file = append(file, meta...)
	file = append(file, '}')

	replay, err := Decode(file, Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if replay.Metadata.StartAt == nil || *replay.Metadata.StartAt != "2023-07-01T12:00:00Z" {
		t.Errorf("StartAt = %v, want 2023-07-01T12:00:00Z", replay.Metadata.StartAt)
	}
	if replay.Metadata.Platform == nil || *replay.Metadata.Platform != "dolphin" {
		t.Errorf("Platform = %v, want dolphin", replay.Metadata.Platform)
	}
	p1 := replay.Metadata.PlayerByPort(1)
	if p1 == nil || p1.Netplay == nil {
		t.Fatal("port 1 netplay metadata missing")
	}
	if p1.Netplay.Name != "MANG0" || p1.Netplay.Code != "MANG#0" {
		t.Errorf("netplay = %+v, want MANG0 / MANG#0", p1.Netplay)
	}
	p2 := replay.Metadata.PlayerByPort(2)
	if p2 == nil || p2.Netplay != nil {
		t.Error("port 2 should have no netplay entry")
	}
}

func TestStartJSONRoundTrip(t *testing.T) {
	for _, v := range []types.FormatVersion{v010, v313} {
		t.Run(v.String(), func(t *testing.T) {
			replay, err := Decode(minimalGame(t, v), Options{})
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			data, err := encode.JSON(query.ValueOf(replay.Start), encode.JSONOptions{})
			if err != nil {
				t.Fatalf("JSON() error = %v", err)
			}

			var got types.Start
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !reflect.DeepEqual(got, replay.Start) {
				t.Errorf("re-decoded start = %+v, want %+v", got, replay.Start)
			}

			// Gated fields keep presence across the trip: absent stays
			// null, never a zero value.
			if present := got.IsPAL != nil; present != v.AtLeast(1, 5, 0) {
				t.Errorf("IsPAL present = %v at %v", present, v)
			}
			if got.MatchID != nil {
				t.Error("MatchID should stay absent below v3.14")
			}
		})
	}
}

func TestDecodeInProgressContainer(t *testing.T) {
	events := minimalGame(t, v010)

	var file []byte
	file = append(file, rawHeader...)
	file = binary.BigEndian.AppendUint32(file, 0) // in-progress: length unknown
	file = append(file, events...)

	replay, err := Decode(file, Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(replay.Frames) != 2 {
		t.Errorf("len(Frames) = %d, want 2", len(replay.Frames))
	}
}
