package slippi

import (
	"sort"

	"github.com/slipkit/slip/log"
	"github.com/slipkit/slip/types"
)

// builder accumulates decoded events into the replay model. One mutation
// entry point per event kind; the model becomes immutable once finish
// returns.
type builder struct {
	logger *log.Logger
	stats  *Collector

	start    *types.Start
	version  types.FormatVersion
	rawStart []byte

	end    *types.End
	rawEnd []byte

	frames   []types.Frame
	byIndex  map[int32]int
	maxIndex int32
}

func newBuilder(logger *log.Logger, stats *Collector) *builder {
	return &builder{
		logger:  logger,
		stats:   stats,
		byIndex: make(map[int32]int),
	}
}

func (b *builder) setStart(ev *StartEvent) {
	start := ev.Start
	b.start = &start
	b.version = start.Version
	b.rawStart = ev.Raw
}

func (b *builder) apply(ev Event) {
	switch ev := ev.(type) {
	case PreFrameEvent:
		slot := b.slot(ev.Frame, ev.Port, ev.Follower)
		if slot.Pre != nil {
			b.stats.RecordRollback()
			b.logger.Debug("pre-frame rewritten by rollback", map[string]any{
				"frame": ev.Frame, "port": ev.Port, "follower": ev.Follower,
			})
		}
		pre := ev.Pre
		slot.Pre = &pre

	case PostFrameEvent:
		slot := b.slot(ev.Frame, ev.Port, ev.Follower)
		if slot.Post != nil {
			b.stats.RecordRollback()
			b.logger.Debug("post-frame rewritten by rollback", map[string]any{
				"frame": ev.Frame, "port": ev.Port, "follower": ev.Follower,
			})
		}
		post := ev.Post
		slot.Post = &post

	case ItemEvent:
		f := b.frameAt(ev.Frame)
		f.Items = append(f.Items, ev.Item)

	case FrameStartEvent:
		f := b.frameAt(ev.Frame)
		start := ev.Start
		f.Start = &start

	case BookendEvent:
		f := b.frameAt(ev.Frame)
		end := ev.End
		f.End = &end

	case EndEvent:
		end := ev.End
		b.end = &end
		b.rawEnd = ev.Raw
	}
}

// frameAt returns the frame for a signed index, creating it on first
// sight. Frame indices are expected to only ever grow; an unseen index
// below the current maximum is flagged, not rejected, since everything
// before it has already been retained.
func (b *builder) frameAt(index int32) *types.Frame {
	if pos, ok := b.byIndex[index]; ok {
		return &b.frames[pos]
	}
	if len(b.frames) > 0 && index < b.maxIndex {
		b.stats.RecordOutOfOrder()
		b.logger.Warn("out-of-order frame index", map[string]any{
			"frame": index, "max_seen": b.maxIndex,
		})
	}
	b.frames = append(b.frames, types.Frame{Index: index})
	b.byIndex[index] = len(b.frames) - 1
	if index > b.maxIndex || len(b.frames) == 1 {
		b.maxIndex = index
	}
	return &b.frames[len(b.frames)-1]
}

// slot returns the leader or follower data slot for a port on a frame,
// creating intermediate records as needed. Follower presence is strictly
// per-frame: a follower slot exists only on frames that carried data for
// it.
func (b *builder) slot(index int32, port int, follower bool) *types.Data {
	f := b.frameAt(index)
	var pd *types.PortData
	for i := range f.Ports {
		if f.Ports[i].Port == port {
			pd = &f.Ports[i]
			break
		}
	}
	if pd == nil {
		f.Ports = append(f.Ports, types.PortData{Port: port})
		pd = &f.Ports[len(f.Ports)-1]
	}
	if !follower {
		return &pd.Leader
	}
	if pd.Follower == nil {
		pd.Follower = &types.Data{}
	}
	return pd.Follower
}

// finish freezes the model: orders frames and ports, derives metadata, and
// merges the side-channel metadata block.
func (b *builder) finish(metaBuf []byte) *types.Replay {
	sort.SliceStable(b.frames, func(i, j int) bool {
		return b.frames[i].Index < b.frames[j].Index
	})
	for i := range b.frames {
		ports := b.frames[i].Ports
		sort.SliceStable(ports, func(x, y int) bool {
			return ports[x].Port < ports[y].Port
		})
	}

	replay := &types.Replay{
		Start:    *b.start,
		End:      b.end,
		Frames:   b.frames,
		RawStart: b.rawStart,
		RawEnd:   b.rawEnd,
	}
	replay.Metadata = b.deriveMetadata(replay)
	b.mergeMetadataBlock(&replay.Metadata, metaBuf)
	return replay
}

// deriveMetadata computes the summary from the frame table: frame bounds
// and, per active port, the observed frame count bucketed by each frame's
// own post-frame character. The histogram total always equals the port's
// observed frame count.
func (b *builder) deriveMetadata(replay *types.Replay) types.Metadata {
	meta := types.Metadata{}
	if len(replay.Frames) > 0 {
		meta.FirstFrame = replay.Frames[0].Index
		meta.LastFrame = replay.Frames[len(replay.Frames)-1].Index
		meta.FrameCount = int(meta.LastFrame-meta.FirstFrame) + 1
	}

	for _, p := range replay.Start.Players {
		pm := types.PlayerMetadata{Port: p.Port}
		usage := make(map[uint8]int)
		for i := range replay.Frames {
			pd := replay.Frames[i].PortData(p.Port)
			if pd == nil || pd.Leader.Post == nil {
				continue
			}
			pm.Frames++
			usage[pd.Leader.Post.Character]++
		}
		chars := make([]uint8, 0, len(usage))
		for ch := range usage {
			chars = append(chars, ch)
		}
		sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
		for _, ch := range chars {
			pm.Characters = append(pm.Characters, types.CharacterUsage{
				Character: ch,
				Frames:    usage[ch],
			})
		}
		meta.Players = append(meta.Players, pm)
	}
	return meta
}

// mergeMetadataBlock overlays side-channel values (start timestamp,
// platform, netplay names) onto the derived metadata. The block is
// best-effort: replays saved mid-match have none, and a malformed block
// never fails the decode.
func (b *builder) mergeMetadataBlock(meta *types.Metadata, metaBuf []byte) {
	if len(metaBuf) == 0 {
		return
	}
	block, err := parseMetadataBlock(metaBuf)
	if err != nil {
		b.logger.Debug("ignoring malformed metadata block", map[string]any{"error": err.Error()})
		return
	}

	if s, ok := block["startAt"].(string); ok {
		meta.StartAt = &s
	}
	if s, ok := block["playedOn"].(string); ok {
		meta.Platform = &s
	}

	players, ok := block["players"].(map[string]any)
	if !ok {
		return
	}
	for i := range meta.Players {
		pm := &meta.Players[i]
		// Side-channel player keys are 0-based port numbers.
		entry, ok := players[portKey(pm.Port-1)].(map[string]any)
		if !ok {
			continue
		}
		names, ok := entry["names"].(map[string]any)
		if !ok {
			continue
		}
		netplay := types.Netplay{}
		if s, ok := names["netplay"].(string); ok {
			netplay.Name = s
		}
		if s, ok := names["code"].(string); ok {
			netplay.Code = s
		}
		if netplay.Name != "" || netplay.Code != "" {
			pm.Netplay = &netplay
		}
	}
}

func portKey(i int) string {
	return string(rune('0' + i))
}
