package columnar

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/parquet-go/parquet-go"

	"github.com/slipkit/slip/types"
)

// fieldKind selects the physical Parquet type of a column.
type fieldKind int

const (
	kindInt32 fieldKind = iota
	kindInt64
	kindFloat
	kindBool
)

// fieldDef is one per-character column: its name suffix and an extractor
// that returns the typed value, or nil when the field was not recorded.
type fieldDef struct {
	name string
	kind fieldKind
	get  func(d *types.Data) any
}

func preField(name string, kind fieldKind, get func(p *types.Pre) any) fieldDef {
	return fieldDef{name: "pre_" + name, kind: kind, get: func(d *types.Data) any {
		if d == nil || d.Pre == nil {
			return nil
		}
		return get(d.Pre)
	}}
}

func postField(name string, kind fieldKind, get func(p *types.Post) any) fieldDef {
	return fieldDef{name: "post_" + name, kind: kind, get: func(d *types.Data) any {
		if d == nil || d.Post == nil {
			return nil
		}
		return get(d.Post)
	}}
}

func speedField(name string, get func(s *types.Speeds) float32) fieldDef {
	return postField("speed_"+name, kindFloat, func(p *types.Post) any {
		if p.Speeds == nil {
			return nil
		}
		return get(p.Speeds)
	})
}

// slotFields lists every per-character column. Output column order is
// fixed by the schema (group fields sort by name), not by this slice.
var slotFields = []fieldDef{
	preField("random_seed", kindInt64, func(p *types.Pre) any { return int64(p.RandomSeed) }),
	preField("state", kindInt32, func(p *types.Pre) any { return int32(p.State) }),
	preField("position_x", kindFloat, func(p *types.Pre) any { return p.Position.X }),
	preField("position_y", kindFloat, func(p *types.Pre) any { return p.Position.Y }),
	preField("facing", kindFloat, func(p *types.Pre) any { return p.Facing }),
	preField("joystick_x", kindFloat, func(p *types.Pre) any { return p.Joystick.X }),
	preField("joystick_y", kindFloat, func(p *types.Pre) any { return p.Joystick.Y }),
	preField("cstick_x", kindFloat, func(p *types.Pre) any { return p.Cstick.X }),
	preField("cstick_y", kindFloat, func(p *types.Pre) any { return p.Cstick.Y }),
	preField("trigger", kindFloat, func(p *types.Pre) any { return p.Trigger }),
	preField("buttons", kindInt64, func(p *types.Pre) any { return int64(p.Buttons) }),
	preField("physical_buttons", kindInt32, func(p *types.Pre) any { return int32(p.PhysicalButtons) }),
	preField("trigger_l", kindFloat, func(p *types.Pre) any { return p.TriggerL }),
	preField("trigger_r", kindFloat, func(p *types.Pre) any { return p.TriggerR }),
	preField("raw_analog_x", kindInt32, func(p *types.Pre) any {
		if p.RawAnalogX == nil {
			return nil
		}
		return int32(*p.RawAnalogX)
	}),
	preField("percent", kindFloat, func(p *types.Pre) any {
		if p.Percent == nil {
			return nil
		}
		return *p.Percent
	}),

	postField("character", kindInt32, func(p *types.Post) any { return int32(p.Character) }),
	postField("state", kindInt32, func(p *types.Post) any { return int32(p.State) }),
	postField("position_x", kindFloat, func(p *types.Post) any { return p.Position.X }),
	postField("position_y", kindFloat, func(p *types.Post) any { return p.Position.Y }),
	postField("facing", kindFloat, func(p *types.Post) any { return p.Facing }),
	postField("percent", kindFloat, func(p *types.Post) any { return p.Percent }),
	postField("shield", kindFloat, func(p *types.Post) any { return p.Shield }),
	postField("last_attack_landed", kindInt32, func(p *types.Post) any { return int32(p.LastAttackLanded) }),
	postField("combo_count", kindInt32, func(p *types.Post) any { return int32(p.ComboCount) }),
	postField("last_hit_by", kindInt32, func(p *types.Post) any { return int32(p.LastHitBy) }),
	postField("stocks", kindInt32, func(p *types.Post) any { return int32(p.Stocks) }),
	postField("state_age", kindFloat, func(p *types.Post) any {
		if p.StateAge == nil {
			return nil
		}
		return *p.StateAge
	}),
	postField("flags", kindInt64, func(p *types.Post) any {
		if p.Flags == nil {
			return nil
		}
		return int64(*p.Flags)
	}),
	postField("misc_as", kindFloat, func(p *types.Post) any {
		if p.MiscAS == nil {
			return nil
		}
		return *p.MiscAS
	}),
	postField("airborne", kindBool, func(p *types.Post) any {
		if p.Airborne == nil {
			return nil
		}
		return *p.Airborne
	}),
	postField("ground", kindInt32, func(p *types.Post) any {
		if p.Ground == nil {
			return nil
		}
		return int32(*p.Ground)
	}),
	postField("jumps", kindInt32, func(p *types.Post) any {
		if p.Jumps == nil {
			return nil
		}
		return int32(*p.Jumps)
	}),
	postField("l_cancel", kindInt32, func(p *types.Post) any {
		if p.LCancel == nil {
			return nil
		}
		return int32(*p.LCancel)
	}),
	postField("hurtbox_state", kindInt32, func(p *types.Post) any {
		if p.HurtboxState == nil {
			return nil
		}
		return int32(*p.HurtboxState)
	}),
	speedField("air_x", func(s *types.Speeds) float32 { return s.AirX }),
	speedField("y", func(s *types.Speeds) float32 { return s.Y }),
	speedField("knockback_x", func(s *types.Speeds) float32 { return s.KnockbackX }),
	speedField("knockback_y", func(s *types.Speeds) float32 { return s.KnockbackY }),
	speedField("ground_x", func(s *types.Speeds) float32 { return s.GroundX }),
	postField("hitlag_frames", kindFloat, func(p *types.Post) any {
		if p.HitlagFrames == nil {
			return nil
		}
		return *p.HitlagFrames
	}),
	postField("animation_index", kindInt64, func(p *types.Post) any {
		if p.AnimationIndex == nil {
			return nil
		}
		return int64(*p.AnimationIndex)
	}),
}

// slot is one column group: a port's leader or follower character.
type slot struct {
	port     int
	follower bool
	prefix   string
}

// detectSlots returns the column groups to emit, ordered by port with the
// leader before the follower. A follower group is emitted when the port's
// starting character implies one, or when any frame carried follower data.
func detectSlots(r *types.Replay) []slot {
	leaders := map[int]bool{}
	followers := map[int]bool{}

	for _, p := range r.Start.Players {
		if p.Type == types.PlayerEmpty {
			continue
		}
		leaders[p.Port] = true
		if p.Character == types.ICEClimbers {
			followers[p.Port] = true
		}
	}
	for i := range r.Frames {
		for j := range r.Frames[i].Ports {
			pd := &r.Frames[i].Ports[j]
			leaders[pd.Port] = true
			if pd.Follower != nil {
				followers[pd.Port] = true
			}
		}
	}

	ports := make([]int, 0, len(leaders))
	for port := range leaders {
		ports = append(ports, port)
	}
	sort.Ints(ports)

	var slots []slot
	for _, port := range ports {
		slots = append(slots, slot{port: port, prefix: fmt.Sprintf("p%d_", port)})
		if followers[port] {
			slots = append(slots, slot{port: port, follower: true, prefix: fmt.Sprintf("p%df_", port)})
		}
	}
	return slots
}

func leafFor(kind fieldKind) parquet.Node {
	switch kind {
	case kindInt64:
		return parquet.Leaf(parquet.Int64Type)
	case kindFloat:
		return parquet.Leaf(parquet.FloatType)
	case kindBool:
		return parquet.Leaf(parquet.BooleanType)
	default:
		return parquet.Leaf(parquet.Int32Type)
	}
}

func framesSchema(slots []slot) *parquet.Schema {
	group := parquet.Group{"frame": parquet.Leaf(parquet.Int32Type)}
	for _, s := range slots {
		for _, f := range slotFields {
			group[s.prefix+f.name] = parquet.Optional(leafFor(f.kind))
		}
	}
	return parquet.NewSchema("frames", group)
}

// fillSlot materializes one slot's columns, one slice per field, indexed
// by frame position. Each slot owns distinct slices, so slots fill
// concurrently without coordination.
func fillSlot(frames []types.Frame, s slot) [][]any {
	cols := make([][]any, len(slotFields))
	for j := range cols {
		cols[j] = make([]any, len(frames))
	}
	for i := range frames {
		var d *types.Data
		if pd := frames[i].PortData(s.port); pd != nil {
			if s.follower {
				d = pd.Follower
			} else {
				d = &pd.Leader
			}
		}
		for j, f := range slotFields {
			cols[j][i] = f.get(d)
		}
	}
	return cols
}

const writeBatch = 512

// WriteFrames serializes the frame table as one wide Parquet table: a
// shared frame index column plus one column group per character slot.
func WriteFrames(dst io.Writer, r *types.Replay, opts Options) error {
	codec, err := codecFor(opts.Compression)
	if err != nil {
		return err
	}

	slots := detectSlots(r)
	schema := framesSchema(slots)

	slotCols := make([][][]any, len(slots))
	var wg sync.WaitGroup
	for i, s := range slots {
		wg.Add(1)
		go func(i int, s slot) {
			defer wg.Done()
			slotCols[i] = fillSlot(r.Frames, s)
		}(i, s)
	}
	wg.Wait()

	w := parquet.NewGenericWriter[map[string]any](dst, schema, parquet.Compression(codec))
	rows := make([]map[string]any, 0, writeBatch)
	for i := range r.Frames {
		row := make(map[string]any, 1+len(slots)*len(slotFields))
		row["frame"] = r.Frames[i].Index
		for si, s := range slots {
			for j, f := range slotFields {
				if v := slotCols[si][j][i]; v != nil {
					row[s.prefix+f.name] = v
				}
			}
		}
		rows = append(rows, row)
		if len(rows) == writeBatch {
			if _, err := w.Write(rows); err != nil {
				return fmt.Errorf("columnar: write frames: %w", err)
			}
			rows = rows[:0]
		}
	}
	if len(rows) > 0 {
		if _, err := w.Write(rows); err != nil {
			return fmt.Errorf("columnar: write frames: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("columnar: close frames: %w", err)
	}
	return nil
}
