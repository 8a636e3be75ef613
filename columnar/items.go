package columnar

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/slipkit/slip/types"
)

// itemRow is one item appearance: the items table is long-form, one row
// per item per frame, keyed by (frame, id).
type itemRow struct {
	Frame           int32   `parquet:"frame"`
	Type            int32   `parquet:"type"`
	State           int32   `parquet:"state"`
	Facing          float32 `parquet:"facing"`
	VelocityX       float32 `parquet:"velocity_x"`
	VelocityY       float32 `parquet:"velocity_y"`
	PositionX       float32 `parquet:"position_x"`
	PositionY       float32 `parquet:"position_y"`
	DamageTaken     int32   `parquet:"damage_taken"`
	ExpirationTimer float32 `parquet:"expiration_timer"`
	ID              int64   `parquet:"id"`

	Misc1      *int32 `parquet:"misc_1,optional"`
	Misc2      *int32 `parquet:"misc_2,optional"`
	Misc3      *int32 `parquet:"misc_3,optional"`
	Misc4      *int32 `parquet:"misc_4,optional"`
	Owner      *int32 `parquet:"owner,optional"`
	InstanceID *int32 `parquet:"instance_id,optional"`
}

func i32ptr[T int8 | uint8 | uint16](p *T) *int32 {
	if p == nil {
		return nil
	}
	v := int32(*p)
	return &v
}

func itemToRow(frame int32, it *types.Item) itemRow {
	row := itemRow{
		Frame:           frame,
		Type:            int32(it.Type),
		State:           int32(it.State),
		Facing:          it.Facing,
		VelocityX:       it.Velocity.X,
		VelocityY:       it.Velocity.Y,
		PositionX:       it.Position.X,
		PositionY:       it.Position.Y,
		DamageTaken:     int32(it.DamageTaken),
		ExpirationTimer: it.ExpirationTimer,
		ID:              int64(it.ID),
		Owner:           i32ptr(it.Owner),
		InstanceID:      i32ptr(it.InstanceID),
	}
	if it.Misc != nil {
		row.Misc1 = i32ptr(&it.Misc[0])
		row.Misc2 = i32ptr(&it.Misc[1])
		row.Misc3 = i32ptr(&it.Misc[2])
		row.Misc4 = i32ptr(&it.Misc[3])
	}
	return row
}

// WriteItems serializes every item appearance across the frame table.
// Rows keep stream order: ascending frame, then event order within the
// frame.
func WriteItems(dst io.Writer, r *types.Replay, opts Options) error {
	codec, err := codecFor(opts.Compression)
	if err != nil {
		return err
	}

	w := parquet.NewGenericWriter[itemRow](dst, parquet.Compression(codec))
	rows := make([]itemRow, 0, writeBatch)
	for i := range r.Frames {
		fr := &r.Frames[i]
		for j := range fr.Items {
			rows = append(rows, itemToRow(fr.Index, &fr.Items[j]))
			if len(rows) == writeBatch {
				if _, err := w.Write(rows); err != nil {
					return fmt.Errorf("columnar: write items: %w", err)
				}
				rows = rows[:0]
			}
		}
	}
	if len(rows) > 0 {
		if _, err := w.Write(rows); err != nil {
			return fmt.Errorf("columnar: write items: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("columnar: close items: %w", err)
	}
	return nil
}
