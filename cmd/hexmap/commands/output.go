package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"go.trai.ch/hexmap/internal/adapters/sqlite" //nolint:depguard // Terrain decoding for display
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/zerr"
)

// tileView is the printed form of one tile.
type tileView struct {
	domain.EffectiveState
	Depth   int             `json:"depth"`
	Terrain *sqlite.Terrain `json:"terrain,omitempty"`
}

func viewOf(es domain.EffectiveState) tileView {
	v := tileView{EffectiveState: es, Depth: es.Coord.Depth()}
	if es.Record != nil {
		if t, err := sqlite.DecodeTerrain(es.Record.Content); err == nil {
			v.Terrain = &t
		}
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to encode output")
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeTree prints one line per tile, indented by depth below the first tile.
func writeTree(w io.Writer, views []tileView) error {
	if len(views) == 0 {
		return nil
	}
	base := views[0].Depth

	var b strings.Builder
	for _, v := range views {
		b.WriteString(strings.Repeat("  ", v.Depth-base))
		b.WriteString(marker(v.EffectiveState))
		b.WriteString(v.Key)

		switch {
		case v.Visual != domain.VisualReady:
			b.WriteString(" (" + string(v.Visual))
			if v.Err != domain.KindNone {
				b.WriteString(": " + string(v.Err))
			}
			b.WriteString(")")
		case v.Terrain != nil:
			fmt.Fprintf(&b, " %s elevation=%.2f moisture=%.2f", v.Terrain.Biome, v.Terrain.Elevation, v.Terrain.Moisture)
		}
		if v.Record != nil {
			b.WriteString(" owner=" + v.Record.OwnerID)
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func marker(es domain.EffectiveState) string {
	switch {
	case es.Flags.IsExpanded:
		return "▾ "
	case es.Record != nil && es.Record.HasChildren:
		return "▸ "
	default:
		return "  "
	}
}
