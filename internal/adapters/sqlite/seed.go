package sqlite

import (
	"context"
	"math"

	"github.com/bytedance/sonic"
	opensimplex "github.com/ojrac/opensimplex-go"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/zerr"
)

// MaxSeedDepth bounds Seed; a full subtree of depth d holds (6^(d+1)-1)/5 tiles.
const MaxSeedDepth = 5

// ErrSeedDepth is returned when Seed is asked for a depth outside 0..MaxSeedDepth.
var ErrSeedDepth = zerr.New("seed depth out of range")

// Terrain is the demo content stored for seeded tiles.
type Terrain struct {
	Elevation float64 `json:"elevation"`
	Moisture  float64 `json:"moisture"`
	Biome     string  `json:"biome"`
}

// DecodeTerrain parses tile content written by Seed.
func DecodeTerrain(content []byte) (Terrain, error) {
	var t Terrain
	if err := sonic.Unmarshal(content, &t); err != nil {
		return Terrain{}, zerr.Wrap(err, "failed to decode terrain")
	}
	return t, nil
}

// directionAngles places each child slot around its parent, in radians.
var directionAngles = [domain.DirectionCount]float64{
	domain.DirectionNorthWest: 2 * math.Pi / 3,
	domain.DirectionNorthEast: math.Pi / 3,
	domain.DirectionEast:      0,
	domain.DirectionSouthEast: 5 * math.Pi / 3,
	domain.DirectionSouthWest: 4 * math.Pi / 3,
	domain.DirectionWest:      math.Pi,
}

// position maps a coordinate to a point in the plane. Each level halves the
// distance between a parent and its children.
func position(c domain.Coord) (x, y float64) {
	scale := 1.0
	for _, d := range c.Path() {
		x += math.Cos(directionAngles[d]) * scale
		y += math.Sin(directionAngles[d]) * scale
		scale /= 2
	}
	return x, y
}

func biome(elevation, moisture float64) string {
	switch {
	case elevation < 0.35:
		return "ocean"
	case elevation > 0.75:
		return "mountain"
	case moisture > 0.6:
		return "forest"
	case moisture < 0.3:
		return "desert"
	default:
		return "plains"
	}
}

// terrainFor derives deterministic content for c from two noise fields.
func terrainFor(elev, moist opensimplex.Noise, c domain.Coord) Terrain {
	x, y := position(c)
	e := octaveNoise(elev, x, y, 4, 1.5, 0.5)
	m := octaveNoise(moist, x, y, 3, 1.0, 0.5)
	return Terrain{
		Elevation: math.Round(e*1000) / 1000,
		Moisture:  math.Round(m*1000) / 1000,
		Biome:     biome(e, m),
	}
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for range octaves {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// Seed fills root and every descendant down to depth levels below it with
// terrain content owned by owner. Existing tiles are replaced. The content is
// a pure function of the map and the coordinate. It returns the number of tiles written.
func (r *Repository) Seed(ctx context.Context, root domain.Coord, depth int, owner string) (int, error) {
	if depth < 0 || depth > MaxSeedDepth {
		return 0, zerr.With(zerr.Wrap(ErrSeedDepth, "failed to seed map"), "depth", depth)
	}

	seed := int64(root.UserID)<<32 | int64(root.GroupID)
	elev := opensimplex.NewNormalized(seed)
	moist := opensimplex.NewNormalized(seed + 1)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, transport(err, "failed to begin seed", root)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `INSERT OR REPLACE INTO tiles
		(user_id, group_id, path, owner_id, content, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, transport(err, "failed to prepare seed", root)
	}
	defer func() { _ = stmt.Close() }()

	now := r.now().UnixNano()
	written := 0
	level := []domain.Coord{root}
	for d := 0; d <= depth; d++ {
		next := make([]domain.Coord, 0, len(level)*domain.DirectionCount)
		for _, c := range level {
			content, err := sonic.Marshal(terrainFor(elev, moist, c))
			if err != nil {
				return 0, zerr.Wrap(err, "failed to encode terrain")
			}
			if _, err := stmt.ExecContext(ctx, c.UserID, c.GroupID, c.Digits(), owner, content, now); err != nil {
				return 0, transport(err, "failed to seed tile", c)
			}
			written++
			if d < depth {
				next = append(next, c.Children()...)
			}
		}
		level = next
	}

	if err := tx.Commit(); err != nil {
		return 0, transport(err, "failed to commit seed", root)
	}
	return written, nil
}
