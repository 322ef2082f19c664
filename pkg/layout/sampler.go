package layout

import (
	"github.com/matzehuels/spatialbench/pkg/attrs"
	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/relation"
)

const (
	// DefaultMargin keeps points this far from every canvas edge.
	DefaultMargin = 0.1

	// DefaultMinSep is both the minimum pairwise distance and the minimum
	// per-axis offset for a relation to hold.
	DefaultMinSep = 0.1

	DefaultMinPoints = 5
	DefaultMaxPoints = 10

	// DefaultMaxAnchorAttempts bounds how many reference points the
	// directional anchor phase may draw. One attempt tries every relation.
	DefaultMaxAnchorAttempts = 64

	// DefaultMaxPlacementAttempts bounds filler draws per point.
	DefaultMaxPlacementAttempts = 10000
)

// Config holds sampler parameters.
type Config struct {
	Margin    float64
	MinSep    float64
	MinPoints int
	MaxPoints int

	MaxAnchorAttempts    int
	MaxPlacementAttempts int

	// Shuffler styles the points. The zero value uses the default pools.
	Shuffler attrs.Shuffler
}

// DefaultConfig returns the benchmark's standard parameters.
func DefaultConfig() Config {
	return Config{
		Margin:               DefaultMargin,
		MinSep:               DefaultMinSep,
		MinPoints:            DefaultMinPoints,
		MaxPoints:            DefaultMaxPoints,
		MaxAnchorAttempts:    DefaultMaxAnchorAttempts,
		MaxPlacementAttempts: DefaultMaxPlacementAttempts,
		Shuffler:             attrs.Default(),
	}
}

// Validate checks that every relation can be realized. With
// margin+minSep < 0.5 all four quadrant regions are non-empty and every
// reference point inside the margins admits at least one direction.
func (c Config) Validate() error {
	if c.Margin < 0 || c.MinSep < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "margin and min_sep must be non-negative")
	}
	if c.Margin+c.MinSep >= 0.5 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"margin (%g) + min_sep (%g) must be below 0.5", c.Margin, c.MinSep)
	}
	if c.MinPoints < 2 {
		return errors.New(errors.ErrCodeInvalidConfig, "min_points must be at least 2, got %d", c.MinPoints)
	}
	if c.MaxPoints < c.MinPoints {
		return errors.New(errors.ErrCodeInvalidConfig,
			"max_points (%d) must not be below min_points (%d)", c.MaxPoints, c.MinPoints)
	}
	if limit := c.Shuffler.Capacity(); c.MaxPoints > limit {
		return errors.New(errors.ErrCodeInvalidConfig,
			"max_points (%d) exceeds attribute capacity (%d)", c.MaxPoints, limit)
	}
	if c.MaxAnchorAttempts < 1 || c.MaxPlacementAttempts < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "retry ceilings must be positive")
	}
	return nil
}

// Sampler generates layouts. It holds no per-sample state and is safe for
// concurrent use as long as each goroutine passes its own Source.
type Sampler struct {
	cfg    Config
	canvas relation.Rect
}

// New validates cfg and returns a Sampler.
func New(cfg Config) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sampler{cfg: cfg, canvas: relation.Canvas(cfg.Margin)}, nil
}

// Config returns the sampler's parameters.
func (s *Sampler) Config() Config { return s.cfg }

// Sample generates one layout for mode.
func (s *Sampler) Sample(src Source, mode relation.Mode) (Layout, error) {
	n := s.cfg.MinPoints + src.Choice.IntN(s.cfg.MaxPoints-s.cfg.MinPoints+1)
	assigned, err := s.cfg.Shuffler.Assign(src.Choice, n)
	if err != nil {
		return Layout{}, err
	}

	l := Layout{Mode: mode, Points: make([]Point, n)}
	for i, a := range assigned {
		l.Points[i] = Point{Name: a.Name, Marker: a.Marker, Color: a.Color}
	}

	placed := make([]bool, n)
	switch mode {
	case relation.Quadrant:
		err = s.anchorQuadrant(src, &l, placed)
	case relation.Directional:
		err = s.anchorDirectional(src, &l, placed)
	default:
		return Layout{}, errors.New(errors.ErrCodeInvalidMode, "unknown mode %d", int(mode))
	}
	if err != nil {
		return Layout{}, err
	}

	if err := s.fill(src, &l, placed); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// anchorQuadrant places one random target in a random quadrant.
func (s *Sampler) anchorQuadrant(src Source, l *Layout, placed []bool) error {
	idx := src.Choice.IntN(len(l.Points))
	rel, region, ok := s.pickRelation(src, relation.Center, &l.Stats)
	if !ok {
		return errors.New(errors.ErrCodeRetryExhausted,
			"no quadrant is feasible with margin %g and min_sep %g", s.cfg.Margin, s.cfg.MinSep)
	}

	s.place(l, placed, idx, region.Sample(src.Geometry))
	l.Relation = rel
	l.Target = l.Points[idx].Name
	return nil
}

// anchorDirectional places B uniformly and A in a feasible direction from B.
// A is the first point and B the second.
func (s *Sampler) anchorDirectional(src Source, l *Layout, placed []bool) error {
	const a, b = 0, 1

	for range s.cfg.MaxAnchorAttempts {
		ref := s.canvas.Sample(src.Geometry)
		rel, region, ok := s.pickRelation(src, ref, &l.Stats)
		if !ok {
			continue
		}
		s.place(l, placed, b, ref)
		s.place(l, placed, a, region.Sample(src.Geometry))
		l.Relation = rel
		l.Target = l.Points[a].Name
		l.Reference = l.Points[b].Name
		return nil
	}

	return errors.New(errors.ErrCodeRetryExhausted,
		"no feasible direction after %d reference points", s.cfg.MaxAnchorAttempts)
}

// pickRelation tries the relations in a random order and returns the first
// whose region from ref is non-empty. The first feasible entry of a uniform
// permutation is uniform over the feasible set, so this matches redrawing
// until a feasible relation comes up while never trying one twice.
func (s *Sampler) pickRelation(src Source, ref relation.Point, st *Stats) (relation.Relation, relation.Rect, bool) {
	for _, i := range src.Choice.Perm(len(relation.All)) {
		rel := relation.All[i]
		st.AnchorAttempts++
		if region, ok := relation.RegionFor(rel, s.cfg.Margin, s.cfg.MinSep, ref); ok {
			return rel, region, true
		}
	}
	return 0, relation.Rect{}, false
}

// fill places every unplaced point, in creation order, by rejection sampling.
func (s *Sampler) fill(src Source, l *Layout, placed []bool) error {
	for i := range l.Points {
		if placed[i] {
			continue
		}

		ok := false
		for range s.cfg.MaxPlacementAttempts {
			l.Stats.PlacementDraws++
			c := s.canvas.Sample(src.Geometry)
			if s.separated(l, placed, c) {
				s.place(l, placed, i, c)
				ok = true
				break
			}
		}
		if !ok {
			return errors.New(errors.ErrCodeCapacityExceeded,
				"placement capacity exceeded: point %s found no position %g from %d placed points in %d draws",
				l.Points[i].Name, s.cfg.MinSep, countPlaced(placed), s.cfg.MaxPlacementAttempts)
		}
	}
	return nil
}

// separated reports whether c is at least MinSep from every placed point.
func (s *Sampler) separated(l *Layout, placed []bool, c relation.Point) bool {
	for i, p := range l.Points {
		if placed[i] && Distance(p.Pos(), c) < s.cfg.MinSep {
			return false
		}
	}
	return true
}

func (s *Sampler) place(l *Layout, placed []bool, i int, p relation.Point) {
	l.Points[i].X, l.Points[i].Y = p.X, p.Y
	placed[i] = true
}

func countPlaced(placed []bool) int {
	n := 0
	for _, ok := range placed {
		if ok {
			n++
		}
	}
	return n
}
