package layout

import (
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/relation"
)

func seeded(seed uint64) Source {
	return Unified(rand.New(rand.NewPCG(seed, seed^0xdeadbeef)))
}

func mustSampler(t *testing.T, cfg Config) *Sampler {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"margin plus sep at limit", func(c *Config) { c.Margin, c.MinSep = 0.25, 0.25 }, true},
		{"negative margin", func(c *Config) { c.Margin = -0.1 }, true},
		{"one point", func(c *Config) { c.MinPoints, c.MaxPoints = 1, 1 }, true},
		{"max below min", func(c *Config) { c.MinPoints, c.MaxPoints = 6, 5 }, true},
		{"over capacity", func(c *Config) { c.MaxPoints = 11 }, true},
		{"zero attempts", func(c *Config) { c.MaxPlacementAttempts = 0 }, true},
		{"zero shuffler", func(c *Config) { c.Shuffler.Names = nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestSampleInvariants(t *testing.T) {
	s := mustSampler(t, DefaultConfig())
	canvas := relation.Canvas(DefaultMargin)

	for _, mode := range relation.Modes {
		for seed := range uint64(300) {
			l, err := s.Sample(seeded(seed), mode)
			if err != nil {
				t.Fatalf("%v seed %d: %v", mode, seed, err)
			}

			if l.Mode != mode {
				t.Errorf("Mode = %v, want %v", l.Mode, mode)
			}
			if n := len(l.Points); n < DefaultMinPoints || n > DefaultMaxPoints {
				t.Errorf("%v seed %d: %d points", mode, seed, n)
			}

			names := map[string]bool{}
			markers := map[string]bool{}
			colors := map[string]bool{}
			for i, p := range l.Points {
				if !canvas.Contains(p.Pos()) {
					t.Errorf("%v seed %d: %s at (%f,%f) outside margins", mode, seed, p.Name, p.X, p.Y)
				}
				if names[p.Name] || markers[p.Marker.Name] || colors[p.Color.Name] {
					t.Errorf("%v seed %d: duplicate attribute on %s", mode, seed, p.Name)
				}
				names[p.Name], markers[p.Marker.Name], colors[p.Color.Name] = true, true, true

				for _, q := range l.Points[i+1:] {
					if d := Distance(p.Pos(), q.Pos()); d < DefaultMinSep {
						t.Errorf("%v seed %d: %s-%s distance %f < %f", mode, seed, p.Name, q.Name, d, DefaultMinSep)
					}
				}
			}
		}
	}
}

func TestSampleQuadrantTruth(t *testing.T) {
	s := mustSampler(t, DefaultConfig())
	seen := map[relation.Relation]int{}

	for seed := range uint64(400) {
		l, err := s.Sample(seeded(seed), relation.Quadrant)
		if err != nil {
			t.Fatal(err)
		}
		if l.Reference != "" {
			t.Errorf("quadrant layout has reference %q", l.Reference)
		}
		target, ok := l.Point(l.Target)
		if !ok {
			t.Fatalf("target %q not among points", l.Target)
		}
		if !relation.Holds(l.Relation, DefaultMinSep, relation.Center, target.Pos()) {
			t.Errorf("seed %d: %s at (%f,%f) is not %v of center", seed, target.Name, target.X, target.Y, l.Relation)
		}
		if l.Anchor() != relation.Center {
			t.Errorf("Anchor() = %v, want center", l.Anchor())
		}
		seen[l.Relation]++
	}

	for _, rel := range relation.All {
		if seen[rel] < 50 {
			t.Errorf("relation %v drawn %d times in 400 samples", rel, seen[rel])
		}
	}
}

func TestSampleDirectionalTruth(t *testing.T) {
	s := mustSampler(t, DefaultConfig())

	for seed := range uint64(400) {
		l, err := s.Sample(seeded(seed), relation.Directional)
		if err != nil {
			t.Fatal(err)
		}
		if l.Target != l.Points[0].Name || l.Reference != l.Points[1].Name {
			t.Fatalf("target/reference = %s/%s, want first two points %s/%s",
				l.Target, l.Reference, l.Points[0].Name, l.Points[1].Name)
		}
		a, b := l.Points[0], l.Points[1]
		if !relation.Holds(l.Relation, DefaultMinSep, b.Pos(), a.Pos()) {
			t.Errorf("seed %d: A(%f,%f) is not %v of B(%f,%f)", seed, a.X, a.Y, l.Relation, b.X, b.Y)
		}
		if l.Anchor() != b.Pos() {
			t.Errorf("Anchor() = %v, want B %v", l.Anchor(), b.Pos())
		}
	}
}

func TestSampleDeterministic(t *testing.T) {
	s := mustSampler(t, DefaultConfig())
	for _, mode := range relation.Modes {
		a, err := s.Sample(seeded(42), mode)
		if err != nil {
			t.Fatal(err)
		}
		b, err := s.Sample(seeded(42), mode)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%v: same seed produced different layouts", mode)
		}

		c, _ := s.Sample(seeded(43), mode)
		if reflect.DeepEqual(a.Points, c.Points) {
			t.Errorf("%v: seeds 42 and 43 produced identical points", mode)
		}
	}
}

func TestSampleSplitSource(t *testing.T) {
	s := mustSampler(t, DefaultConfig())
	src := func() Source {
		return Source{
			Choice:   rand.New(rand.NewPCG(1, 2)),
			Geometry: rand.New(rand.NewPCG(3, 4)),
		}
	}

	a, err := s.Sample(src(), relation.Directional)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Sample(src(), relation.Directional)
	if !reflect.DeepEqual(a, b) {
		t.Error("split source with fixed seeds is not reproducible")
	}
}

func TestSamplePointCountCoverage(t *testing.T) {
	s := mustSampler(t, DefaultConfig())
	counts := map[int]int{}
	rng := rand.New(rand.NewPCG(7, 7))

	for range 1200 {
		l, err := s.Sample(Unified(rng), relation.Quadrant)
		if err != nil {
			t.Fatal(err)
		}
		counts[len(l.Points)]++
	}

	for n := DefaultMinPoints; n <= DefaultMaxPoints; n++ {
		if counts[n] == 0 {
			t.Errorf("point count %d never drawn in 1200 samples", n)
		}
	}
	if len(counts) != DefaultMaxPoints-DefaultMinPoints+1 {
		t.Errorf("unexpected counts drawn: %v", counts)
	}
}

func TestPickRelationSkipsInfeasible(t *testing.T) {
	s := mustSampler(t, DefaultConfig())
	ref := relation.Point{X: 0.15, Y: 0.15}
	want := relation.Rect{MinX: 0.25, MaxX: 0.9, MinY: 0.25, MaxY: 0.9}

	// Near the lower-left corner only upper_right has room.
	for seed := range uint64(200) {
		var st Stats
		rel, region, ok := s.pickRelation(seeded(seed), ref, &st)
		if !ok || rel != relation.UpperRight {
			t.Fatalf("seed %d: pickRelation = %v, %v, want upper_right", seed, rel, ok)
		}
		if !approxRect(region, want) {
			t.Errorf("seed %d: region = %+v, want %+v", seed, region, want)
		}
		if st.AnchorAttempts < 1 || st.AnchorAttempts > len(relation.All) {
			t.Errorf("seed %d: AnchorAttempts = %d", seed, st.AnchorAttempts)
		}
	}
}

func approxRect(a, b relation.Rect) bool {
	const eps = 1e-9
	return math.Abs(a.MinX-b.MinX) < eps && math.Abs(a.MaxX-b.MaxX) < eps &&
		math.Abs(a.MinY-b.MinY) < eps && math.Abs(a.MaxY-b.MaxY) < eps
}

func TestSampleCapacityExceeded(t *testing.T) {
	// Ten points 0.14 apart do not fit in a 0.3 square.
	cfg := DefaultConfig()
	cfg.Margin, cfg.MinSep = 0.35, 0.14
	cfg.MinPoints, cfg.MaxPoints = 10, 10
	cfg.MaxPlacementAttempts = 200
	s := mustSampler(t, cfg)

	_, err := s.Sample(seeded(1), relation.Quadrant)
	if err == nil {
		t.Fatal("expected capacity error")
	}
	if !errors.Is(err, errors.ErrCodeCapacityExceeded) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeCapacityExceeded)
	}
}

func TestSampleRetryExhausted(t *testing.T) {
	// Bypasses Validate: no reference point in [0.3,0.7] leaves 0.45 of room.
	s := &Sampler{
		cfg: Config{
			Margin: 0.3, MinSep: 0.45,
			MinPoints: 5, MaxPoints: 5,
			MaxAnchorAttempts: 8, MaxPlacementAttempts: 10,
		},
		canvas: relation.Canvas(0.3),
	}

	l := Layout{Mode: relation.Directional, Points: make([]Point, 5)}
	err := s.anchorDirectional(seeded(1), &l, make([]bool, 5))
	if !errors.Is(err, errors.ErrCodeRetryExhausted) {
		t.Fatalf("err = %v, want %v", err, errors.ErrCodeRetryExhausted)
	}
	if l.Stats.AnchorAttempts != 8*len(relation.All) {
		t.Errorf("AnchorAttempts = %d, want %d", l.Stats.AnchorAttempts, 8*len(relation.All))
	}
}

func TestSampleInvalidMode(t *testing.T) {
	s := mustSampler(t, DefaultConfig())
	if _, err := s.Sample(seeded(1), relation.Mode(5)); !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("err = %v, want %v", err, errors.ErrCodeInvalidMode)
	}
}

func TestDistance(t *testing.T) {
	got := Distance(relation.Point{X: 0.1, Y: 0.1}, relation.Point{X: 0.4, Y: 0.5})
	if got < 0.4999 || got > 0.5001 {
		t.Errorf("Distance = %f, want 0.5", got)
	}
}
