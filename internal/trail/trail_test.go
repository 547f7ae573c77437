package trail

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/mudra/internal/detector"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func TestNewStore_BothHandsPresent(t *testing.T) {
	s := NewStore(0)
	if s.Lifetime() != DefaultLifetime {
		t.Errorf("lifetime = %v, want %v", s.Lifetime(), DefaultLifetime)
	}
	for _, l := range detector.Labels {
		if s.Len(l) != 0 {
			t.Errorf("%s should start empty", l)
		}
		if _, ok := s.Last(l); ok {
			t.Errorf("%s should have no last point", l)
		}
	}
}

func TestStore_Append(t *testing.T) {
	s := NewStore(time.Second)
	s.Append(detector.Left, Point{X: 1, T: at(0)}, Point{X: 2, T: at(16)})
	s.Append(detector.Left, Point{X: 3, T: at(32)})

	got := s.Points(detector.Left)
	want := []Point{{X: 1, T: at(0)}, {X: 2, T: at(16)}, {X: 3, T: at(32)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Points() mismatch (-want +got):\n%s", diff)
	}
	if s.Len(detector.Right) != 0 {
		t.Error("appending to Left must not touch Right")
	}

	t.Run("rejects out of order points", func(t *testing.T) {
		s.Append(detector.Left, Point{X: 99, T: at(10)})
		if s.Len(detector.Left) != 3 {
			t.Errorf("len = %d, want 3", s.Len(detector.Left))
		}
	})

	t.Run("same timestamp is allowed", func(t *testing.T) {
		s.Append(detector.Left, Point{X: 4, T: at(32)})
		last, _ := s.Last(detector.Left)
		if last.X != 4 {
			t.Errorf("last.X = %f, want 4", last.X)
		}
	})

	t.Run("unknown label ignored", func(t *testing.T) {
		s.Append(detector.Label("Both"), Point{T: at(0)})
		if s.Len(detector.Label("Both")) != 0 {
			t.Error("unknown label should be ignored")
		}
	})
}

func TestStore_AgeOut(t *testing.T) {
	tests := []struct {
		name    string
		now     int
		wantLen int
	}{
		{"nothing expired", 500, 4},
		{"boundary is expired", 1000, 3},
		{"some expired", 1300, 2},
		{"all expired", 5000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(time.Second)
			for _, ms := range []int{0, 200, 400, 600} {
				s.Append(detector.Right, Point{T: at(ms)})
			}
			now := at(tt.now)
			s.AgeOut(now)

			pts := s.Points(detector.Right)
			if len(pts) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(pts), tt.wantLen)
			}
			for i, p := range pts {
				if now.Sub(p.T) >= s.Lifetime() {
					t.Errorf("point %d age %v not below lifetime", i, now.Sub(p.T))
				}
				if i > 0 && p.T.Before(pts[i-1].T) {
					t.Errorf("order broken at %d", i)
				}
			}
		})
	}
}

func TestStore_ClearIsPerHand(t *testing.T) {
	s := NewStore(time.Second)
	s.Append(detector.Left, Point{T: at(0)})
	s.Append(detector.Right, Point{T: at(0)})

	s.Clear(detector.Left)

	if s.Len(detector.Left) != 0 {
		t.Error("Left should be cleared")
	}
	if s.Len(detector.Right) != 1 {
		t.Error("Right should be untouched")
	}

	s.Reset()
	if s.Len(detector.Right) != 0 {
		t.Error("Reset should clear Right")
	}
}

func TestStore_PointsReturnsCopy(t *testing.T) {
	s := NewStore(time.Second)
	s.Append(detector.Left, Point{X: 1, T: at(0)})

	pts := s.Points(detector.Left)
	pts[0].X = 42

	if last, _ := s.Last(detector.Left); last.X != 1 {
		t.Error("mutating the returned slice changed the store")
	}
}
