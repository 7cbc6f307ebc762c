package service_test

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/fluxtrack/flux/internal/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "flux.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close test store: %v", err)
		}
	})
	return st
}

// day returns 8am local time on 2024-03-<n>, a safe distance from any DST
// boundary in most locales.
func day(n int) time.Time {
	return time.Date(2024, time.March, n, 8, 0, 0, 0, time.Local)
}

func dayKey(n int) string {
	return day(n).Format("2006-01-02")
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func approx(t *testing.T, got, want, tolerance float64, label string) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Fatalf("%s = %v, want %v (±%v)", label, got, want, tolerance)
	}
}
