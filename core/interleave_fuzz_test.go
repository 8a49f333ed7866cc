package core

import "testing"

// FuzzInterleavePlan checks the plan shape for arbitrary window sizes.
func FuzzInterleavePlan(f *testing.F) {
	seeds := [][2]int{{6, 5}, {5, 6}, {1, 1}, {60, 1}, {3, 5}, {0, 4}, {7, 0}}
	for _, s := range seeds {
		f.Add(s[0], s[1])
	}

	f.Fuzz(func(t *testing.T, fa, fb int) {
		if fa > 5000 || fb > 5000 {
			return
		}
		plan, discarded := InterleavePlan(fa, fb)
		if fa <= 0 || fb <= 0 {
			if plan != nil {
				t.Fatalf("expected no plan for %d/%d, got %v", fa, fb, plan)
			}
			return
		}
		if len(plan) != fa {
			t.Fatalf("plan for %d/%d has %d entries", fa, fb, len(plan))
		}
		if want := max(fb-fa, 0); discarded != want {
			t.Fatalf("discarded %d, want %d", discarded, want)
		}
		used := min(fa, fb)
		if plan[0] != 0 || plan[len(plan)-1] != used-1 {
			t.Fatalf("plan for %d/%d does not span all secondary rows: %v", fa, fb, plan)
		}
		for i := 1; i < len(plan); i++ {
			if step := plan[i] - plan[i-1]; step < 0 || step > 1 {
				t.Fatalf("plan for %d/%d skips or reorders rows at %d: %v", fa, fb, i, plan)
			}
		}
	})
}
