package core

// InterleavePlan decides which secondary row is attached to each of fa primary rows
// when fb secondary rows fall in the same window.
//
// Each secondary row is attached to fa/fb consecutive primary rows; the remainder is
// spread with a running error term so that some secondary rows are attached once more.
// When fb exceeds fa the surplus secondary rows are discarded and their count returned.
func InterleavePlan(fa, fb int) (plan []int, discarded int) {
	if fa <= 0 || fb <= 0 {
		return nil, max(fb, 0)
	}
	if fb > fa {
		discarded = fb - fa
		fb = fa
	}

	whole := fa / fb
	rem := fa % fb // fractional part is rem/fb, tracked in units of 1/fb
	plan = make([]int, 0, fa)
	diff := 0
	for sec := 0; len(plan) < fa; sec++ {
		idx := min(sec, fb-1)
		for k := 0; k < whole && len(plan) < fa; k++ {
			plan = append(plan, idx)
		}
		if len(plan) >= fa {
			break
		}
		diff += rem
		if 2*diff > fb {
			plan = append(plan, idx)
			diff -= fb
		}
	}
	return plan, discarded
}
