package core

// Window lengths, in units of the file frequency, used when smoothing label sequences.
const (
	minuteSmoothFactor = 10
	secondSmoothFactor = 30
)

// smoothWindow returns the number of rows in one smoothing window.
func smoothWindow(freq int, perMinute bool) int {
	if freq < 1 {
		freq = 1
	}
	if perMinute {
		return freq * minuteSmoothFactor
	}
	return freq * secondSmoothFactor
}

// Smooth replaces every value with the majority value of its fixed, non-overlapping window.
// The last window may be shorter. Ties go to the value seen first in the window.
func Smooth[T comparable](values []T, freq int, perMinute bool) []T {
	window := smoothWindow(freq, perMinute)
	out := make([]T, len(values))
	for start := 0; start < len(values); start += window {
		end := min(start+window, len(values))
		winner := majority(values[start:end])
		for i := start; i < end; i++ {
			out[i] = winner
		}
	}
	return out
}
