package layout

import (
	"errors"
	"fmt"
	"slices"
)

// ErrCoverage reports index ranges that do not tile [0, N) exactly.
var ErrCoverage = errors.New("ranges do not cover the LED index space")

// Range is a half-open LED index range [Start, End).
type Range struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Len returns the number of LEDs in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether index i lies inside the range.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// ValidateCoverage checks that ranges tile [0, n) with no gap, no overlap and
// no empty range. Order of the input does not matter.
func ValidateCoverage(ranges []Range, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: nothing to cover (n=%d)", ErrCoverage, n)
	}
	if len(ranges) == 0 {
		return fmt.Errorf("%w: no ranges for [0,%d)", ErrCoverage, n)
	}

	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b Range) int { return a.Start - b.Start })

	next := 0
	for _, r := range sorted {
		switch {
		case r.Len() <= 0:
			return fmt.Errorf("%w: empty range %s", ErrCoverage, r)
		case r.Start > next:
			return fmt.Errorf("%w: gap %s", ErrCoverage, Range{next, r.Start})
		case r.Start < next:
			return fmt.Errorf("%w: overlap %s", ErrCoverage, Range{r.Start, min(next, r.End)})
		}
		next = r.End
	}
	if next != n {
		if next < n {
			return fmt.Errorf("%w: gap %s", ErrCoverage, Range{next, n})
		}
		return fmt.Errorf("%w: ranges end at %d beyond %d", ErrCoverage, next, n)
	}
	return nil
}
