package polycubes

import (
	"fmt"

	perrors "github.com/tamirms/polycubes/errors"
)

// knownResults holds Kevin Gong's published free-polycube counts a(1..16),
// http://kevingong.com/Polyominoes/Enumeration.html, indexed by n-1.
var knownResults = [16]uint64{
	1, 1, 2, 8, 29, 166, 1023, 6922, 48311, 346543,
	2522522, 18598427, 138462649, 1039496297, 7859514470, 59795121480,
}

// checkResult compares count against the known-results table for n, when n
// falls within it. It returns ErrResultMismatch (wrapped with the expected
// and actual values) on disagreement, and nil if n is out of the table's
// range or the counts agree.
func checkResult(n int, count uint64) error {
	if n < 1 || n > len(knownResults) {
		return nil
	}
	want := knownResults[n-1]
	if want != count {
		return fmt.Errorf("%w: n=%d want=%d got=%d", perrors.ErrResultMismatch, n, want, count)
	}
	return nil
}
