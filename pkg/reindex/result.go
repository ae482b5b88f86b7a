package reindex

import "fmt"

// Result contains statistics from a reindex run.
type Result struct {
	Posts   int
	Indexed int
	Failed  int
	Skipped int
}

// Summary returns a human-readable summary of the reindex result.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"Reindex complete: %d indexed, %d failed, %d skipped\n"+
			"Scanned %d posts",
		r.Indexed, r.Failed, r.Skipped,
		r.Posts,
	)
}
