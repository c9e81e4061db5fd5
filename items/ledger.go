package items

import (
	"time"
)

// A Result is the outcome of migrating one attachment. Exactly one of ItemID
// and Err is set.
type Result struct {
	SourceID int64
	ItemID   int64
	Err      error
}

// OK reports whether the attachment was saved.
func (r Result) OK() bool { return r.Err == nil }

// A Ledger lists the outcome of every attachment processed in a run, in the
// order they were processed.
type Ledger struct {
	Results []Result
	Elapsed time.Duration
}

func (l *Ledger) add(r Result) {
	l.Results = append(l.Results, r)
}

// Failures returns the number of attachments which could not be saved.
func (l *Ledger) Failures() int {
	var n int
	for _, r := range l.Results {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Succeeded returns the number of attachments which were saved.
func (l *Ledger) Succeeded() int {
	return len(l.Results) - l.Failures()
}
