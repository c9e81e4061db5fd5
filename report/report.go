// Package report shows a migration to the person running it: a progress bar
// while it runs, a status line at the end, and optionally a table of every
// attachment processed.
package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/fatih/color"

	"github.com/ndlib/s3migrate/items"
)

// Progress draws a progress bar on Output. It satisfies items.Progress.
type Progress struct {
	Output io.Writer
	bar    *pb.ProgressBar
}

var _ items.Progress = &Progress{}

// NewProgress returns a progress bar which draws on w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{Output: w}
}

func (p *Progress) Start(total int) {
	if total == 0 {
		return
	}
	p.bar = pb.New(total).Prefix("Migrating attachments ")
	p.bar.Output = p.Output
	p.bar.ShowElapsedTime = true
	p.bar.RefreshRate = 500 * time.Millisecond
	p.bar.Start()
}

func (p *Progress) Tick() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *Progress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}

// Status writes the final status line of a run. A nil ledger is treated as
// empty.
func Status(w io.Writer, ledger *items.Ledger) {
	if ledger == nil {
		ledger = &items.Ledger{}
	}
	n := ledger.Failures()
	if n == 0 {
		color.New(color.FgGreen).Fprintf(w, "Success: Migration done! %d attachments in %v\n",
			len(ledger.Results), ledger.Elapsed.Round(time.Millisecond))
		return
	}
	color.New(color.FgYellow).Fprintf(w, "Warning: Migration done with %d failures. %d of %d attachments saved in %v\n",
		n, ledger.Succeeded(), len(ledger.Results), ledger.Elapsed.Round(time.Millisecond))
}

// Table writes the outcome of every attachment in the ledger. The item id is
// shown for saved attachments, and "false" for the rest.
//
// Example output
//
//	PostId   AS3CF
//	23       12
//	49       false
func Table(w io.Writer, ledger *items.Ledger) error {
	tw := tabwriter.NewWriter(w, 5, 1, 3, ' ', 0)
	fmt.Fprintf(tw, "PostId\tAS3CF\n")
	for _, r := range ledger.Results {
		outcome := "false"
		if r.OK() {
			outcome = strconv.FormatInt(r.ItemID, 10)
		}
		fmt.Fprintf(tw, "%d\t%s\n", r.SourceID, outcome)
	}
	return tw.Flush()
}
