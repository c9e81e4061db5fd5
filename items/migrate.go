package items

import (
	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Progress receives one Tick for every attachment processed. Start is called
// once, with the number of candidates, before the first Tick.
type Progress interface {
	Start(total int)
	Tick()
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(int) {}
func (nopProgress) Tick()     {}
func (nopProgress) Finish()   {}

// A Migrator copies attachments lacking an item into the ItemStore.
type Migrator struct {
	Store    ItemStore
	Resolver *Resolver
	Progress Progress    // may be nil
	Clock    clock.Clock // may be nil

	// Limit caps the number of candidates taken in one run. 0 means all.
	Limit int
}

// SelectCandidates returns up to limit attachment ids which have no item in
// s, lowest id first. A limit <= 0 means all of them.
func SelectCandidates(s ItemStore, limit int) ([]int64, error) {
	ids, err := s.ListMissing(limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing candidates")
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Run migrates every candidate, one at a time, in ascending id order.
//
// A failure to resolve or save one attachment is recorded in the ledger and
// the run continues. If the store becomes unavailable the run stops, and the
// ledger so far is returned along with the error.
func (m *Migrator) Run() (*Ledger, error) {
	clk := m.Clock
	if clk == nil {
		clk = clock.New()
	}
	progress := m.Progress
	if progress == nil {
		progress = nopProgress{}
	}
	start := clk.Now()
	ledger := &Ledger{}

	// the count is only informational. The candidate list is authoritative.
	if n, err := m.Store.CountMissing(); err == nil {
		log.Info().Int("count", n).Msg("not offloaded attachments")
	} else if IsUnavailable(err) {
		return ledger, err
	} else {
		log.Warn().Err(err).Msg("counting candidates")
	}

	ids, err := SelectCandidates(m.Store, m.Limit)
	if err != nil {
		return ledger, err
	}

	progress.Start(len(ids))
	defer progress.Finish()
	for _, id := range ids {
		result := m.migrate(id)
		ledger.add(result)
		progress.Tick()
		if IsUnavailable(result.Err) {
			ledger.Elapsed = clk.Now().Sub(start)
			return ledger, result.Err
		}
	}
	ledger.Elapsed = clk.Now().Sub(start)
	return ledger, nil
}

func (m *Migrator) migrate(id int64) Result {
	rec, err := m.Resolver.Resolve(id)
	if err != nil {
		log.Error().Err(err).Int64("source_id", id).Msg("resolve")
		return Result{SourceID: id, Err: err}
	}
	itemID, err := m.Store.Upsert(rec)
	if err != nil {
		log.Error().Err(err).Int64("source_id", id).Msg("save")
		return Result{SourceID: id, Err: err}
	}
	log.Debug().Int64("source_id", id).Int64("item_id", itemID).Msg("saved")
	return Result{SourceID: id, ItemID: itemID}
}

// Purge removes every item from s, not only those this package wrote.
func Purge(s ItemStore) error {
	return errors.Wrap(s.Truncate(), "purge")
}
