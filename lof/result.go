package lof

import (
	"encoding/gob"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/patrikhermansson/olof/store"
)

// Result is the paired table state produced by a batch run and maintained in
// place by an online engine: the neighbor table and the LOF aggregate table,
// plus the options they were built with.
type Result struct {
	opts Options
	nn   *NNTable
	lofs *LOFTable
}

// MinPts returns the neighborhood size the tables were built with.
func (r *Result) MinPts() int {
	return r.opts.MinPts
}

// LOF returns the local outlier factor of an object.
func (r *Result) LOF(id int) (float64, error) {
	return r.lofs.LOF(id)
}

// Neighbors returns a copy of an object's neighbor list.
func (r *Result) Neighbors(id int) (NeighborList, error) {
	return r.nn.Neighbors(id)
}

// Entry returns a copy of an object's aggregated LOF sums.
func (r *Result) Entry(id int) (LOFEntry, error) {
	return r.lofs.Entry(id)
}

// IDs returns the ids of all scored objects, ascending.
func (r *Result) IDs() []int {
	return r.lofs.IDs()
}

// NNTableStats returns the page-access counters of the neighbor table.
func (r *Result) NNTableStats() store.Stats {
	return r.nn.Stats()
}

// LOFTableStats returns the page-access counters of the LOF table.
func (r *Result) LOFTableStats() store.Stats {
	return r.lofs.Stats()
}

// ResetStats zeroes the page-access counters of both tables.
func (r *Result) ResetStats() {
	r.nn.ResetStats()
	r.lofs.ResetStats()
}

// Flush writes out the remaining dirty pages of both tables so the physical
// write counters account for everything dirtied during a run.
func (r *Result) Flush() {
	r.nn.Flush()
	r.lofs.Flush()
}

// savedResult is the serializable version of a Result.
type savedResult struct {
	Options Options
	Lists   map[int]NeighborList
	Entries map[int]LOFEntry
}

// Save writes both tables and their options using gob encoding. A saved
// result can seed a later online session against the same database.
func (r *Result) Save(w io.Writer) error {
	sr := savedResult{
		Options: r.opts,
		Lists:   r.nn.snapshot(),
		Entries: r.lofs.snapshot(),
	}
	if err := gob.NewEncoder(w).Encode(sr); err != nil {
		log.Error().Err(err).Msg("Failed to encode result")
		return err
	}
	log.Info().Msgf("Saved result with %d objects", len(sr.Entries))
	return nil
}

// LoadResult reads a previously saved result using gob decoding and rebuilds
// the reverse-neighbor index. The access counters of the restored tables
// start at zero.
func LoadResult(rd io.Reader) (*Result, error) {
	var sr savedResult
	if err := gob.NewDecoder(rd).Decode(&sr); err != nil {
		log.Error().Err(err).Msg("Failed to decode result")
		return nil, err
	}

	nn, err := NewNNTable(sr.Options)
	if err != nil {
		return nil, err
	}
	lofs, err := NewLOFTable(sr.Options)
	if err != nil {
		return nil, err
	}
	nn.restore(sr.Lists)
	lofs.restore(sr.Entries)

	log.Info().Msgf("Loaded result with %d objects", len(sr.Entries))
	return &Result{opts: sr.Options, nn: nn, lofs: lofs}, nil
}
