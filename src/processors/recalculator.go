// src/processors/recalculator.go
package processors

import (
	"sync"

	"github.com/username/weeklygiving/src/models"
	"go.uber.org/atomic"
)

// RecalcResult is delivered once per dispatched recalculation.
type RecalcResult struct {
	Seq    uint64
	Totals models.Totals
	Err    error
}

// Recalculator runs a TotalsProcessor off the caller's goroutine for every edit.
//
// Results arrive in completion order, not dispatch order, and the receiver keeps the
// last one delivered. A calculation dispatched earlier can therefore land after a newer
// one and show totals one keystroke stale until the next edit. The same holds across
// records: a slow result for the record just left can arrive after navigation and
// replace the totals of the record now shown, until that record is edited or saved.
// Seq is exposed so a receiver can tell, but nothing here reorders or drops results.
type Recalculator struct {
	processor TotalsProcessor
	deliver   func(RecalcResult)
	seq       atomic.Uint64
	wg        sync.WaitGroup
}

func NewRecalculator(processor TotalsProcessor, deliver func(RecalcResult)) *Recalculator {
	return &Recalculator{processor: processor, deliver: deliver}
}

// Dispatch snapshots values and computes their totals on a new goroutine.
func (r *Recalculator) Dispatch(values models.FieldValues, includeSpecial bool) uint64 {
	snapshot := values.Clone()
	seq := r.seq.Inc()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		totals, err := r.processor.Calculate(snapshot, includeSpecial)
		r.deliver(RecalcResult{Seq: seq, Totals: totals, Err: err})
	}()
	return seq
}

// Dispatched returns how many recalculations have been started.
func (r *Recalculator) Dispatched() uint64 {
	return r.seq.Load()
}

// Wait blocks until every dispatched recalculation has been delivered.
func (r *Recalculator) Wait() {
	r.wg.Wait()
}
