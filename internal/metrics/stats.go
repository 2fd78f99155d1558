// Package metrics accumulates per-batch loss and timing into epoch summaries.
package metrics

import "time"

// Window accumulates loss and timing across the batches of one epoch.
type Window struct {
	samples  int
	steps    int
	lossSum  float64
	lastLoss float64
	compute  time.Duration
}

// Record adds the result of one batch to the window.
func (w *Window) Record(batchSize int, compute time.Duration, loss float64) {
	w.samples += batchSize
	w.steps++
	w.lossSum += loss
	w.lastLoss = loss
	w.compute += compute
}

// Steps returns the number of batches recorded since the last snapshot.
func (w *Window) Steps() int {
	return w.steps
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{
		Batches:  w.steps,
		Samples:  w.samples,
		LastLoss: w.lastLoss,
		Compute:  w.compute,
	}
	if w.steps > 0 {
		snap.MeanLoss = w.lossSum / float64(w.steps)
		snap.AvgBatchMS = (w.compute.Seconds() * 1000) / float64(w.steps)
	}
	if w.compute > 0 {
		snap.SamplesPerSec = float64(w.samples) / w.compute.Seconds()
	}

	*w = Window{}
	return snap
}

// Snapshot represents loggable epoch metrics.
type Snapshot struct {
	Batches       int
	Samples       int
	MeanLoss      float64
	LastLoss      float64
	Compute       time.Duration
	AvgBatchMS    float64
	SamplesPerSec float64
}
