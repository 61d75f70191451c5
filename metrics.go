package sentgo

import "time"

// Window accumulates loss, accuracy and timing stats across training steps.
type Window struct {
	samples int
	correct int
	data    time.Duration
	compute time.Duration
	steps   int
	lossSum float64
	lossN   int
}

// Record adds one step's measurements to the window.
func (w *Window) Record(batchSize, correct int, dataTime, computeTime time.Duration, loss float64) {
	w.samples += batchSize
	w.correct += correct
	w.data += dataTime
	w.compute += computeTime
	w.steps++
	w.lossSum += loss * float64(batchSize)
	w.lossN += batchSize
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{}
	total := w.data + w.compute
	if total > 0 {
		snap.ReviewsPerSec = float64(w.samples) / total.Seconds()
	}
	if w.steps > 0 {
		snap.AvgDataMS = (w.data.Seconds() * 1000) / float64(w.steps)
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.steps)
	}
	if w.lossN > 0 {
		snap.MeanLoss = w.lossSum / float64(w.lossN)
		snap.Accuracy = float64(w.correct) / float64(w.lossN)
	}
	*w = Window{}
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	ReviewsPerSec float64
	AvgDataMS     float64
	AvgComputeMS  float64
	MeanLoss      float64
	Accuracy      float64
}
