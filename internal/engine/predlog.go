package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// predictionLogHeader is the first line of every prediction log.
const predictionLogHeader = "Prediction Log"

// PredictionLog writes per-sample evaluation results:
//
//	Prediction Log
//	Current batch: 0
//	 - image 0: Prediction=7. Label=7
//	 - image 1: Prediction=2. Label=2
//
// Write errors are sticky and reported by Close.
type PredictionLog struct {
	w      *bufio.Writer
	closer io.Closer
}

// NewPredictionLog writes a prediction log to w. Close flushes but does not
// close w.
func NewPredictionLog(w io.Writer) *PredictionLog {
	l := &PredictionLog{w: bufio.NewWriter(w)}
	fmt.Fprintln(l.w, predictionLogHeader)
	return l
}

// CreatePredictionLog creates (or truncates) the log file at path.
func CreatePredictionLog(path string) (*PredictionLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("engine: create prediction log: %w", err)
	}
	l := NewPredictionLog(f)
	l.closer = f
	return l, nil
}

// Batch starts the section of batch n.
func (l *PredictionLog) Batch(n int) {
	fmt.Fprintf(l.w, "Current batch: %d\n", n)
}

// Prediction records the result for the sample at global index image.
func (l *PredictionLog) Prediction(image, predicted, label int) {
	fmt.Fprintf(l.w, " - image %d: Prediction=%d. Label=%d\n", image, predicted, label)
}

// Close flushes buffered lines and closes the underlying file, if any.
func (l *PredictionLog) Close() error {
	err := l.w.Flush()
	if l.closer != nil {
		if cerr := l.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
