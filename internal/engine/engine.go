// Package engine trains and evaluates the MNIST perceptron.
//
// An Engine owns the network, the loss and the optimizer of one run and moves
// through a fixed sequence of states:
//
//	Uninitialized -> DataLoaded -> Training -> Evaluating -> Done
//
// Batches are processed strictly one after another. A batch's forward pass,
// loss, backward pass and parameter updates all complete before the next
// batch starts, so stopping between batches always leaves valid parameters.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/metrics"
	"github.com/born-ml/mlp/internal/mnist"
	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/optim"
	"github.com/born-ml/mlp/internal/parallel"
	"github.com/born-ml/mlp/internal/tensor"
)

var (
	// ErrDatasetMismatch is returned when image and label files disagree, or when
	// a dataset does not fit the network built from an earlier one.
	ErrDatasetMismatch = errors.New("engine: dataset mismatch")

	// ErrInvalidState is returned when an operation is not allowed in the current state.
	ErrInvalidState = errors.New("engine: invalid state")

	// ErrInvalidConfig is returned by New for unusable settings.
	ErrInvalidConfig = errors.New("engine: invalid config")
)

// State is the lifecycle position of an Engine.
type State int

const (
	// Uninitialized: nothing loaded yet.
	Uninitialized State = iota
	// DataLoaded: training data decoded and the network built.
	DataLoaded
	// Training: training has started. Parameters reflect every completed batch,
	// also after Train returns.
	Training
	// Evaluating: the test pass is running or failed.
	Evaluating
	// Done: the test pass completed.
	Done
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case DataLoaded:
		return "data-loaded"
	case Training:
		return "training"
	case Evaluating:
		return "evaluating"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config captures the knobs of one run. Paths are used as given.
type Config struct {
	TrainImages  string
	TrainLabels  string
	TestImages   string
	TestLabels   string
	LogFile      string
	Epochs       int
	BatchSize    int
	HiddenSize   int
	LearningRate float64
	Seed         int64
	Shuffle      bool
	TimeBudget   time.Duration // 0 means unlimited
}

func (c Config) validate() error {
	switch {
	case c.Epochs <= 0:
		return fmt.Errorf("%w: epochs must be > 0 (got %d)", ErrInvalidConfig, c.Epochs)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be > 0 (got %d)", ErrInvalidConfig, c.BatchSize)
	case c.HiddenSize <= 0:
		return fmt.Errorf("%w: hidden size must be > 0 (got %d)", ErrInvalidConfig, c.HiddenSize)
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be > 0 (got %g)", ErrInvalidConfig, c.LearningRate)
	case c.TimeBudget < 0:
		return fmt.Errorf("%w: negative time budget %s", ErrInvalidConfig, c.TimeBudget)
	}
	return nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for progress lines and decoder warnings.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock replaces time.Now for timing and the training time budget.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithParallel sets how per-row evaluation work is spread over goroutines.
// Training is always sequential.
func WithParallel(cfg parallel.Config) Option {
	return func(e *Engine) {
		e.par = cfg
	}
}

// TrainResult summarizes a training pass.
type TrainResult struct {
	RunID string
	// EpochLosses holds the mean batch loss of every epoch that processed at
	// least one batch, including a partial epoch cut short by the time budget.
	EpochLosses  []float64
	Batches      int
	Elapsed      time.Duration
	EarlyStopped bool
}

// TestResult summarizes an evaluation pass.
type TestResult struct {
	Correct  int
	Total    int
	Accuracy float64 // percent
}

// Engine runs training and evaluation for one configuration.
type Engine struct {
	cfg    Config
	logger *log.Logger
	now    func() time.Time
	par    parallel.Config

	state State
	runID string

	net  *nn.MLP
	loss *nn.CrossEntropyLoss
	opt  optim.Optimizer

	plog *PredictionLog // opened by Train, consumed by Test
}

// New creates an Engine. The network is built once the first dataset is
// loaded, sized to its images.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		logger: log.Default(),
		now:    time.Now,
		par:    parallel.DefaultConfig(),
		runID:  uuid.NewString(),
		loss:   nn.NewCrossEntropyLoss(),
		opt:    optim.NewSGD(optim.SGDConfig{LR: cfg.LearningRate}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// RunID returns the identifier logged with every training run.
func (e *Engine) RunID() string {
	return e.runID
}

// Network returns the network, or nil before any dataset was loaded.
func (e *Engine) Network() *nn.MLP {
	return e.net
}

// Train loads the training data and runs the configured number of epochs.
//
// The prediction log is created first, so an unwritable log path fails
// before any data is read. It stays open for Test; call Close if Test is
// not going to run.
//
// Stopping on the time budget is a normal return with EarlyStopped set.
// Context cancellation is checked between batches and returns ctx.Err().
func (e *Engine) Train(ctx context.Context) (_ *TrainResult, err error) {
	if e.state != Uninitialized {
		return nil, fmt.Errorf("%w: cannot train in state %s", ErrInvalidState, e.state)
	}

	if err := e.openLog(); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			e.closeLog()
		}
	}()

	images, labels, err := e.loadDataset(e.cfg.TrainImages, e.cfg.TrainLabels)
	if err != nil {
		return nil, fmt.Errorf("engine: load training data: %w", err)
	}
	e.state = DataLoaded
	e.logger.Printf("run=%s train_samples=%d batches=%d batch_size=%d hidden=%d lr=%g shuffle=%t",
		e.runID, images.Count(), images.NumBatches(), e.cfg.BatchSize, e.cfg.HiddenSize,
		e.cfg.LearningRate, e.cfg.Shuffle)

	e.state = Training
	res := &TrainResult{RunID: e.runID}
	start := e.now()
	order := make([]int, images.NumBatches())
	var window metrics.Window

	for epoch := 0; epoch < e.cfg.Epochs; epoch++ {
		e.batchOrder(order, epoch)
		for _, b := range order {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if e.cfg.TimeBudget > 0 && e.now().Sub(start) >= e.cfg.TimeBudget {
				if window.Steps() > 0 {
					res.EpochLosses = append(res.EpochLosses, window.Snapshot().MeanLoss)
				}
				res.EarlyStopped = true
				res.Elapsed = e.now().Sub(start)
				e.logger.Printf("run=%s time budget %s exhausted: epoch=%d/%d batches=%d",
					e.runID, e.cfg.TimeBudget, epoch+1, e.cfg.Epochs, res.Batches)
				return res, nil
			}

			x, _ := images.Batch(b)
			y, _ := labels.Batch(b)

			stepStart := e.now()
			loss := e.step(x, y)
			rows, _ := x.Dims()
			window.Record(rows, e.now().Sub(stepStart), loss)
			res.Batches++
		}

		snap := window.Snapshot()
		res.EpochLosses = append(res.EpochLosses, snap.MeanLoss)
		e.logger.Printf("epoch=%d/%d loss=%.4f batches=%d samples_per_sec=%.1f elapsed=%s",
			epoch+1, e.cfg.Epochs, snap.MeanLoss, snap.Batches, snap.SamplesPerSec,
			e.now().Sub(start).Round(time.Millisecond))
	}

	res.Elapsed = e.now().Sub(start)
	return res, nil
}

// step runs forward, loss and backward for one batch. The optimizer updates
// each Linear layer inside its Backward call.
func (e *Engine) step(x, y *mat.Dense) float64 {
	probs := e.net.Forward(x)
	loss := e.loss.Forward(probs, y)
	e.net.Backward(e.loss.Backward(y), e.opt)
	return loss
}

// batchOrder fills order with the batch sequence of epoch. With shuffling
// enabled the permutation depends only on the seed and the epoch index.
func (e *Engine) batchOrder(order []int, epoch int) {
	for i := range order {
		order[i] = i
	}
	if !e.cfg.Shuffle {
		return
	}
	rng := rand.New(rand.NewSource(e.cfg.Seed + int64(epoch)))
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
}

// Test loads the test data, writes the prediction log and reports accuracy.
//
// Test may run without a preceding Train, in which case the freshly
// initialized network is evaluated.
func (e *Engine) Test(ctx context.Context) (*TestResult, error) {
	switch e.state {
	case Uninitialized, DataLoaded, Training:
	default:
		return nil, fmt.Errorf("%w: cannot test in state %s", ErrInvalidState, e.state)
	}

	images, labels, err := e.loadDataset(e.cfg.TestImages, e.cfg.TestLabels)
	if err != nil {
		return nil, fmt.Errorf("engine: load test data: %w", err)
	}

	if err := e.openLog(); err != nil {
		return nil, err
	}

	e.state = Evaluating
	res, err := e.evaluate(ctx, images, labels, e.plog)
	if cerr := e.closeLog(); err == nil && cerr != nil {
		err = fmt.Errorf("engine: write prediction log: %w", cerr)
	}
	if err != nil {
		return nil, err
	}

	e.state = Done
	e.logger.Printf("run=%s accuracy=%.2f%% correct=%d total=%d log=%s",
		e.runID, res.Accuracy, res.Correct, res.Total, e.cfg.LogFile)
	return res, nil
}

// evaluate runs the forward pass over every batch in file order and logs one
// line per sample.
func (e *Engine) evaluate(ctx context.Context, images *mnist.ImageSet, labels *mnist.LabelSet, plog *PredictionLog) (*TestResult, error) {
	res := &TestResult{}
	for b := 0; b < images.NumBatches(); b++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		x, _ := images.Batch(b)
		y, _ := labels.Batch(b)

		probs := e.net.Forward(x)
		rows, _ := probs.Dims()
		predicted := make([]int, rows)
		actual := make([]int, rows)
		parallel.ForRows(probs, func(i int, row []float64) {
			predicted[i] = tensor.ArgMax(row)
		}, e.par)
		parallel.ForRows(y, func(i int, row []float64) {
			actual[i] = mnist.ClassOf(row)
		}, e.par)

		plog.Batch(b)
		for i := range predicted {
			plog.Prediction(b*e.cfg.BatchSize+i, predicted[i], actual[i])
			if predicted[i] == actual[i] {
				res.Correct++
			}
		}
		res.Total += rows
	}
	if res.Total > 0 {
		res.Accuracy = 100 * float64(res.Correct) / float64(res.Total)
	}
	return res, nil
}

// Close releases the prediction log if Train opened it and Test never ran.
func (e *Engine) Close() error {
	return e.closeLog()
}

func (e *Engine) openLog() error {
	if e.plog != nil {
		return nil
	}
	plog, err := CreatePredictionLog(e.cfg.LogFile)
	if err != nil {
		return err
	}
	e.plog = plog
	return nil
}

func (e *Engine) closeLog() error {
	if e.plog == nil {
		return nil
	}
	err := e.plog.Close()
	e.plog = nil
	return err
}

// Run trains and then evaluates.
func (e *Engine) Run(ctx context.Context) (*TrainResult, *TestResult, error) {
	trainRes, err := e.Train(ctx)
	if err != nil {
		return nil, nil, err
	}
	testRes, err := e.Test(ctx)
	if err != nil {
		return trainRes, nil, err
	}
	return trainRes, testRes, nil
}

func (e *Engine) loadDataset(imagesPath, labelsPath string) (*mnist.ImageSet, *mnist.LabelSet, error) {
	images, err := mnist.LoadImages(imagesPath, e.cfg.BatchSize)
	if err != nil {
		return nil, nil, err
	}
	labels, err := mnist.LoadLabels(labelsPath, e.cfg.BatchSize, mnist.WithLogger(e.logger))
	if err != nil {
		return nil, nil, err
	}
	if images.Count() != labels.Count() {
		return nil, nil, fmt.Errorf("%w: %d images but %d labels", ErrDatasetMismatch, images.Count(), labels.Count())
	}
	if n := labels.Skipped(); n > 0 {
		e.logger.Printf("run=%s %s: %d labels outside [0, %d] left as zero rows",
			e.runID, labelsPath, n, mnist.NumClasses-1)
	}
	if err := e.ensureNetwork(images.Features()); err != nil {
		return nil, nil, err
	}
	return images, labels, nil
}

func (e *Engine) ensureNetwork(features int) error {
	if features <= 0 {
		return fmt.Errorf("%w: images have no pixels", ErrDatasetMismatch)
	}
	if e.net != nil {
		if in := e.net.FC1().InFeatures(); in != features {
			return fmt.Errorf("%w: images have %d pixels, network expects %d", ErrDatasetMismatch, features, in)
		}
		return nil
	}

	e.net = nn.NewMLP(features, e.cfg.HiddenSize, mnist.NumClasses, rand.New(rand.NewSource(e.cfg.Seed)))
	e.logger.Printf("run=%s network in=%d hidden=%d out=%d params=%d",
		e.runID, features, e.cfg.HiddenSize, mnist.NumClasses, e.net.NumParameters())
	return nil
}
