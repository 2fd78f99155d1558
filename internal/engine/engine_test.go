package engine

import (
	"bytes"
	"context"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mlp/internal/mnist"
	"github.com/born-ml/mlp/internal/parallel"
)

// patterns are two linearly separable 2x2 images.
var patterns = [2][]byte{
	{255, 255, 0, 0},
	{0, 0, 255, 255},
}

// writeDataset writes n samples alternating between the two patterns.
func writeDataset(t *testing.T, dir, prefix string, n int, rows, cols int) (string, string) {
	t.Helper()
	images := make([][]byte, n)
	labels := make([]byte, n)
	for i := 0; i < n; i++ {
		class := i % 2
		if rows*cols == 4 {
			images[i] = append([]byte(nil), patterns[class]...)
		} else {
			images[i] = bytes.Repeat([]byte{byte(class * 255)}, rows*cols)
		}
		labels[i] = byte(class)
	}
	return writeIDX(t, dir, prefix, rows, cols, images, labels)
}

func writeIDX(t *testing.T, dir, prefix string, rows, cols int, images [][]byte, labels []byte) (string, string) {
	t.Helper()
	var img, lbl bytes.Buffer
	require.NoError(t, mnist.EncodeImages(&img, rows, cols, images))
	require.NoError(t, mnist.EncodeLabels(&lbl, labels))

	imgPath := filepath.Join(dir, prefix+"-images.idx3-ubyte")
	lblPath := filepath.Join(dir, prefix+"-labels.idx1-ubyte")
	require.NoError(t, os.WriteFile(imgPath, img.Bytes(), 0o600))
	require.NoError(t, os.WriteFile(lblPath, lbl.Bytes(), 0o600))
	return imgPath, lblPath
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	trainImg, trainLbl := writeDataset(t, dir, "train", 20, 2, 2)
	testImg, testLbl := writeDataset(t, dir, "test", 10, 2, 2)
	return Config{
		TrainImages:  trainImg,
		TrainLabels:  trainLbl,
		TestImages:   testImg,
		TestLabels:   testLbl,
		LogFile:      filepath.Join(dir, "predictions.log"),
		Epochs:       20,
		BatchSize:    4,
		HiddenSize:   16,
		LearningRate: 0.5,
		Seed:         42,
	}
}

func quietLogger() Option {
	return WithLogger(log.New(io.Discard, "", 0))
}

// fakeClock advances by step on every reading.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestNew_InvalidConfig(t *testing.T) {
	base := testConfig(t)
	mutations := map[string]func(*Config){
		"epochs": func(c *Config) { c.Epochs = 0 },
		"batch":  func(c *Config) { c.BatchSize = 0 },
		"hidden": func(c *Config) { c.HiddenSize = -3 },
		"lr":     func(c *Config) { c.LearningRate = 0 },
		"budget": func(c *Config) { c.TimeBudget = -time.Second },
	}
	for name, mutate := range mutations {
		cfg := base
		mutate(&cfg)
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "data-loaded", DataLoaded.String())
	assert.Equal(t, "training", Training.String())
	assert.Equal(t, "evaluating", Evaluating.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "State(9)", State(9).String())
}

// TestRun_LearnsSeparableData trains on two distinct patterns and expects
// the loss to fall and the test pass to classify them.
func TestRun_LearnsSeparableData(t *testing.T) {
	cfg := testConfig(t)
	e, err := New(cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, Uninitialized, e.State())
	assert.Nil(t, e.Network())

	trainRes, testRes, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Done, e.State())

	require.Len(t, trainRes.EpochLosses, cfg.Epochs)
	assert.Equal(t, cfg.Epochs*5, trainRes.Batches)
	assert.False(t, trainRes.EarlyStopped)
	assert.Equal(t, e.RunID(), trainRes.RunID)
	for _, l := range trainRes.EpochLosses {
		assert.False(t, math.IsNaN(l) || math.IsInf(l, 0))
	}
	assert.Less(t, trainRes.EpochLosses[cfg.Epochs-1], trainRes.EpochLosses[0])

	assert.Equal(t, 10, testRes.Total)
	assert.GreaterOrEqual(t, testRes.Accuracy, 90.0)
	assert.InDelta(t, 100*float64(testRes.Correct)/10, testRes.Accuracy, 1e-12)

	assert.Equal(t, 4, e.Network().FC1().InFeatures())
	assert.Equal(t, mnist.NumClasses, e.Network().FC2().OutFeatures())
}

// TestTrain_Deterministic checks that a fixed seed reproduces the loss curve.
func TestTrain_Deterministic(t *testing.T) {
	for _, shuffle := range []bool{false, true} {
		cfg := testConfig(t)
		cfg.Epochs = 5
		cfg.Shuffle = shuffle

		run := func(seed int64) []float64 {
			c := cfg
			c.Seed = seed
			e, err := New(c, quietLogger())
			require.NoError(t, err)
			defer e.Close()
			res, err := e.Train(context.Background())
			require.NoError(t, err)
			return res.EpochLosses
		}

		first := run(42)
		assert.Equal(t, first, run(42), "shuffle=%t", shuffle)
		assert.NotEqual(t, first, run(7), "shuffle=%t", shuffle)
	}
}

func TestBatchOrder(t *testing.T) {
	e, err := New(Config{Epochs: 1, BatchSize: 1, HiddenSize: 1, LearningRate: 1, Seed: 5, Shuffle: true})
	require.NoError(t, err)

	order := make([]int, 12)
	e.batchOrder(order, 0)
	again := make([]int, 12)
	e.batchOrder(again, 0)
	assert.Equal(t, order, again, "same epoch, same order")

	sorted := append([]int(nil), order...)
	sort.Ints(sorted)
	for i, v := range sorted {
		assert.Equal(t, i, v, "order must be a permutation")
	}

	next := make([]int, 12)
	e.batchOrder(next, 1)
	assert.NotEqual(t, order, next)

	e.cfg.Shuffle = false
	e.batchOrder(order, 3)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

// TestTrain_TimeBudget checks that an exhausted budget ends training
// normally and leaves the engine ready for evaluation.
func TestTrain_TimeBudget(t *testing.T) {
	cfg := testConfig(t)
	cfg.TimeBudget = 10 * time.Second
	clock := &fakeClock{t: time.Unix(0, 0), step: time.Second}

	e, err := New(cfg, quietLogger(), WithClock(clock.Now))
	require.NoError(t, err)

	res, err := e.Train(context.Background())
	require.NoError(t, err)
	assert.True(t, res.EarlyStopped)
	assert.Positive(t, res.Batches)
	assert.Less(t, res.Batches, cfg.Epochs*5)
	assert.GreaterOrEqual(t, res.Elapsed, cfg.TimeBudget)
	assert.NotEmpty(t, res.EpochLosses)
	assert.Equal(t, Training, e.State())

	for _, p := range e.Network().Parameters() {
		for _, v := range p.Tensor().RawMatrix().Data {
			require.False(t, math.IsNaN(v), p.Name())
		}
	}

	testRes, err := e.Test(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, testRes.Total)
	assert.Equal(t, Done, e.State())
}

func TestTrain_Cancelled(t *testing.T) {
	e, err := New(testConfig(t), quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Train(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvalidState(t *testing.T) {
	e, err := New(testConfig(t), quietLogger())
	require.NoError(t, err)

	_, err = e.Train(context.Background())
	require.NoError(t, err)
	_, err = e.Train(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = e.Test(context.Background())
	require.NoError(t, err)
	_, err = e.Test(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = e.Train(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
}

// TestTest_WithoutTraining evaluates the freshly initialized network.
func TestTest_WithoutTraining(t *testing.T) {
	e, err := New(testConfig(t), quietLogger())
	require.NoError(t, err)

	res, err := e.Test(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, res.Total)
	assert.GreaterOrEqual(t, res.Accuracy, 0.0)
	assert.LessOrEqual(t, res.Accuracy, 100.0)
	assert.Equal(t, Done, e.State())
}

func TestDatasetMismatch(t *testing.T) {
	t.Run("label count", func(t *testing.T) {
		cfg := testConfig(t)
		_, shortLabels := writeDataset(t, t.TempDir(), "short", 19, 2, 2)
		cfg.TrainLabels = shortLabels

		e, err := New(cfg, quietLogger())
		require.NoError(t, err)
		_, err = e.Train(context.Background())
		assert.ErrorIs(t, err, ErrDatasetMismatch)
		assert.Equal(t, Uninitialized, e.State())
	})

	t.Run("image size", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Epochs = 1
		cfg.TestImages, cfg.TestLabels = writeDataset(t, t.TempDir(), "big", 6, 3, 3)

		e, err := New(cfg, quietLogger())
		require.NoError(t, err)
		_, _, err = e.Run(context.Background())
		assert.ErrorIs(t, err, ErrDatasetMismatch)
		assert.Equal(t, Training, e.State())
	})
}

func TestTrain_BadFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrainImages = cfg.TrainLabels

	e, err := New(cfg, quietLogger())
	require.NoError(t, err)
	_, err = e.Train(context.Background())
	assert.ErrorIs(t, err, mnist.ErrBadMagic)
}

var predictionLine = regexp.MustCompile(`^ - image (\d+): Prediction=(\d). Label=(-1|\d)$`)

// TestPredictionLogFormat checks the header, batch markers and per-sample
// lines written by Test.
func TestPredictionLogFormat(t *testing.T) {
	cfg := testConfig(t)
	cfg.Epochs = 1
	cfg.BatchSize = 3

	e, err := New(cfg, quietLogger(), WithParallel(parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1}))
	require.NoError(t, err)
	_, _, err = e.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")

	require.Equal(t, "Prediction Log", lines[0])
	// 10 samples in batches of 3: markers before samples 0, 3, 6, 9.
	require.Len(t, lines, 1+4+10)

	image, batch := 0, 0
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "Current batch: ") {
			assert.Equal(t, "Current batch: "+strconv.Itoa(batch), line)
			assert.Zero(t, image%cfg.BatchSize)
			batch++
			continue
		}
		m := predictionLine.FindStringSubmatch(line)
		require.NotNil(t, m, line)
		assert.Equal(t, strconv.Itoa(image), m[1])
		assert.Equal(t, strconv.Itoa(image%2), m[3])
		image++
	}
	assert.Equal(t, 10, image)
	assert.Equal(t, 4, batch)
}

func TestPredictionLog_ZeroLabel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Epochs = 1
	cfg.TestImages, cfg.TestLabels = writeIDX(t, t.TempDir(), "odd", 2, 2,
		[][]byte{patterns[0], patterns[1]}, []byte{0, 12})

	var logBuf bytes.Buffer
	e, err := New(cfg, WithLogger(log.New(&logBuf, "", 0)))
	require.NoError(t, err)
	_, res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Correct, 1, "a zero label row never matches")

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), " - image 1: Prediction=")
	assert.Contains(t, string(data), ". Label=-1\n")
	assert.Contains(t, logBuf.String(), "label 12 at index 1")
}

func TestPredictionLog_Writer(t *testing.T) {
	var buf bytes.Buffer
	l := NewPredictionLog(&buf)
	l.Batch(0)
	l.Prediction(0, 7, 7)
	l.Prediction(1, 3, 2)
	assert.Empty(t, buf.String(), "lines are buffered until Close")
	require.NoError(t, l.Close())

	assert.Equal(t, "Prediction Log\nCurrent batch: 0\n - image 0: Prediction=7. Label=7\n - image 1: Prediction=3. Label=2\n", buf.String())
}

// TestTrain_UnwritableLog checks that a bad log path fails before any data
// is read or any parameter is built.
func TestTrain_UnwritableLog(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogFile = filepath.Join(t.TempDir(), "missing", "log.txt")
	cfg.TrainImages = filepath.Join(t.TempDir(), "absent-images")

	e, err := New(cfg, quietLogger())
	require.NoError(t, err)

	_, _, err = e.Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "prediction log")
	assert.Equal(t, Uninitialized, e.State())
	assert.Nil(t, e.Network())
}

// TestTrain_LogCreatedUpFront checks that Train creates the log and that
// Close releases it when Test never runs.
func TestTrain_LogCreatedUpFront(t *testing.T) {
	cfg := testConfig(t)
	cfg.Epochs = 1

	e, err := New(cfg, quietLogger())
	require.NoError(t, err)
	_, err = e.Train(context.Background())
	require.NoError(t, err)
	require.FileExists(t, cfg.LogFile)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Equal(t, "Prediction Log\n", string(data))

	// Test reopens the log after an explicit Close.
	res, err := e.Test(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, res.Total)
}

func TestCreatePredictionLog_BadPath(t *testing.T) {
	_, err := CreatePredictionLog(filepath.Join(t.TempDir(), "missing", "log.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
