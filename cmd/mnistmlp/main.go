// Package main provides the mnistmlp command: train and evaluate the MNIST
// perceptron, or extract single samples from IDX files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/klauspost/cpuid/v2"

	"github.com/born-ml/mlp/internal/config"
	"github.com/born-ml/mlp/internal/engine"
	"github.com/born-ml/mlp/internal/mnist"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "train":
		err = runTrain(args)
	case "image":
		err = runImage(args)
	case "label":
		err = runLabel(args)
	case "version":
		fmt.Printf("mnistmlp %s (%s)\n", version, runtime.Version())
		fmt.Println(cpuInfo())
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `mnistmlp %s - MNIST multi-layer perceptron

Commands:
  train -config <file> [flags]         Train, evaluate and write the prediction log
  image <idx-images> <out-file> <n>    Write image n as a text tensor
  label <idx-labels> <out-file> <n>    Write the one-hot label n as a text tensor
  version                              Show version and CPU features

Run "mnistmlp train -h" for training flags.
`, version)
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	cfgPath := fs.String("config", "input.txt", "Path to config file (key = value, or YAML for .yaml/.yml)")
	epochs := fs.Int("epochs", 0, "Override num_epochs")
	batchSize := fs.Int("batch", 0, "Override batch_size")
	hidden := fs.Int("hidden", 0, "Override hidden_size")
	lr := fs.Float64("lr", 0, "Override learning_rate")
	seed := fs.Int64("seed", 0, "Override seed")
	shuffle := fs.Bool("shuffle", false, "Shuffle batch order every epoch")
	budget := fs.Duration("budget", 0, "Stop training after this wall-clock duration (0 = unlimited)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Read(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.ApplyOverrides(config.Overrides{
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		HiddenSize:   *hidden,
		LearningRate: *lr,
		Seed:         *seed,
		Shuffle:      *shuffle,
		TimeBudget:   *budget,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	for _, path := range []string{cfg.TrainImages, cfg.TrainLabels, cfg.TestImages, cfg.TestLabels} {
		if _, err := os.Stat(path); err != nil {
			log.Fatalf("input file: %v", err)
		}
	}

	log.Printf("mnistmlp %s %s", version, cpuInfo())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.New(engine.Config{
		TrainImages:  cfg.TrainImages,
		TrainLabels:  cfg.TrainLabels,
		TestImages:   cfg.TestImages,
		TestLabels:   cfg.TestLabels,
		LogFile:      cfg.LogFile,
		Epochs:       cfg.Epochs,
		BatchSize:    cfg.BatchSize,
		HiddenSize:   cfg.HiddenSize,
		LearningRate: cfg.LearningRate,
		Seed:         cfg.Seed,
		Shuffle:      cfg.Shuffle,
		TimeBudget:   cfg.TimeBudget,
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	trainRes, testRes, err := eng.Run(ctx)
	if err != nil {
		return err
	}
	log.Printf("run=%s epochs=%d batches=%d early_stopped=%t elapsed=%s accuracy=%.2f%%",
		trainRes.RunID, len(trainRes.EpochLosses), trainRes.Batches, trainRes.EarlyStopped,
		trainRes.Elapsed, testRes.Accuracy)
	return nil
}

func runImage(args []string) error {
	src, dst, index, err := sampleArgs("image", "idx-images", args)
	if err != nil {
		return err
	}
	images, err := mnist.LoadImages(src, 1)
	if err != nil {
		return err
	}
	if err := images.WriteImageFile(dst, index); err != nil {
		return err
	}
	log.Printf("wrote image %d (%dx%d) to %s", index, images.Rows(), images.Cols(), dst)
	return nil
}

func runLabel(args []string) error {
	src, dst, index, err := sampleArgs("label", "idx-labels", args)
	if err != nil {
		return err
	}
	labels, err := mnist.LoadLabels(src, 1)
	if err != nil {
		return err
	}
	if err := labels.WriteLabelFile(dst, index); err != nil {
		return err
	}
	class, _ := labels.Label(index)
	log.Printf("wrote label %d (class %d) to %s", index, class, dst)
	return nil
}

func sampleArgs(cmd, srcName string, args []string) (string, string, int, error) {
	if len(args) != 3 {
		return "", "", 0, fmt.Errorf("usage: mnistmlp %s <%s> <out-file> <index>", cmd, srcName)
	}
	index, err := strconv.Atoi(args[2])
	if err != nil {
		return "", "", 0, fmt.Errorf("index %q: %w", args[2], err)
	}
	return args[0], args[1], index, nil
}

// cpuInfo describes the host CPU for run logs.
func cpuInfo() string {
	return fmt.Sprintf("cpu=%q cores=%d threads=%d avx2=%t fma=%t",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores,
		cpuid.CPU.Supports(cpuid.AVX2), cpuid.CPU.Supports(cpuid.FMA3))
}
