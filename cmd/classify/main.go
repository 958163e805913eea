// Command classify runs the X-ray classifier on local image files.
//
//	classify [-model path] [-labels path] [-json] image.png [image.jpg ...]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"

	"github.com/Brownie44l1/xray-api/internal/config"
	"github.com/Brownie44l1/xray-api/internal/handlers"
	"github.com/Brownie44l1/xray-api/internal/logger"
	"github.com/Brownie44l1/xray-api/internal/model"
)

type fileResult struct {
	File       string  `json:"file"`
	Label      string  `json:"label,omitempty"`
	Confidence float32 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	modelPath := fs.String("model", cfg.Model.Path, "path to the ONNX model")
	labelsPath := fs.String("labels", cfg.Model.LabelsPath, "path to the label file")
	onnxLib := fs.String("onnx-lib", cfg.Model.SharedLibraryPath, "path to the onnxruntime shared library")
	asJSON := fs.Bool("json", false, "print results as JSON lines")
	quiet := fs.Bool("quiet", false, "hide the progress bar")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no image files given")
	}

	// stdout carries the results.
	cfg.Log.Output = "stderr"
	if cfg.Log.Service == "xray-api" {
		cfg.Log.Service = "xray-classify"
	}
	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	labels, err := model.LoadLabels(*labelsPath)
	if err != nil {
		return fmt.Errorf("failed to load labels from %s: %w", *labelsPath, err)
	}

	modelServer, err := model.NewServer(model.Options{
		ModelPath:         *modelPath,
		SharedLibraryPath: *onnxLib,
		InputName:         cfg.Model.InputName,
		OutputName:        cfg.Model.OutputName,
	}, labels)
	if err != nil {
		return fmt.Errorf("failed to initialize model server: %w", err)
	}
	defer modelServer.Close()

	classifier, err := model.NewClassifier(modelServer, labels)
	if err != nil {
		return err
	}

	results, failed := classifyFiles(classifier, fs.Args(), !*quiet, log)

	if *asJSON {
		enc := json.NewEncoder(out)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
	} else if err := writeTable(out, results); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// classifyFiles classifies each file in turn. A failing file is reported
// in its result and does not stop the run.
func classifyFiles(c *model.Classifier, files []string, progress bool, log *zap.Logger) ([]fileResult, int) {
	var bar *pb.ProgressBar
	if progress {
		bar = pb.StartNew(len(files))
		defer bar.Finish()
	}

	results := make([]fileResult, 0, len(files))
	failed := 0
	for _, path := range files {
		res := fileResult{File: path}
		pred, err := classifyFile(c, path)
		if err != nil {
			log.Warn("Failed to classify file", zap.String("file", path), zap.Error(err))
			res.Error = err.Error()
			failed++
		} else {
			res.Label = pred.Label
			res.Confidence = pred.Confidence
		}
		results = append(results, res)

		if bar != nil {
			bar.Increment()
		}
	}
	return results, failed
}

func classifyFile(c *model.Classifier, path string) (model.Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Prediction{}, err
	}
	defer f.Close()

	pred, _, err := c.ClassifyReader(f)
	return pred, err
}

func writeTable(out io.Writer, results []fileResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLABEL\tCONFIDENCE")
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\terror\t%s\n", r.File, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\n", r.File, r.Label, handlers.FormatConfidence(r.Confidence))
	}
	return tw.Flush()
}
