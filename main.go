package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"heap-loader/dataset"
	"heap-loader/heap"
	"heap-loader/logging"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

type Configuration struct {
	InputFile     string
	PageSizes     []uint32
	OutputDir     string
	HeaderLines   int
	SkipMalformed bool
	LogLevel      string
}

type loadResult struct {
	path  string
	stats heap.Stats
}

func main() {
	config, err := parseArguments(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.CreateLogger(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := run(ctx, *logger, config)
	for _, res := range results {
		if res.path == "" {
			continue
		}
		fmt.Printf("Wrote %d records to %d pages in %s\n", res.stats.RecordsRead, res.stats.PagesWritten, res.path)
	}
	if err != nil {
		logger.Error().Err(err).Msg("load failed")
		stop()
		os.Exit(1)
	}
}

func parseArguments(args []string) (Configuration, error) {
	var config Configuration
	var pageSizes string

	fs := flag.NewFlagSet("heap-loader", flag.ContinueOnError)
	fs.StringVar(&pageSizes, "p", "", "page size in bytes, comma separated for several heap files")
	fs.StringVar(&pageSizes, "pagesize", "", "same as -p")
	fs.StringVar(&config.OutputDir, "o", ".", "directory for heap.<pagesize> files")
	fs.StringVar(&config.OutputDir, "out", ".", "same as -o")
	fs.IntVar(&config.HeaderLines, "header-lines", dataset.DefaultOptions().HeaderLines, "lines to skip before the first record")
	fs.BoolVar(&config.SkipMalformed, "skip-malformed", false, "skip dataset lines with too few columns instead of failing")
	fs.StringVar(&config.LogLevel, "log-level", "info", "debug, info, warn or error")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: heap-loader -p <pagesize>[,<pagesize>...] [flags] <input.csv>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return config, err
	}

	if fs.NArg() != 1 {
		return config, fmt.Errorf("expected exactly one input data file, got %d", fs.NArg())
	}
	config.InputFile = fs.Arg(0)

	if pageSizes == "" {
		return config, fmt.Errorf("page size not specified")
	}
	seen := make(map[uint32]bool)
	for _, part := range strings.Split(pageSizes, ",") {
		size, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return config, fmt.Errorf("bad page size %q: %w", part, err)
		}
		if seen[uint32(size)] {
			return config, fmt.Errorf("page size %d given twice", size)
		}
		seen[uint32(size)] = true
		config.PageSizes = append(config.PageSizes, uint32(size))
	}

	return config, nil
}

// run builds one heap file per page size. Loads share nothing but the
// input path, so they run side by side; the first failure cancels the rest.
func run(ctx context.Context, logger log.Logger, config Configuration) ([]loadResult, error) {
	results := make([]loadResult, len(config.PageSizes))

	g, ctx := errgroup.WithContext(ctx)
	for i, pageSize := range config.PageSizes {
		i, pageSize := i, pageSize
		g.Go(func() error {
			res, err := load(ctx, logger, config, pageSize)
			results[i] = res
			return err
		})
	}
	return results, g.Wait()
}

func load(ctx context.Context, logger log.Logger, config Configuration, pageSize uint32) (loadResult, error) {
	input, err := os.Open(config.InputFile)
	if err != nil {
		logger.Error().Err(err).Str("file", config.InputFile).Msg("failed to open input data file")
		return loadResult{}, err
	}
	defer input.Close()

	options := dataset.DefaultOptions()
	options.HeaderLines = config.HeaderLines
	options.SkipMalformed = config.SkipMalformed

	src, err := dataset.NewSource(logger, input, options)
	if err != nil {
		return loadResult{}, err
	}

	fileOptions := heap.FileOptions{
		PageSizeByte:  pageSize,
		FileDirectory: config.OutputDir,
	}

	hf, err := heap.CreateHeapFile(logger, fileOptions)
	if err != nil {
		return loadResult{}, err
	}

	writer, err := heap.NewWriter(logger, hf, fileOptions)
	if err != nil {
		hf.Close()
		return loadResult{}, err
	}

	stats, err := writer.Load(ctx, src)
	if closeErr := hf.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing %s: %w", hf.Path(), closeErr)
	}
	if err != nil {
		return loadResult{}, fmt.Errorf("page size %d: %w", pageSize, err)
	}

	if src.Skipped() > 0 {
		logger.Warn().Int("skipped", src.Skipped()).Uint32("page_size", pageSize).Msg("malformed dataset lines skipped")
	}
	return loadResult{path: hf.Path(), stats: stats}, nil
}
