package main

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"heap-loader/dataset"
	"heap-loader/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArguments(t *testing.T) {

	t.Run("short and long flags", func(t *testing.T) {
		config, err := parseArguments([]string{"-p", "4096", "artists.csv"})
		require.Nil(t, err)
		assert.Equal(t, []uint32{4096}, config.PageSizes)
		assert.Equal(t, "artists.csv", config.InputFile)
		assert.Equal(t, ".", config.OutputDir)
		assert.Equal(t, 4, config.HeaderLines)

		config, err = parseArguments([]string{"--pagesize", "1024, 2048", "--out", "/tmp/x", "-skip-malformed", "artists.csv"})
		require.Nil(t, err)
		assert.Equal(t, []uint32{1024, 2048}, config.PageSizes)
		assert.Equal(t, "/tmp/x", config.OutputDir)
		assert.True(t, config.SkipMalformed)
	})

	t.Run("errors", func(t *testing.T) {
		for _, args := range [][]string{
			{"artists.csv"},
			{"-p", "4096"},
			{"-p", "big", "artists.csv"},
			{"-p", "4096,4096", "artists.csv"},
			{"-p", "4096", "a.csv", "b.csv"},
		} {
			_, err := parseArguments(args)
			assert.Error(t, err, strings.Join(args, " "))
		}
	})
}

func writeDataset(t *testing.T, dir string, rows int) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < 4; i++ {
		b.WriteString("\"header\"\n")
	}
	for i := 0; i < rows; i++ {
		cells := make([]string, dataset.ExpectedColumns)
		for c := range cells {
			cells[c] = "NULL"
		}
		cells[1] = "Artist $" + strings.Repeat("x", i%13)
		cells[23] = "1900-01-01"
		cells[133] = "100"
		b.WriteString(`"` + strings.Join(cells, `","`) + "\"\n")
	}
	path := filepath.Join(dir, "artists.csv")
	require.Nil(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestRunBuildsOneHeapFilePerPageSize(t *testing.T) {
	dir := t.TempDir()
	config := Configuration{
		InputFile:   writeDataset(t, dir, 50),
		PageSizes:   []uint32{256, 1024},
		OutputDir:   filepath.Join(dir, "out"),
		HeaderLines: 4,
	}

	results, err := run(context.Background(), *logging.CreateDebugLogger(), config)
	require.Nil(t, err)
	require.Len(t, results, 2)

	for i, size := range config.PageSizes {
		res := results[i]
		assert.Equal(t, filepath.Join(config.OutputDir, "heap."+[]string{"256", "1024"}[i]), res.path)
		assert.Equal(t, uint64(50), res.stats.RecordsRead)

		content, err := os.ReadFile(res.path)
		require.Nil(t, err)
		assert.Equal(t, int(res.stats.PagesWritten)*int(size), len(content))

		total := 0
		for p := 0; p < len(content); p += int(size) {
			page := content[p : p+int(size)]
			total += int(binary.BigEndian.Uint32(page[len(page)-8:]))
		}
		assert.Equal(t, 50, total)
	}
}

func TestRunFailsOnOversizedRecord(t *testing.T) {
	dir := t.TempDir()
	config := Configuration{
		InputFile:   writeDataset(t, dir, 3),
		PageSizes:   []uint32{32},
		OutputDir:   dir,
		HeaderLines: 4,
	}
	_, err := run(context.Background(), *logging.CreateDebugLogger(), config)
	assert.ErrorContains(t, err, "record larger than an empty page")
}

func TestRunMissingInput(t *testing.T) {
	config := Configuration{
		InputFile: filepath.Join(t.TempDir(), "missing.csv"),
		PageSizes: []uint32{4096},
		OutputDir: t.TempDir(),
	}
	_, err := run(context.Background(), *logging.CreateDebugLogger(), config)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
