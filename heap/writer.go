package heap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"heap-loader/records"
	"heap-loader/utils/checksums"

	"github.com/phuslu/log"
)

// Source yields records in load order and io.EOF once it is exhausted.
type Source interface {
	Next() (records.Record, error)
}

type WriterState int

const (
	Accumulating WriterState = iota
	Done
	Failed
)

func (s WriterState) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("WriterState(%d)", int(s))
}

type Stats struct {
	RecordsRead  uint64
	PagesWritten uint64
	BytesWritten uint64
	// CRC32 of the whole heap file image
	Checksum uint32
}

// Writer packs records into pages and hands every full page to a
// PageSink. It owns exactly one open page at a time and is not safe for
// concurrent use; independent loads use independent writers.
type Writer struct {
	logger   log.Logger
	sink     PageSink
	pageSize int
	page     *PageBuffer
	state    WriterState
	records  uint64
	checksum checksums.Running
}

func NewWriter(logger log.Logger, sink PageSink, option FileOptions) (*Writer, error) {
	if err := option.validate(); err != nil {
		return nil, err
	}
	return &Writer{
		logger:   logger,
		sink:     sink,
		pageSize: int(option.PageSizeByte),
		page:     NewPageBuffer(int(option.PageSizeByte)),
		state:    Accumulating,
	}, nil
}

func (w *Writer) ready() error {
	switch w.state {
	case Done:
		return ErrWriterClosed
	case Failed:
		return ErrWriterFailed
	}
	return nil
}

func (w *Writer) fail(err error) error {
	w.state = Failed
	return err
}

// Add encodes r and places it on the open page, flushing that page first
// if r does not fit.
func (w *Writer) Add(r records.Record) error {
	if err := w.ready(); err != nil {
		return err
	}
	w.records++

	encoded := records.Encode(r)
	if len(encoded) > MaxRecordSize(w.pageSize) {
		w.logger.Error().Int32("id", r.ID).Int("size", len(encoded)).Int("page_size", w.pageSize).Msg("record does not fit an empty page")
		return w.fail(fmt.Errorf("%w: record %d is %d bytes, page size %d fits at most %d",
			ErrOversizedRecord, r.ID, len(encoded), w.pageSize, MaxRecordSize(w.pageSize)))
	}

	ok, err := w.page.TryAppend(encoded)
	if err != nil {
		return w.fail(err)
	}
	if ok {
		return nil
	}

	if err := w.flushPage(); err != nil {
		return w.fail(err)
	}

	ok, err = w.page.TryAppend(encoded)
	if err != nil {
		return w.fail(err)
	}
	if !ok {
		return w.fail(fmt.Errorf("%w: record %d on an empty page", ErrOversizedRecord, r.ID))
	}
	return nil
}

// flushPage seals the open page, writes it, and starts a new empty one.
func (w *Writer) flushPage() error {
	if err := w.page.Seal(); err != nil {
		return err
	}

	pageNumber := w.checksum.Pages()
	if err := w.sink.WritePage(pageNumber, w.page.Bytes()); err != nil {
		w.logger.Error().Err(err).Uint64("page", pageNumber).Msg("failed to write page")
		return fmt.Errorf("writing page %d: %w", pageNumber, err)
	}
	w.checksum.Update(w.page.Bytes())

	w.logger.Debug().Uint64("page", pageNumber).Int("records", w.page.Count()).Int("used", w.page.Used()).Msg("page flushed")

	w.page.Reset()
	return nil
}

// Close flushes the open page, even an empty one, and finishes the load.
func (w *Writer) Close() (Stats, error) {
	if err := w.ready(); err != nil {
		return w.Stats(), err
	}
	if err := w.flushPage(); err != nil {
		return w.Stats(), w.fail(err)
	}
	w.state = Done

	stats := w.Stats()
	w.logger.Info().Uint64("records", stats.RecordsRead).Uint64("pages", stats.PagesWritten).Uint64("bytes", stats.BytesWritten).Str("crc32", fmt.Sprintf("%08x", stats.Checksum)).Msg("heap file complete")
	return stats, nil
}

// Load drains src into the heap file and closes the writer. ctx is checked
// between records.
func (w *Writer) Load(ctx context.Context, src Source) (Stats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return w.Stats(), w.fail(err)
		}

		r, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return w.Stats(), w.fail(fmt.Errorf("reading record %d: %w", w.records+1, err))
		}

		if err := w.Add(r); err != nil {
			return w.Stats(), err
		}
	}
	return w.Close()
}

func (w *Writer) Stats() Stats {
	pages := w.checksum.Pages()
	return Stats{
		RecordsRead:  w.records,
		PagesWritten: pages,
		BytesWritten: pages * uint64(w.pageSize),
		Checksum:     w.checksum.Sum(),
	}
}

func (w *Writer) State() WriterState {
	return w.state
}
