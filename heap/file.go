package heap

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"syscall"

	"github.com/phuslu/log"
)

const permissionBits = 0644
const heapFileNamePrefix = "heap"
const heapfileNameSepparate = "."

// MIN_PAGE_SIZE is the smallest page that can hold the trailer of an empty page.
const MIN_PAGE_SIZE = uint32(fixedTrailerWords * wordSize)
const MAX_PAGE_SIZE = uint32(math.MaxInt32)

var (
	ErrInvalidPageSize = fmt.Errorf("invalid page size")
	ErrOversizedRecord = fmt.Errorf("record larger than an empty page")
	ErrPageSealed      = fmt.Errorf("page already sealed")
	ErrWriterClosed    = fmt.Errorf("heap writer closed")
	ErrWriterFailed    = fmt.Errorf("heap writer failed earlier")
	ErrShortWrite      = errors.New("short page write")
)

type FileOptions struct {
	PageSizeByte  uint32
	FileDirectory string
}

func (o FileOptions) validate() error {
	if o.PageSizeByte < MIN_PAGE_SIZE || o.PageSizeByte > MAX_PAGE_SIZE {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidPageSize, o.PageSizeByte, MIN_PAGE_SIZE, MAX_PAGE_SIZE)
	}
	return nil
}

// PageSink receives finished pages in page number order. A page is durable
// once WritePage returns nil.
type PageSink interface {
	WritePage(pageNumber uint64, page []byte) error
}

/*
Heap file on disk
┌──────────────────────────────────────────────────────────────┐
| page 0 (PageSizeByte)                                        |
|──────────────────────────────────────────────────────────────|
| page 1 (PageSizeByte)                                        |
|──────────────────────────────────────────────────────────────|
| ......                                                       |
└──────────────────────────────────────────────────────────────┘
no file header; page n starts at n * PageSizeByte.
*/
type HeapFile struct {
	fd       int
	path     string
	pageSize uint32
	logger   log.Logger
}

func heapFileName(pageSize uint32) string {
	return fmt.Sprintf("%s%s%d", heapFileNamePrefix, heapfileNameSepparate, pageSize)
}

// CreateHeapFile creates <FileDirectory>/heap.<PageSizeByte>, replacing a
// file left over from an earlier run.
func CreateHeapFile(logger log.Logger, option FileOptions) (*HeapFile, error) {
	if err := option.validate(); err != nil {
		return nil, err
	}

	dir := option.FileDirectory
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("failed to create heap file directory")
		return nil, err
	}

	path := filepath.Join(dir, heapFileName(option.PageSizeByte))

	if _, err := os.Stat(path); err == nil {
		logger.Warn().Str("file", path).Msg("output heap file already exists, removing")
		if err := syscall.Unlink(path); err != nil {
			logger.Error().Err(err).Str("file", path).Msg("failed to remove old heap file")
			return nil, err
		}
	}

	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_CREAT|syscall.O_TRUNC, permissionBits)
	if err != nil {
		logger.Error().Err(err).Str("file", path).Msg("failed to open heap file")
		return nil, err
	}

	return &HeapFile{
		fd:       fd,
		path:     path,
		pageSize: option.PageSizeByte,
		logger:   logger,
	}, nil
}

func (hf *HeapFile) Path() string {
	return hf.path
}

func (hf *HeapFile) WritePage(pageNumber uint64, page []byte) error {
	if len(page) != int(hf.pageSize) {
		return fmt.Errorf("page %d is %d bytes, heap file page size is %d", pageNumber, len(page), hf.pageSize)
	}

	n, err := syscall.Pwrite(hf.fd, page, int64(pageNumber)*int64(hf.pageSize))
	if err != nil {
		hf.logger.Error().Err(err).Msg(fmt.Sprintf("Failed to write page %d to %s", pageNumber, hf.path))
		return err
	}
	if n != len(page) {
		return fmt.Errorf("%w: page %d wrote %d of %d bytes", ErrShortWrite, pageNumber, n, len(page))
	}

	if err := syscall.Fsync(hf.fd); err != nil {
		hf.logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fsync heap file %s", hf.path))
		return err
	}
	return nil
}

func (hf *HeapFile) Close() error {
	if hf.fd < 0 {
		return nil
	}
	err := syscall.Close(hf.fd)
	hf.fd = -1
	return err
}

// MemorySink keeps written pages in memory, in write order.
type MemorySink struct {
	Pages [][]byte
}

func (ms *MemorySink) WritePage(pageNumber uint64, page []byte) error {
	if pageNumber != uint64(len(ms.Pages)) {
		return fmt.Errorf("out of order page %d, expected %d", pageNumber, len(ms.Pages))
	}
	ms.Pages = append(ms.Pages, append([]byte(nil), page...))
	return nil
}

// Bytes is the heap file image: all pages concatenated.
func (ms *MemorySink) Bytes() []byte {
	var out []byte
	for _, p := range ms.Pages {
		out = append(out, p...)
	}
	return out
}
