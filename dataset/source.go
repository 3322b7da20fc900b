package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"heap-loader/records"

	"github.com/phuslu/log"
)

var ErrMalformedLine = fmt.Errorf("malformed dataset line")

// ExpectedColumns is the column count of the artist dataset export.
const ExpectedColumns = 147

const (
	cellSeparator = `","`
	quote         = `"`
)

// ColumnLayout maps record parts to dataset columns. -1 leaves the part
// absent.
type ColumnLayout struct {
	ID          int
	Name        int
	BirthDate   int
	DeathDate   int
	BirthPlace  int
	Field       int
	Genre       int
	Instrument  int
	Nationality int
	Thumbnail   int
	Description int
}

// DefaultLayout matches the DBpedia artist export. Its birth place column
// holds resource links rather than names and stays unmapped.
func DefaultLayout() ColumnLayout {
	return ColumnLayout{
		ID:          133,
		Name:        1,
		BirthDate:   23,
		DeathDate:   40,
		BirthPlace:  -1,
		Field:       50,
		Genre:       52,
		Instrument:  62,
		Nationality: 73,
		Thumbnail:   124,
		Description: 137,
	}
}

func (l ColumnLayout) maxColumn() int {
	highest := -1
	for _, c := range []int{l.ID, l.Name, l.BirthDate, l.DeathDate, l.BirthPlace, l.Field,
		l.Genre, l.Instrument, l.Nationality, l.Thumbnail, l.Description} {
		if c > highest {
			highest = c
		}
	}
	return highest
}

type Options struct {
	// lines before the first record
	HeaderLines   int
	SkipMalformed bool
	Layout        ColumnLayout
}

func DefaultOptions() Options {
	return Options{
		HeaderLines: 4,
		Layout:      DefaultLayout(),
	}
}

// Source reads artist records from the dataset one line at a time.
type Source struct {
	logger    log.Logger
	reader    *bufio.Reader
	options   Options
	maxColumn int
	line      int
	skipped   int
}

func NewSource(logger log.Logger, r io.Reader, options Options) (*Source, error) {
	if options.HeaderLines < 0 {
		return nil, fmt.Errorf("negative header line count %d", options.HeaderLines)
	}
	return &Source{
		logger:    logger,
		reader:    bufio.NewReaderSize(r, 64*1024),
		options:   options,
		maxColumn: options.Layout.maxColumn(),
	}, nil
}

func (s *Source) readLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	s.line++
	return strings.TrimRight(line, "\r\n"), nil
}

// Next returns the next record, or io.EOF when the input is exhausted.
func (s *Source) Next() (records.Record, error) {
	for s.line < s.options.HeaderLines {
		if _, err := s.readLine(); err != nil {
			return records.Record{}, err
		}
	}

	for {
		line, err := s.readLine()
		if err != nil {
			return records.Record{}, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		r, err := s.parseLine(line)
		if err == nil {
			return r, nil
		}
		if !s.options.SkipMalformed {
			return records.Record{}, err
		}
		s.skipped++
		s.logger.Warn().Err(err).Int("line", s.line).Msg("skipping dataset line")
	}
}

// Skipped counts malformed lines dropped under SkipMalformed.
func (s *Source) Skipped() int {
	return s.skipped
}

func (s *Source) parseLine(line string) (records.Record, error) {
	cells := strings.Split(line, cellSeparator)
	for i := range cells {
		cells[i] = strings.ReplaceAll(cells[i], quote, "")
	}

	if len(cells) <= s.maxColumn {
		return records.Record{}, fmt.Errorf("%w: line %d has %d columns, layout needs %d", ErrMalformedLine, s.line, len(cells), s.maxColumn+1)
	}
	if len(cells) != ExpectedColumns {
		s.logger.Warn().Int("line", s.line).Int("columns", len(cells)).Msg(fmt.Sprintf("expected %d columns", ExpectedColumns))
	}

	layout := s.options.Layout
	cell := func(idx int) string {
		if idx < 0 {
			return ""
		}
		return cells[idx]
	}

	r := records.Record{
		ID:    -1,
		Birth: s.date(cell(layout.BirthDate)),
		Death: s.date(cell(layout.DeathDate)),
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(cell(layout.ID)), 10, 32); err == nil {
		r.ID = int32(id)
	}

	r.Text[records.PersonName] = cell(layout.Name)
	r.Text[records.BirthPlace] = cell(layout.BirthPlace)
	r.Text[records.Field] = cell(layout.Field)
	r.Text[records.Genre] = cell(layout.Genre)
	r.Text[records.Instrument] = cell(layout.Instrument)
	r.Text[records.Nationality] = cell(layout.Nationality)
	r.Text[records.Thumbnail] = cell(layout.Thumbnail)
	r.Text[records.Description] = cell(layout.Description)
	return r, nil
}

func (s *Source) date(value string) records.NullMillis {
	d, err := ParseDate(value)
	if err != nil {
		s.logger.Warn().Err(err).Int("line", s.line).Msg("date stored as absent")
	}
	return d
}
