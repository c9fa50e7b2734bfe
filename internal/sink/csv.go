package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/ironsheep/tag-tracker/internal/detection"
)

// Header is the column layout of the tag archive.
var Header = []string{"population", "time", "id", "id_prob", "x", "y", "orientation"}

// TimeLayout formats frame timestamps in the archive.
const TimeLayout = "2006-01-02 15:04:05.000000"

// CSV writes records as comma-separated rows. The header is written before
// the first row unless the destination already holds data.
type CSV struct {
	mu         sync.Mutex
	w          *csv.Writer
	closer     io.Closer
	needHeader bool
}

// NewCSV returns a sink writing to w, starting with the header row.
func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w), needHeader: true}
}

// AppendCSV opens path for appending, creating it if needed. The header is
// written only when the file is empty, so repeated runs extend one archive.
func AppendCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat output: %w", err)
	}
	return &CSV{w: csv.NewWriter(f), closer: f, needHeader: info.Size() == 0}, nil
}

// Emit writes one row and flushes it.
func (c *CSV) Emit(r detection.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.needHeader {
		if err := c.w.Write(Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		c.needHeader = false
	}
	if err := c.w.Write(formatRecord(r)); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes pending rows and closes the file opened by AppendCSV.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.w.Flush()
	err := c.w.Error()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
		c.closer = nil
	}
	return err
}

func formatRecord(r detection.Record) []string {
	return []string{
		r.Population,
		r.Time.Format(TimeLayout),
		strconv.Itoa(r.TagID),
		formatFloat(r.Confidence),
		formatFloat(r.X),
		formatFloat(r.Y),
		formatFloat(r.Orientation),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadCSV parses an archive written by CSV. Empty input holds no records;
// otherwise the header row is required. Timestamps are read as UTC.
func ReadCSV(r io.Reader) ([]detection.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range Header {
		if head[i] != name {
			return nil, fmt.Errorf("failed to read header: column %d is %q, want %q", i, head[i], name)
		}
	}

	var out []detection.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		rec, err := parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("failed to parse row %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func parseRecord(row []string) (detection.Record, error) {
	var rec detection.Record
	var err error

	rec.Population = row[0]
	if rec.Time, err = time.Parse(TimeLayout, row[1]); err != nil {
		return rec, err
	}
	if rec.TagID, err = strconv.Atoi(row[2]); err != nil {
		return rec, err
	}
	fields := []*float64{&rec.Confidence, &rec.X, &rec.Y, &rec.Orientation}
	for i, dst := range fields {
		if *dst, err = strconv.ParseFloat(row[3+i], 64); err != nil {
			return rec, err
		}
	}
	return rec, nil
}
