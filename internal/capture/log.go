package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"

	"gnss-analyzer/internal/gps"
)

// Log format: line-oriented text as written by the receiver logger.
//
// - An optional "# START HHMMSS" header giving the commanded session start.
// - One NMEA sentence per line, in the order the receiver emitted them.
//
// Lines are returned verbatim with their 1-based line number; deciding what
// they mean is left to the gps parser.

type Line struct {
	Num  int
	Text string
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rr *Reader) ReadAll() ([]Line, error) {
	s := bufio.NewScanner(rr.r)
	// Receivers occasionally emit long proprietary sentences.
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := make([]Line, 0, 4096)
	n := 0
	for s.Scan() {
		n++
		lines = append(lines, Line{Num: n, Text: strings.TrimRight(s.Text(), "\r")})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", n+1, err)
	}
	return lines, nil
}

// ReadFile reads a whole log. A missing or unreadable file is returned as
// the underlying *fs.PathError.
func ReadFile(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

// Writer produces logs in the same format as the receiver logger.
type Writer struct {
	c      io.Closer
	w      *bufio.Writer
	closed bool
}

func NewWriter(w io.Writer, start gps.TimeOfDay) (*Writer, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	hdr := gps.TimeOfDay(time.Duration(start).Truncate(time.Second))
	if _, err := fmt.Fprintf(bw, "# START %s\n", hdr); err != nil {
		return nil, err
	}
	return &Writer{w: bw}, nil
}

func CreateWriter(path string, start gps.TimeOfDay) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	ww, err := NewWriter(f, start)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	ww.c = f
	return ww, nil
}

// WriteSentence writes payload (without '$' and checksum) as a full sentence.
func (ww *Writer) WriteSentence(payload string) error {
	if ww.closed {
		return errors.New("capture writer is closed")
	}
	payload = strings.TrimPrefix(payload, "$")
	if payload == "" {
		return errors.New("payload is empty")
	}
	_, err := fmt.Fprintf(ww.w, "$%s*%s\n", payload, nmea.Checksum(payload))
	return err
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		if ww.c != nil {
			_ = ww.c.Close()
		}
		return err
	}
	if ww.c != nil {
		return ww.c.Close()
	}
	return nil
}
