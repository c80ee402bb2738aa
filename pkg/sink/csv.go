package sink

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	errs "twscraper/pkg/errors"
	"twscraper/pkg/normalize"
)

// Header is the column layout of the CSV output
var Header = []string{
	"id",
	"full_text",
	"hashtags",
	"urls",
	"created_at",
	"favorite_count",
	"retweet_count",
	"source",
}

// WriteCSV writes the header and one row per post, in collection order
func WriteCSV(w io.Writer, posts []normalize.Post) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, p := range posts {
		if err := cw.Write(row(p)); err != nil {
			return fmt.Errorf("failed to write post %d: %w", p.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func row(p normalize.Post) []string {
	createdAt := p.CreatedAtRaw
	if createdAt == "" {
		createdAt = p.CreatedAt.Format(normalize.TimestampLayout)
	}

	return []string{
		strconv.FormatInt(p.ID, 10),
		p.Text,
		FormatList(p.Hashtags),
		FormatList(p.URLs),
		createdAt,
		strconv.Itoa(p.FavoriteCount),
		strconv.Itoa(p.RetweetCount),
		p.Source,
	}
}

// ReadCSV loads a file written by WriteCSV back into dictionary form.
// Carriage returns inside quoted fields survive the round trip.
func ReadCSV(r io.Reader) (*Dict, error) {
	cr := csv.NewReader(&crGuard{src: bufio.NewReader(r)})
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		return nil, errs.Parse(err, "failed to read header: %v", err)
	}
	for i, name := range Header {
		if header[i] != name {
			return nil, errs.Parse(nil, "unexpected column %q at position %d, want %q", header[i], i, name)
		}
	}

	d := NewDict()
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			return d, nil
		}
		if err != nil {
			return nil, errs.Parse(err, "failed to read row: %v", err)
		}
		for i, field := range record {
			if strings.IndexByte(field, crEscape) >= 0 {
				record[i] = crUnescaper.Replace(field)
			}
		}

		entry, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		d.Set(record[0], entry)
	}
}

// csv.Reader folds \r\n to \n even inside quoted fields. crGuard hides
// quoted carriage returns behind an escape byte before the reader sees them;
// the escape byte itself is doubled wherever it appears.
const crEscape = '\x00'

var crUnescaper = strings.NewReplacer("\x00\x00", "\x00", "\x00r", "\r")

type crGuard struct {
	src     *bufio.Reader
	quoted  bool
	pending []byte
}

func (g *crGuard) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(g.pending) > 0 {
			c := copy(p[n:], g.pending)
			g.pending = g.pending[c:]
			n += c
			continue
		}

		b, err := g.src.ReadByte()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		switch {
		case b == '"':
			g.quoted = !g.quoted
			p[n] = b
			n++
		case b == crEscape:
			g.pending = []byte{crEscape, crEscape}
		case b == '\r' && g.quoted:
			g.pending = []byte{crEscape, 'r'}
		default:
			p[n] = b
			n++
		}
	}
	return n, nil
}

func parseRow(record []string) (Entry, error) {
	if _, err := strconv.ParseInt(record[0], 10, 64); err != nil {
		return Entry{}, errs.Parse(err, "invalid id %q", record[0])
	}
	hashtags, err := ParseList(record[2])
	if err != nil {
		return Entry{}, err
	}
	urls, err := ParseList(record[3])
	if err != nil {
		return Entry{}, err
	}
	createdAt, err := normalize.ParseTimestamp(record[4])
	if err != nil {
		return Entry{}, err
	}
	favorites, err := strconv.Atoi(record[5])
	if err != nil {
		return Entry{}, errs.Parse(err, "invalid favorite_count %q", record[5])
	}
	retweets, err := strconv.Atoi(record[6])
	if err != nil {
		return Entry{}, errs.Parse(err, "invalid retweet_count %q", record[6])
	}

	return Entry{
		Text:          record[1],
		Hashtags:      hashtags,
		URLs:          urls,
		CreatedAt:     createdAt,
		FavoriteCount: favorites,
		RetweetCount:  retweets,
		Source:        record[7],
	}, nil
}

// CSVFile writes collections to a CSV file. The file is replaced only when
// the whole collection was written.
type CSVFile struct {
	Path string
}

// Write implements Sink
func (s *CSVFile) Write(ctx context.Context, handle string, posts []normalize.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeAtomic(s.Path, func(w io.Writer) error {
		return WriteCSV(w, posts)
	})
}

// Location implements Sink
func (s *CSVFile) Location() string { return s.Path }
