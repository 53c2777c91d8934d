package lending

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var requiredColumns = []string{ColumnIntRate, ColumnLoanStatus, ColumnInquiries}

// Ingestor loads Lending Club CSV exports into instances.
type Ingestor struct {
	logger *zap.Logger
}

// NewIngestor returns an ingestor logging to logger.
func NewIngestor(logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{logger: logger}
}

// fileStats is the per-file tally of accepted and rejected rows.
type fileStats struct {
	valid, invalid int
}

// Ingest reads every *.csv file in dir in lexical order. Each file starts
// with a banner line that is skipped, then a header row. Rows missing
// int_rate or inq_last_6mths, or with an unrecognized loan_status, are
// counted and dropped.
func (in *Ingestor) Ingest(dir string) ([]Instance, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "read directory %s: %v", dir, err)
	}

	instances := []Instance{}
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		var stats fileStats
		instances, stats, err = in.ingestFile(filepath.Join(dir, entry.Name()), instances, seen)
		if err != nil {
			return nil, err
		}
		in.logger.Info(entry.Name() + " had " + humanize.Comma(int64(stats.valid)) + " valid rows, " +
			humanize.Comma(int64(stats.invalid)) + " invalid rows.")
	}

	statuses := make([]string, 0, len(seen))
	for s := range seen {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	in.logger.Info("Status codes encountered", zap.Strings("statuses", statuses))
	return instances, nil
}

func (in *Ingestor) ingestFile(path string, out []Instance, seen map[string]struct{}) ([]Instance, fileStats, error) {
	var stats fileStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, errors.Wrapf(ErrIO, "open %s: %v", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if _, err := br.ReadString('\n'); err != nil {
		if err == io.EOF {
			return nil, stats, errors.Wrapf(ErrIO, "%s is truncated: no banner line", path)
		}
		return nil, stats, errors.Wrapf(ErrIO, "read %s: %v", path, err)
	}

	r := csv.NewReader(br)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return out, stats, nil
	}
	if err != nil {
		return nil, stats, errors.Wrapf(ErrIO, "read header of %s: %v", path, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, stats, errors.Wrapf(ErrMissingColumn, "%s has no %s column", path, name)
		}
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, errors.Wrapf(ErrIO, "read %s: %v", path, err)
		}
		row := make(map[string]any, len(header))
		for name, i := range columns {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}

		rawRate := strings.TrimSpace(row[ColumnIntRate].(string))
		rawInq := strings.TrimSpace(row[ColumnInquiries].(string))
		status := row[ColumnLoanStatus].(string)
		seen[status] = struct{}{}
		if rawRate == "" || rawInq == "" || !LoanStatus(status).Recognized() {
			stats.invalid++
			continue
		}

		rate, err := PercentToFraction(rawRate)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, stats, errors.Wrapf(err, "%s line %d", path, line+1)
		}
		inq, err := strconv.Atoi(rawInq)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, stats, errors.Wrapf(ErrInvalidRow, "%s line %d: %s %q is not an integer", path, line+1, ColumnInquiries, rawInq)
		}
		row[ColumnIntRate] = rate
		row[ColumnInquiries] = inq
		out = append(out, Instance{Attributes: row, Features: []float64{rate, float64(inq)}})
		stats.valid++
	}
	return out, stats, nil
}
