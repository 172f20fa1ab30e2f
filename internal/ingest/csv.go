// Package ingest reads uploaded facility tables (CSV, XLSX) into the fixed
// InputRecord shape. Column detection is by header name; missing optional
// hint columns yield empty hints, never absent fields.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
)

// Header aliases accepted for each InputRecord field, lowercased. Uploaded
// datasets name these columns inconsistently.
var (
	nameColumns  = []string{"ward", "ward_name", "name", "facility_ward", "adm3", "admin3"}
	lgaColumns   = []string{"lga", "lga_name", "adm2", "admin2", "local_government"}
	stateColumns = []string{"state", "state_name", "adm1", "admin1"}
)

// columns maps detected header positions.
type columns struct {
	name  int
	lga   int
	state int
}

// ReadCSVFile reads the facility table at path.
func ReadCSVFile(path string) ([]model.InputRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return records, nil
}

// ReadCSV parses facility rows from r. The first row must be a header with a
// recognizable name column; hint columns are optional.
func ReadCSV(r io.Reader) ([]model.InputRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read header")
	}
	cols, err := detectColumns(header)
	if err != nil {
		return nil, err
	}

	var records []model.InputRecord
	rowID := int64(0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read row")
		}
		rowID++
		records = append(records, rowToRecord(row, cols, rowID))
	}

	zap.L().Info("input batch ingested", zap.Int("records", len(records)))
	return records, nil
}

func detectColumns(header []string) (columns, error) {
	lookup := make(map[string]int, len(header))
	for i, h := range header {
		lookup[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := columns{name: -1, lga: -1, state: -1}
	cols.name = firstMatch(lookup, nameColumns)
	cols.lga = firstMatch(lookup, lgaColumns)
	cols.state = firstMatch(lookup, stateColumns)

	if cols.name < 0 {
		return cols, eris.Errorf("ingest: no name column found (accepted: %s)",
			strings.Join(nameColumns, ", "))
	}
	return cols, nil
}

func firstMatch(lookup map[string]int, aliases []string) int {
	for _, a := range aliases {
		if i, ok := lookup[a]; ok {
			return i
		}
	}
	return -1
}

func rowToRecord(row []string, cols columns, rowID int64) model.InputRecord {
	return model.InputRecord{
		RowID:     rowID,
		RawName:   cell(row, cols.name),
		LGAHint:   cell(row, cols.lga),
		StateHint: cell(row, cols.state),
	}
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
