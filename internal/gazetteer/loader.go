// Package gazetteer loads the canonical national gazetteer and partitions it
// into parent-keyed blocks so matching never scans the full record set.
package gazetteer

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
)

// required gazetteer columns; latitude/longitude are optional.
var requiredColumns = []string{"unit_id", "name", "lga_id", "lga_name", "state_id", "state_name"}

// LoadCSV reads the gazetteer file. An unreadable or structurally invalid
// file is a fatal run error.
func LoadCSV(path string) ([]model.CanonicalUnit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "gazetteer: open %s", path)
	}
	defer f.Close()

	units, err := ReadCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "gazetteer: read %s", path)
	}
	return units, nil
}

// ReadCSV parses gazetteer rows from r. The first row must be a header
// containing at least the required columns, in any order.
func ReadCSV(r io.Reader) ([]model.CanonicalUnit, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "gazetteer: read header")
	}
	cols, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int64)
	var units []model.CanonicalUnit
	line := int64(1)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "gazetteer: read row")
		}
		line++

		u := model.CanonicalUnit{
			UnitID:    field(row, cols["unit_id"]),
			Name:      field(row, cols["name"]),
			LGAID:     field(row, cols["lga_id"]),
			LGAName:   field(row, cols["lga_name"]),
			StateID:   field(row, cols["state_id"]),
			StateName: field(row, cols["state_name"]),
		}
		if u.UnitID == "" || u.Name == "" || u.LGAID == "" || u.StateID == "" {
			return nil, eris.Errorf("gazetteer: line %d: missing unit_id, name, lga_id or state_id", line)
		}
		if prev, dup := seen[u.UnitID]; dup {
			return nil, eris.Errorf("gazetteer: line %d: duplicate unit_id %s (first seen line %d)", line, u.UnitID, prev)
		}
		seen[u.UnitID] = line

		if latIdx, ok := cols["latitude"]; ok {
			if lonIdx, ok := cols["longitude"]; ok {
				if c := parseCentroid(field(row, latIdx), field(row, lonIdx)); c != nil {
					u.Centroid = c
				}
			}
		}

		units = append(units, u)
	}

	zap.L().Info("gazetteer loaded", zap.Int("units", len(units)))
	return units, nil
}

func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			return nil, eris.Errorf("gazetteer: header missing required column %q", req)
		}
	}
	return cols, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseCentroid(latStr, lonStr string) *model.Centroid {
	if latStr == "" || lonStr == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil
	}
	return &model.Centroid{Lat: lat, Lon: lon}
}
