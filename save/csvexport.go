// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package save

import (
	"encoding/csv"
	"fmt"
	"io"

	"dlogproc/accesslog"
	"dlogproc/geo"
)

// CSVExporter writes accepted requests as CSV rows, one writer
// per filter group (or a single shared writer, see NewSharedCSVExporter).
// Sinks are owned by the caller - the exporter neither opens nor closes them.
type CSVExporter struct {
	writers      map[string]*csv.Writer
	countryTable geo.Lookup
	numWritten   map[string]int

	// groupColumn prepends a group name to each row
	groupColumn bool
}

// Write writes a single row to the sink of the respective group:
// time, IP address, URL, user agent (and optionally a country URN).
func (ex *CSVExporter) Write(groupName string, req *accesslog.Request) error {
	w, ok := ex.writers[groupName]
	if !ok {
		return fmt.Errorf("no output sink for group %s", groupName)
	}
	row := make([]string, 0, 6)
	if ex.groupColumn {
		row = append(row, groupName)
	}
	row = append(row, req.FormattedTime(), req.IPAddress(), req.URL(), req.UserAgent())
	if ex.countryTable != nil {
		country, err := ex.countryTable.Country(req.IPAddress(), req.Time())
		if err != nil {
			return fmt.Errorf("failed to determine country of %s: %w", req.IPAddress(), err)
		}
		row = append(row, country)
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write row for group %s: %w", groupName, err)
	}
	ex.numWritten[groupName]++
	return nil
}

// Flush flushes all the group writers and returns
// the first error encountered
func (ex *CSVExporter) Flush() error {
	var ans error
	for name, w := range ex.writers {
		w.Flush()
		if err := w.Error(); err != nil && ans == nil {
			ans = fmt.Errorf("failed to flush output of group %s: %w", name, err)
		}
	}
	return ans
}

// NumWritten returns number of rows written per group
func (ex *CSVExporter) NumWritten() map[string]int {
	return ex.numWritten
}

// NewCSVExporter creates an exporter writing to provided sinks
// (group name => sink). If countryTable is not nil, each row
// is extended with a country identifier.
func NewCSVExporter(sinks map[string]io.Writer, countryTable geo.Lookup) *CSVExporter {
	writers := make(map[string]*csv.Writer)
	numWritten := make(map[string]int)
	for name, sink := range sinks {
		writers[name] = csv.NewWriter(sink)
		numWritten[name] = 0
	}
	return &CSVExporter{writers: writers, countryTable: countryTable, numWritten: numWritten}
}

// NewSharedCSVExporter creates an exporter writing rows of all the groups
// to a single sink in the order they are accepted. The first column
// of each row contains the group name. This is used in dry-run mode.
func NewSharedCSVExporter(sink io.Writer, groupNames []string, countryTable geo.Lookup) *CSVExporter {
	w := csv.NewWriter(sink)
	writers := make(map[string]*csv.Writer)
	numWritten := make(map[string]int)
	for _, name := range groupNames {
		writers[name] = w
		numWritten[name] = 0
	}
	return &CSVExporter{
		writers:      writers,
		countryTable: countryTable,
		numWritten:   numWritten,
		groupColumn:  true,
	}
}
