// Copyright 2017 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2017 Institute of the Czech National Corpus,
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

// fileselect functions are used to find rotated access log files
// in a directory. The files are expected to be named like
// access.log-20230601.gz (the date may also contain hyphens).

package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"dlogproc/accesslog"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/rs/zerolog/log"
)

const (
	accessLogMarker = "access.log"
	gzipSuffix      = ".gz"
	fileDateLayout  = "2006-01-02"
)

var (
	fileDatePattern = regexp.MustCompile(`(\d{4})-?(\d{2})-?(\d{2})`)
)

// LogFileEntry is a log file along with a date extracted
// from its name
type LogFileEntry struct {
	Path string
	Date time.Time
}

// DateRange is an inclusive range of file dates. Zero values
// mean an unbounded side of the range.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (dr DateRange) Contains(t time.Time) bool {
	if !dr.From.IsZero() && t.Before(dr.From) {
		return false
	}
	if !dr.To.IsZero() && t.After(dr.To) {
		return false
	}
	return true
}

func (dr DateRange) String() string {
	from, to := "-", "-"
	if !dr.From.IsZero() {
		from = dr.From.Format(fileDateLayout)
	}
	if !dr.To.IsZero() {
		to = dr.To.Format(fileDateLayout)
	}
	return fmt.Sprintf("[%s, %s]", from, to)
}

// ParseDateRange creates a range from two (possibly empty)
// YYYY-MM-DD values
func ParseDateRange(from, to string) (DateRange, error) {
	var ans DateRange
	var err error
	if from != "" {
		ans.From, err = time.Parse(fileDateLayout, from)
		if err != nil {
			return ans, fmt.Errorf("invalid 'from' date: %w", err)
		}
	}
	if to != "" {
		ans.To, err = time.Parse(fileDateLayout, to)
		if err != nil {
			return ans, fmt.Errorf("invalid 'to' date: %w", err)
		}
	}
	if !ans.From.IsZero() && !ans.To.IsZero() && ans.To.Before(ans.From) {
		return ans, fmt.Errorf("invalid date range %s", ans)
	}
	return ans, nil
}

func isAccessLogName(name string) bool {
	return strings.Contains(name, accessLogMarker) && strings.HasSuffix(name, gzipSuffix)
}

// extractFileDate returns a date found in a file name. If there is no
// date-like token at all, a fatal config error is returned. If there is one
// but it is not a valid calendar date, the returned flag is false.
func extractFileDate(name string) (time.Time, bool, error) {
	srch := fileDatePattern.FindStringSubmatch(name)
	if len(srch) == 0 {
		return time.Time{}, false, accesslog.NewFatalError(
			accesslog.KindConfig, accesslog.ErrMissingFileDate, 0, name)
	}
	t, err := time.Parse(fileDateLayout, fmt.Sprintf("%s-%s-%s", srch[1], srch[2], srch[3]))
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// entryFromPath validates a single path. The returned entry is nil
// in case the file should be ignored.
func entryFromPath(path string, dateRange DateRange) (*LogFileEntry, error) {
	name := filepath.Base(path)
	if !isAccessLogName(name) {
		log.Debug().Str("file", path).Msg("ignoring file with non-matching name")
		return nil, nil
	}
	date, ok, err := extractFileDate(name)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", path, err)
	}
	if !ok {
		log.Debug().Str("file", path).Msg("ignoring file with invalid date")
		return nil, nil
	}
	if !dateRange.Contains(date) {
		log.Debug().Str("file", path).Msg("file date out of range")
		return nil, nil
	}
	return &LogFileEntry{Path: path, Date: date}, nil
}

// FindLogFiles lists all the matching log files in srcPath (in
// lexicographic order). In case srcPath is a file, it is returned
// as a single entry (if it matches).
func FindLogFiles(srcPath string, dateRange DateRange) ([]LogFileEntry, error) {
	isFile, err := fs.IsFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find log files in %s: %w", srcPath, err)
	}
	if isFile {
		entry, err := entryFromPath(srcPath, dateRange)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return []LogFileEntry{}, nil
		}
		return []LogFileEntry{*entry}, nil
	}

	items, err := os.ReadDir(srcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find log files in %s: %w", srcPath, err)
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if !item.IsDir() {
			names = append(names, item.Name())
		}
	}
	sort.Strings(names)
	ans := make([]LogFileEntry, 0, len(names))
	for _, name := range names {
		entry, err := entryFromPath(filepath.Join(srcPath, name), dateRange)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			ans = append(ans, *entry)
		}
	}
	log.Info().
		Str("srcPath", srcPath).
		Int("numFiles", len(ans)).
		Str("dateRange", dateRange.String()).
		Msg("found log files to process")
	return ans, nil
}
