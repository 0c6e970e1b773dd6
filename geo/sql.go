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

package geo

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	// LookupWindow is a time distance (in both directions from
	// the start of the request's day) within which an ipgeo record
	// is considered valid
	LookupWindow = 180 * 24 * time.Hour

	sqlLookupQuery = "SELECT country, datestamp FROM ipgeo " +
		"WHERE ip_address = ? AND datestamp >= ? AND datestamp <= ? " +
		"ORDER BY ABS(datestamp - ?), datestamp DESC LIMIT 1"
)

// SQLLookup searches for countries in a SQLite database
// with time-stamped IP address to country assignments.
// The record closest to the request's day wins. Results are cached
// per IP address and day.
type SQLLookup struct {
	db    *sql.DB
	cache map[string]string
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (sl *SQLLookup) cacheKey(ip string, day time.Time) string {
	return ip + "|" + day.Format("2006-01-02")
}

func (sl *SQLLookup) Country(ip string, t time.Time) (string, error) {
	day := startOfDay(t)
	key := sl.cacheKey(ip, day)
	if v, ok := sl.cache[key]; ok {
		return v, nil
	}
	row := sl.db.QueryRow(
		sqlLookupQuery,
		ip,
		day.Add(-LookupWindow).Unix(),
		day.Add(LookupWindow).Unix(),
		day.Unix(),
	)
	var country string
	var datestamp int64
	err := row.Scan(&country, &datestamp)
	if errors.Is(err, sql.ErrNoRows) {
		sl.cache[key] = ""
		return "", nil

	} else if err != nil {
		return "", fmt.Errorf("failed to query ipgeo table: %w", err)
	}
	ans := CountryURNPrefix + country
	sl.cache[key] = ans
	return ans, nil
}

func (sl *SQLLookup) Close() error {
	return sl.db.Close()
}

// NewSQLLookup opens an existing SQLite database
func NewSQLLookup(path string) (*SQLLookup, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open geo database %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("using SQLite geo lookup")
	return newSQLLookupFromDB(db), nil
}

func newSQLLookupFromDB(db *sql.DB) *SQLLookup {
	return &SQLLookup{db: db, cache: make(map[string]string)}
}
