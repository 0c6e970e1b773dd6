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
	"fmt"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog/log"
)

// MMDBLookup resolves countries using a MaxMind database.
// The database is not time-aware so the time argument is ignored.
type MMDBLookup struct {
	db *geoip2.Reader
}

func (ml *MMDBLookup) Country(ip string, t time.Time) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		log.Debug().Str("ip", ip).Msg("cannot resolve country of an invalid IP address")
		return "", nil
	}
	rec, err := ml.db.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("failed to fetch GeoIP data for IP %s: %w", ip, err)
	}
	if rec.Country.IsoCode == "" {
		return "", nil
	}
	return CountryURNPrefix + rec.Country.IsoCode, nil
}

func (ml *MMDBLookup) Close() error {
	return ml.db.Close()
}

func NewMMDBLookup(path string) (*MMDBLookup, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("using GeoIP database for country lookup")
	return &MMDBLookup{db: db}, nil
}
