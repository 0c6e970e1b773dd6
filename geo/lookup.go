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

// Package geo provides country lookup of client IP addresses.
// Returned values are ISO 3166 URNs (e.g. urn:iso:std:3166:-2:CZ)
// or empty strings if the country is unknown.
package geo

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	CountryURNPrefix = "urn:iso:std:3166:-2:"
)

// Lookup finds a country of an IP address at a specific time
type Lookup interface {
	Country(ip string, t time.Time) (string, error)
	Close() error
}

// NullLookup does not know any country
type NullLookup struct{}

func (n *NullLookup) Country(ip string, t time.Time) (string, error) {
	return "", nil
}

func (n *NullLookup) Close() error {
	return nil
}

// Conf configures a geo lookup backend. At most one
// of the paths can be set.
type Conf struct {
	// SQLitePath is a path to a database with the ipgeo table
	// (ip_address, country, datestamp)
	SQLitePath string `json:"sqlitePath"`

	// MMDBPath is a path to a MaxMind country (or city) database
	MMDBPath string `json:"mmdbPath"`
}

func (c *Conf) IsConfigured() bool {
	return c != nil && (c.SQLitePath != "" || c.MMDBPath != "")
}

func (c *Conf) Validate() error {
	if c.SQLitePath != "" && c.MMDBPath != "" {
		return errors.New("either sqlitePath or mmdbPath can be configured for geo lookup")
	}
	return nil
}

// NewLookup creates a lookup based on provided configuration.
// In case nothing is configured, NullLookup is returned.
func NewLookup(conf *Conf) (Lookup, error) {
	if !conf.IsConfigured() {
		log.Warn().Msg("geo lookup not configured, countries will be empty")
		return &NullLookup{}, nil
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.SQLitePath != "" {
		sl, err := NewSQLLookup(conf.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sl, nil
	}
	ml, err := NewMMDBLookup(conf.MMDBPath)
	if err != nil {
		return nil, err
	}
	return ml, nil
}
