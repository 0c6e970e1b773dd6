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

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"dlogproc/common"
	"dlogproc/filter"
	"dlogproc/geo"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/mail"
	conomiClient "github.com/czcorpus/conomi/client"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	ActionBatch   = "batch"
	ActionHelp    = "help"
	ActionVersion = "version"

	DefaultTimeZone = "Europe/Prague"
	DefaultLogLevel = "info"

	envLogDir      = "LOGDIR"
	envOutputDir   = "CACHEDIR"
	envURLPrefix   = "URL_PREFIX"
	envExcludedIPs = "EXCLUDED_IPS"
	envModes       = "MODES"
	envSpidersPath = "SPIDERS_PATH"
)

// Main describes dlogproc's configuration
type Main struct {
	LogDir              string                         `json:"logDir"`
	OutputDir           string                         `json:"outputDir"`
	URLPrefix           string                         `json:"urlPrefix"`
	Groups              []filter.GroupConf             `json:"groups"`
	ExcludedIPs         []string                       `json:"excludedIps"`
	CrawlerDenylistPath string                         `json:"crawlerDenylistPath"`
	GeoIPDbPath         string                         `json:"geoIpDbPath"`
	GeoSQLitePath       string                         `json:"geoSqlitePath"`
	AppendCountry       bool                           `json:"appendCountry"`
	LogPath             string                         `json:"logPath"`
	LogLevel            string                         `json:"logLevel"`
	EmailNotification   *mail.NotificationConf         `json:"emailNotification"`
	ConomiNotification  *conomiClient.ConomiClientConf `json:"conomiNotification"`
	TimeZone            string                         `json:"timeZone"`
}

func (c *Main) TimezoneLocation() *time.Location {
	// we can ignore the error here as we always call c.Validate()
	// first (which also tries to load the location and report possible
	// error)
	loc, _ := time.LoadLocation(c.TimeZone)
	return loc
}

// GeoConf returns configuration of a country lookup
func (c *Main) GeoConf() *geo.Conf {
	return &geo.Conf{SQLitePath: c.GeoSQLitePath, MMDBPath: c.GeoIPDbPath}
}

// GroupNames returns names of all the configured filter groups
// in their original order
func (c *Main) GroupNames() []string {
	ans := make([]string, len(c.Groups))
	for i, g := range c.Groups {
		ans[i] = g.Name
	}
	return ans
}

// Validate checks for some essential config properties
// and fills in default values where possible
func (c *Main) Validate() error {
	if c.LogDir == "" {
		return errors.New("missing logDir")
	}
	if c.OutputDir == "" {
		return errors.New("missing outputDir")
	}
	isDir, err := fs.IsDir(c.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to validate outputDir: %w", err)
	}
	if !isDir {
		return fmt.Errorf("outputDir %s is not a directory", c.OutputDir)
	}
	if len(c.Groups) == 0 {
		return errors.New("no filter groups configured")
	}
	names := make(map[string]bool)
	for i := range c.Groups {
		if err := c.Groups[i].Validate(); err != nil {
			return fmt.Errorf("invalid group configuration: %w", err)
		}
		if names[c.Groups[i].Name] {
			return fmt.Errorf("duplicate group name %s", c.Groups[i].Name)
		}
		names[c.Groups[i].Name] = true
	}
	if err := c.GeoConf().Validate(); err != nil {
		return err
	}
	if c.AppendCountry && !c.GeoConf().IsConfigured() {
		return errors.New("appendCountry requires either geoIpDbPath or geoSqlitePath")
	}
	if c.CrawlerDenylistPath == "" {
		log.Warn().Msg("crawlerDenylistPath not specified, known crawlers will not be filtered")
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.TimeZone == "" {
		c.TimeZone = DefaultTimeZone
		log.Warn().Str("timezone", c.TimeZone).
			Msg("timeZone not specified, using default")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid timeZone: %w", err)
	}
	return nil
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yml" || ext == ".yaml"
}

// yamlToJSON converts YAML data to JSON so the same field
// naming (i.e. the `json` tags) applies to both formats
func yamlToJSON(rawData []byte) ([]byte, error) {
	var tmp map[string]any
	if err := yaml.Unmarshal(rawData, &tmp); err != nil {
		return nil, err
	}
	return json.Marshal(tmp)
}

// Parse decodes raw configuration data. YAML is expected
// if isYAML is true, JSON otherwise.
func Parse(rawData []byte, isYAML bool) (*Main, error) {
	var err error
	if isYAML {
		rawData, err = yamlToJSON(rawData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
		}
	}
	var conf Main
	if err := json.Unmarshal(rawData, &conf); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &conf, nil
}

// Load loads main configuration (either from a local fs or via http(s)).
// Files with the .yml/.yaml suffix are parsed as YAML.
func Load(path string) (*Main, error) {
	rawData, err := common.LoadSupportedResource(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return Parse(rawData, isYAMLPath(path))
}

type envMode struct {
	Name  string   `json:"name"`
	Regex []string `json:"regex"`
}

// LoadFromEnv creates configuration out of environment variables
// LOGDIR, CACHEDIR, URL_PREFIX, EXCLUDED_IPS (a JSON list),
// MODES (a JSON list of {"name": ..., "regex": [...]}) and
// SPIDERS_PATH.
func LoadFromEnv() (*Main, error) {
	conf := &Main{
		LogDir:              os.Getenv(envLogDir),
		OutputDir:           os.Getenv(envOutputDir),
		URLPrefix:           os.Getenv(envURLPrefix),
		CrawlerDenylistPath: os.Getenv(envSpidersPath),
	}
	if v := os.Getenv(envExcludedIPs); v != "" {
		if err := json.Unmarshal([]byte(v), &conf.ExcludedIPs); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", envExcludedIPs, err)
		}
	}
	if v := os.Getenv(envModes); v != "" {
		var modes []envMode
		if err := json.Unmarshal([]byte(v), &modes); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", envModes, err)
		}
		for _, m := range modes {
			conf.Groups = append(conf.Groups, filter.GroupConf{Name: m.Name, MatchPatterns: m.Regex})
		}
	}
	return conf, nil
}
