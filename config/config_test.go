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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"dlogproc/filter"

	"github.com/stretchr/testify/assert"
)

const jsonConf = `{
	"logDir": "/var/log/apache2",
	"outputDir": "/var/cache/dlogproc",
	"urlPrefix": "https://books.example.org",
	"groups": [
		{"name": "pdf", "matchPatterns": ["/download/\\d+"], "sanitizePatterns": ["/download"]},
		{"name": "js", "matchPatterns": ["\\.js$"]}
	],
	"excludedIps": ["10.0.0.1"],
	"crawlerDenylistPath": "/etc/dlogproc/spiders",
	"logLevel": "debug"
}`

const yamlConf = `
logDir: /var/log/apache2
outputDir: /var/cache/dlogproc
urlPrefix: https://books.example.org
groups:
  - name: pdf
    matchPatterns: ['/download/\d+']
    sanitizePatterns: ['/download']
  - name: js
    matchPatterns: ['\.js$']
excludedIps:
  - 10.0.0.1
crawlerDenylistPath: /etc/dlogproc/spiders
logLevel: debug
`

func TestJSONAndYAMLAreEquivalent(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "conf.json")
	yamlPath := filepath.Join(dir, "conf.yaml")
	assert.NoError(t, os.WriteFile(jsonPath, []byte(jsonConf), 0644))
	assert.NoError(t, os.WriteFile(yamlPath, []byte(yamlConf), 0644))

	c1, err := Load(jsonPath)
	assert.NoError(t, err)
	c2, err := Load(yamlPath)
	assert.NoError(t, err)
	assert.Equal(t, c1, c2)
	assert.Equal(t, []string{"pdf", "js"}, c1.GroupNames())
	assert.Equal(t, `/download/\d+`, c1.Groups[0].MatchPatterns[0])
	assert.Equal(t, []string{"10.0.0.1"}, c2.ExcludedIPs)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	assert.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nothing.json"))
	assert.Error(t, err)
}

func mkValidConf(t *testing.T) *Main {
	return &Main{
		LogDir:    "/var/log/apache2",
		OutputDir: t.TempDir(),
		Groups:    []filter.GroupConf{{Name: "js", MatchPatterns: []string{`\.js$`}}},
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	conf := mkValidConf(t)
	assert.NoError(t, conf.Validate())
	assert.Equal(t, DefaultTimeZone, conf.TimeZone)
	assert.Equal(t, DefaultLogLevel, conf.LogLevel)
	assert.NotNil(t, conf.TimezoneLocation())
}

func TestValidateErrors(t *testing.T) {
	conf := mkValidConf(t)
	conf.Groups = nil
	assert.Error(t, conf.Validate())

	conf = mkValidConf(t)
	conf.Groups = append(conf.Groups, conf.Groups[0])
	assert.Error(t, conf.Validate())

	conf = mkValidConf(t)
	conf.OutputDir = filepath.Join(conf.OutputDir, "nonexisting")
	assert.Error(t, conf.Validate())

	conf = mkValidConf(t)
	conf.AppendCountry = true
	assert.Error(t, conf.Validate())

	conf = mkValidConf(t)
	conf.TimeZone = "Nowhere/Nothing"
	assert.Error(t, conf.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOGDIR", "/var/log/apache2")
	t.Setenv("CACHEDIR", "/var/cache/dlogproc")
	t.Setenv("URL_PREFIX", "https://books.example.org")
	t.Setenv("EXCLUDED_IPS", `["10.0.0.1", "10.0.0.2"]`)
	t.Setenv("MODES", `[{"name": "pdf", "regex": ["/download/\\d+"]}]`)
	t.Setenv("SPIDERS_PATH", "/etc/dlogproc/spiders")

	conf, err := LoadFromEnv()
	assert.NoError(t, err)
	assert.Equal(t, "/var/log/apache2", conf.LogDir)
	assert.Equal(t, "/var/cache/dlogproc", conf.OutputDir)
	assert.Equal(t, "https://books.example.org", conf.URLPrefix)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, conf.ExcludedIPs)
	assert.Equal(t, "/etc/dlogproc/spiders", conf.CrawlerDenylistPath)
	if assert.Len(t, conf.Groups, 1) {
		assert.Equal(t, "pdf", conf.Groups[0].Name)
		assert.Equal(t, []string{`/download/\d+`}, conf.Groups[0].MatchPatterns)
	}
}

func TestLoadFromEnvInvalidModes(t *testing.T) {
	t.Setenv("MODES", `{"name": "pdf"}`)
	_, err := LoadFromEnv()
	assert.Error(t, err)
}
