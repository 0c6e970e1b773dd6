// Copyright 2019 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2019 Institute of the Czech National Corpus,
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

package ctype

import (
	"fmt"
	"strings"

	"dlogproc/common"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
)

const (
	// selfIdentMark is typically found in user agents of crawlers
	// providing a contact URL (e.g. "+http://www.google.com/bot.html")
	selfIdentMark = "+http"
)

// ClientTypeAnalyzer detects crawlers and other robots
// based on their user agent. It is immutable once created.
type ClientTypeAnalyzer struct {
	knownAgents *collections.Set[string]
}

// AgentIsSelfIdentifiedBot tests whether the agent provides
// a contact URL the way crawlers usually do
func (cta *ClientTypeAnalyzer) AgentIsSelfIdentifiedBot(userAgent string) bool {
	return strings.Contains(userAgent, selfIdentMark)
}

// AgentIsKnownCrawler tests whether the agent is listed in
// the crawler denylist. Only exact matches count.
func (cta *ClientTypeAnalyzer) AgentIsKnownCrawler(userAgent string) bool {
	return cta.knownAgents.Contains(userAgent)
}

// NumKnownAgents returns size of the crawler denylist
func (cta *ClientTypeAnalyzer) NumKnownAgents() int {
	return cta.knownAgents.Size()
}

// NewClientTypeAnalyzer creates an analyzer with
// a crawler denylist containing provided agents
func NewClientTypeAnalyzer(knownAgents ...string) *ClientTypeAnalyzer {
	set := &collections.Set[string]{}
	for _, agent := range knownAgents {
		set.Add(agent)
	}
	return &ClientTypeAnalyzer{knownAgents: set}
}

// ParseDenylist decodes a newline-delimited list of user agents.
// The data are expected to be ISO-8859-1 encoded. Empty lines are ignored.
func ParseDenylist(rawData []byte) ([]string, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(rawData)
	if err != nil {
		return []string{}, fmt.Errorf("failed to decode crawler denylist: %w", err)
	}
	ans := make([]string, 0, 1000)
	for _, line := range strings.Split(string(decoded), "\n") {
		if line != "" {
			ans = append(ans, line)
		}
	}
	return ans, nil
}

// LoadFromResource loads crawler denylist from a local file or
// a http(s) resource (see common.LoadSupportedResource). An empty
// path produces an analyzer with empty denylist.
func LoadFromResource(path string) (*ClientTypeAnalyzer, error) {
	if path == "" {
		log.Warn().Msg("crawler denylist not specified, only self-identified bots will be detected")
		return NewClientTypeAnalyzer(), nil
	}
	rawData, err := common.LoadSupportedResource(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load crawler denylist: %w", err)
	}
	agents, err := ParseDenylist(rawData)
	if err != nil {
		return nil, err
	}
	ans := NewClientTypeAnalyzer(agents...)
	log.Info().
		Str("path", path).
		Int("numAgents", ans.NumKnownAgents()).
		Msg("loaded crawler denylist")
	return ans, nil
}
