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

package filter

import (
	"errors"
	"fmt"
	"regexp"

	"dlogproc/accesslog"
	"dlogproc/scripting"
)

// GroupConf describes a single filter group as
// written in the configuration file
type GroupConf struct {
	Name string `json:"name"`

	// MatchPatterns are regular expressions a request URL
	// must match (at least one of them) to qualify for the group
	MatchPatterns []string `json:"matchPatterns"`

	// SanitizePatterns are applied to qualified requests; URL is replaced
	// by the span matched by the first matching pattern.
	// If empty, MatchPatterns are used.
	SanitizePatterns []string `json:"sanitizePatterns"`

	// AcceptScript is an optional path to a Lua script
	// defining `accept(req)` function
	AcceptScript string `json:"acceptScript"`
}

func (conf *GroupConf) Validate() error {
	if conf.Name == "" {
		return errors.New("filter group name must not be empty")
	}
	if len(conf.MatchPatterns) == 0 {
		return fmt.Errorf("filter group %s: at least one match pattern is required", conf.Name)
	}
	return nil
}

// Group is a compiled, read-only version of GroupConf
type Group struct {
	name      string
	match     []*regexp.Regexp
	sanitize  []*regexp.Regexp
	predicate *scripting.Predicate
}

func (g *Group) Name() string {
	return g.name
}

// MatchesURL tests whether the URL matches any of the group's patterns
func (g *Group) MatchesURL(url string) bool {
	for _, rx := range g.match {
		if rx.MatchString(url) {
			return true
		}
	}
	return false
}

// SanitizeURL returns the span matched by the first matching
// sanitize pattern. If nothing matches, url is returned unchanged.
func (g *Group) SanitizeURL(url string) string {
	for _, rx := range g.sanitize {
		if loc := rx.FindStringIndex(url); loc != nil {
			return url[loc[0]:loc[1]]
		}
	}
	return url
}

// accept evaluates the group's Lua predicate (if any)
func (g *Group) accept(req *accesslog.Request) (bool, error) {
	if g.predicate == nil {
		return true, nil
	}
	return g.predicate.Accept(req)
}

// Close releases resources of the group's scripting environment
func (g *Group) Close() {
	if g.predicate != nil {
		g.predicate.Close()
	}
}

func compilePatterns(groupName string, patterns []string) ([]*regexp.Regexp, error) {
	ans := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		rx, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("filter group %s: invalid pattern %s: %w", groupName, p, err)
		}
		ans[i] = rx
	}
	return ans, nil
}

// NewGroup compiles a filter group configuration
func NewGroup(conf GroupConf) (*Group, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	match, err := compilePatterns(conf.Name, conf.MatchPatterns)
	if err != nil {
		return nil, err
	}
	sanitizeSrc := conf.SanitizePatterns
	if len(sanitizeSrc) == 0 {
		sanitizeSrc = conf.MatchPatterns
	}
	sanitize, err := compilePatterns(conf.Name, sanitizeSrc)
	if err != nil {
		return nil, err
	}
	ans := &Group{name: conf.Name, match: match, sanitize: sanitize}
	if conf.AcceptScript != "" {
		ans.predicate, err = scripting.LoadPredicate(conf.Name, conf.AcceptScript)
		if err != nil {
			return nil, err
		}
	}
	return ans, nil
}
