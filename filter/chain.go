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
	"dlogproc/accesslog"
	"dlogproc/ctype"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/rs/zerolog/log"
)

// RejectReason describes which predicate rejected a request
type RejectReason string

const (
	RejectURLMismatch     RejectReason = "urlMismatch"
	RejectResponseCode    RejectReason = "responseCode"
	RejectStarURL         RejectReason = "starUrl"
	RejectMethod          RejectReason = "method"
	RejectSelfIdentBot    RejectReason = "selfIdentifiedBot"
	RejectKnownCrawler    RejectReason = "knownCrawler"
	RejectExcludedIP      RejectReason = "excludedIp"
	RejectScriptPredicate RejectReason = "acceptScript"
)

// Match is a request qualified for a group. Its URL is already
// sanitized by the group's sanitize patterns.
type Match struct {
	Group   *Group
	Request *accesslog.Request
}

// ExcludeIPList represents a list of IP addresses
// which should not be included in the output.
// These are typically requests from watchdog services.
type ExcludeIPList struct {
	data *collections.Set[string]
}

// Excludes tests whether the IP is excluded
func (elist ExcludeIPList) Excludes(ip string) bool {
	return elist.data.Contains(ip)
}

func NewExcludeIPList(ips ...string) ExcludeIPList {
	set := &collections.Set[string]{}
	for _, ip := range ips {
		set.Add(ip)
	}
	return ExcludeIPList{data: set}
}

// Chain evaluates configured filter groups against requests.
// All the filtering data are read-only; the only mutable part
// are rejection counters.
type Chain struct {
	groups      []*Group
	clientTypes *ctype.ClientTypeAnalyzer
	excludedIPs ExcludeIPList
	rejections  map[string]map[RejectReason]int
}

func (ch *Chain) Groups() []*Group {
	return ch.groups
}

// Rejections returns counts of rejected requests per group and reason
func (ch *Chain) Rejections() map[string]map[RejectReason]int {
	return ch.rejections
}

// check applies group predicates in a fixed order and returns the first
// failing one. An empty reason means the request qualifies.
func (ch *Chain) check(group *Group, req *accesslog.Request) (RejectReason, error) {
	if !group.MatchesURL(req.URL()) {
		return RejectURLMismatch, nil
	}
	if req.ResponseCode() != 200 && req.ResponseCode() != 304 {
		return RejectResponseCode, nil
	}
	if req.URL() == "*" {
		return RejectStarURL, nil
	}
	if req.Method() != "GET" && req.Method() != "POST" {
		return RejectMethod, nil
	}
	if ch.clientTypes.AgentIsSelfIdentifiedBot(req.UserAgent()) {
		return RejectSelfIdentBot, nil
	}
	if ch.clientTypes.AgentIsKnownCrawler(req.UserAgent()) {
		return RejectKnownCrawler, nil
	}
	if ch.excludedIPs.Excludes(req.IPAddress()) {
		log.Debug().Str("ip", req.IPAddress()).Msg("excluded IP")
		return RejectExcludedIP, nil
	}
	ok, err := group.accept(req)
	if err != nil {
		return "", err
	}
	if !ok {
		return RejectScriptPredicate, nil
	}
	return "", nil
}

// Evaluate tests the request against all the groups. Each group is
// evaluated independently and receives its own sanitized copy of
// the request. The returned matches follow the order of groups.
// An error is returned only in case a group's accept script fails.
func (ch *Chain) Evaluate(req *accesslog.Request) ([]Match, error) {
	ans := make([]Match, 0, len(ch.groups))
	for _, group := range ch.groups {
		reason, err := ch.check(group, req)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			ch.rejections[group.name][reason]++
			continue
		}
		ans = append(ans, Match{Group: group, Request: req.WithURL(group.SanitizeURL(req.URL()))})
	}
	return ans, nil
}

// Close releases all the groups' resources
func (ch *Chain) Close() {
	for _, g := range ch.groups {
		g.Close()
	}
}

// NewChain creates a filter chain. In case clientTypes is nil,
// an analyzer with empty crawler denylist is used.
func NewChain(groups []*Group, clientTypes *ctype.ClientTypeAnalyzer, excludedIPs ExcludeIPList) *Chain {
	if clientTypes == nil {
		clientTypes = ctype.NewClientTypeAnalyzer()
	}
	if excludedIPs.data == nil {
		excludedIPs = NewExcludeIPList()
	}
	rejections := make(map[string]map[RejectReason]int)
	for _, g := range groups {
		rejections[g.name] = make(map[RejectReason]int)
	}
	return &Chain{
		groups:      groups,
		clientTypes: clientTypes,
		excludedIPs: excludedIPs,
		rejections:  rejections,
	}
}

// NewChainFromConf compiles all the group configurations
// and creates a filter chain
func NewChainFromConf(
	confs []GroupConf,
	clientTypes *ctype.ClientTypeAnalyzer,
	excludedIPs ExcludeIPList,
) (*Chain, error) {
	groups := make([]*Group, 0, len(confs))
	for _, gc := range confs {
		g, err := NewGroup(gc)
		if err != nil {
			for _, prev := range groups {
				prev.Close()
			}
			return nil, err
		}
		groups = append(groups, g)
	}
	return NewChain(groups, clientTypes, excludedIPs), nil
}
