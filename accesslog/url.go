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

package accesslog

import (
	"regexp"
	"strings"
)

var (
	repeatedSlashes = regexp.MustCompile(`([^:])/+`)
	leadingSlashes  = regexp.MustCompile(`^//`)
	schemeAndHost   = regexp.MustCompile(`^[a-z][a-z0-9+.\-]*://[^/?#]*`)
)

// absoluteURLPath returns the path part of an absolute URL (with
// percent escapes kept as they are) and true. For other values
// it returns the value itself and false.
func absoluteURLPath(rawURL string) (string, bool) {
	loc := schemeAndHost.FindStringIndex(rawURL)
	if loc == nil {
		return rawURL, false
	}
	path := rawURL[loc[1]:]
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return path, true
}

// convertURL reduces an absolute URL to its path and collapses
// repeated slashes. Relative URLs keep their query part.
// Expects an already lower-cased value.
func convertURL(rawURL string) string {
	u, _ := absoluteURLPath(rawURL)
	return leadingSlashes.ReplaceAllString(repeatedSlashes.ReplaceAllString(u, "$1/"), "/")
}

// NormalizeURL produces the URL form stored in a Request:
// lower-cased, reduced to path if absolute, prefixed with prefix
// and with exactly one trailing slash removed (if present).
//
// With an empty prefix (or a prefix which is itself an absolute URL
// without a path) the function is idempotent.
func NormalizeURL(prefix, rawURL string) string {
	ans := prefix + convertURL(strings.ToLower(rawURL))
	if strings.HasSuffix(ans, "/") {
		return ans[:len(ans)-1]
	}
	return ans
}
