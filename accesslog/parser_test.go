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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	entry1 = `static.example.org 34.90.253.37 - - [01/Jun/2023:12:10:56 +0000] "GET https://static/js/libs/raphael.js HTTP/1.1" 200 32154 "https://testing_url" "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36"`
	entry2 = `www.example.org 10.0.3.50 - - [17/May/2021:06:36:36 +0200] "POST /Articles/CJS/Thumbs/ HTTP/2.0" 304 0 "-" "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.212 Safari/537.36"`
	// request line with escaped quotes inside
	entry3 = `www.example.org 10.0.3.51 - - [17/May/2021:06:36:37 +0200] "GET /search?q=\"foo\" HTTP/1.1" 200 17 "-" "curl/7.68.0"`
	// empty request line (e.g. a client closed connection)
	entry4 = `www.example.org 10.0.3.52 - - [17/May/2021:06:36:38 +0200] "" 400 0 "-" "-"`
	// missing closing quote of the request line
	entry5 = `www.example.org 10.0.3.53 - - [17/May/2021:06:36:39 +0200] "GET /foo HTTP/1.1 200 17 "-" "curl/7.68.0"`
	// user agent is not quoted
	entry6 = `www.example.org 10.0.3.54 - - [17/May/2021:06:36:40 +0200] "GET /foo HTTP/1.1" 200 17 "-" curl/7.68.0`
	// datetime without the bracket, offsets do not fit
	entry7 = `www.example.org 10.0.3.55 - - 17/May/2021:06:36:41 +0200 "GET /foo HTTP/1.1" 200 17 "-" "curl/7.68.0"`
	entry8 = `www.example.org 10.0.3.56 - - [17/May/2021:06:36:42 +0200] "GET /foo HTTP/1.1" 099 17 "-" "curl/7.68.0"`
	entry9 = `www.example.org 10.0.3.57 - - [17/Foo/2021:06:36:42 +0200] "GET /foo HTTP/1.1" 200 17 "-" "curl/7.68.0"`
)

func TestParseWellFormedLine(t *testing.T) {
	parser := NewLineParser("")
	res := parser.ParseLine(entry1, 1)
	if assert.Equal(t, StatusParsed, res.Status) {
		req := res.Request
		assert.Equal(t, "34.90.253.37", req.IPAddress())
		assert.Equal(t, time.Date(2023, time.June, 1, 12, 10, 56, 0, time.UTC), req.Time())
		assert.Equal(t, "2023-06-01 12:10:56", req.FormattedTime())
		assert.Equal(t, "GET", req.Method())
		assert.Equal(t, "/js/libs/raphael.js", req.URL())
		assert.Equal(t, 200, req.ResponseCode())
		assert.Equal(t, 32154, req.ContentLength())
		assert.Equal(t, "https://testing_url", req.Referer())
		assert.Equal(t, "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36", req.UserAgent())
	}
}

func TestParseAppliesPrefixAndNormalization(t *testing.T) {
	parser := NewLineParser("https://www.example.org")
	res := parser.ParseLine(entry2, 2)
	if assert.Equal(t, StatusParsed, res.Status) {
		assert.Equal(t, "https://www.example.org/articles/cjs/thumbs", res.Request.URL())
		assert.Equal(t, "POST", res.Request.Method())
		assert.Equal(t, 304, res.Request.ResponseCode())
		assert.Equal(t, 0, res.Request.ContentLength())
		assert.Equal(t, "-", res.Request.Referer())
	}
}

func TestParseAbsoluteURLWithInvalidEscape(t *testing.T) {
	parser := NewLineParser("")
	line := `static.example.org 10.0.0.9 - - [01/Jun/2023:12:10:56 +0000] "GET https://static/files/%zz.pdf HTTP/1.1" 200 1 "-" "ua"`
	res := parser.ParseLine(line, 1)
	if assert.Equal(t, StatusParsed, res.Status) {
		assert.Equal(t, "/files/%zz.pdf", res.Request.URL())
	}
}

func TestParseEscapedQuotes(t *testing.T) {
	parser := NewLineParser("")
	res := parser.ParseLine(entry3, 3)
	if assert.Equal(t, StatusParsed, res.Status) {
		assert.Equal(t, `/search?q=\"foo\"`, res.Request.URL())
		assert.Equal(t, "curl/7.68.0", res.Request.UserAgent())
	}
}

func TestParseEmptyRequestLineIsSkipped(t *testing.T) {
	parser := NewLineParser("")
	res := parser.ParseLine(entry4, 4)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Nil(t, res.Request)
	assert.Nil(t, res.Err)
}

func TestParseIncompleteRequestLinesAreSkipped(t *testing.T) {
	parser := NewLineParser("")
	for _, reqLine := range []string{"-", "GET", "GET /foo"} {
		line := `www.example.org 10.0.3.52 - - [17/May/2021:06:36:38 +0200] "` +
			reqLine + `" 400 0 "-" "-"`
		res := parser.ParseLine(line, 1)
		assert.Equal(t, StatusSkipped, res.Status, reqLine)
		assert.Nil(t, res.Err, reqLine)
	}
}

func TestParseMissingClosingQuote(t *testing.T) {
	parser := NewLineParser("")
	res := parser.ParseLine(entry5, 5)
	if assert.Equal(t, StatusFatal, res.Status) {
		assert.Equal(t, KindStructural, res.Err.Kind)
		assert.True(t, errors.Is(res.Err, ErrMalformedRequestColumn))
		assert.False(t, errors.Is(res.Err, ErrNoMatchWithURL))
		assert.Equal(t, int64(5), res.Err.LineNumber)
	}
}

func TestParseUnquotedUserAgent(t *testing.T) {
	parser := NewLineParser("")
	res := parser.ParseLine(entry6, 6)
	if assert.Equal(t, StatusFatal, res.Status) {
		assert.Equal(t, KindStructural, res.Err.Kind)
		assert.True(t, errors.Is(res.Err, ErrNoMatchWithURL))
		assert.False(t, errors.Is(res.Err, ErrMalformedRequestColumn))
	}
}

func TestParseOffsetMismatch(t *testing.T) {
	parser := NewLineParser("")
	res := parser.ParseLine(entry7, 7)
	if assert.Equal(t, StatusFatal, res.Status) {
		assert.Equal(t, KindStructural, res.Err.Kind)
		assert.True(t, errors.Is(res.Err, ErrMalformedRequestColumn))
	}
}

func TestParseTooShortRemainderDoesNotPanic(t *testing.T) {
	parser := NewLineParser("")
	res := parser.ParseLine("host 1.2.3.4 - - [01/Jun", 1)
	if assert.Equal(t, StatusFatal, res.Status) {
		assert.Equal(t, KindStructural, res.Err.Kind)
		assert.True(t, errors.Is(res.Err, ErrMalformedRequestColumn))
	}
}

func TestParseColumnCount(t *testing.T) {
	parser := NewLineParser("")
	res := parser.ParseLine("host 1.2.3.4 - -", 12)
	if assert.Equal(t, StatusFatal, res.Status) {
		assert.Equal(t, KindStructural, res.Err.Kind)
		assert.True(t, errors.Is(res.Err, ErrColumnCount))
		assert.Contains(t, res.Err.Error(), "line 12")
	}
}

func TestParseInvalidResponseCode(t *testing.T) {
	parser := NewLineParser("")
	res := parser.ParseLine(entry8, 8)
	if assert.Equal(t, StatusFatal, res.Status) {
		assert.Equal(t, KindField, res.Err.Kind)
		assert.True(t, errors.Is(res.Err, ErrInvalidField))
		assert.Equal(t, int64(8), res.Err.LineNumber)
	}
}

func TestParseInvalidTimestamp(t *testing.T) {
	parser := NewLineParser("")
	res := parser.ParseLine(entry9, 9)
	if assert.Equal(t, StatusFatal, res.Status) {
		assert.Equal(t, KindField, res.Err.Kind)
	}
}

func TestKindOf(t *testing.T) {
	parser := NewLineParser("")
	res := parser.ParseLine(entry6, 6)
	var err error = res.Err
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindStructural, kind)
	_, ok = KindOf(errors.New("foo"))
	assert.False(t, ok)
}
