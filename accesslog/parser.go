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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Offsets within the line remainder (i.e. the part following the host,
// ip address and two unused columns), e.g.:
//
//	[01/Jun/2023:12:10:56 +0000] "GET /js/libs/raphael.js HTTP/1.1" 200 ...
//
// 0: opening bracket, 1-26: datetime, 27: closing bracket, 28: space,
// 29: opening quote of the request line
const (
	numLineColumns    = 5
	minRemainderLen   = 30
	timestampStart    = 1
	timestampEnd      = 27
	separatorPos      = 28
	openQuotPos       = 29
	requestColumnPos  = 30
	minRequestLineLen = 3
)

var (
	requestPattern  = regexp.MustCompile(`^(.*[^\\]") ([0-9]+) ([0-9]+) (.*)$`)
	fallbackPattern = regexp.MustCompile(`^()" ([0-9]+) ([0-9]+) (.*)$`)
	refUAPattern    = regexp.MustCompile(`^"(.*)" "(.*)" *$`)
)

// ParseStatus is a tag of a ParseResult
type ParseStatus int

const (
	StatusParsed ParseStatus = iota
	StatusSkipped
	StatusFatal
)

func (s ParseStatus) String() string {
	switch s {
	case StatusParsed:
		return "parsed"
	case StatusSkipped:
		return "skipped"
	case StatusFatal:
		return "fatal"
	default:
		return fmt.Sprintf("ParseStatus(%d)", int(s))
	}
}

// ParseResult is an outcome of a single line parsing.
// Depending on Status, exactly one of Request, SkipReason, Err
// is meaningful.
type ParseResult struct {
	Status     ParseStatus
	Request    *Request
	SkipReason string
	Err        *FatalError
}

func parsed(req *Request) ParseResult {
	return ParseResult{Status: StatusParsed, Request: req}
}

func skipped(reason string) ParseResult {
	return ParseResult{Status: StatusSkipped, SkipReason: reason}
}

func fatal(err *FatalError) ParseResult {
	return ParseResult{Status: StatusFatal, Err: err}
}

// charAt is a bounds-checked access to a single byte of s
func charAt(s string, pos int) (byte, bool) {
	if pos < 0 || pos >= len(s) {
		return 0, false
	}
	return s[pos], true
}

// substr is a bounds-checked slicing of s
func substr(s string, from, to int) (string, bool) {
	if from < 0 || to > len(s) || from > to {
		return "", false
	}
	return s[from:to], true
}

// LineParser parses access log lines with a leading virtual host
// column, i.e.:
//
//	0) host
//	1) ip address
//	2) - (unused)
//	3) - (unused)
//	4) [01/Jun/2023:12:10:56 +0000] "GET /foo HTTP/1.1" 200 1234 "referer" "user agent"
type LineParser struct {
	urlPrefix string
}

// ParseLine parses a single line. It never panics - any broken input
// is reported via a ParseResult with StatusFatal.
func (lp *LineParser) ParseLine(s string, lineNum int64) ParseResult {
	parts := strings.SplitN(s, " ", numLineColumns)
	if len(parts) < numLineColumns {
		return fatal(NewFatalError(KindStructural, ErrColumnCount, lineNum, lineSample(s)))
	}
	ipAddress, rest := parts[1], parts[4]
	if len(rest) < minRemainderLen {
		log.Warn().
			Int64("line", lineNum).
			Str("data", s).
			Msg("suspiciously short request column")
	}

	timestamp, ok := substr(rest, timestampStart, timestampEnd)
	if !ok {
		return fatal(NewFatalError(KindStructural, ErrMalformedRequestColumn, lineNum, lineSample(s)))
	}
	if c, ok := charAt(rest, separatorPos); !ok || c != ' ' {
		return fatal(NewFatalError(KindStructural, ErrMalformedRequestColumn, lineNum, lineSample(s)))
	}
	if c, ok := charAt(rest, openQuotPos); !ok || c != '"' {
		return fatal(NewFatalError(KindStructural, ErrMalformedRequestColumn, lineNum, lineSample(s)))
	}
	reqColumn := rest[requestColumnPos:]

	srch := requestPattern.FindStringSubmatch(reqColumn)
	if srch == nil && strings.HasPrefix(reqColumn, `" `) {
		srch = fallbackPattern.FindStringSubmatch(reqColumn)
	}
	if srch == nil {
		return fatal(NewFatalError(KindStructural, ErrMalformedRequestColumn, lineNum, lineSample(reqColumn)))
	}
	requestLine := strings.Trim(srch[1], `"`)
	responseCode, err := strconv.Atoi(srch[2])
	if err != nil {
		return fatal(NewFatalError(KindField, ErrInvalidField, lineNum, err.Error()))
	}
	contentLength, err := strconv.Atoi(srch[3])
	if err != nil {
		return fatal(NewFatalError(KindField, ErrInvalidField, lineNum, err.Error()))
	}

	srch2 := refUAPattern.FindStringSubmatch(srch[4])
	if srch2 == nil {
		return fatal(NewFatalError(KindStructural, ErrNoMatchWithURL, lineNum, lineSample(srch[4])))
	}
	referer, userAgent := srch2[1], srch2[2]

	reqTokens := strings.Fields(requestLine)
	if len(reqTokens) < minRequestLineLen {
		return skipped(fmt.Sprintf("incomplete request line [%s]", requestLine))
	}
	req, err := NewRequest(
		ipAddress,
		timestamp,
		reqTokens[0],
		reqTokens[1],
		responseCode,
		contentLength,
		referer,
		userAgent,
		lp.urlPrefix,
	)
	if err != nil {
		var fe *FatalError
		if errors.As(err, &fe) {
			fe.LineNumber = lineNum
			return fatal(fe)
		}
		return fatal(NewFatalError(KindField, ErrInvalidField, lineNum, err.Error()))
	}
	return parsed(req)
}

// NewLineParser creates a parser prefixing all parsed URLs
// with urlPrefix
func NewLineParser(urlPrefix string) *LineParser {
	return &LineParser{urlPrefix: urlPrefix}
}
