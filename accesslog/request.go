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
	"fmt"
	"time"
)

const (
	// timestampLayout matches the date part of the bracketed access log
	// datetime (e.g. 01/Jun/2023:12:10:56); the zone offset is ignored
	timestampLayout = "02/Jan/2006:15:04:05"
	timestampLen    = len(timestampLayout)

	// OutputTimeLayout is the datetime format used for exported rows
	OutputTimeLayout = "2006-01-02 15:04:05"
)

// Request represents a single validated access log line.
// Once created (see NewRequest) it cannot be changed.
type Request struct {
	ipAddress     string
	time          time.Time
	method        string
	url           string
	responseCode  int
	contentLength int
	referer       string
	userAgent     string
}

func (r *Request) IPAddress() string {
	return r.ipAddress
}

func (r *Request) Time() time.Time {
	return r.time
}

func (r *Request) Method() string {
	return r.method
}

func (r *Request) URL() string {
	return r.url
}

func (r *Request) ResponseCode() int {
	return r.responseCode
}

func (r *Request) ContentLength() int {
	return r.contentLength
}

func (r *Request) Referer() string {
	return r.referer
}

func (r *Request) UserAgent() string {
	return r.userAgent
}

// FormattedTime returns request time in the export format
func (r *Request) FormattedTime() string {
	return r.time.Format(OutputTimeLayout)
}

// WithURL creates a copy of the request with a different URL.
// This is used by URL sanitization so a sanitized form never
// leaks to other filter groups.
func (r *Request) WithURL(url string) *Request {
	cp := *r
	cp.url = url
	return &cp
}

func (r *Request) String() string {
	return fmt.Sprintf("Request %s, %s, %s", r.FormattedTime(), r.ipAddress, r.url)
}

func parseTimestamp(timestamp string) (time.Time, error) {
	if len(timestamp) < timestampLen {
		return time.Time{}, fmt.Errorf("timestamp %s too short", timestamp)
	}
	return time.Parse(timestampLayout, timestamp[:timestampLen])
}

// NewRequest validates provided values and creates a new Request.
// The rawURL is normalized (see NormalizeURL) using urlPrefix.
// Any violation of record invariants produces a FatalError of the
// KindField kind.
func NewRequest(
	ipAddress string,
	timestamp string,
	method string,
	rawURL string,
	responseCode int,
	contentLength int,
	referer string,
	userAgent string,
	urlPrefix string,
) (*Request, error) {
	if responseCode < 100 || responseCode >= 1000 {
		return nil, NewFatalError(
			KindField, ErrInvalidField, 0, fmt.Sprintf("response code %d out of range", responseCode))
	}
	if contentLength < 0 {
		return nil, NewFatalError(
			KindField, ErrInvalidField, 0, fmt.Sprintf("negative content length %d", contentLength))
	}
	t, err := parseTimestamp(timestamp)
	if err != nil {
		return nil, NewFatalError(
			KindField, ErrInvalidField, 0, fmt.Sprintf("invalid timestamp: %s", err))
	}
	return &Request{
		ipAddress:     ipAddress,
		time:          t,
		method:        method,
		url:           NormalizeURL(urlPrefix, rawURL),
		responseCode:  responseCode,
		contentLength: contentLength,
		referer:       referer,
		userAgent:     userAgent,
	}, nil
}
