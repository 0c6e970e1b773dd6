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
)

// ErrorKind classifies a fatal processing error. Any fatal error
// aborts the whole run.
type ErrorKind int

const (

	// KindStructural means the line does not follow the expected
	// column layout or quoting of the access log grammar
	KindStructural ErrorKind = iota

	// KindField means a parsed value violates a record invariant
	// (response code, content length, timestamp format)
	KindField

	// KindConfig means the run cannot continue because of an operator
	// error (e.g. a log file name without a date)
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindStructural:
		return "FatalStructural"
	case KindField:
		return "FatalField"
	case KindConfig:
		return "FatalConfig"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

var (
	ErrColumnCount            = errors.New("line does not have the expected column count")
	ErrMalformedRequestColumn = errors.New("malformed request column")
	ErrNoMatchWithURL         = errors.New("no match with url")
	ErrInvalidField           = errors.New("invalid field value")
	ErrMissingFileDate        = errors.New("file name must carry a date")
)

// FatalError describes a condition which must stop log processing.
// The Reason is always one of the Err* values above so callers can
// use errors.Is to find out what went wrong.
type FatalError struct {
	Kind       ErrorKind
	Reason     error
	LineNumber int64
	Detail     string
}

func (e *FatalError) Error() string {
	if e.LineNumber > 0 {
		return fmt.Sprintf("%s: %s at line %d (%s)", e.Kind, e.Reason, e.LineNumber, e.Detail)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Reason, e.Detail)
}

func (e *FatalError) Unwrap() error {
	return e.Reason
}

// NewFatalError is a constructor for FatalError
func NewFatalError(kind ErrorKind, reason error, lineNumber int64, detail string) *FatalError {
	return &FatalError{Kind: kind, Reason: reason, LineNumber: lineNumber, Detail: detail}
}

// KindOf returns the kind of a fatal error found in the err chain.
// The second value is false if there is no FatalError in the chain.
func KindOf(err error) (ErrorKind, bool) {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// lineSample shortens a logged line so error messages stay readable
func lineSample(line string) string {
	if len(line) > 60 {
		return line[:60] + "..."
	}
	return line
}
