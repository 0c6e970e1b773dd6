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

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogFileSizeMB  = 100
	maxLogFileBackups = 10
	maxLogFileAgeDays = 90
)

// ParseLevel converts a configured log level name into
// a zerolog level. Empty value means "info".
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	ans, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %s: %w", level, err)
	}
	return ans, nil
}

// newWriter returns either a rotated log file (if path is set)
// or a human-readable stderr writer
func newWriter(path string) io.Writer {
	if path != "" {
		return &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxLogFileSizeMB,
			MaxBackups: maxLogFileBackups,
			MaxAge:     maxLogFileAgeDays,
			Compress:   true,
		}
	}
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
}

// SetupLogging configures the global zerolog logger. Every
// record carries the runId field.
func SetupLogging(path, level, runID string) error {
	lev, err := ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lev)
	log.Logger = zerolog.New(newWriter(path)).
		With().
		Timestamp().
		Str("runId", runID).
		Logger()
	return nil
}
