// Copyright 2017 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2017 Institute of the Czech National Corpus,
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

// fileparser contains the processing loop which reads access log
// files one by one, parses their lines and passes accepted requests
// to an exporter. Everything runs sequentially - a line is fully
// processed before the next one is read.

package fetch

import (
	"fmt"
	"time"

	"dlogproc/accesslog"
	"dlogproc/filter"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RowExporter receives requests accepted by filter groups
type RowExporter interface {
	Write(groupName string, req *accesslog.Request) error
	Flush() error
}

// Stats contains overall numbers of a processing run
type Stats struct {
	NumFiles    int
	NumLines    int64
	NumParsed   int64
	NumSkipped  int64
	NumExported map[string]int64
}

func (s *Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Int("files", s.NumFiles).
		Int64("lines", s.NumLines).
		Int64("parsed", s.NumParsed).
		Int64("skipped", s.NumSkipped)
	exported := zerolog.Dict()
	for k, v := range s.NumExported {
		exported.Int64(k, v)
	}
	e.Dict("exported", exported)
}

// Processor drives the whole pipeline from log files to
// exported rows
type Processor struct {
	parser   *accesslog.LineParser
	chain    *filter.Chain
	exporter RowExporter
	stats    Stats
}

func (p *Processor) Stats() Stats {
	return p.stats
}

// processLine handles a single line. Skipped lines are only counted,
// any other problem is returned as an error.
func (p *Processor) processLine(line string, lineNum int64) error {
	p.stats.NumLines++
	res := p.parser.ParseLine(line, lineNum)
	switch res.Status {
	case accesslog.StatusSkipped:
		p.stats.NumSkipped++
		log.Debug().Int64("line", lineNum).Str("reason", res.SkipReason).Msg("skipping line")
		return nil
	case accesslog.StatusFatal:
		return res.Err
	}
	p.stats.NumParsed++
	matches, err := p.chain.Evaluate(res.Request)
	if err != nil {
		return fmt.Errorf("failed to filter request at line %d: %w", lineNum, err)
	}
	for _, m := range matches {
		if err := p.exporter.Write(m.Group.Name(), m.Request); err != nil {
			return fmt.Errorf("failed to export request at line %d: %w", lineNum, err)
		}
		p.stats.NumExported[m.Group.Name()]++
	}
	return nil
}

// ProcessFile decompresses and processes a single log file.
// Exported rows are flushed once the file is done.
func (p *Processor) ProcessFile(entry LogFileEntry) error {
	t0 := time.Now()
	lines, err := Decompress(entry.Path)
	if err != nil {
		return err
	}
	for i, line := range lines {
		if err := p.processLine(line, int64(i+1)); err != nil {
			return fmt.Errorf("failed to process %s: %w", entry.Path, err)
		}
	}
	if err := p.exporter.Flush(); err != nil {
		return fmt.Errorf("failed to process %s: %w", entry.Path, err)
	}
	p.stats.NumFiles++
	log.Info().
		Str("file", entry.Path).
		Int("lines", len(lines)).
		Dur("procTime", time.Since(t0)).
		Msg("processed log file")
	return nil
}

// Run processes all the files in the provided order and stops
// on the first error.
func (p *Processor) Run(entries []LogFileEntry) error {
	for _, entry := range entries {
		if err := p.ProcessFile(entry); err != nil {
			return err
		}
	}
	return nil
}

// LogSummary writes the overall statistics along with
// filter rejections to the log
func (p *Processor) LogSummary() {
	log.Info().EmbedObject(&p.stats).Msg("finished processing of access logs")
	for group, reasons := range p.chain.Rejections() {
		evt := log.Info().Str("group", group)
		for reason, num := range reasons {
			evt.Int(string(reason), num)
		}
		evt.Msg("rejected requests")
	}
}

func NewProcessor(parser *accesslog.LineParser, chain *filter.Chain, exporter RowExporter) *Processor {
	return &Processor{
		parser:   parser,
		chain:    chain,
		exporter: exporter,
		stats:    Stats{NumExported: make(map[string]int64)},
	}
}
