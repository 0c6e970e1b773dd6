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

package main

import (
	"os"

	"dlogproc/accesslog"
	"dlogproc/config"
	"dlogproc/ctype"
	"dlogproc/fetch"
	"dlogproc/filter"
	"dlogproc/geo"
	"dlogproc/save"

	"github.com/rs/zerolog/log"
)

// ProcessOptions are command line options
// affecting a batch run
type ProcessOptions struct {
	dryRun    bool
	dateRange fetch.DateRange
}

func runBatchAction(conf *config.Main, options *ProcessOptions) error {
	entries, err := fetch.FindLogFiles(conf.LogDir, options.dateRange)
	if err != nil {
		return err
	}
	clientTypes, err := ctype.LoadFromResource(conf.CrawlerDenylistPath)
	if err != nil {
		return err
	}
	chain, err := filter.NewChainFromConf(
		conf.Groups, clientTypes, filter.NewExcludeIPList(conf.ExcludedIPs...))
	if err != nil {
		return err
	}
	defer chain.Close()

	var countryTable geo.Lookup
	if conf.AppendCountry {
		lookup, err := geo.NewLookup(conf.GeoConf())
		if err != nil {
			return err
		}
		defer lookup.Close()
		countryTable = lookup
	}

	var exporter *save.CSVExporter
	if options.dryRun {
		log.Warn().Msg("using dry-run mode, output goes to stdout")
		exporter = save.NewSharedCSVExporter(os.Stdout, conf.GroupNames(), countryTable)

	} else {
		fileSinks, err := save.OpenFileSinks(conf.OutputDir, conf.GroupNames())
		if err != nil {
			return err
		}
		defer func() {
			if err := fileSinks.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close output files")
			}
		}()
		exporter = save.NewCSVExporter(fileSinks.Writers(), countryTable)
	}

	proc := fetch.NewProcessor(accesslog.NewLineParser(conf.URLPrefix), chain, exporter)
	err = proc.Run(entries)
	proc.LogSummary()
	return err
}
