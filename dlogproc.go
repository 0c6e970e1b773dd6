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
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dlogproc/config"
	"dlogproc/fetch"
	"dlogproc/logging"
	"dlogproc/notifications"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	version   string
	buildDate string
	gitCommit string
)

// setup loads and validates configuration. With no config path,
// the environment variables are used instead.
func setup(confPath string, runID string) (*config.Main, error) {
	var conf *config.Main
	var err error
	if confPath != "" {
		conf, err = config.Load(confPath)

	} else {
		log.Warn().Msg("no configuration file specified, using environment variables")
		conf, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logging.SetupLogging(conf.LogPath, conf.LogLevel, runID); err != nil {
		return nil, err
	}
	return conf, nil
}

func batch(confPath string, options *ProcessOptions, runID string) {
	startedAt := time.Now()
	conf, err := setup(confPath, runID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize batch processing")
	}
	notifier, err := notifications.NewNotifier(
		conf.EmailNotification, conf.ConomiNotification, conf.TimezoneLocation())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize notifications")
	}
	log.Info().
		Str("logDir", conf.LogDir).
		Strs("groups", conf.GroupNames()).
		Msg("starting batch processing of access logs")
	if err := runBatchAction(conf, options); err != nil {
		log.Error().Err(err).Msg("batch processing aborted")
		notifications.SendRunFailure(notifier, runID, startedAt, conf.LogDir, err)
		os.Exit(1)
	}
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Parse and filter logs but write CSV rows to stdout")
	fromDate := flag.String("from", "", "Process only files dated on or after this date (YYYY-MM-DD)")
	toDate := flag.String("to", "", "Process only files dated on or before this date (YYYY-MM-DD)")
	flag.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Dlogproc - an utility for filtering download requests from access logs\n\n"+
				"Usage:\n\t%s [options] [action] [config.(json|yaml)]\n\n"+
				"Available actions:\n\t%s\n\nOptions:\n",
			filepath.Base(os.Args[0]),
			strings.Join([]string{config.ActionBatch, config.ActionHelp, config.ActionVersion}, ", "),
		)
		flag.PrintDefaults()
	}
	flag.Parse()
	runID := uuid.New().String()
	if err := logging.SetupLogging("", "info", runID); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case config.ActionHelp:
		help(flag.Arg(1))
	case config.ActionVersion:
		fmt.Printf("dlogproc %s\nbuild date: %s\nlast commit: %s\n", version, buildDate, gitCommit)
	case config.ActionBatch:
		dateRange, err := fetch.ParseDateRange(*fromDate, *toDate)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid date range")
		}
		batch(flag.Arg(1), &ProcessOptions{dryRun: *dryRun, dateRange: dateRange}, runID)
	default:
		fmt.Printf("Unknown action [%s]. Try -h for help\n", flag.Arg(0))
		os.Exit(1)
	}
}
