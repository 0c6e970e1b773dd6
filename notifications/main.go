// Copyright 2019 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2019 Institute of the Czech National Corpus,
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

// Package notifications sends reports about aborted processing
// runs to administrators (via e-mail or Conomi).
package notifications

import (
	"errors"
	"fmt"
	goMail "net/mail"
	"strings"
	"time"

	"github.com/czcorpus/cnc-gokit/datetime"
	"github.com/czcorpus/cnc-gokit/mail"
	"github.com/czcorpus/conomi/client"
	"github.com/rs/zerolog/log"
)

const (
	defaultSender = "dlogproc@localhost"
)

// Notifier is a general type representing a service
// for sending reports to administrators
type Notifier interface {
	SendNotification(subject string, metadata map[string]any, paragraphs ...string) error
}

// NewNotifier is a factory function for e-mail/Conomi notification.
// Both configs are mutually exclusive and in case both
// are provided, the function returns and error.
// With no configuration, a notifier writing just to the log is returned.
//
// Missing sender is replaced by a default value.
func NewNotifier(
	conf *mail.NotificationConf,
	conf2 *client.ConomiClientConf,
	loc *time.Location,
) (Notifier, error) {
	if conf != nil && conf2 != nil {
		return nil, errors.New("either Conomi or e-mail notifier can be configured")
	}
	if conf2 != nil {
		log.Info().Msg("creating Conomi notifier")
		return newConomiNotifier(conf2), nil

	} else if conf != nil {
		if conf.Sender == "" {
			log.Warn().Msgf("e-mail sender not set - using default %s", defaultSender)
			conf.Sender = defaultSender
		}
		validated := append([]string{conf.Sender}, conf.Recipients...)
		for _, addr := range validated {
			if _, err := goMail.ParseAddress(addr); err != nil {
				return nil, fmt.Errorf("incorrect e-mail address %s: %w", addr, err)
			}
		}
		log.Info().Msgf(
			"creating e-mail sender with recipient(s) %s", strings.Join(conf.Recipients, ", "))
		return &emailNotifier{conf: conf, loc: loc}, nil
	}
	return &nullNotifier{}, nil
}

// SendRunFailure reports a run aborted by a fatal error
func SendRunFailure(notifier Notifier, runID string, startedAt time.Time, logDir string, runErr error) {
	err := notifier.SendNotification(
		"dlogproc: processing of access logs failed",
		map[string]any{
			"runId":  runID,
			"logDir": logDir,
		},
		fmt.Sprintf("Processing of access logs in %s (run %s) started at %s has been aborted.",
			logDir, runID, datetime.FormatDatetime(startedAt)),
		fmt.Sprintf("Error: %s", runErr),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to send run failure notification")
	}
}
