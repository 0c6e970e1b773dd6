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

package notifications

import (
	"errors"
	"testing"
	"time"

	"github.com/czcorpus/cnc-gokit/mail"
	"github.com/czcorpus/conomi/client"
	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct {
	subject    string
	metadata   map[string]any
	paragraphs []string
}

func (rn *recordingNotifier) SendNotification(subject string, metadata map[string]any, paragraphs ...string) error {
	rn.subject = subject
	rn.metadata = metadata
	rn.paragraphs = paragraphs
	return nil
}

func TestNewNotifierNotConfigured(t *testing.T) {
	n, err := NewNotifier(nil, nil, time.UTC)
	assert.NoError(t, err)
	assert.IsType(t, &nullNotifier{}, n)
	assert.NoError(t, n.SendNotification("test", nil, "foo"))
}

func TestNewNotifierBothConfigured(t *testing.T) {
	_, err := NewNotifier(&mail.NotificationConf{}, &client.ConomiClientConf{}, time.UTC)
	assert.Error(t, err)
}

func TestNewNotifierEmail(t *testing.T) {
	conf := &mail.NotificationConf{Recipients: []string{"admin@example.org"}}
	n, err := NewNotifier(conf, nil, time.UTC)
	assert.NoError(t, err)
	assert.IsType(t, &emailNotifier{}, n)
	assert.Equal(t, defaultSender, conf.Sender)
}

func TestNewNotifierInvalidRecipient(t *testing.T) {
	conf := &mail.NotificationConf{Sender: "dlogproc@example.org", Recipients: []string{"not an address"}}
	_, err := NewNotifier(conf, nil, time.UTC)
	assert.Error(t, err)
}

func TestSendRunFailure(t *testing.T) {
	n := &recordingNotifier{}
	SendRunFailure(
		n,
		"run-1",
		time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
		"/var/log/apache2",
		errors.New("file name must carry a date"),
	)
	assert.Contains(t, n.subject, "failed")
	assert.Equal(t, "run-1", n.metadata["runId"])
	if assert.Len(t, n.paragraphs, 2) {
		assert.Contains(t, n.paragraphs[0], "/var/log/apache2")
		assert.Contains(t, n.paragraphs[1], "file name must carry a date")
	}
}

func TestReportMetadata(t *testing.T) {
	orig := map[string]any{"runId": "run-1"}
	md := reportMetadata(orig)
	assert.Equal(t, map[string]any{"runId": "run-1", "app": "dlogproc"}, md)
	assert.Len(t, orig, 1)
	assert.Equal(t, map[string]any{"app": "dlogproc"}, reportMetadata(nil))
}
