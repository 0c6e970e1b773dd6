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

package notifications

import (
	"strings"

	"github.com/czcorpus/conomi/client"
	"github.com/czcorpus/conomi/general"
)

const (
	reportAppName = "dlogproc"
)

// conomiNotifier sends run reports as Conomi warnings
type conomiNotifier struct {
	client *client.ConomiClient
}

// reportMetadata returns a copy of metadata extended
// with an application identification
func reportMetadata(metadata map[string]any) map[string]any {
	ans := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		ans[k] = v
	}
	ans["app"] = reportAppName
	return ans
}

func (cn *conomiNotifier) SendNotification(subject string, metadata map[string]any, paragraphs ...string) error {
	return cn.client.SendReport(
		general.SeverityLevelWarning,
		subject,
		strings.Join(paragraphs, "\n\n"),
		client.WithArgs(reportMetadata(metadata)),
	)
}

func newConomiNotifier(conf *client.ConomiClientConf) *conomiNotifier {
	return &conomiNotifier{client: client.NewConomiClient(*conf)}
}
