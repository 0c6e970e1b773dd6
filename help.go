// Copyright 2018 Tomas Machalek <tomas.machalek@gmail.com>
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
	"fmt"

	"dlogproc/config"
)

var helpTexts = map[string]string{
	config.ActionBatch: `Process a directory of gzipped access logs (files named like
access.log-20230601.gz) and write matching requests of each filter group
into <outputDir>/output_<group>.csv. A JSON or YAML configuration can be
specified (local path or http(s) URL):

{
    "logDir": "/var/log/apache2",
    "outputDir": "/var/cache/dlogproc",
    "urlPrefix": "https://books.example.org",
    "groups": [
        {
            "name": "pdf",
            "matchPatterns": ["/download/\\d+"],
            "sanitizePatterns": ["/download/\\d+"],
            "acceptScript": "/etc/dlogproc/pdf.lua"
        }
    ],
    "excludedIps": ["10.0.0.1"],
    "crawlerDenylistPath": "/etc/dlogproc/spiders",
    "appendCountry": false,
    "geoIpDbPath": "/path/to/GeoLite2-Country.mmdb",
    "logPath": "/var/log/dlogproc/dlogproc.log",
    "logLevel": "info"
}

Without a configuration file, environment variables LOGDIR, CACHEDIR,
URL_PREFIX, EXCLUDED_IPS (JSON list), MODES (JSON list of
{"name": ..., "regex": [...]}) and SPIDERS_PATH are used.`,

	config.ActionVersion: `Print version information and exit.`,
}

func help(topic string) {
	if topic == "" {
		fmt.Printf("Missing action to help with. Select one of the:\n\t%s, %s\n",
			config.ActionBatch, config.ActionVersion)
		return
	}
	fmt.Printf("\n[%s]\n\n", topic)
	if text, ok := helpTexts[topic]; ok {
		fmt.Println(text)

	} else {
		fmt.Println("- no information available -")
	}
	fmt.Println()
}
