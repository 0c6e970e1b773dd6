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

package save

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// OutputFilePath returns path of a CSV file for a filter group
func OutputFilePath(outputDir, groupName string) string {
	return filepath.Join(outputDir, fmt.Sprintf("output_%s.csv", groupName))
}

// FileSinks is a set of output files, one per filter group
type FileSinks struct {
	files map[string]*os.File
}

// Writers returns sinks in a form suitable for NewCSVExporter
func (fs *FileSinks) Writers() map[string]io.Writer {
	ans := make(map[string]io.Writer)
	for k, v := range fs.files {
		ans[k] = v
	}
	return ans
}

// Close closes all the files and returns the first error encountered
func (fs *FileSinks) Close() error {
	var ans error
	for name, f := range fs.files {
		if err := f.Close(); err != nil && ans == nil {
			ans = fmt.Errorf("failed to close output of group %s: %w", name, err)
		}
	}
	return ans
}

// OpenFileSinks creates (truncates) output files for all the groups
func OpenFileSinks(outputDir string, groupNames []string) (*FileSinks, error) {
	ans := &FileSinks{files: make(map[string]*os.File)}
	for _, name := range groupNames {
		path := OutputFilePath(outputDir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			ans.Close()
			return nil, fmt.Errorf("failed to open output file for group %s: %w", name, err)
		}
		log.Info().Str("group", name).Str("path", path).Msg("opened output file")
		ans.files[name] = f
	}
	return ans, nil
}
