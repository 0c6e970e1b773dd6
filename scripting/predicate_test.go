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

package scripting

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dlogproc/accesslog"

	"github.com/stretchr/testify/assert"
)

func mkRequest(t *testing.T, ip, url string) *accesslog.Request {
	req, err := accesslog.NewRequest(
		ip, "01/Jun/2023:12:10:56 +0000", "GET", url, 200, 1024, "-", "Mozilla/5.0", "")
	assert.NoError(t, err)
	return req
}

func TestFieldAccess(t *testing.T) {
	pred, err := NewPredicate(
		"docs",
		"function accept (req)\n"+
			"  return req.IPAddress == '10.0.0.1' and req.ResponseCode == 200 and\n"+
			"    req.Time == '2023-06-01 12:10:56' and string.find(req.URL, '%.pdf$') ~= nil and\n"+
			"    group_name == 'docs'\n"+
			"end\n",
	)
	if assert.NoError(t, err) {
		defer pred.Close()
		ans, err := pred.Accept(mkRequest(t, "10.0.0.1", "/files/paper.pdf"))
		assert.NoError(t, err)
		assert.True(t, ans)
		ans, err = pred.Accept(mkRequest(t, "10.0.0.2", "/files/paper.pdf"))
		assert.NoError(t, err)
		assert.False(t, ans)
		ans, err = pred.Accept(mkRequest(t, "10.0.0.1", "/files/paper.html"))
		assert.NoError(t, err)
		assert.False(t, ans)
	}
}

func TestMissingAcceptFn(t *testing.T) {
	_, err := NewPredicate("docs", "function foo (req)\n  return true\nend\n")
	assert.True(t, errors.Is(err, ErrMissingAcceptFn))
}

func TestNonBoolResult(t *testing.T) {
	pred, err := NewPredicate("docs", "function accept (req)\n  return req.URL\nend\n")
	if assert.NoError(t, err) {
		defer pred.Close()
		_, err := pred.Accept(mkRequest(t, "10.0.0.1", "/x"))
		assert.True(t, errors.Is(err, ErrFailedTypeAssertion))
	}
}

func TestRequestIsReadOnly(t *testing.T) {
	pred, err := NewPredicate("docs", "function accept (req)\n  req.URL = 'foo'\n  return true\nend\n")
	if assert.NoError(t, err) {
		defer pred.Close()
		_, err := pred.Accept(mkRequest(t, "10.0.0.1", "/x"))
		assert.Error(t, err)
	}
}

func TestLoadPredicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accept.lua")
	err := os.WriteFile(path, []byte("function accept (req)\n  return req.Method == 'GET'\nend\n"), 0644)
	assert.NoError(t, err)
	pred, err := LoadPredicate("docs", path)
	if assert.NoError(t, err) {
		defer pred.Close()
		ans, err := pred.Accept(mkRequest(t, "10.0.0.1", "/x"))
		assert.NoError(t, err)
		assert.True(t, ans)
	}
}

func TestSyntaxError(t *testing.T) {
	_, err := NewPredicate("docs", "function accept (req)\n  return (\nend\n")
	assert.Error(t, err)
}

func TestRequireEmbeddedModule(t *testing.T) {
	pred, err := NewPredicate(
		"docs",
		"local urls = require('urls')\n"+
			"function accept (req)\n"+
			"  local segs = urls.segments(req.URL)\n"+
			"  return urls.has_prefix(req.URL, '/files/') and urls.has_suffix(req.URL, '.pdf') and #segs == 2\n"+
			"end\n",
	)
	if assert.NoError(t, err) {
		defer pred.Close()
		ans, err := pred.Accept(mkRequest(t, "10.0.0.1", "/files/paper.pdf"))
		assert.NoError(t, err)
		assert.True(t, ans)
		ans, err = pred.Accept(mkRequest(t, "10.0.0.1", "/files/old/paper.pdf"))
		assert.NoError(t, err)
		assert.False(t, ans)
	}
}

func TestRequireUnknownModule(t *testing.T) {
	_, err := NewPredicate("docs", "local x = require('os2')\nfunction accept (req)\n  return true\nend\n")
	assert.Error(t, err)
}
