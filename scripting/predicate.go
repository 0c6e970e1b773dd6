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
	"fmt"

	"dlogproc/accesslog"

	lua "github.com/yuin/gopher-lua"
)

const (
	acceptFnName = "accept"
)

var (
	ErrMissingAcceptFn     = errors.New("missing `accept` function")
	ErrFailedTypeAssertion = errors.New("failed type assertion")
)

// Predicate is a user-defined request filter written in Lua.
// The script must define a function `accept(req)` returning
// a boolean value. Request properties are available as
// req.IPAddress, req.Time, req.Method, req.URL, req.ResponseCode,
// req.ContentLength, req.Referer and req.UserAgent.
//
// A Predicate is not safe for concurrent use.
type Predicate struct {
	L         *lua.LState
	groupName string
}

func (p *Predicate) Accept(req *accesslog.Request) (bool, error) {
	fnObj := p.L.GetGlobal(acceptFnName)
	if fnObj == lua.LNil {
		return false, fmt.Errorf("group %s: %w", p.groupName, ErrMissingAcceptFn)
	}
	err := p.L.CallByParam(
		lua.P{
			Fn:      fnObj,
			NRet:    1,
			Protect: true,
		},
		importRequest(p.L, req),
	)
	if err != nil {
		return false, fmt.Errorf("group %s: failed to evaluate accept script: %w", p.groupName, err)
	}
	ret := p.L.Get(-1)
	p.L.Pop(1)
	tRet, ok := ret.(lua.LBool)
	if !ok {
		return false, fmt.Errorf(
			"group %s: accept script returned %s: %w", p.groupName, ret.Type(), ErrFailedTypeAssertion)
	}
	return bool(tRet), nil
}

func (p *Predicate) Close() {
	p.L.Close()
}

func newEnvironment(groupName string) *lua.LState {
	L := lua.NewState()
	registerRequest(L)
	setupRequireFn(L)
	L.SetGlobal("group_name", lua.LString(groupName))
	return L
}

// NewPredicate creates a predicate from Lua source code
func NewPredicate(groupName, sourceCode string) (*Predicate, error) {
	L := newEnvironment(groupName)
	if err := L.DoString(sourceCode); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to process accept script source code: %w", err)
	}
	if L.GetGlobal(acceptFnName).Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("group %s: %w", groupName, ErrMissingAcceptFn)
	}
	return &Predicate{L: L, groupName: groupName}, nil
}

// LoadPredicate creates a predicate from a Lua script file
func LoadPredicate(groupName, srcPath string) (*Predicate, error) {
	L := newEnvironment(groupName)
	if err := L.DoFile(srcPath); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to process accept script %s: %w", srcPath, err)
	}
	if L.GetGlobal(acceptFnName).Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("group %s, script %s: %w", groupName, srcPath, ErrMissingAcceptFn)
	}
	return &Predicate{L: L, groupName: groupName}, nil
}
