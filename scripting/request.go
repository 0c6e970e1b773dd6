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
	"dlogproc/accesslog"

	lua "github.com/yuin/gopher-lua"
)

const (
	requestMTName = "request_mt"
)

func getRequestProp(req *accesslog.Request, name string) lua.LValue {
	switch name {
	case "IPAddress":
		return lua.LString(req.IPAddress())
	case "Time":
		return lua.LString(req.FormattedTime())
	case "Method":
		return lua.LString(req.Method())
	case "URL":
		return lua.LString(req.URL())
	case "ResponseCode":
		return lua.LNumber(req.ResponseCode())
	case "ContentLength":
		return lua.LNumber(req.ContentLength())
	case "Referer":
		return lua.LString(req.Referer())
	case "UserAgent":
		return lua.LString(req.UserAgent())
	}
	return lua.LNil
}

func getRequest(L *lua.LState) int {
	ud := L.CheckUserData(1)
	req, ok := ud.Value.(*accesslog.Request)
	if !ok {
		L.ArgError(1, "expecting Request")
		return 0
	}
	key := L.CheckString(2)
	L.Push(getRequestProp(req, key))
	return 1
}

func setRequest(L *lua.LState) int {
	L.RaiseError("request is read-only")
	return 0
}

func importRequest(L *lua.LState, req *accesslog.Request) lua.LValue {
	d := L.NewUserData()
	d.Value = req
	L.SetMetatable(d, L.GetGlobal(requestMTName))
	return d
}

func registerRequest(L *lua.LState) {
	mt := L.NewTypeMetatable(requestMTName)
	L.SetGlobal(requestMTName, mt)
	L.SetField(mt, "__index", L.NewFunction(getRequest))
	L.SetField(mt, "__newindex", L.NewFunction(setRequest))
}
