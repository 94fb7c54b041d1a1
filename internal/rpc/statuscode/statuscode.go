// Copyright 2021 NetEase Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package statuscode maps the wire-level integer status returned by the
// JSON-over-grpc metadata-plane clients (mds, metaserver, space) onto the
// core's CURVEFS_ERROR Kind, so every client's status check shares one
// table instead of three independently drifting copies.
package statuscode

import "github.com/opencurve/curvefs-client/internal/curvefserr"

const (
	OK int32 = iota
	NotExist
	Exist
	NoSpace
	NoPermission
	InvalidParam
	Internal
	Failed
	NotSupport
)

var kinds = map[int32]curvefserr.Kind{
	OK:           curvefserr.OK,
	NotExist:     curvefserr.NotExist,
	Exist:        curvefserr.Exist,
	NoSpace:      curvefserr.NoSpace,
	NoPermission: curvefserr.NoPermission,
	InvalidParam: curvefserr.InvalidParam,
	Internal:     curvefserr.Internal,
	Failed:       curvefserr.Failed,
	NotSupport:   curvefserr.NotSupport,
}

// ToError converts a non-OK wire status into a *curvefserr.Error tagged
// with op, or nil when status is OK.
func ToError(op string, status int32, message string) error {
	if status == OK {
		return nil
	}
	kind, ok := kinds[status]
	if !ok {
		kind = curvefserr.Internal
	}
	if message == "" {
		return curvefserr.New(op, kind)
	}
	return curvefserr.Wrap(op, kind, errString(message))
}

type errString string

func (e errString) Error() string { return string(e) }
