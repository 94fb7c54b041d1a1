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

// Package clock abstracts the wall clock used for inode timestamps
// (atime/mtime/ctime) so that tests can control time without sleeping.
package clock

import "time"

// Clock is the time source used by NamespaceOps when it stamps inode
// attributes.
type Clock interface {
	Now() time.Time
}

// RealClock reports the actual wall-clock time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
