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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencurve/curvefs-client/internal/types"
)

func TestParseFsType_DefaultsToBlock(t *testing.T) {
	ft, err := parseFsType("")
	require.NoError(t, err)
	assert.Equal(t, types.FsTypeBlock, ft)

	ft, err = parseFsType("curve")
	require.NoError(t, err)
	assert.Equal(t, types.FsTypeBlock, ft)

	ft, err = parseFsType("block")
	require.NoError(t, err)
	assert.Equal(t, types.FsTypeBlock, ft)
}

func TestParseFsType_S3MapsToObject(t *testing.T) {
	ft, err := parseFsType("s3")
	require.NoError(t, err)
	assert.Equal(t, types.FsTypeObject, ft)
}

func TestParseFsType_RejectsUnknown(t *testing.T) {
	_, err := parseFsType("nfs")
	require.Error(t, err)
}
