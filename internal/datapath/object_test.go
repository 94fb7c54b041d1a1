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

package datapath

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opencurve/curvefs-client/internal/cache"
	"github.com/opencurve/curvefs-client/internal/curvefserr"
	"github.com/opencurve/curvefs-client/internal/types"
)

func TestObjectDataPath_Write_ExtendsLength(t *testing.T) {
	meta := new(mockMetaserverClient)
	adaptor := new(mockObjectAdaptor)
	inodes := cache.NewInodeCache(meta, 1)
	p := NewObjectDataPath(inodes, adaptor)

	orig := &types.Inode{InodeId: 20, FsId: 1, Length: 0}
	meta.On("GetInode", mock.Anything, uint32(1), uint64(20)).Return(orig, nil).Once()
	buf := []byte("hello")
	adaptor.On("Write", mock.Anything, uint64(20), buf, uint64(0)).Return(int64(5), nil).Once()
	meta.On("UpdateInode", mock.Anything, mock.MatchedBy(func(i types.Inode) bool { return i.Length == 5 })).Return(nil).Once()

	n, err := p.Write(context.Background(), 20, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)
}

func TestObjectDataPath_Write_NegativeCountIsFailure(t *testing.T) {
	meta := new(mockMetaserverClient)
	adaptor := new(mockObjectAdaptor)
	inodes := cache.NewInodeCache(meta, 1)
	p := NewObjectDataPath(inodes, adaptor)

	orig := &types.Inode{InodeId: 21, FsId: 1}
	meta.On("GetInode", mock.Anything, uint32(1), uint64(21)).Return(orig, nil).Once()
	adaptor.On("Write", mock.Anything, uint64(21), mock.Anything, uint64(0)).Return(int64(-1), nil).Once()

	_, err := p.Write(context.Background(), 21, []byte("x"), 0)
	require.Error(t, err)
	assert.True(t, curvefserr.Is(err, curvefserr.Failed))
}

func TestObjectDataPath_Read_ClampsToLength(t *testing.T) {
	meta := new(mockMetaserverClient)
	adaptor := new(mockObjectAdaptor)
	inodes := cache.NewInodeCache(meta, 1)
	p := NewObjectDataPath(inodes, adaptor)

	orig := &types.Inode{InodeId: 22, FsId: 1, Length: 3}
	meta.On("GetInode", mock.Anything, uint32(1), uint64(22)).Return(orig, nil).Once()
	adaptor.On("Read", mock.Anything, uint64(22), mock.MatchedBy(func(b []byte) bool { return len(b) == 3 }), uint64(0)).
		Return(int64(3), nil).Once()

	buf, err := p.Read(context.Background(), 22, 10, 0)
	require.NoError(t, err)
	assert.Len(t, buf, 3)
}

func TestObjectDataPath_Read_PastEndReturnsEmpty(t *testing.T) {
	meta := new(mockMetaserverClient)
	adaptor := new(mockObjectAdaptor)
	inodes := cache.NewInodeCache(meta, 1)
	p := NewObjectDataPath(inodes, adaptor)

	orig := &types.Inode{InodeId: 23, FsId: 1, Length: 3}
	meta.On("GetInode", mock.Anything, uint32(1), uint64(23)).Return(orig, nil).Once()

	buf, err := p.Read(context.Background(), 23, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, buf)
	adaptor.AssertNotCalled(t, "Read", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
