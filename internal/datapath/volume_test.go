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

func TestVolumeDataPath_Write_AllocatesThenWrites(t *testing.T) {
	meta := new(mockMetaserverClient)
	sp := new(mockSpaceClient)
	bl := new(mockBlockClient)
	inodes := cache.NewInodeCache(meta, 1)
	p := NewVolumeDataPath(1, inodes, sp, bl, nil)

	orig := &types.Inode{InodeId: 10, FsId: 1, Length: 0}
	meta.On("GetInode", mock.Anything, uint32(1), uint64(10)).Return(orig, nil).Once()
	sp.On("AllocExtents", mock.Anything, uint32(1), mock.MatchedBy(func(a []types.ExtentAllocInfo) bool {
		return len(a) == 1 && a[0].LOffset == 0 && a[0].Length == 4096
	}), types.AllocateTypeSmall).Return([]types.Extent{{POffset: 5000, Length: 4096}}, nil).Once()
	bl.On("Write", mock.Anything, mock.MatchedBy(func(b []byte) bool { return len(b) == 4096 }), uint64(5000)).Return(nil).Once()
	meta.On("UpdateInode", mock.Anything, mock.MatchedBy(func(i types.Inode) bool {
		return i.Length == 4096 && len(i.VolumeExtentList) == 1 && i.VolumeExtentList[0].IsWritten
	})).Return(nil).Once()

	buf := make([]byte, 4096)
	n, err := p.Write(context.Background(), 10, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), n)
	meta.AssertExpectations(t)
	sp.AssertExpectations(t)
	bl.AssertExpectations(t)
}

func TestVolumeDataPath_Write_NoAllocationWhenFullyCovered(t *testing.T) {
	meta := new(mockMetaserverClient)
	sp := new(mockSpaceClient)
	bl := new(mockBlockClient)
	inodes := cache.NewInodeCache(meta, 1)
	p := NewVolumeDataPath(1, inodes, sp, bl, nil)

	orig := &types.Inode{
		InodeId: 11, FsId: 1, Length: 4096,
		VolumeExtentList: types.VolumeExtentList{{FsOffset: 0, VolumeOffset: 9000, Length: 4096, IsWritten: true}},
	}
	meta.On("GetInode", mock.Anything, uint32(1), uint64(11)).Return(orig, nil).Once()
	bl.On("Write", mock.Anything, mock.Anything, uint64(9000)).Return(nil).Once()
	meta.On("UpdateInode", mock.Anything, mock.Anything).Return(nil).Once()

	buf := make([]byte, 4096)
	n, err := p.Write(context.Background(), 11, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), n)
	sp.AssertNotCalled(t, "AllocExtents", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVolumeDataPath_Write_MergeFailureTriggersDealloc(t *testing.T) {
	meta := new(mockMetaserverClient)
	sp := new(mockSpaceClient)
	bl := new(mockBlockClient)
	inodes := cache.NewInodeCache(meta, 1)
	p := NewVolumeDataPath(1, inodes, sp, bl, nil)

	orig := &types.Inode{InodeId: 12, FsId: 1, Length: 0}
	meta.On("GetInode", mock.Anything, uint32(1), uint64(12)).Return(orig, nil).Once()
	// Allocated length (8192) mismatches the requested length (4096),
	// which MergeAllocedExtents rejects as InvalidParam.
	sp.On("AllocExtents", mock.Anything, uint32(1), mock.Anything, mock.Anything).
		Return([]types.Extent{{POffset: 5000, Length: 8192}}, nil).Once()
	sp.On("DeAllocExtents", mock.Anything, uint32(1), mock.Anything).Return(nil).Once()

	buf := make([]byte, 4096)
	_, err := p.Write(context.Background(), 12, buf, 0)
	require.Error(t, err)
	assert.True(t, curvefserr.Is(err, curvefserr.InvalidParam))
	sp.AssertExpectations(t)
	bl.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
}

func TestVolumeDataPath_Read_ClampsToInodeLength(t *testing.T) {
	meta := new(mockMetaserverClient)
	sp := new(mockSpaceClient)
	bl := new(mockBlockClient)
	inodes := cache.NewInodeCache(meta, 1)
	p := NewVolumeDataPath(1, inodes, sp, bl, nil)

	orig := &types.Inode{
		InodeId: 13, FsId: 1, Length: 100,
		VolumeExtentList: types.VolumeExtentList{{FsOffset: 0, VolumeOffset: 2000, Length: 4096, IsWritten: true}},
	}
	meta.On("GetInode", mock.Anything, uint32(1), uint64(13)).Return(orig, nil).Once()
	bl.On("Read", mock.Anything, mock.MatchedBy(func(b []byte) bool { return len(b) == 100 }), uint64(2000)).Return(nil).Once()

	buf, err := p.Read(context.Background(), 13, 4096, 0)
	require.NoError(t, err)
	assert.Len(t, buf, 100)
}

func TestVolumeDataPath_Read_PastEndOfFileReturnsEmpty(t *testing.T) {
	meta := new(mockMetaserverClient)
	sp := new(mockSpaceClient)
	bl := new(mockBlockClient)
	inodes := cache.NewInodeCache(meta, 1)
	p := NewVolumeDataPath(1, inodes, sp, bl, nil)

	orig := &types.Inode{InodeId: 14, FsId: 1, Length: 10}
	meta.On("GetInode", mock.Anything, uint32(1), uint64(14)).Return(orig, nil).Once()

	buf, err := p.Read(context.Background(), 14, 10, 20)
	require.NoError(t, err)
	assert.Empty(t, buf)
	bl.AssertNotCalled(t, "Read", mock.Anything, mock.Anything, mock.Anything)
}

func TestVolumeDataPath_Read_SkipsUnwrittenHoles(t *testing.T) {
	meta := new(mockMetaserverClient)
	sp := new(mockSpaceClient)
	bl := new(mockBlockClient)
	inodes := cache.NewInodeCache(meta, 1)
	p := NewVolumeDataPath(1, inodes, sp, bl, nil)

	// A hole occupies [0, 4096) and a written extent covers [4096, 8192).
	orig := &types.Inode{
		InodeId: 15, FsId: 1, Length: 8192,
		VolumeExtentList: types.VolumeExtentList{{FsOffset: 4096, VolumeOffset: 3000, Length: 4096, IsWritten: true}},
	}
	meta.On("GetInode", mock.Anything, uint32(1), uint64(15)).Return(orig, nil).Once()
	bl.On("Read", mock.Anything, mock.MatchedBy(func(b []byte) bool { return len(b) == 4096 }), uint64(3000)).Return(nil).Once()

	buf, err := p.Read(context.Background(), 15, 8192, 0)
	require.NoError(t, err)
	require.Len(t, buf, 8192)
	assert.Equal(t, make([]byte, 4096), buf[:4096])
	bl.AssertNumberOfCalls(t, "Read", 1)
}
