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

	"github.com/stretchr/testify/mock"

	"github.com/opencurve/curvefs-client/internal/rpc/block"
	"github.com/opencurve/curvefs-client/internal/types"
)

type mockMetaserverClient struct {
	mock.Mock
}

func (m *mockMetaserverClient) GetInode(ctx context.Context, fsId uint32, ino uint64) (*types.Inode, error) {
	args := m.Called(ctx, fsId, ino)
	inode, _ := args.Get(0).(*types.Inode)
	return inode, args.Error(1)
}

func (m *mockMetaserverClient) CreateInode(ctx context.Context, param types.InodeParam) (*types.Inode, error) {
	args := m.Called(ctx, param)
	inode, _ := args.Get(0).(*types.Inode)
	return inode, args.Error(1)
}

func (m *mockMetaserverClient) UpdateInode(ctx context.Context, inode types.Inode) error {
	args := m.Called(ctx, inode)
	return args.Error(0)
}

func (m *mockMetaserverClient) DeleteInode(ctx context.Context, fsId uint32, ino uint64) error {
	args := m.Called(ctx, fsId, ino)
	return args.Error(0)
}

func (m *mockMetaserverClient) GetDentry(ctx context.Context, fsId uint32, parent uint64, name string) (*types.Dentry, error) {
	args := m.Called(ctx, fsId, parent, name)
	d, _ := args.Get(0).(*types.Dentry)
	return d, args.Error(1)
}

func (m *mockMetaserverClient) CreateDentry(ctx context.Context, d types.Dentry) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *mockMetaserverClient) DeleteDentry(ctx context.Context, fsId uint32, parent uint64, name string) error {
	args := m.Called(ctx, fsId, parent, name)
	return args.Error(0)
}

func (m *mockMetaserverClient) ListDentry(ctx context.Context, fsId uint32, parent uint64, last string, limit uint32) ([]types.Dentry, error) {
	args := m.Called(ctx, fsId, parent, last, limit)
	d, _ := args.Get(0).([]types.Dentry)
	return d, args.Error(1)
}

type mockSpaceClient struct {
	mock.Mock
}

func (m *mockSpaceClient) AllocExtents(ctx context.Context, fsId uint32, toAlloc []types.ExtentAllocInfo, t types.AllocateType) ([]types.Extent, error) {
	args := m.Called(ctx, fsId, toAlloc, t)
	e, _ := args.Get(0).([]types.Extent)
	return e, args.Error(1)
}

func (m *mockSpaceClient) DeAllocExtents(ctx context.Context, fsId uint32, allocated []types.Extent) error {
	args := m.Called(ctx, fsId, allocated)
	return args.Error(0)
}

type mockBlockClient struct {
	mock.Mock
}

func (m *mockBlockClient) Stat(ctx context.Context, volume, user string) (block.Stat, error) {
	args := m.Called(ctx, volume, user)
	return args.Get(0).(block.Stat), args.Error(1)
}

func (m *mockBlockClient) Open(ctx context.Context, volume, user string) error {
	args := m.Called(ctx, volume, user)
	return args.Error(0)
}

func (m *mockBlockClient) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockBlockClient) Read(ctx context.Context, buf []byte, off uint64) error {
	args := m.Called(ctx, buf, off)
	return args.Error(0)
}

func (m *mockBlockClient) Write(ctx context.Context, buf []byte, off uint64) error {
	args := m.Called(ctx, buf, off)
	return args.Error(0)
}

type mockObjectAdaptor struct {
	mock.Mock
}

func (m *mockObjectAdaptor) Write(ctx context.Context, ino uint64, buf []byte, off uint64) (int64, error) {
	args := m.Called(ctx, ino, buf, off)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockObjectAdaptor) Read(ctx context.Context, ino uint64, buf []byte, off uint64) (int64, error) {
	args := m.Called(ctx, ino, buf, off)
	return args.Get(0).(int64), args.Error(1)
}
