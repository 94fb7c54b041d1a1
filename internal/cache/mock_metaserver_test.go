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

package cache

import (
	"context"

	"github.com/stretchr/testify/mock"

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
