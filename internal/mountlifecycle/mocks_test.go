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

package mountlifecycle

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/opencurve/curvefs-client/internal/rpc/block"
	"github.com/opencurve/curvefs-client/internal/types"
)

type mockMdsClient struct{ mock.Mock }

func (m *mockMdsClient) GetFsInfo(ctx context.Context, name string) (*types.FsInfo, error) {
	args := m.Called(ctx, name)
	fi, _ := args.Get(0).(*types.FsInfo)
	return fi, args.Error(1)
}

func (m *mockMdsClient) CreateFs(ctx context.Context, name string, blockSize uint64, vol types.Volume) error {
	return m.Called(ctx, name, blockSize, vol).Error(0)
}

func (m *mockMdsClient) CreateFsS3(ctx context.Context, name string, blockSize uint64, s3 types.S3Info) error {
	return m.Called(ctx, name, blockSize, s3).Error(0)
}

func (m *mockMdsClient) MountFs(ctx context.Context, name string, mp types.MountPoint) (*types.FsInfo, error) {
	args := m.Called(ctx, name, mp)
	fi, _ := args.Get(0).(*types.FsInfo)
	return fi, args.Error(1)
}

func (m *mockMdsClient) UmountFs(ctx context.Context, name string, mp types.MountPoint) error {
	return m.Called(ctx, name, mp).Error(0)
}

type mockBlockClient struct{ mock.Mock }

func (m *mockBlockClient) Stat(ctx context.Context, volume, user string) (block.Stat, error) {
	args := m.Called(ctx, volume, user)
	st, _ := args.Get(0).(block.Stat)
	return st, args.Error(1)
}

func (m *mockBlockClient) Open(ctx context.Context, volume, user string) error {
	return m.Called(ctx, volume, user).Error(0)
}

func (m *mockBlockClient) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBlockClient) Read(ctx context.Context, buf []byte, off uint64) error {
	return m.Called(ctx, buf, off).Error(0)
}

func (m *mockBlockClient) Write(ctx context.Context, buf []byte, off uint64) error {
	return m.Called(ctx, buf, off).Error(0)
}
