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

// Package mds is the wire client for the metadata service: filesystem
// registration and mount-state bookkeeping. Only the Client interface is
// part of the core's contract (§6); grpcClient is a collaborator.
package mds

import (
	"context"

	"google.golang.org/grpc"

	"github.com/opencurve/curvefs-client/internal/rpc/rpccodec"
	"github.com/opencurve/curvefs-client/internal/rpc/statuscode"
	"github.com/opencurve/curvefs-client/internal/types"
)

// Client is the MDS wire contract MountLifecycle drives.
type Client interface {
	GetFsInfo(ctx context.Context, name string) (*types.FsInfo, error)
	CreateFs(ctx context.Context, name string, blockSize uint64, vol types.Volume) error
	CreateFsS3(ctx context.Context, name string, blockSize uint64, s3 types.S3Info) error
	MountFs(ctx context.Context, name string, mp types.MountPoint) (*types.FsInfo, error)
	UmountFs(ctx context.Context, name string, mp types.MountPoint) error
}

type grpcClient struct {
	conn *grpc.ClientConn
}

// Dial opens a Client against the MDS at target.
func Dial(target string) (Client, error) {
	conn, err := rpccodec.Dial(target)
	if err != nil {
		return nil, err
	}
	return &grpcClient{conn: conn}, nil
}

type getFsInfoRequest struct {
	Name string `json:"name"`
}

type fsInfoResponse struct {
	Status  int32         `json:"status"`
	FsInfo  *types.FsInfo `json:"fsInfo,omitempty"`
	Message string        `json:"message,omitempty"`
}

func (c *grpcClient) GetFsInfo(ctx context.Context, name string) (*types.FsInfo, error) {
	req := getFsInfoRequest{Name: name}
	var resp fsInfoResponse
	if err := c.conn.Invoke(ctx, "/mds.MdsService/GetFsInfo", &req, &resp); err != nil {
		return nil, err
	}
	if err := statuscode.ToError("getFsInfo", resp.Status, resp.Message); err != nil {
		return nil, err
	}
	return resp.FsInfo, nil
}

type createFsRequest struct {
	Name      string       `json:"name"`
	BlockSize uint64       `json:"blockSize"`
	Volume    *types.Volume `json:"volume,omitempty"`
}

type statusResponse struct {
	Status  int32  `json:"status"`
	Message string `json:"message,omitempty"`
}

func (c *grpcClient) CreateFs(ctx context.Context, name string, blockSize uint64, vol types.Volume) error {
	req := createFsRequest{Name: name, BlockSize: blockSize, Volume: &vol}
	var resp statusResponse
	if err := c.conn.Invoke(ctx, "/mds.MdsService/CreateFs", &req, &resp); err != nil {
		return err
	}
	return statuscode.ToError("createFs", resp.Status, resp.Message)
}

type createFsS3Request struct {
	Name      string       `json:"name"`
	BlockSize uint64       `json:"blockSize"`
	S3Info    *types.S3Info `json:"s3Info,omitempty"`
}

func (c *grpcClient) CreateFsS3(ctx context.Context, name string, blockSize uint64, s3 types.S3Info) error {
	req := createFsS3Request{Name: name, BlockSize: blockSize, S3Info: &s3}
	var resp statusResponse
	if err := c.conn.Invoke(ctx, "/mds.MdsService/CreateFsS3", &req, &resp); err != nil {
		return err
	}
	return statuscode.ToError("createFsS3", resp.Status, resp.Message)
}

type mountFsRequest struct {
	Name       string          `json:"name"`
	MountPoint types.MountPoint `json:"mountPoint"`
}

func (c *grpcClient) MountFs(ctx context.Context, name string, mp types.MountPoint) (*types.FsInfo, error) {
	req := mountFsRequest{Name: name, MountPoint: mp}
	var resp fsInfoResponse
	if err := c.conn.Invoke(ctx, "/mds.MdsService/MountFs", &req, &resp); err != nil {
		return nil, err
	}
	if err := statuscode.ToError("mountFs", resp.Status, resp.Message); err != nil {
		return nil, err
	}
	return resp.FsInfo, nil
}

func (c *grpcClient) UmountFs(ctx context.Context, name string, mp types.MountPoint) error {
	req := mountFsRequest{Name: name, MountPoint: mp}
	var resp statusResponse
	if err := c.conn.Invoke(ctx, "/mds.MdsService/UmountFs", &req, &resp); err != nil {
		return err
	}
	return statuscode.ToError("umountFs", resp.Status, resp.Message)
}
