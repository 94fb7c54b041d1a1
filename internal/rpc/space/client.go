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

// Package space is the wire client for the volume-extent allocator. Only
// the Client interface is part of the core's contract (§6); grpcClient is a
// collaborator used by VolumeDataPath.
package space

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/opencurve/curvefs-client/internal/rpc/rpccodec"
	"github.com/opencurve/curvefs-client/internal/rpc/statuscode"
	"github.com/opencurve/curvefs-client/internal/types"
)

// Client is the space-service wire contract VolumeDataPath drives.
type Client interface {
	AllocExtents(ctx context.Context, fsId uint32, toAlloc []types.ExtentAllocInfo, t types.AllocateType) ([]types.Extent, error)
	DeAllocExtents(ctx context.Context, fsId uint32, allocated []types.Extent) error
}

type grpcClient struct {
	conn *grpc.ClientConn
}

// Dial opens a Client against the space service at target.
func Dial(target string) (Client, error) {
	conn, err := rpccodec.Dial(target)
	if err != nil {
		return nil, err
	}
	return &grpcClient{conn: conn}, nil
}

type allocRequest struct {
	// RequestId tags the call for idempotency/tracing across retries.
	RequestId string                  `json:"requestId"`
	FsId      uint32                  `json:"fsId"`
	ToAlloc   []types.ExtentAllocInfo `json:"toAlloc"`
	Type      types.AllocateType      `json:"type"`
}

type allocResponse struct {
	Status    int32          `json:"status"`
	Allocated []types.Extent `json:"allocated"`
	Message   string         `json:"message,omitempty"`
}

func (c *grpcClient) AllocExtents(ctx context.Context, fsId uint32, toAlloc []types.ExtentAllocInfo, t types.AllocateType) ([]types.Extent, error) {
	req := allocRequest{RequestId: uuid.NewString(), FsId: fsId, ToAlloc: toAlloc, Type: t}
	var resp allocResponse
	if err := c.conn.Invoke(ctx, "/space.SpaceAllocService/AllocExtents", &req, &resp); err != nil {
		return nil, err
	}
	if err := statuscode.ToError("allocExtents", resp.Status, resp.Message); err != nil {
		return nil, err
	}
	return resp.Allocated, nil
}

type deallocRequest struct {
	RequestId string         `json:"requestId"`
	FsId      uint32         `json:"fsId"`
	Allocated []types.Extent `json:"allocated"`
}

type statusResponse struct {
	Status  int32  `json:"status"`
	Message string `json:"message,omitempty"`
}

func (c *grpcClient) DeAllocExtents(ctx context.Context, fsId uint32, allocated []types.Extent) error {
	req := deallocRequest{RequestId: uuid.NewString(), FsId: fsId, Allocated: allocated}
	var resp statusResponse
	if err := c.conn.Invoke(ctx, "/space.SpaceAllocService/DeAllocExtents", &req, &resp); err != nil {
		return err
	}
	return statuscode.ToError("deAllocExtents", resp.Status, resp.Message)
}
