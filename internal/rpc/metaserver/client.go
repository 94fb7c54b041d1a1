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

// Package metaserver is the wire client for the service owning authoritative
// inodes and dentries. Only the Client interface is part of the core's
// contract (§6); grpcClient is a collaborator used by InodeCache/DentryCache.
package metaserver

import (
	"context"

	"google.golang.org/grpc"

	"github.com/opencurve/curvefs-client/internal/rpc/rpccodec"
	"github.com/opencurve/curvefs-client/internal/rpc/statuscode"
	"github.com/opencurve/curvefs-client/internal/types"
)

// Client is the metaserver wire contract InodeCache and DentryCache drive.
type Client interface {
	GetInode(ctx context.Context, fsId uint32, ino uint64) (*types.Inode, error)
	CreateInode(ctx context.Context, param types.InodeParam) (*types.Inode, error)
	UpdateInode(ctx context.Context, inode types.Inode) error
	DeleteInode(ctx context.Context, fsId uint32, ino uint64) error

	GetDentry(ctx context.Context, fsId uint32, parent uint64, name string) (*types.Dentry, error)
	CreateDentry(ctx context.Context, d types.Dentry) error
	DeleteDentry(ctx context.Context, fsId uint32, parent uint64, name string) error
	// ListDentry returns up to limit dentries of parent whose Name sorts
	// after last (last == "" starts from the beginning).
	ListDentry(ctx context.Context, fsId uint32, parent uint64, last string, limit uint32) ([]types.Dentry, error)
}

type grpcClient struct {
	conn *grpc.ClientConn
}

// Dial opens a Client against the metaserver at target.
func Dial(target string) (Client, error) {
	conn, err := rpccodec.Dial(target)
	if err != nil {
		return nil, err
	}
	return &grpcClient{conn: conn}, nil
}

type statusResponse struct {
	Status  int32  `json:"status"`
	Message string `json:"message,omitempty"`
}

type inodeRequest struct {
	FsId uint32 `json:"fsId"`
	Ino  uint64 `json:"ino"`
}

type inodeResponse struct {
	Status  int32        `json:"status"`
	Inode   *types.Inode `json:"inode,omitempty"`
	Message string       `json:"message,omitempty"`
}

func (c *grpcClient) GetInode(ctx context.Context, fsId uint32, ino uint64) (*types.Inode, error) {
	req := inodeRequest{FsId: fsId, Ino: ino}
	var resp inodeResponse
	if err := c.conn.Invoke(ctx, "/metaserver.MetaServerService/GetInode", &req, &resp); err != nil {
		return nil, err
	}
	if err := statuscode.ToError("getInode", resp.Status, resp.Message); err != nil {
		return nil, err
	}
	return resp.Inode, nil
}

func (c *grpcClient) CreateInode(ctx context.Context, param types.InodeParam) (*types.Inode, error) {
	var resp inodeResponse
	if err := c.conn.Invoke(ctx, "/metaserver.MetaServerService/CreateInode", &param, &resp); err != nil {
		return nil, err
	}
	if err := statuscode.ToError("createInode", resp.Status, resp.Message); err != nil {
		return nil, err
	}
	return resp.Inode, nil
}

func (c *grpcClient) UpdateInode(ctx context.Context, inode types.Inode) error {
	var resp statusResponse
	if err := c.conn.Invoke(ctx, "/metaserver.MetaServerService/UpdateInode", &inode, &resp); err != nil {
		return err
	}
	return statuscode.ToError("updateInode", resp.Status, resp.Message)
}

func (c *grpcClient) DeleteInode(ctx context.Context, fsId uint32, ino uint64) error {
	req := inodeRequest{FsId: fsId, Ino: ino}
	var resp statusResponse
	if err := c.conn.Invoke(ctx, "/metaserver.MetaServerService/DeleteInode", &req, &resp); err != nil {
		return err
	}
	return statuscode.ToError("deleteInode", resp.Status, resp.Message)
}

type dentryRequest struct {
	FsId   uint32 `json:"fsId"`
	Parent uint64 `json:"parent"`
	Name   string `json:"name"`
}

type dentryResponse struct {
	Status  int32         `json:"status"`
	Dentry  *types.Dentry `json:"dentry,omitempty"`
	Message string        `json:"message,omitempty"`
}

func (c *grpcClient) GetDentry(ctx context.Context, fsId uint32, parent uint64, name string) (*types.Dentry, error) {
	req := dentryRequest{FsId: fsId, Parent: parent, Name: name}
	var resp dentryResponse
	if err := c.conn.Invoke(ctx, "/metaserver.MetaServerService/GetDentry", &req, &resp); err != nil {
		return nil, err
	}
	if err := statuscode.ToError("getDentry", resp.Status, resp.Message); err != nil {
		return nil, err
	}
	return resp.Dentry, nil
}

func (c *grpcClient) CreateDentry(ctx context.Context, d types.Dentry) error {
	var resp statusResponse
	if err := c.conn.Invoke(ctx, "/metaserver.MetaServerService/CreateDentry", &d, &resp); err != nil {
		return err
	}
	return statuscode.ToError("createDentry", resp.Status, resp.Message)
}

func (c *grpcClient) DeleteDentry(ctx context.Context, fsId uint32, parent uint64, name string) error {
	req := dentryRequest{FsId: fsId, Parent: parent, Name: name}
	var resp statusResponse
	if err := c.conn.Invoke(ctx, "/metaserver.MetaServerService/DeleteDentry", &req, &resp); err != nil {
		return err
	}
	return statuscode.ToError("deleteDentry", resp.Status, resp.Message)
}

type listDentryRequest struct {
	FsId   uint32 `json:"fsId"`
	Parent uint64 `json:"parent"`
	Last   string `json:"last"`
	Limit  uint32 `json:"limit"`
}

type listDentryResponse struct {
	Status  int32          `json:"status"`
	Dentry  []types.Dentry `json:"dentry"`
	Message string         `json:"message,omitempty"`
}

func (c *grpcClient) ListDentry(ctx context.Context, fsId uint32, parent uint64, last string, limit uint32) ([]types.Dentry, error) {
	req := listDentryRequest{FsId: fsId, Parent: parent, Last: last, Limit: limit}
	var resp listDentryResponse
	if err := c.conn.Invoke(ctx, "/metaserver.MetaServerService/ListDentry", &req, &resp); err != nil {
		return nil, err
	}
	if err := statuscode.ToError("listDentry", resp.Status, resp.Message); err != nil {
		return nil, err
	}
	return resp.Dentry, nil
}
