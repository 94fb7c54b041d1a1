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

// Package fsclient assembles the mounted filesystem: one FileSystemClient
// per mount, composing namespace.Ops for naming with the backend-specific
// data path (block or object) and the lifecycle that brought the mount up.
// This is the surface the fuse bridge (internal/fuseserver) drives.
package fsclient

import (
	"context"

	"github.com/opencurve/curvefs-client/internal/cache"
	"github.com/opencurve/curvefs-client/internal/curvefserr"
	"github.com/opencurve/curvefs-client/internal/datapath"
	"github.com/opencurve/curvefs-client/internal/logger"
	"github.com/opencurve/curvefs-client/internal/metrics"
	"github.com/opencurve/curvefs-client/internal/mountlifecycle"
	"github.com/opencurve/curvefs-client/internal/namespace"
	"github.com/opencurve/curvefs-client/internal/rpc/block"
	"github.com/opencurve/curvefs-client/internal/rpc/mds"
	"github.com/opencurve/curvefs-client/internal/rpc/metaserver"
	"github.com/opencurve/curvefs-client/internal/rpc/object"
	"github.com/opencurve/curvefs-client/internal/rpc/space"
	"github.com/opencurve/curvefs-client/internal/types"
)

// DataPath is the byte-level read/write contract both backend types
// implement; VolumeDataPath and ObjectDataPath in package datapath satisfy
// it directly.
type DataPath interface {
	Write(ctx context.Context, ino uint64, buf []byte, off uint64) (uint64, error)
	Read(ctx context.Context, ino uint64, size uint64, off uint64) ([]byte, error)
}

// Client is the full kernel-facing operation surface a mounted filesystem
// exposes to the fuse bridge: naming (embedded *namespace.Ops), byte I/O
// (embedded DataPath) and the mount's own lifecycle.
type Client struct {
	*namespace.Ops
	DataPath

	lifecycle *mountlifecycle.Lifecycle
	opts      mountlifecycle.MountOpts
	log       *logger.Logger
}

// Deps bundles the backend handles a Client is assembled from. Exactly one
// of Block or Object-relevant fields is used, selected by opts.FsType.
type Deps struct {
	Mds   mds.Client
	Meta  metaserver.Client
	Space space.Client
	Block block.Client
	Obj   object.Adaptor
	Log   *logger.Logger
	// Metrics is optional; when set, the assembled caches report hits and
	// misses against it.
	Metrics *metrics.Registry
}

// New performs Init against the mount's backend and returns a ready Client.
// The caller is expected to call Destroy when the mount is torn down.
func New(ctx context.Context, deps Deps, opts mountlifecycle.MountOpts) (*Client, error) {
	log := deps.Log
	if log == nil {
		log = logger.Default()
	}

	lc := mountlifecycle.New(deps.Mds, deps.Block, log)
	fsInfo, err := lc.Init(ctx, opts)
	if err != nil {
		return nil, err
	}

	inodes := cache.NewInodeCache(deps.Meta, fsInfo.FsId)
	dentries := cache.NewDentryCache(deps.Meta, fsInfo.FsId)
	if deps.Metrics != nil {
		inodes.SetMetricVecs(deps.Metrics.CacheHits, deps.Metrics.CacheMisses)
		dentries.SetMetricVecs(deps.Metrics.CacheHits, deps.Metrics.CacheMisses)
	}
	ops := namespace.NewOps(inodes, dentries, fsInfo, nil)

	var dp DataPath
	switch opts.FsType {
	case types.FsTypeObject:
		dp = datapath.NewObjectDataPath(inodes, deps.Obj)
	default:
		dp = datapath.NewVolumeDataPath(fsInfo.FsId, inodes, deps.Space, deps.Block, log)
	}

	return &Client{Ops: ops, DataPath: dp, lifecycle: lc, opts: opts, log: log}, nil
}

// Destroy unmounts and releases the backend handle this Client was
// constructed with.
func (c *Client) Destroy(ctx context.Context) error {
	return c.lifecycle.Destroy(ctx, c.opts)
}

// Create creates a regular file and returns its inode, wrapping
// namespace.Ops.Mknod for a fuse CreateFile request. It always creates; it
// never opens an existing file.
func (c *Client) Create(ctx context.Context, parent uint64, name string, mode, uid, gid uint32) (*types.Inode, error) {
	return c.Ops.Mknod(ctx, parent, name, mode, uid, gid)
}

// Open validates that ino resolves to a regular or symlink file before the
// fuse layer hands out a file handle; the data path itself is stateless
// across opens, so no handle bookkeeping happens here.
func (c *Client) Open(ctx context.Context, ino uint64) (*types.Inode, error) {
	inode, err := c.Ops.Getattr(ctx, ino)
	if err != nil {
		return nil, err
	}
	if inode.Type == types.InodeTypeDirectory {
		return nil, curvefserr.New("open", curvefserr.InvalidParam)
	}
	return inode, nil
}

// Release is a no-op: this client holds no per-handle state beyond the
// inode cache, which Close/Destroy does not need to touch per file.
func (c *Client) Release(_ context.Context, _ uint64) error { return nil }

// Flush is a no-op: every Write already persists through InodeCache before
// returning, so there is nothing left to flush on close.
func (c *Client) Flush(_ context.Context, _ uint64) error { return nil }

// Fsync is a no-op for the same reason as Flush: writes are synchronous
// through to the metaserver and backend by the time Write returns.
func (c *Client) Fsync(_ context.Context, _ uint64) error { return nil }
