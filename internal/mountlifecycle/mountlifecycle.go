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

// Package mountlifecycle brings a filesystem mount up and down against the
// MDS and the chosen data backend: registering the filesystem if it does
// not yet exist, opening the backend handle, and binding the mount point.
package mountlifecycle

import (
	"context"

	"github.com/opencurve/curvefs-client/internal/curvefserr"
	"github.com/opencurve/curvefs-client/internal/logger"
	"github.com/opencurve/curvefs-client/internal/rpc/block"
	"github.com/opencurve/curvefs-client/internal/rpc/mds"
	"github.com/opencurve/curvefs-client/internal/types"
)

// MountOpts is the parsed mount option environment: {mountPoint, volume,
// fsName, user, fsType} plus the S3 binding used when creating an
// Object-type filesystem. There is no separate block-device option set.
type MountOpts struct {
	MountPoint string
	Volume     string
	FsName     string
	User       string
	FsType     types.FsType
	S3Info     types.S3Info
}

func (o MountOpts) fsName() string {
	if o.FsName != "" {
		return o.FsName
	}
	return o.Volume
}

func (o MountOpts) mountPoint() types.MountPoint {
	return types.MountPoint{Host: o.User, Path: o.MountPoint}
}

// defaultBlockSize is the block size this client registers new
// Block-type filesystems with.
const defaultBlockSize = 4096

// Lifecycle drives a single mount's bring-up and tear-down.
type Lifecycle struct {
	mds   mds.Client
	block block.Client
	log   *logger.Logger
}

// New returns a Lifecycle. blockClient may be nil for an Object-type mount.
func New(mdsClient mds.Client, blockClient block.Client, log *logger.Logger) *Lifecycle {
	if log == nil {
		log = logger.Default()
	}
	return &Lifecycle{mds: mdsClient, block: blockClient, log: log}
}

// Init implements §4.8: register the filesystem if absent, open the
// backend, mount, and return the canonical FsInfo the server assigned.
func (l *Lifecycle) Init(ctx context.Context, opts MountOpts) (*types.FsInfo, error) {
	name := opts.fsName()

	_, err := l.mds.GetFsInfo(ctx, name)
	if err != nil {
		if !curvefserr.Is(err, curvefserr.NotExist) {
			l.log.Errorf("getFsInfo(%s) failed: %v", name, err)
			return nil, err
		}
		if err := l.createFs(ctx, opts, name); err != nil {
			l.log.Errorf("createFs(%s) failed: %v", name, err)
			return nil, err
		}
	}

	if opts.FsType == types.FsTypeBlock {
		if err := l.block.Open(ctx, opts.Volume, opts.User); err != nil {
			l.log.Errorf("block.open(%s) failed: %v", opts.Volume, err)
			return nil, err
		}
	}

	fsInfo, err := l.mds.MountFs(ctx, name, opts.mountPoint())
	if err != nil {
		l.log.Errorf("mountFs(%s) failed: %v", name, err)
		return nil, err
	}
	l.log.Infof("mounted fs %q as fsid %d at %s", name, fsInfo.FsId, opts.MountPoint)
	return fsInfo, nil
}

func (l *Lifecycle) createFs(ctx context.Context, opts MountOpts, name string) error {
	if opts.FsType == types.FsTypeObject {
		return l.mds.CreateFsS3(ctx, name, defaultBlockSize, opts.S3Info)
	}

	st, err := l.block.Stat(ctx, opts.Volume, opts.User)
	if err != nil {
		return err
	}
	vol := types.Volume{
		Name:       opts.Volume,
		User:       opts.User,
		VolumeSize: st.VolumeSize,
		BlockSize:  defaultBlockSize,
	}
	return l.mds.CreateFs(ctx, name, defaultBlockSize, vol)
}

// Destroy implements the teardown half of §4.8: every step is attempted
// even if a prior one fails, and the first error encountered is what the
// caller sees.
func (l *Lifecycle) Destroy(ctx context.Context, opts MountOpts) error {
	var first error

	name := opts.fsName()
	if err := l.mds.UmountFs(ctx, name, opts.mountPoint()); err != nil {
		l.log.Errorf("umountFs(%s) failed: %v", name, err)
		first = err
	}

	if opts.FsType == types.FsTypeBlock && l.block != nil {
		if err := l.block.Close(ctx); err != nil {
			l.log.Errorf("block.close failed: %v", err)
			if first == nil {
				first = err
			}
		}
	}

	if first == nil {
		l.log.Infof("unmounted fs %q", name)
	}
	return first
}
