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

	"github.com/opencurve/curvefs-client/internal/cache"
	"github.com/opencurve/curvefs-client/internal/curvefserr"
	"github.com/opencurve/curvefs-client/internal/rpc/object"
)

// ObjectDataPath is the object-backed data plane: no extent state lives on
// the inode, so write/read are thin pass-throughs to the object adaptor,
// with only the inode's logical length kept in sync.
type ObjectDataPath struct {
	inodes  *cache.InodeCache
	adaptor object.Adaptor
}

// NewObjectDataPath returns an ObjectDataPath backed by adaptor.
func NewObjectDataPath(inodes *cache.InodeCache, adaptor object.Adaptor) *ObjectDataPath {
	return &ObjectDataPath{inodes: inodes, adaptor: adaptor}
}

// Write stores buf at off in the object backing ino and extends the
// inode's logical length if the write grew the file.
func (p *ObjectDataPath) Write(ctx context.Context, ino uint64, buf []byte, off uint64) (uint64, error) {
	inode, err := p.inodes.GetInode(ctx, ino)
	if err != nil {
		return 0, err
	}

	n, err := p.adaptor.Write(ctx, ino, buf, off)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, curvefserr.New("objectDataPath.write", curvefserr.Failed)
	}

	size := uint64(n)
	if inode.Length < off+size {
		inode.Length = off + size
	}
	if err := p.inodes.UpdateInode(ctx, *inode); err != nil {
		return 0, err
	}
	return size, nil
}

// Read clamps to the inode's logical length and reads the backing object.
func (p *ObjectDataPath) Read(ctx context.Context, ino uint64, size uint64, off uint64) ([]byte, error) {
	inode, err := p.inodes.GetInode(ctx, ino)
	if err != nil {
		return nil, err
	}

	if off >= inode.Length {
		return nil, nil
	}
	if off+size > inode.Length {
		size = inode.Length - off
	}

	buf := make([]byte, size)
	n, err := p.adaptor.Read(ctx, ino, buf, off)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, curvefserr.New("objectDataPath.read", curvefserr.Failed)
	}
	return buf[:n], nil
}
