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

// Package datapath orchestrates the byte-level read/write contract for
// both backend types: VolumeDataPath drives the block-backed path through
// ExtentManager, the space client and the block client; ObjectDataPath (in
// object.go) drives the simpler object-backed path.
package datapath

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/opencurve/curvefs-client/internal/cache"
	"github.com/opencurve/curvefs-client/internal/extent"
	"github.com/opencurve/curvefs-client/internal/logger"
	"github.com/opencurve/curvefs-client/internal/rpc/block"
	"github.com/opencurve/curvefs-client/internal/rpc/space"
	"github.com/opencurve/curvefs-client/internal/types"
)

// maxConcurrentExtentIO bounds the errgroup fan-out used to dispatch
// independent per-extent block I/O within a single logical write/read.
const maxConcurrentExtentIO = 8

// VolumeDataPath is the block-backed data plane: ino, buf, off bytes are
// resolved to physical volume extents via ExtentManager and driven through
// SpaceClient/BlockClient, with InodeCache holding the per-file bookkeeping.
type VolumeDataPath struct {
	fsId   uint32
	inodes *cache.InodeCache
	space  space.Client
	block  block.Client
	log    *logger.Logger
}

// NewVolumeDataPath returns a VolumeDataPath bound to fsId. log is optional;
// a nil log falls back to logger.Default().
func NewVolumeDataPath(fsId uint32, inodes *cache.InodeCache, spaceClient space.Client, blockClient block.Client, log *logger.Logger) *VolumeDataPath {
	if log == nil {
		log = logger.Default()
	}
	return &VolumeDataPath{fsId: fsId, inodes: inodes, space: spaceClient, block: blockClient, log: log}
}

// Write implements §4.4: allocate any missing physical backing, divide the
// logical range into physical extents, write each, mark the range written
// and persist the new inode length.
func (p *VolumeDataPath) Write(ctx context.Context, ino uint64, buf []byte, off uint64) (wSize uint64, err error) {
	inode, err := p.inodes.GetInode(ctx, ino)
	if err != nil {
		return 0, err
	}
	size := uint64(len(buf))

	toAlloc, err := extent.GetToAllocExtents(inode.VolumeExtentList, off, size)
	if err != nil {
		return 0, err
	}

	if len(toAlloc) > 0 {
		allocType := extent.AllocateTypeFor(inode.Length, size)

		allocated, err := p.space.AllocExtents(ctx, p.fsId, toAlloc, allocType)
		if err != nil {
			return 0, err
		}
		if err := extent.MergeAllocedExtents(toAlloc, allocated, &inode.VolumeExtentList); err != nil {
			if dErr := p.space.DeAllocExtents(ctx, p.fsId, allocated); dErr != nil {
				p.log.Warnf("deAllocExtents after failed merge for ino %d: %v", ino, dErr)
			}
			return 0, err
		}
	}

	pExtents, err := extent.DivideExtents(inode.VolumeExtentList, off, size)
	if err != nil {
		return 0, err
	}

	if err := p.writeExtents(ctx, buf, pExtents); err != nil {
		return 0, err
	}

	if err := extent.MarkExtentsWritten(off, size, &inode.VolumeExtentList); err != nil {
		return 0, err
	}

	if inode.Length < off+size {
		inode.Length = off + size
	}
	if err := p.inodes.UpdateInode(ctx, *inode); err != nil {
		return 0, err
	}
	return size, nil
}

// writeExtents dispatches BlockClient.write once per physical extent. A
// single extent is written inline; more than one fans out through a
// bounded errgroup, since the extents address disjoint regions of the
// volume and of buf. The first error aborts the group; already-issued
// writes are allowed to complete, matching §4.4 step 5's "no unwrite".
func (p *VolumeDataPath) writeExtents(ctx context.Context, buf []byte, pExtents []types.PExtent) error {
	if len(pExtents) <= 1 {
		var base uint64
		for _, pe := range pExtents {
			if err := p.block.Write(ctx, buf[base:base+pe.Length], pe.POffset); err != nil {
				return err
			}
			base += pe.Length
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExtentIO)
	var base uint64
	for _, pe := range pExtents {
		pe := pe
		chunk := buf[base : base+pe.Length]
		g.Go(func() error {
			return p.block.Write(gctx, chunk, pe.POffset)
		})
		base += pe.Length
	}
	return g.Wait()
}

// Read implements §4.5: clamp to the inode's logical length, then for each
// physical extent either skip (unwritten holes read as zero) or read the
// backing bytes.
func (p *VolumeDataPath) Read(ctx context.Context, ino uint64, size uint64, off uint64) ([]byte, error) {
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
	pExtents, err := extent.DivideExtents(inode.VolumeExtentList, off, size)
	if err != nil {
		return nil, err
	}

	if err := p.readExtents(ctx, buf, pExtents); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *VolumeDataPath) readExtents(ctx context.Context, buf []byte, pExtents []types.PExtent) error {
	if countReadable(pExtents) <= 1 {
		var base uint64
		for _, pe := range pExtents {
			if !pe.UnWritten {
				if err := p.block.Read(ctx, buf[base:base+pe.Length], pe.POffset); err != nil {
					return err
				}
			}
			base += pe.Length
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExtentIO)
	var base uint64
	for _, pe := range pExtents {
		pe := pe
		chunk := buf[base : base+pe.Length]
		if !pe.UnWritten {
			g.Go(func() error {
				return p.block.Read(gctx, chunk, pe.POffset)
			})
		}
		base += pe.Length
	}
	return g.Wait()
}

func countReadable(pExtents []types.PExtent) int {
	n := 0
	for _, pe := range pExtents {
		if !pe.UnWritten {
			n++
		}
	}
	return n
}
