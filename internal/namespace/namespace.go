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

// Package namespace composes InodeCache and DentryCache into the
// filesystem's naming operations: lookup, create, unlink and the
// directory/link/rename/statfs surface built on the same two primitives.
// It holds no backend RPC handles of its own.
package namespace

import (
	"context"

	"github.com/opencurve/curvefs-client/internal/cache"
	"github.com/opencurve/curvefs-client/internal/clock"
	"github.com/opencurve/curvefs-client/internal/curvefserr"
	"github.com/opencurve/curvefs-client/internal/types"
)

// Ops is the namespace surface shared by the block- and object-backed
// filesystem clients; both embed an *Ops rather than re-implementing it.
type Ops struct {
	Inodes   *cache.InodeCache
	Dentries *cache.DentryCache
	FsInfo   *types.FsInfo
	Clock    clock.Clock
}

// NewOps returns an Ops composing the given caches for a mounted fs. A nil
// clk defaults to clock.RealClock{}; tests inject a clock.FakeClock to
// control the timestamps Create and Setattr stamp.
func NewOps(inodes *cache.InodeCache, dentries *cache.DentryCache, fsInfo *types.FsInfo, clk clock.Clock) *Ops {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Ops{Inodes: inodes, Dentries: dentries, FsInfo: fsInfo, Clock: clk}
}

// Lookup resolves name under parent to its target inode.
func (o *Ops) Lookup(ctx context.Context, parent uint64, name string) (*types.Inode, error) {
	d, err := o.Dentries.GetDentry(ctx, parent, name)
	if err != nil {
		return nil, err
	}
	return o.Inodes.GetInode(ctx, d.InodeId)
}

// Create allocates a new inode of the requested type and binds it to
// (parent, name). If dentry creation fails after the inode was created,
// the inode is left unreferenced and relies on metaserver-side GC; the
// core issues no compensating delete (the decision is recorded in DESIGN.md).
func (o *Ops) Create(ctx context.Context, parent uint64, name string, param types.InodeParam) (*types.Inode, error) {
	now := o.Clock.Now()
	param.Atime, param.Mtime, param.Ctime = now, now, now

	inode, err := o.Inodes.CreateInode(ctx, param)
	if err != nil {
		return nil, err
	}
	d := types.Dentry{ParentInodeId: parent, Name: name, InodeId: inode.InodeId, Type: inode.Type}
	if err := o.Dentries.CreateDentry(ctx, d); err != nil {
		return nil, err
	}
	return inode, nil
}

// Mknod creates a regular file, wrapping Create with InodeTypeFile.
func (o *Ops) Mknod(ctx context.Context, parent uint64, name string, mode, uid, gid uint32) (*types.Inode, error) {
	return o.Create(ctx, parent, name, types.InodeParam{Type: types.InodeTypeFile, Mode: mode, Uid: uid, Gid: gid})
}

// Mkdir creates a directory, wrapping Create with InodeTypeDirectory.
func (o *Ops) Mkdir(ctx context.Context, parent uint64, name string, mode, uid, gid uint32) (*types.Inode, error) {
	return o.Create(ctx, parent, name, types.InodeParam{Type: types.InodeTypeDirectory, Mode: mode, Uid: uid, Gid: gid})
}

// Symlink creates a symlink inode carrying target, wrapping Create.
func (o *Ops) Symlink(ctx context.Context, parent uint64, name, target string, uid, gid uint32) (*types.Inode, error) {
	return o.Create(ctx, parent, name, types.InodeParam{
		Type: types.InodeTypeSymlink, Mode: 0777, Uid: uid, Gid: gid, SymlinkTarget: target,
	})
}

// Readlink returns the stored link target of a symlink inode.
func (o *Ops) Readlink(ctx context.Context, ino uint64) (string, error) {
	inode, err := o.Inodes.GetInode(ctx, ino)
	if err != nil {
		return "", err
	}
	if inode.Type != types.InodeTypeSymlink {
		return "", curvefserr.New("readlink", curvefserr.InvalidParam)
	}
	return inode.SymlinkTarget, nil
}

// Link binds an additional name to an existing inode (a POSIX hard link).
// Link-count bookkeeping is authoritative at the metaserver; the core only
// creates the new edge.
func (o *Ops) Link(ctx context.Context, ino, newParent uint64, newName string) (*types.Inode, error) {
	inode, err := o.Inodes.GetInode(ctx, ino)
	if err != nil {
		return nil, err
	}
	d := types.Dentry{ParentInodeId: newParent, Name: newName, InodeId: ino, Type: inode.Type}
	if err := o.Dentries.CreateDentry(ctx, d); err != nil {
		return nil, err
	}
	return inode, nil
}

// Unlink removes the edge (parent, name) and deletes its target inode.
func (o *Ops) Unlink(ctx context.Context, parent uint64, name string) error {
	d, err := o.Dentries.GetDentry(ctx, parent, name)
	if err != nil {
		return err
	}
	if err := o.Dentries.DeleteDentry(ctx, parent, name); err != nil {
		return err
	}
	return o.Inodes.DeleteInode(ctx, d.InodeId)
}

// Rmdir is Unlink constrained to directories, additionally requiring the
// directory be empty before the metaserver delete is issued.
func (o *Ops) Rmdir(ctx context.Context, parent uint64, name string) error {
	d, err := o.Dentries.GetDentry(ctx, parent, name)
	if err != nil {
		return err
	}
	inode, err := o.Inodes.GetInode(ctx, d.InodeId)
	if err != nil {
		return err
	}
	if inode.Type != types.InodeTypeDirectory {
		return curvefserr.New("rmdir", curvefserr.InvalidParam)
	}
	entries, err := o.Dentries.ListDentry(ctx, d.InodeId)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return curvefserr.NotEmpty("rmdir")
	}
	if err := o.Dentries.DeleteDentry(ctx, parent, name); err != nil {
		return err
	}
	return o.Inodes.DeleteInode(ctx, d.InodeId)
}

// Rename moves (oldParent, oldName) to (newParent, newName). If an entry
// already exists at the destination it is unlinked first, matching POSIX
// rename(2) replace semantics.
func (o *Ops) Rename(ctx context.Context, oldParent uint64, oldName string, newParent uint64, newName string) error {
	d, err := o.Dentries.GetDentry(ctx, oldParent, oldName)
	if err != nil {
		return err
	}

	if existing, err := o.Dentries.GetDentry(ctx, newParent, newName); err == nil {
		if delErr := o.Dentries.DeleteDentry(ctx, newParent, newName); delErr != nil {
			return delErr
		}
		if delErr := o.Inodes.DeleteInode(ctx, existing.InodeId); delErr != nil {
			return delErr
		}
	} else if !curvefserr.Is(err, curvefserr.NotExist) {
		return err
	}

	if err := o.Dentries.CreateDentry(ctx, types.Dentry{ParentInodeId: newParent, Name: newName, InodeId: d.InodeId, Type: d.Type}); err != nil {
		return err
	}
	return o.Dentries.DeleteDentry(ctx, oldParent, oldName)
}

// Opendir verifies the target exists and is a directory and returns a
// listing handle. The handle holds no server-side state.
type DirHandle struct {
	Entries []types.Dentry
	pos     int
}

// Opendir verifies ino is a directory; the returned handle does not yet
// hold a listing (Readdir populates it lazily on first use).
func (o *Ops) Opendir(ctx context.Context, ino uint64) (*DirHandle, error) {
	inode, err := o.Inodes.GetInode(ctx, ino)
	if err != nil {
		return nil, err
	}
	if inode.Type != types.InodeTypeDirectory {
		return nil, curvefserr.New("opendir", curvefserr.InvalidParam)
	}
	return &DirHandle{}, nil
}

// Readdir lists ino once per open (cached on the handle) and returns the
// slice of entries starting at cursor off, honoring size as a count cap.
func (o *Ops) Readdir(ctx context.Context, ino uint64, h *DirHandle, off, size int) ([]types.Dentry, error) {
	if h.Entries == nil {
		entries, err := o.Dentries.ListDentry(ctx, ino)
		if err != nil {
			return nil, err
		}
		h.Entries = entries
	}
	if off >= len(h.Entries) {
		return nil, nil
	}
	end := off + size
	if end > len(h.Entries) || size <= 0 {
		end = len(h.Entries)
	}
	return h.Entries[off:end], nil
}

// Getattr returns the full inode as a stat source.
func (o *Ops) Getattr(ctx context.Context, ino uint64) (*types.Inode, error) {
	return o.Inodes.GetInode(ctx, ino)
}

// Setattr applies only the fields whose mask bit is set, preserving every
// other field from the cached inode, then persists the result.
func (o *Ops) Setattr(ctx context.Context, ino uint64, attr types.Inode, mask types.AttrMask) (*types.Inode, error) {
	inode, err := o.Inodes.GetInode(ctx, ino)
	if err != nil {
		return nil, err
	}
	if mask.Has(types.AttrMode) {
		inode.Mode = attr.Mode
	}
	if mask.Has(types.AttrUid) {
		inode.Uid = attr.Uid
	}
	if mask.Has(types.AttrGid) {
		inode.Gid = attr.Gid
	}
	if mask.Has(types.AttrSize) {
		inode.Length = attr.Length
	}
	if mask.Has(types.AttrAtime) {
		inode.Atime = attr.Atime
	}
	if mask.Has(types.AttrMtime) {
		inode.Mtime = attr.Mtime
	}
	if mask.Has(types.AttrCtime) {
		inode.Ctime = attr.Ctime
	} else {
		// Any metadata change moves ctime forward, matching POSIX
		// semantics, even when the caller didn't ask to set it explicitly.
		inode.Ctime = o.Clock.Now()
	}
	if err := o.Inodes.UpdateInode(ctx, *inode); err != nil {
		return nil, err
	}
	return inode, nil
}

// StatfsResult mirrors the POSIX statvfs fields this client can answer
// descriptively from the mount's stored FsInfo.
type StatfsResult struct {
	BlockSize  uint64
	TotalBytes uint64
	RootIno    uint64
}

// Statfs answers from the mount's stored FsInfo; the authoritative usage
// numbers live at the space service, so this is a passthrough read.
func (o *Ops) Statfs(_ context.Context) (StatfsResult, error) {
	if o.FsInfo == nil {
		return StatfsResult{}, curvefserr.New("statfs", curvefserr.Internal)
	}
	res := StatfsResult{RootIno: o.FsInfo.RootIno, TotalBytes: o.FsInfo.Capacity}
	if o.FsInfo.Volume != nil {
		res.BlockSize = o.FsInfo.Volume.BlockSize
	}
	return res, nil
}
