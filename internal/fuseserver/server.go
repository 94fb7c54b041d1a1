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

// Package fuseserver is the thin kernel bridge: it translates
// jacobsa/fuse's fuseops.*Op structs to and from fsclient.Client calls. It
// holds no domain logic of its own beyond directory-handle bookkeeping,
// which FUSE requires but the namespace layer does not (namespace.DirHandle
// is a plain listing cursor, not something the kernel can address by ID).
package fuseserver

import (
	"context"
	"os"
	"sync"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/opencurve/curvefs-client/internal/curvefserr"
	"github.com/opencurve/curvefs-client/internal/fsclient"
	"github.com/opencurve/curvefs-client/internal/namespace"
	"github.com/opencurve/curvefs-client/internal/types"
)

// NewServer wraps client as a fuse.Server ready to hand to fuse.Mount.
func NewServer(client *fsclient.Client) fuse.Server {
	fs := &fileSystem{
		client:  client,
		dirHdls: make(map[fuseops.HandleID]*namespace.DirHandle),
	}
	return fuseutil.NewFileSystemServer(fs)
}

type fileSystem struct {
	fuseutil.NotImplementedFileSystem

	client *fsclient.Client

	mu      sync.Mutex
	nextHdl fuseops.HandleID
	dirHdls map[fuseops.HandleID]*namespace.DirHandle
}

func (fs *fileSystem) Init(op *fuseops.InitOp) error { return nil }

func (fs *fileSystem) LookUpInode(op *fuseops.LookUpInodeOp) error {
	inode, err := fs.client.Lookup(op.Context(), uint64(op.Parent), op.Name)
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}
	op.Entry = entryFor(inode)
	return nil
}

func (fs *fileSystem) GetInodeAttributes(op *fuseops.GetInodeAttributesOp) error {
	inode, err := fs.client.Getattr(op.Context(), uint64(op.Inode))
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}
	op.Attributes = attributesFor(inode)
	return nil
}

func (fs *fileSystem) SetInodeAttributes(op *fuseops.SetInodeAttributesOp) error {
	var attr types.Inode
	var mask types.AttrMask
	if op.Size != nil {
		attr.Length = *op.Size
		mask |= types.AttrSize
	}
	if op.Mode != nil {
		attr.Mode = uint32(op.Mode.Perm())
		mask |= types.AttrMode
	}
	if op.Atime != nil {
		attr.Atime = *op.Atime
		mask |= types.AttrAtime
	}
	if op.Mtime != nil {
		attr.Mtime = *op.Mtime
		mask |= types.AttrMtime
	}

	inode, err := fs.client.Setattr(op.Context(), uint64(op.Inode), attr, mask)
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}
	op.Attributes = attributesFor(inode)
	return nil
}

func (fs *fileSystem) ForgetInode(op *fuseops.ForgetInodeOp) error {
	// The inode cache carries no per-handle lookup count of its own: an
	// inode already absent from the kernel's dcache is simply fetched again
	// on next use.
	return nil
}

func (fs *fileSystem) MkDir(op *fuseops.MkDirOp) error {
	inode, err := fs.client.Ops.Mkdir(op.Context(), uint64(op.Parent), op.Name, uint32(op.Mode.Perm()), op.Header().Uid, op.Header().Gid)
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}
	op.Entry = entryFor(inode)
	return nil
}

func (fs *fileSystem) CreateFile(op *fuseops.CreateFileOp) error {
	inode, err := fs.client.Create(op.Context(), uint64(op.Parent), op.Name, uint32(op.Mode.Perm()), op.Header().Uid, op.Header().Gid)
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}
	op.Entry = entryFor(inode)
	op.Handle = fuseops.HandleID(inode.InodeId)
	return nil
}

func (fs *fileSystem) CreateSymlink(op *fuseops.CreateSymlinkOp) error {
	inode, err := fs.client.Ops.Symlink(op.Context(), uint64(op.Parent), op.Name, op.Target, op.Header().Uid, op.Header().Gid)
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}
	op.Entry = entryFor(inode)
	return nil
}

func (fs *fileSystem) CreateLink(op *fuseops.CreateLinkOp) error {
	inode, err := fs.client.Ops.Link(op.Context(), uint64(op.Target), uint64(op.Parent), op.Name)
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}
	op.Entry = entryFor(inode)
	return nil
}

func (fs *fileSystem) ReadSymlink(op *fuseops.ReadSymlinkOp) error {
	target, err := fs.client.Ops.Readlink(op.Context(), uint64(op.Inode))
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}
	op.Target = target
	return nil
}

func (fs *fileSystem) RmDir(op *fuseops.RmDirOp) error {
	if err := fs.client.Ops.Rmdir(op.Context(), uint64(op.Parent), op.Name); err != nil {
		return curvefserr.ErrnoFor(err)
	}
	return nil
}

func (fs *fileSystem) Unlink(op *fuseops.UnlinkOp) error {
	if err := fs.client.Ops.Unlink(op.Context(), uint64(op.Parent), op.Name); err != nil {
		return curvefserr.ErrnoFor(err)
	}
	return nil
}

func (fs *fileSystem) Rename(op *fuseops.RenameOp) error {
	if err := fs.client.Ops.Rename(op.Context(), uint64(op.OldParent), op.OldName, uint64(op.NewParent), op.NewName); err != nil {
		return curvefserr.ErrnoFor(err)
	}
	return nil
}

func (fs *fileSystem) OpenDir(op *fuseops.OpenDirOp) error {
	h, err := fs.client.Ops.Opendir(op.Context(), uint64(op.Inode))
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}

	fs.mu.Lock()
	fs.nextHdl++
	id := fs.nextHdl
	fs.dirHdls[id] = h
	fs.mu.Unlock()

	op.Handle = id
	return nil
}

func (fs *fileSystem) ReadDir(op *fuseops.ReadDirOp) error {
	fs.mu.Lock()
	h := fs.dirHdls[op.Handle]
	fs.mu.Unlock()
	if h == nil {
		return curvefserr.Errno(curvefserr.Internal)
	}

	entries, err := fs.client.Ops.Readdir(op.Context(), uint64(op.Inode), h, int(op.Offset), maxDirentBatch)
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}

	for i, d := range entries {
		dirent := fuseutil.Dirent{
			Offset: op.Offset + fuseops.DirOffset(i) + 1,
			Inode:  fuseops.InodeID(d.InodeId),
			Name:   d.Name,
			Type:   direntType(d.Type),
		}
		op.Data = fuseutil.AppendDirent(op.Data, dirent)
		if len(op.Data) > op.Size {
			op.Data = op.Data[:op.Size]
			break
		}
	}
	return nil
}

// maxDirentBatch bounds how many entries Readdir pulls from the namespace
// layer per kernel call; entries past what op.Size can hold are discarded
// here and re-fetched on the kernel's next call with an advanced offset.
const maxDirentBatch = 256

func (fs *fileSystem) ReleaseDirHandle(op *fuseops.ReleaseDirHandleOp) error {
	fs.mu.Lock()
	delete(fs.dirHdls, op.Handle)
	fs.mu.Unlock()
	return nil
}

func (fs *fileSystem) OpenFile(op *fuseops.OpenFileOp) error {
	if _, err := fs.client.Open(op.Context(), uint64(op.Inode)); err != nil {
		return curvefserr.ErrnoFor(err)
	}
	op.Handle = fuseops.HandleID(op.Inode)
	return nil
}

func (fs *fileSystem) ReadFile(op *fuseops.ReadFileOp) error {
	buf, err := fs.client.DataPath.Read(op.Context(), uint64(op.Inode), uint64(op.Size), uint64(op.Offset))
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}
	op.Data = buf
	return nil
}

func (fs *fileSystem) WriteFile(op *fuseops.WriteFileOp) error {
	if _, err := fs.client.DataPath.Write(op.Context(), uint64(op.Inode), op.Data, uint64(op.Offset)); err != nil {
		return curvefserr.ErrnoFor(err)
	}
	return nil
}

func (fs *fileSystem) SyncFile(op *fuseops.SyncFileOp) error {
	if err := fs.client.Fsync(op.Context(), uint64(op.Inode)); err != nil {
		return curvefserr.ErrnoFor(err)
	}
	return nil
}

func (fs *fileSystem) FlushFile(op *fuseops.FlushFileOp) error {
	if err := fs.client.Flush(op.Context(), uint64(op.Inode)); err != nil {
		return curvefserr.ErrnoFor(err)
	}
	return nil
}

func (fs *fileSystem) ReleaseFileHandle(op *fuseops.ReleaseFileHandleOp) error {
	if err := fs.client.Release(context.Background(), uint64(op.Handle)); err != nil {
		return curvefserr.ErrnoFor(err)
	}
	return nil
}

func (fs *fileSystem) StatFS(op *fuseops.StatFSOp) error {
	res, err := fs.client.Ops.Statfs(op.Context())
	if err != nil {
		return curvefserr.ErrnoFor(err)
	}
	op.IoSize = uint32(res.BlockSize)
	op.BlockSize = uint32(res.BlockSize)
	if res.BlockSize > 0 {
		op.Blocks = res.TotalBytes / res.BlockSize
	}
	return nil
}

func entryFor(inode *types.Inode) fuseops.ChildInodeEntry {
	return fuseops.ChildInodeEntry{
		Child:      fuseops.InodeID(inode.InodeId),
		Attributes: attributesFor(inode),
	}
}

func attributesFor(inode *types.Inode) fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Size:  inode.Length,
		Nlink: 1,
		Mode:  modeFor(inode),
		Atime: inode.Atime,
		Mtime: inode.Mtime,
		Ctime: inode.Ctime,
		Uid:   inode.Uid,
		Gid:   inode.Gid,
	}
}

func modeFor(inode *types.Inode) os.FileMode {
	mode := os.FileMode(inode.Mode) & os.ModePerm
	switch inode.Type {
	case types.InodeTypeDirectory:
		mode |= os.ModeDir
	case types.InodeTypeSymlink:
		mode |= os.ModeSymlink
	}
	return mode
}

func direntType(t types.InodeType) fuseutil.DirentType {
	switch t {
	case types.InodeTypeDirectory:
		return fuseutil.DT_Directory
	case types.InodeTypeSymlink:
		return fuseutil.DT_Link
	default:
		return fuseutil.DT_File
	}
}
