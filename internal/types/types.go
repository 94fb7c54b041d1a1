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

// Package types holds the data model shared across the client's data plane
// and metadata plane: inodes, dentries, volume extents and filesystem
// identity. None of these types do I/O; they are plain value objects passed
// between the cache, data-path and namespace layers.
package types

import "time"

// FsType selects which data plane backs a mounted filesystem.
type FsType int

const (
	FsTypeBlock FsType = iota
	FsTypeObject
)

func (t FsType) String() string {
	switch t {
	case FsTypeBlock:
		return "block"
	case FsTypeObject:
		return "s3"
	default:
		return "unknown"
	}
}

// Volume describes the raw logical volume backing a Block-type filesystem.
type Volume struct {
	Name       string
	User       string
	VolumeSize uint64
	BlockSize  uint64
}

// S3Info describes the bucket binding backing an Object-type filesystem.
type S3Info struct {
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// FsInfo is the per-mount identity owned by the MDS.
type FsInfo struct {
	FsId     uint32
	FsName   string
	FsType   FsType
	Volume   *Volume
	S3Info   *S3Info
	RootIno  uint64
	Capacity uint64
}

// InodeType is the POSIX file type of an inode.
type InodeType int

const (
	InodeTypeFile InodeType = iota
	InodeTypeDirectory
	InodeTypeSymlink
)

// VolumeExtent is one contiguous logical-to-physical mapping on a
// block-backed file.
//
// INVARIANT: Length > 0
type VolumeExtent struct {
	FsOffset     uint64
	VolumeOffset uint64
	Length       uint64
	IsWritten    bool
}

// End returns the exclusive logical end offset of the extent.
func (e VolumeExtent) End() uint64 { return e.FsOffset + e.Length }

// VolumeExtentList is the ordered, non-overlapping set of extents backing a
// block-backed file's logical byte range.
//
// INVARIANT: entries are sorted by FsOffset.
// INVARIANT: no two entries overlap in [FsOffset, FsOffset+Length).
type VolumeExtentList []VolumeExtent

// Clone returns a deep copy, so callers can mutate the inode's extent list
// without aliasing a cached copy.
func (l VolumeExtentList) Clone() VolumeExtentList {
	if l == nil {
		return nil
	}
	out := make(VolumeExtentList, len(l))
	copy(out, l)
	return out
}

// Inode is the working copy of a filesystem object cached in InodeCache.
// The metaserver holds the authoritative copy; mutations made locally are
// not visible to other clients until UpdateInode persists them.
type Inode struct {
	InodeId uint64
	FsId    uint32
	Length  uint64
	Type    InodeType
	Mode    uint32
	Uid     uint32
	Gid     uint32
	Atime   time.Time
	Mtime   time.Time
	Ctime   time.Time

	// Nlink is the POSIX hard-link count, maintained authoritatively by the
	// metaserver. The fuse bridge does not read it; it reports a link count
	// of 1 for every inode.
	Nlink uint32

	// VolumeExtentList is populated only for Type == InodeTypeFile on a
	// Block-type filesystem. INVARIANT: empty for InodeTypeDirectory.
	VolumeExtentList VolumeExtentList

	// SymlinkTarget holds the link target for Type == InodeTypeSymlink.
	SymlinkTarget string

	// ObjectKey is carried with the inode record. The object adaptor does not
	// read it: it keys each inode's object by the decimal inode id.
	ObjectKey string
}

// Clone returns a deep copy of the inode, including its extent list, so
// callers holding a cache snapshot never alias cache-internal state.
func (i *Inode) Clone() *Inode {
	if i == nil {
		return nil
	}
	out := *i
	out.VolumeExtentList = i.VolumeExtentList.Clone()
	return &out
}

// InodeParam describes a new inode to be created at the metaserver.
type InodeParam struct {
	FsId          uint32
	Type          InodeType
	Mode          uint32
	Uid           uint32
	Gid           uint32
	SymlinkTarget string
	Atime         time.Time
	Mtime         time.Time
	Ctime         time.Time
}

// DentryType mirrors the type of the inode a dentry points at, so namespace
// listing can classify entries without a second inode fetch.
type DentryType = InodeType

// Dentry binds a name in a parent directory to an inode.
//
// INVARIANT: (FsId, ParentInodeId, Name) is unique.
type Dentry struct {
	FsId          uint32
	ParentInodeId uint64
	Name          string
	InodeId       uint64
	Type          DentryType
}

// Key returns the DentryCache map key pair for this dentry.
func (d Dentry) Key() (parent uint64, name string) { return d.ParentInodeId, d.Name }

// AllocateType selects the space service's placement policy for an
// allocation request.
type AllocateType int

const (
	AllocateTypeNone AllocateType = iota
	AllocateTypeSmall
	AllocateTypeBig
)

// ExtentAllocInfo is a request to allocate one contiguous logical range.
type ExtentAllocInfo struct {
	LOffset     uint64
	POffsetLeft uint64
	Length      uint64
}

// Extent is a physical allocation handed back by the space service,
// length-matched against the ExtentAllocInfo that requested it.
type Extent struct {
	POffset uint64
	Length  uint64
}

// PExtent is a physical extent produced by dividing a VolumeExtentList over
// a logical range; UnWritten marks a hole that reads as zeros.
type PExtent struct {
	POffset   uint64
	Length    uint64
	UnWritten bool
}

// MountPoint identifies the local mount point a mountFs/umountFs call binds
// to, distinguishing multiple mounts of the same filesystem.
type MountPoint struct {
	Host string
	Path string
}

// AttrMask selects which fields of a setattr call apply. Bits mirror the
// POSIX struct stat fields an implementer must preserve.
type AttrMask uint32

const (
	AttrMode AttrMask = 1 << iota
	AttrUid
	AttrGid
	AttrSize
	AttrAtime
	AttrMtime
	AttrCtime
)

func (m AttrMask) Has(bit AttrMask) bool { return m&bit != 0 }
