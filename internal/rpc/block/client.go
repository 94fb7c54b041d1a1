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

// Package block is the client for the block/volume plane: a raw logical
// volume addressed by byte offsets. The real implementation opens the
// volume as a device (or device-backed regular file) and issues positioned
// reads/writes through golang.org/x/sys/unix, the same low-level syscall
// package the teacher uses (there: Getrlimit; here: Pread/Pwrite).
package block

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/opencurve/curvefs-client/internal/curvefserr"
)

// Stat is what Client.Stat learns about a volume before it has been
// registered with the MDS.
type Stat struct {
	VolumeSize uint64
}

// Client is the block-device wire contract VolumeDataPath and
// MountLifecycle drive.
type Client interface {
	Stat(ctx context.Context, volume, user string) (Stat, error)
	Open(ctx context.Context, volume, user string) error
	Close(ctx context.Context) error
	Read(ctx context.Context, buf []byte, off uint64) error
	Write(ctx context.Context, buf []byte, off uint64) error
}

// fileClient opens the configured volume as a local path (a real device
// node such as /dev/rbd0, or, in development, a sparse regular file) and
// issues positioned I/O against its file descriptor.
type fileClient struct {
	mu   sync.RWMutex
	file *os.File
}

// NewClient returns an unopened Client; callers must call Open before
// Read/Write, matching the BlockClient init/open/close lifecycle of §6.
func NewClient() Client {
	return &fileClient{}
}

func (c *fileClient) Stat(_ context.Context, volume, _ string) (Stat, error) {
	fi, err := os.Stat(volume)
	if err != nil {
		return Stat{}, curvefserr.Wrap("block.stat", curvefserr.Failed, err)
	}
	return Stat{VolumeSize: uint64(fi.Size())}, nil
}

func (c *fileClient) Open(_ context.Context, volume, _ string) error {
	f, err := os.OpenFile(volume, os.O_RDWR, 0)
	if err != nil {
		return curvefserr.Wrap("block.open", curvefserr.Failed, err)
	}
	c.mu.Lock()
	c.file = f
	c.mu.Unlock()
	return nil
}

func (c *fileClient) Close(_ context.Context) error {
	c.mu.Lock()
	f := c.file
	c.file = nil
	c.mu.Unlock()
	if f == nil {
		return nil
	}
	if err := f.Close(); err != nil {
		return curvefserr.Wrap("block.close", curvefserr.Failed, err)
	}
	return nil
}

func (c *fileClient) Read(_ context.Context, buf []byte, off uint64) error {
	c.mu.RLock()
	f := c.file
	c.mu.RUnlock()
	if f == nil {
		return curvefserr.New("block.read", curvefserr.Internal)
	}
	if len(buf) == 0 {
		return nil
	}
	n, err := unix.Pread(int(f.Fd()), buf, int64(off))
	if err != nil {
		return curvefserr.Wrap("block.read", curvefserr.Failed, err)
	}
	if n != len(buf) {
		return curvefserr.Wrap("block.read", curvefserr.Failed, fmt.Errorf("short read: got %d want %d", n, len(buf)))
	}
	return nil
}

func (c *fileClient) Write(_ context.Context, buf []byte, off uint64) error {
	c.mu.RLock()
	f := c.file
	c.mu.RUnlock()
	if f == nil {
		return curvefserr.New("block.write", curvefserr.Internal)
	}
	if len(buf) == 0 {
		return nil
	}
	n, err := unix.Pwrite(int(f.Fd()), buf, int64(off))
	if err != nil {
		return curvefserr.Wrap("block.write", curvefserr.Failed, err)
	}
	if n != len(buf) {
		return curvefserr.Wrap("block.write", curvefserr.Failed, fmt.Errorf("short write: wrote %d want %d", n, len(buf)))
	}
	return nil
}
