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

// Package cache holds the two write-through, optimistic-positive caches
// sitting in front of the metaserver: InodeCache and DentryCache. Both
// follow the same shape as the teacher's directory/type caches: one coarse
// mutex guards both the map and the RPC call it wraps, trading read
// parallelism for a cache that is never observably stale relative to what
// the backend has acknowledged.
package cache

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opencurve/curvefs-client/internal/rpc/metaserver"
	"github.com/opencurve/curvefs-client/internal/types"
)

// InodeCache is a write-through cache over the metaserver's inode store.
// Absence from the cache means "unknown, ask the metaserver" — never
// "known to not exist" — so a NOTEXIST response is never itself cached.
type InodeCache struct {
	mu     sync.Mutex
	client metaserver.Client
	fsId   uint32
	byIno  map[uint64]*types.Inode

	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewInodeCache returns an InodeCache bound to fsId, backed by client.
func NewInodeCache(client metaserver.Client, fsId uint32) *InodeCache {
	return &InodeCache{
		client: client,
		fsId:   fsId,
		byIno:  make(map[uint64]*types.Inode),
		hits:   prometheus.NewCounter(prometheus.CounterOpts{}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{}),
	}
}

// SetMetricVecs points GetInode's hit/miss bookkeeping at the given vectors,
// labeled "inode". Passing nil vectors is not supported; call only when a
// metrics.Registry is available.
func (c *InodeCache) SetMetricVecs(hits, misses *prometheus.CounterVec) {
	c.hits = hits.WithLabelValues("inode")
	c.misses = misses.WithLabelValues("inode")
}

// GetInode returns a copy of the cached inode, fetching and caching it from
// the metaserver on a miss. A NOTEXIST response is propagated but never
// cached, so a later create for the same id is observed correctly.
func (c *InodeCache) GetInode(ctx context.Context, ino uint64) (*types.Inode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.byIno[ino]; ok {
		c.hits.Inc()
		return cached.Clone(), nil
	}
	c.misses.Inc()

	inode, err := c.client.GetInode(ctx, c.fsId, ino)
	if err != nil {
		return nil, err
	}
	c.byIno[inode.InodeId] = inode.Clone()
	return inode.Clone(), nil
}

// CreateInode allocates a new inode at the metaserver and caches it.
func (c *InodeCache) CreateInode(ctx context.Context, param types.InodeParam) (*types.Inode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	param.FsId = c.fsId
	inode, err := c.client.CreateInode(ctx, param)
	if err != nil {
		return nil, err
	}
	c.byIno[inode.InodeId] = inode.Clone()
	return inode.Clone(), nil
}

// UpdateInode is the sole way to publish a mutation: callers must treat
// GetInode results as snapshots and re-issue UpdateInode to make changes
// visible to other clients (and to this cache).
func (c *InodeCache) UpdateInode(ctx context.Context, inode types.Inode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	inode.FsId = c.fsId
	if err := c.client.UpdateInode(ctx, inode); err != nil {
		return err
	}
	c.byIno[inode.InodeId] = inode.Clone()
	return nil
}

// DeleteInode removes the inode at the metaserver and evicts it locally.
func (c *InodeCache) DeleteInode(ctx context.Context, ino uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.DeleteInode(ctx, c.fsId, ino); err != nil {
		return err
	}
	delete(c.byIno, ino)
	return nil
}
