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

package cache

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opencurve/curvefs-client/internal/curvefserr"
	"github.com/opencurve/curvefs-client/internal/rpc/metaserver"
	"github.com/opencurve/curvefs-client/internal/types"
)

// kMaxListDentryCount is the metaserver's listDentry page size.
const kMaxListDentryCount = 1024

// DentryCache is a write-through cache over the metaserver's dentry store,
// keyed by (parent, name). Like InodeCache it is optimistic-positive: a
// miss means "ask the metaserver," not "known absent."
type DentryCache struct {
	mu     sync.Mutex
	client metaserver.Client
	fsId   uint32
	byDir  map[uint64]map[string]types.Dentry

	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewDentryCache returns a DentryCache bound to fsId, backed by client.
func NewDentryCache(client metaserver.Client, fsId uint32) *DentryCache {
	return &DentryCache{
		client: client,
		fsId:   fsId,
		byDir:  make(map[uint64]map[string]types.Dentry),
		hits:   prometheus.NewCounter(prometheus.CounterOpts{}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{}),
	}
}

// SetMetricVecs points GetDentry's hit/miss bookkeeping at the given
// vectors, labeled "dentry".
func (c *DentryCache) SetMetricVecs(hits, misses *prometheus.CounterVec) {
	c.hits = hits.WithLabelValues("dentry")
	c.misses = misses.WithLabelValues("dentry")
}

// GetDentry returns the dentry bound to (parent, name), consulting the
// metaserver on a miss and caching the result.
func (c *DentryCache) GetDentry(ctx context.Context, parent uint64, name string) (*types.Dentry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dir, ok := c.byDir[parent]; ok {
		if d, ok := dir[name]; ok {
			c.hits.Inc()
			cp := d
			return &cp, nil
		}
	}
	c.misses.Inc()

	d, err := c.client.GetDentry(ctx, c.fsId, parent, name)
	if err != nil {
		return nil, err
	}
	c.insertLocked(*d)
	return d, nil
}

// CreateDentry persists the binding at the metaserver and caches it.
func (c *DentryCache) CreateDentry(ctx context.Context, d types.Dentry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d.FsId = c.fsId
	if err := c.client.CreateDentry(ctx, d); err != nil {
		return err
	}
	c.insertLocked(d)
	return nil
}

// DeleteDentry persists the removal at the metaserver and evicts it
// locally. A missing cache entry is tolerated.
func (c *DentryCache) DeleteDentry(ctx context.Context, parent uint64, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.DeleteDentry(ctx, c.fsId, parent, name); err != nil {
		return err
	}
	if dir, ok := c.byDir[parent]; ok {
		delete(dir, name)
	}
	return nil
}

// ListDentry pulls the full listing of parent from the metaserver,
// paginating at kMaxListDentryCount. A NOTEXIST on the very first page
// means "empty directory" and is not an error; any later error discards
// the accumulated partial list and propagates. Listing never warms the
// cache — directories can be large, and warming would invite thrash.
func (c *DentryCache) ListDentry(ctx context.Context, parent uint64) ([]types.Dentry, error) {
	var out []types.Dentry
	last := ""
	first := true

	for {
		page, err := c.client.ListDentry(ctx, c.fsId, parent, last, kMaxListDentryCount)
		if err != nil {
			if first && curvefserr.Is(err, curvefserr.NotExist) {
				return nil, nil
			}
			return nil, err
		}
		first = false

		out = append(out, page...)
		if len(page) < kMaxListDentryCount {
			return out, nil
		}
		last = page[len(page)-1].Name
	}
}

func (c *DentryCache) insertLocked(d types.Dentry) {
	dir, ok := c.byDir[d.ParentInodeId]
	if !ok {
		dir = make(map[string]types.Dentry)
		c.byDir[d.ParentInodeId] = dir
	}
	dir[d.Name] = d
}
