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

// Package extent implements the pure, stateless arithmetic over a
// VolumeExtentList: finding unallocated sub-ranges, merging new allocations
// in, dividing a logical range into physical extents, and flipping the
// written bit. None of these functions do I/O or hold locks; VolumeDataPath
// is responsible for all serialization around them.
package extent

import (
	"sort"

	"github.com/opencurve/curvefs-client/internal/curvefserr"
	"github.com/opencurve/curvefs-client/internal/types"
)

const (
	// kMinAllocSize is the space allocator's granularity. Every allocation
	// request is aligned up to this size, and requested logical offsets are
	// aligned down to it.
	kMinAllocSize uint64 = 4096

	// kBigFileSize is the threshold at or above which VolumeDataPath tags an
	// allocation request AllocateTypeBig instead of AllocateTypeSmall.
	kBigFileSize uint64 = 1 << 20
)

// AllocateTypeFor chooses Small or Big for a write of size bytes against a
// file whose current logical length is length, per §3 of the spec.
func AllocateTypeFor(length, size uint64) types.AllocateType {
	if length >= kBigFileSize || size >= kBigFileSize {
		return types.AllocateTypeBig
	}
	return types.AllocateTypeSmall
}

func alignDown(v, align uint64) uint64 { return v - v%align }

func alignUp(v, align uint64) uint64 {
	if v%align == 0 {
		return v
	}
	return v - v%align + align
}

// GetToAllocExtents returns the sub-ranges of [offset, offset+size) not
// covered by existing, each aligned to kMinAllocSize, adjacent gaps
// coalesced into a single entry.
func GetToAllocExtents(existing types.VolumeExtentList, offset, size uint64) ([]types.ExtentAllocInfo, error) {
	if size == 0 {
		return nil, nil
	}
	end := offset + size

	sorted := make(types.VolumeExtentList, len(existing))
	copy(sorted, existing)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FsOffset < sorted[j].FsOffset })

	var gaps []types.ExtentAllocInfo
	cursor := offset
	var pOffsetLeft uint64

	flushGap := func(gapEnd uint64) {
		if gapEnd <= cursor {
			return
		}
		alignedStart := alignDown(cursor, kMinAllocSize)
		alignedLen := alignUp(gapEnd-alignedStart, kMinAllocSize)
		gaps = append(gaps, types.ExtentAllocInfo{
			LOffset:     alignedStart,
			POffsetLeft: pOffsetLeft,
			Length:      alignedLen,
		})
	}

	for _, e := range sorted {
		if e.End() <= cursor {
			pOffsetLeft = e.VolumeOffset + e.Length
			continue
		}
		if e.FsOffset >= end {
			break
		}
		if e.FsOffset > cursor {
			flushGap(e.FsOffset)
		}
		if e.End() > cursor {
			cursor = e.End()
			pOffsetLeft = e.VolumeOffset + e.Length
		}
	}
	if cursor < end {
		flushGap(end)
	}

	return gaps, nil
}

// MergeAllocedExtents zips requested with allocated pairwise (by position)
// and inserts the resulting logical-to-physical mappings into inodeList,
// preserving its ordering and non-overlap invariants. New entries start
// unwritten.
func MergeAllocedExtents(requested []types.ExtentAllocInfo, allocated []types.Extent, inodeList *types.VolumeExtentList) error {
	if len(requested) != len(allocated) {
		return curvefserr.New("mergeAllocedExtents", curvefserr.InvalidParam)
	}
	for i := range requested {
		if requested[i].Length != allocated[i].Length {
			return curvefserr.New("mergeAllocedExtents", curvefserr.InvalidParam)
		}
	}

	list := *inodeList
	for i := range requested {
		newExtent := types.VolumeExtent{
			FsOffset:     requested[i].LOffset,
			VolumeOffset: allocated[i].POffset,
			Length:       allocated[i].Length,
			IsWritten:    false,
		}
		var err error
		list, err = insertExtent(list, newExtent)
		if err != nil {
			return err
		}
	}
	*inodeList = list
	return nil
}

// insertExtent inserts e into list in FsOffset order. It is the caller's
// responsibility (via GetToAllocExtents) to ensure e does not overlap an
// existing entry; a violation is reported as Internal rather than silently
// corrupting the list.
func insertExtent(list types.VolumeExtentList, e types.VolumeExtent) (types.VolumeExtentList, error) {
	idx := sort.Search(len(list), func(i int) bool { return list[i].FsOffset >= e.FsOffset })

	if idx > 0 {
		prev := list[idx-1]
		if prev.End() > e.FsOffset {
			return nil, curvefserr.New("mergeAllocedExtents", curvefserr.Internal)
		}
		if prev.End() == e.FsOffset && prev.VolumeOffset+prev.Length == e.VolumeOffset && prev.IsWritten == e.IsWritten {
			list[idx-1].Length += e.Length
			return mergeForward(list, idx-1), nil
		}
	}
	if idx < len(list) && list[idx].FsOffset < e.End() {
		return nil, curvefserr.New("mergeAllocedExtents", curvefserr.Internal)
	}

	out := make(types.VolumeExtentList, 0, len(list)+1)
	out = append(out, list[:idx]...)
	out = append(out, e)
	out = append(out, list[idx:]...)
	return mergeForward(out, idx), nil
}

// mergeForward coalesces list[at] into list[at+1] when they are logically
// and physically contiguous with the same written state, per the "MAY
// coalesce" clause of the merge contract.
func mergeForward(list types.VolumeExtentList, at int) types.VolumeExtentList {
	if at+1 >= len(list) {
		return list
	}
	a, b := list[at], list[at+1]
	if a.End() == b.FsOffset && a.VolumeOffset+a.Length == b.VolumeOffset && a.IsWritten == b.IsWritten {
		list[at].Length += b.Length
		return append(list[:at+1], list[at+2:]...)
	}
	return list
}

// DivideExtents walks list within [offset, offset+size) and emits the
// sequence of PExtent covering it. Logical bytes covered by no extent are
// reported as synthetic unwritten holes.
func DivideExtents(list types.VolumeExtentList, offset, size uint64) ([]types.PExtent, error) {
	if size == 0 {
		return nil, nil
	}
	end := offset + size

	sorted := make(types.VolumeExtentList, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FsOffset < sorted[j].FsOffset })

	var out []types.PExtent
	cursor := offset
	for _, e := range sorted {
		if e.End() <= cursor {
			continue
		}
		if e.FsOffset >= end {
			break
		}
		if e.FsOffset > cursor {
			out = append(out, types.PExtent{Length: e.FsOffset - cursor, UnWritten: true})
			cursor = e.FsOffset
		}
		segEnd := e.End()
		if segEnd > end {
			segEnd = end
		}
		skip := cursor - e.FsOffset
		out = append(out, types.PExtent{
			POffset:   e.VolumeOffset + skip,
			Length:    segEnd - cursor,
			UnWritten: !e.IsWritten,
		})
		cursor = segEnd
	}
	if cursor < end {
		out = append(out, types.PExtent{Length: end - cursor, UnWritten: true})
	}

	return coalesceHoles(out), nil
}

// coalesceHoles merges adjacent unwritten PExtents into one when they are
// also physically contiguous, so a merged piece still addresses the volume
// bytes that back it. Unwritten pieces at unrelated physical offsets are
// kept apart.
func coalesceHoles(pexts []types.PExtent) []types.PExtent {
	if len(pexts) < 2 {
		return pexts
	}
	out := pexts[:1]
	for _, p := range pexts[1:] {
		last := &out[len(out)-1]
		if last.UnWritten && p.UnWritten && last.POffset+last.Length == p.POffset {
			last.Length += p.Length
			continue
		}
		out = append(out, p)
	}
	return out
}

// MarkExtentsWritten sets IsWritten = true on the parts of inodeList
// intersecting [offset, offset+size), splitting entries at the range
// boundary as required to preserve the list invariants.
//
// For writes, every byte in [offset, offset+size) must already be covered
// by inodeList (VolumeDataPath allocates before writing); a byte not
// covered here is reported as Internal rather than silently ignored.
func MarkExtentsWritten(offset, size uint64, inodeList *types.VolumeExtentList) error {
	if size == 0 {
		return nil
	}
	end := offset + size
	list := *inodeList

	sort.Slice(list, func(i, j int) bool { return list[i].FsOffset < list[j].FsOffset })

	var out types.VolumeExtentList
	cursor := offset
	for _, e := range list {
		if e.End() <= offset || e.FsOffset >= end {
			out = append(out, e)
			continue
		}
		// e intersects [offset, end).
		if e.FsOffset < offset {
			head := e
			head.Length = offset - e.FsOffset
			out = append(out, head)
		}
		midStart := e.FsOffset
		if midStart < offset {
			midStart = offset
		}
		midEnd := e.End()
		if midEnd > end {
			midEnd = end
		}
		mid := types.VolumeExtent{
			FsOffset:     midStart,
			VolumeOffset: e.VolumeOffset + (midStart - e.FsOffset),
			Length:       midEnd - midStart,
			IsWritten:    true,
		}
		out = append(out, mid)
		if e.End() > end {
			tail := types.VolumeExtent{
				FsOffset:     end,
				VolumeOffset: e.VolumeOffset + (end - e.FsOffset),
				Length:       e.End() - end,
				IsWritten:    e.IsWritten,
			}
			out = append(out, tail)
		}
		if cursor < midStart {
			// A byte in [offset, end) fell in no extent: the write path
			// must have allocated first.
			return curvefserr.New("markExtentsWritten", curvefserr.Internal)
		}
		cursor = midEnd
	}
	if cursor < end {
		return curvefserr.New("markExtentsWritten", curvefserr.Internal)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].FsOffset < out[j].FsOffset })
	*inodeList = coalesceWritten(out)
	return nil
}

func coalesceWritten(list types.VolumeExtentList) types.VolumeExtentList {
	if len(list) < 2 {
		return list
	}
	out := list[:1]
	for _, e := range list[1:] {
		last := &out[len(out)-1]
		if last.End() == e.FsOffset && last.VolumeOffset+last.Length == e.VolumeOffset && last.IsWritten == e.IsWritten {
			last.Length += e.Length
			continue
		}
		out = append(out, e)
	}
	return out
}
