// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sorters

import "sort"

// TimestampSlice implements sort.Interface to allow a slice of block
// timestamps to be sorted.
type TimestampSlice []uint32

// Len returns the number of timestamps in the slice. It is part of the
// sort.Interface implementation.
func (s TimestampSlice) Len() int {
	return len(s)
}

// Swap swaps the timestamps at the passed indices. It is part of the
// sort.Interface implementation.
func (s TimestampSlice) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Less returns whether the timestamp with index i should sort before the
// timestamp with index j. It is part of the sort.Interface implementation.
func (s TimestampSlice) Less(i, j int) bool {
	return s[i] < s[j]
}

// Median sorts the slice in place and returns its middle element, the
// upper one for even lengths. The slice must not be empty.
func (s TimestampSlice) Median() uint32 {
	sort.Sort(s)
	return s[len(s)/2]
}
