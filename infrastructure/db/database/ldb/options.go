package ldb

import "github.com/syndtr/goleveldb/leveldb/opt"

// Options returns the leveldb options used for a database with the given
// cache size. It is a variable so tests can shrink the footprint.
var Options = func(cacheSizeMiB int) *opt.Options {
	if cacheSizeMiB < 8 {
		cacheSizeMiB = 8
	}
	return &opt.Options{
		Compression:            opt.NoCompression,
		BlockCacheCapacity:     cacheSizeMiB * opt.MiB,
		WriteBuffer:            (cacheSizeMiB / 2) * opt.MiB,
		DisableSeeksCompaction: true,
	}
}
