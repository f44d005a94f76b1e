package database

import (
	"bytes"
	"encoding/hex"
)

var separator = []byte("/")

// Bucket is a path of bucket names. Keys inside a bucket share its path
// as a prefix, so a cursor over a bucket visits exactly its keys.
type Bucket struct {
	path [][]byte
}

// MakeBucket creates a bucket from the given path of bucket names.
func MakeBucket(path ...[]byte) *Bucket {
	return &Bucket{path: path}
}

// Bucket returns the sub-bucket named bucketBytes.
func (b *Bucket) Bucket(bucketBytes []byte) *Bucket {
	newPath := make([][]byte, len(b.path)+1)
	copy(newPath, b.path)
	newPath[len(b.path)] = bucketBytes
	return MakeBucket(newPath...)
}

// Key returns the key named suffix inside the bucket.
func (b *Bucket) Key(suffix []byte) *Key {
	return &Key{bucket: b, suffix: suffix}
}

// Path returns the serialized bucket path, including the trailing
// separator.
func (b *Bucket) Path() []byte {
	joined := bytes.Join(b.path, separator)
	path := make([]byte, 0, len(joined)+len(separator))
	path = append(path, joined...)
	return append(path, separator...)
}

// Key is a full database key: a bucket and a suffix within it.
type Key struct {
	bucket *Bucket
	suffix []byte
}

// Bytes returns the serialized key.
func (k *Key) Bytes() []byte {
	bucketPath := k.bucket.Path()
	keyBytes := make([]byte, 0, len(bucketPath)+len(k.suffix))
	keyBytes = append(keyBytes, bucketPath...)
	return append(keyBytes, k.suffix...)
}

// Bucket returns the bucket of the key.
func (k *Key) Bucket() *Bucket {
	return k.bucket
}

// Suffix returns the key's suffix within its bucket.
func (k *Key) Suffix() []byte {
	return k.suffix
}

func (k *Key) String() string {
	return string(k.bucket.Path()) + hex.EncodeToString(k.suffix)
}
