package filesystem

import (
	"hash/fnv"
	"path"
)

// pathIdentity derives a stable inode substitute for drivers that do not
// expose one.
func pathIdentity(p string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path.Clean(p)))

	return h.Sum64()
}

// permitsOwner checks the owner permission triplet of a raw mode.
func permitsOwner(mode uint32, access AccessMode) bool {
	switch access {
	case AccessRead:
		return mode&0o400 != 0
	case AccessWrite:
		return mode&0o200 != 0
	case AccessExecute:
		return mode&0o100 != 0
	}

	return false
}
