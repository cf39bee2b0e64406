package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pkg/sftp"
)

// Raw st_mode bits. Attributes.Mode always carries the POSIX layout regardless
// of which driver produced it.
const (
	ModeTypeMask uint32 = 0o170000
	ModeSocket   uint32 = 0o140000
	ModeSymlink  uint32 = 0o120000
	ModeRegular  uint32 = 0o100000
	ModeBlock    uint32 = 0o060000
	ModeDir      uint32 = 0o040000
	ModeChar     uint32 = 0o020000
	ModeFifo     uint32 = 0o010000
	ModeSetuid   uint32 = 0o004000
	ModeSetgid   uint32 = 0o002000
	ModeSticky   uint32 = 0o001000
	ModePermMask uint32 = 0o000777
	ModeExecAny  uint32 = 0o000111
)

// Attributes is the canonical per-path attribute set every driver reports.
type Attributes struct {
	Device uint64
	Inode  uint64
	Mode   uint32
	Nlink  uint64
	UID    uint32
	GID    uint32
	Size   int64
	ATime  time.Time
	MTime  time.Time
	CTime  time.Time
}

// IsDir reports whether the type bits describe a directory.
func (a *Attributes) IsDir() bool {
	return a != nil && a.Mode&ModeTypeMask == ModeDir
}

// IsRegular reports whether the type bits describe a regular file.
func (a *Attributes) IsRegular() bool {
	return a != nil && a.Mode&ModeTypeMask == ModeRegular
}

// IsSymlink reports whether the type bits describe a symbolic link. Only
// meaningful for attributes obtained without following links.
func (a *Attributes) IsSymlink() bool {
	return a != nil && a.Mode&ModeTypeMask == ModeSymlink
}

// Permissions returns the permission and special bits (no type bits).
func (a *Attributes) Permissions() uint32 {
	return a.Mode & (ModePermMask | ModeSetuid | ModeSetgid | ModeSticky)
}

// FileMode converts the raw mode into an fs.FileMode.
func (a *Attributes) FileMode() fs.FileMode {
	mode := fs.FileMode(a.Mode & ModePermMask)

	if a.Mode&ModeSetuid != 0 {
		mode |= fs.ModeSetuid
	}

	if a.Mode&ModeSetgid != 0 {
		mode |= fs.ModeSetgid
	}

	if a.Mode&ModeSticky != 0 {
		mode |= fs.ModeSticky
	}

	switch a.Mode & ModeTypeMask {
	case ModeDir:
		mode |= fs.ModeDir
	case ModeSymlink:
		mode |= fs.ModeSymlink
	case ModeFifo:
		mode |= fs.ModeNamedPipe
	case ModeSocket:
		mode |= fs.ModeSocket
	case ModeChar:
		mode |= fs.ModeDevice | fs.ModeCharDevice
	case ModeBlock:
		mode |= fs.ModeDevice
	}

	return mode
}

// SameIdentity reports whether both attribute sets exist and name the same
// (device, inode) pair.
func SameIdentity(a, b *Attributes) bool {
	if a == nil || b == nil {
		return false
	}

	return a.Device == b.Device && a.Inode == b.Inode
}

// RawMode converts an fs.FileMode into POSIX st_mode bits.
func RawMode(mode fs.FileMode) uint32 {
	raw := uint32(mode.Perm())

	if mode&fs.ModeSetuid != 0 {
		raw |= ModeSetuid
	}

	if mode&fs.ModeSetgid != 0 {
		raw |= ModeSetgid
	}

	if mode&fs.ModeSticky != 0 {
		raw |= ModeSticky
	}

	switch {
	case mode&fs.ModeDir != 0:
		raw |= ModeDir
	case mode&fs.ModeSymlink != 0:
		raw |= ModeSymlink
	case mode&fs.ModeNamedPipe != 0:
		raw |= ModeFifo
	case mode&fs.ModeSocket != 0:
		raw |= ModeSocket
	case mode&fs.ModeCharDevice != 0:
		raw |= ModeChar
	case mode&fs.ModeDevice != 0:
		raw |= ModeBlock
	default:
		raw |= ModeRegular
	}

	return raw
}

// AttributesFromFileInfo converts an os.FileInfo into Attributes. Drivers that
// have no native device/inode pass their own identity; SFTP stat data found in
// Sys() supplies ownership and access time.
func AttributesFromFileInfo(info os.FileInfo, device, inode uint64) *Attributes {
	attrs := &Attributes{
		Device: device,
		Inode:  inode,
		Mode:   RawMode(info.Mode()),
		Nlink:  1,
		Size:   info.Size(),
		ATime:  info.ModTime(),
		MTime:  info.ModTime(),
		CTime:  info.ModTime(),
	}

	switch sys := info.Sys().(type) {
	case *sftp.FileStat:
		attrs.UID = sys.UID
		attrs.GID = sys.GID
		attrs.ATime = time.Unix(int64(sys.Atime), 0)

		if sys.Mode&ModeTypeMask != 0 {
			attrs.Mode = sys.Mode
		}
	case *Attributes:
		return sys
	}

	return attrs
}

// AttributesFromMap builds Attributes from a name→value map as reported by
// drivers with a loosely keyed stat schema. Both "nlink" and "link" are
// accepted for the link count, and likewise "dev"/"device", "ino"/"inode".
// Times are Unix seconds in UTC, refined by an optional "<name>_nsec" entry.
func AttributesFromMap(values map[string]int64) (*Attributes, error) {
	lookup := func(keys ...string) (int64, bool) {
		for _, key := range keys {
			if v, ok := values[key]; ok {
				return v, true
			}
		}

		return 0, false
	}

	unixTime := func(key string) (time.Time, bool) {
		sec, ok := lookup(key)
		if !ok {
			return time.Time{}, false
		}

		nsec, _ := lookup(key + "_nsec")

		return time.Unix(sec, nsec).UTC(), true
	}

	mode, ok := lookup("mode")
	if !ok {
		return nil, fmt.Errorf("failed to read attributes: missing mode")
	}

	attrs := &Attributes{Mode: uint32(mode)}

	if v, ok := lookup("dev", "device"); ok {
		attrs.Device = uint64(v)
	}

	if v, ok := lookup("ino", "inode"); ok {
		attrs.Inode = uint64(v)
	}

	if v, ok := lookup("nlink", "link"); ok {
		attrs.Nlink = uint64(v)
	}

	if v, ok := lookup("uid"); ok {
		attrs.UID = uint32(v)
	}

	if v, ok := lookup("gid"); ok {
		attrs.GID = uint32(v)
	}

	if v, ok := lookup("size"); ok {
		attrs.Size = v
	}

	if t, ok := unixTime("atime"); ok {
		attrs.ATime = t
	}

	if t, ok := unixTime("mtime"); ok {
		attrs.MTime = t
	}

	if t, ok := unixTime("ctime"); ok {
		attrs.CTime = t
	}

	return attrs, nil
}
