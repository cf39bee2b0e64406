//go:build linux || darwin

package filesystem

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

func statPath(path string, follow bool) (*Attributes, error) {
	var st unix.Stat_t

	stat := unix.Lstat
	if follow {
		stat = unix.Stat
	}

	if err := stat(path, &st); err != nil {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: err}
	}

	return &Attributes{
		Device: uint64(st.Dev), //nolint:unconvert // int32 on darwin
		Inode:  st.Ino,
		Mode:   uint32(st.Mode),  //nolint:unconvert // uint16 on darwin
		Nlink:  uint64(st.Nlink), //nolint:unconvert // width varies by platform
		UID:    st.Uid,
		GID:    st.Gid,
		Size:   st.Size,
		ATime:  timespec(st.Atim),
		MTime:  timespec(st.Mtim),
		CTime:  timespec(st.Ctim),
	}, nil
}

func timespec(ts unix.Timespec) time.Time {
	return time.Unix(ts.Unix())
}

func accessPath(path string, mode AccessMode) bool {
	var bits uint32

	switch mode {
	case AccessRead:
		bits = unix.R_OK
	case AccessWrite:
		bits = unix.W_OK
	case AccessExecute:
		bits = unix.X_OK
	}

	return unix.Access(path, bits) == nil
}
