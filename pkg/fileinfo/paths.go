package fileinfo

import (
	"path"
	"strings"
)

// NormalizePath removes "." and ".." segments, duplicate separators and any
// trailing separator. ".." above the root of an absolute path is dropped; a
// relative path keeps its leading "..". The empty path normalizes to ".".
func NormalizePath(p string) string {
	return path.Clean(p)
}

// JoinPath joins a directory and a child name, normalizing the result.
func JoinPath(dir, name string) string {
	return path.Join(dir, name)
}

// AbsPath makes p absolute against wd. Absolute paths are only normalized.
func AbsPath(p, wd string) string {
	if path.IsAbs(p) || wd == "" {
		return NormalizePath(p)
	}

	return path.Join(wd, p)
}

// Basename returns the last element of p, with suffix removed when it is a
// proper suffix of that element.
func Basename(p, suffix string) string {
	base := path.Base(p)

	if suffix != "" && suffix != base && strings.HasSuffix(base, suffix) {
		return strings.TrimSuffix(base, suffix)
	}

	return base
}

// Extension returns the part of the last element after its final dot, or ""
// when there is none.
func Extension(p string) string {
	return strings.TrimPrefix(path.Ext(path.Base(p)), ".")
}

// Filename returns the last element without its extension.
func Filename(p string) string {
	base := path.Base(p)
	if ext := path.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(base, ext)
	}

	return base
}

// Dir returns the parent path of p; "." for a bare relative name and "/"
// for the root.
func Dir(p string) string {
	return path.Dir(p)
}
