package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/joe/fsinfo/pkg/fileinfo"
)

// Report is everything describe prints about one entry. Attribute fields
// are omitted when the entry's attributes cannot be read.
type Report struct {
	Path       string     `yaml:"path"`
	Type       string     `yaml:"type"`
	RealPath   string     `yaml:"real_path,omitempty"`
	LinkTarget string     `yaml:"link_target,omitempty"`
	Size       *int64     `yaml:"size,omitempty"`
	Mode       string     `yaml:"mode,omitempty"`
	Owner      *uint32    `yaml:"uid,omitempty"`
	Group      *uint32    `yaml:"gid,omitempty"`
	Inode      *uint64    `yaml:"inode,omitempty"`
	Links      *uint64    `yaml:"nlink,omitempty"`
	ATime      *time.Time `yaml:"atime,omitempty"`
	MTime      *time.Time `yaml:"mtime,omitempty"`
	CTime      *time.Time `yaml:"ctime,omitempty"`
	Readable   bool       `yaml:"readable"`
	Writable   bool       `yaml:"writable"`
	Executable bool       `yaml:"executable"`
	Error      string     `yaml:"error,omitempty"`
}

// BuildReport gathers a Report from info. Only the context's error is
// returned; a missing entry yields type "none".
func BuildReport(ctx context.Context, info fileinfo.Info) (Report, error) {
	report := Report{Path: info.Path()}

	typ, err := info.Type(ctx)
	if err != nil {
		return report, err //nolint:wrapcheck // only the context's error
	}

	report.Type = typ.String()

	if realPath, ok, err := info.RealPath(ctx); err == nil && ok {
		report.RealPath = realPath
	}

	if typ == fileinfo.TypeLink {
		if target, err := info.LinkTarget(ctx); err == nil {
			report.LinkTarget = target
		}
	}

	if attrs, err := info.Stat(ctx); err == nil && attrs != nil {
		size, owner, group, inode, nlink := attrs.Size, attrs.UID, attrs.GID, attrs.Inode, attrs.Nlink
		atime, mtime, ctime := attrs.ATime, attrs.MTime, attrs.CTime

		report.Size = &size
		report.Mode = attrs.FileMode().String()
		report.Owner = &owner
		report.Group = &group
		report.Inode = &inode
		report.Links = &nlink
		report.ATime = &atime
		report.MTime = &mtime
		report.CTime = &ctime
	}

	report.Readable, _ = info.IsReadable(ctx)
	report.Writable, _ = info.IsWritable(ctx)
	report.Executable, _ = info.IsExecutable(ctx)

	if lastErr := info.LastError(); lastErr != nil {
		report.Error = lastErr.Error()
	}

	return report, ctx.Err() //nolint:wrapcheck // only the context's error
}

// RenderReportYAML writes report as a YAML document.
func RenderReportYAML(w io.Writer, report Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return nil
}

// RenderReportText writes report as aligned label/value lines.
func RenderReportText(w io.Writer, report Report) error {
	st := newStyles(lipgloss.NewRenderer(w))

	var b strings.Builder

	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", st.label.Render(fmt.Sprintf("%-11s", label+":")), value)
	}

	line("path", report.Path)
	line("type", report.Type)

	if report.RealPath != "" && report.RealPath != report.Path {
		line("real path", report.RealPath)
	}

	if report.LinkTarget != "" {
		line("link target", report.LinkTarget)
	}

	if report.Size != nil {
		line("size", fmt.Sprintf("%s (%d bytes)", humanize.IBytes(uint64(max(*report.Size, 0))), *report.Size))
		line("mode", report.Mode)
		line("owner", fmt.Sprintf("%d:%d", *report.Owner, *report.Group))
		line("inode", fmt.Sprintf("%d (%d links)", *report.Inode, *report.Links))
		line("modified", report.MTime.Format(time.RFC3339))
		line("accessed", report.ATime.Format(time.RFC3339))
		line("changed", report.CTime.Format(time.RFC3339))
	}

	line("access", accessString(report))

	if report.Error != "" {
		line("error", st.errText.Render(report.Error))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func accessString(report Report) string {
	flags := []byte("---")

	if report.Readable {
		flags[0] = 'r'
	}

	if report.Writable {
		flags[1] = 'w'
	}

	if report.Executable {
		flags[2] = 'x'
	}

	return string(flags)
}
