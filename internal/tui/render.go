package tui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/joe/fsinfo/pkg/fileinfo"
	"github.com/joe/fsinfo/pkg/filesystem"
	"github.com/joe/fsinfo/pkg/scanner"
)

const timeLayout = "2006-01-02 15:04"

// row is one rendered entry.
type row struct {
	path   string
	typ    fileinfo.Type
	attrs  *filesystem.Attributes
	target string
}

func rowFor(ctx context.Context, entry scanner.Entry) (row, error) {
	typ, err := entry.Info.Type(ctx)
	if err != nil {
		return row{}, err //nolint:wrapcheck // only the context's error
	}

	r := row{path: entry.Path, typ: typ}
	r.attrs, _ = entry.Info.Stat(ctx)

	if typ == fileinfo.TypeLink {
		r.target, _ = entry.Info.LinkTarget(ctx)
	}

	return r, ctx.Err() //nolint:wrapcheck // only the context's error
}

func typeMarker(t fileinfo.Type) string {
	switch t {
	case fileinfo.TypeDir:
		return "d"
	case fileinfo.TypeLink:
		return "l"
	case fileinfo.TypeFile:
		return "-"
	case fileinfo.TypeNone:
		return "?"
	}

	return "?"
}

func (r row) columns() (mode, size, mtime string) {
	if r.attrs == nil {
		return "?---------", "-", "-"
	}

	return r.attrs.FileMode().String(), humanize.IBytes(uint64(max(r.attrs.Size, 0))), r.attrs.MTime.Format(timeLayout)
}

// RenderListing writes a styled table of result to w, followed by its
// problems and a summary line. Styling follows w's capabilities.
func RenderListing(ctx context.Context, w io.Writer, result *scanner.Result) error {
	st := newStyles(lipgloss.NewRenderer(w))

	var (
		total     uint64
		files     int
		dirs      int
		links     int
		rendered  strings.Builder
		sizeWidth int
	)

	rows := make([]row, 0, result.Len())

	for _, entry := range result.Entries {
		r, err := rowFor(ctx, entry)
		if err != nil {
			return err
		}

		_, size, _ := r.columns()
		sizeWidth = max(sizeWidth, len(size))
		rows = append(rows, r)
	}

	for _, r := range rows {
		mode, size, mtime := r.columns()
		name := displayPath(result.Root, r.path)

		switch r.typ {
		case fileinfo.TypeDir:
			dirs++
			name = st.dir.Render(name + "/")
		case fileinfo.TypeLink:
			links++
			name = st.link.Render(name) + st.dim.Render(" -> "+r.target)
		case fileinfo.TypeFile:
			files++

			if r.attrs != nil {
				total += uint64(max(r.attrs.Size, 0))
			}
		case fileinfo.TypeNone:
			name = st.errText.Render(name)
		}

		fmt.Fprintf(&rendered, "%s %s  %*s  %s  %s\n",
			typeMarker(r.typ), mode, sizeWidth, size, st.dim.Render(mtime), name)
	}

	for _, problem := range result.Problems {
		rendered.WriteString(st.warning.Render("! ") + problem.Error() + "\n")
	}

	summary := fmt.Sprintf("%s entries: %s files (%s), %s directories, %s links",
		humanize.Comma(int64(result.Len())),
		humanize.Comma(int64(files)),
		humanize.IBytes(total),
		humanize.Comma(int64(dirs)),
		humanize.Comma(int64(links)),
	)

	if n := len(result.Problems); n > 0 {
		summary += st.warning.Render(fmt.Sprintf(", %d problems", n))
	}

	rendered.WriteString(st.success.Render(summary) + "\n")

	_, err := io.WriteString(w, rendered.String())
	if err != nil {
		return fmt.Errorf("failed to write listing: %w", err)
	}

	return nil
}

// displayPath shows p relative to root; the root itself is ".".
func displayPath(root, p string) string {
	if p == root {
		return "."
	}

	if root == "/" {
		return strings.TrimPrefix(p, "/")
	}

	return strings.TrimPrefix(p, root+"/")
}

// RenderPlain writes one tab-separated line per entry: type, size in bytes,
// absolute path and, for links, the target. Problems go to errw.
func RenderPlain(ctx context.Context, w, errw io.Writer, result *scanner.Result) error {
	for _, entry := range result.Entries {
		r, err := rowFor(ctx, entry)
		if err != nil {
			return err
		}

		if err := writePlain(w, r); err != nil {
			return err
		}
	}

	for _, problem := range result.Problems {
		fmt.Fprintf(errw, "problem: %v\n", problem)
	}

	return nil
}

// RenderWalkEntry writes one streamed entry in the plain format. Walked
// entries carry lstat attributes, so links are not followed.
func RenderWalkEntry(w io.Writer, entry filesystem.WalkEntry) error {
	r := row{path: entry.Path, attrs: entry.Attributes, typ: fileinfo.TypeNone}

	switch {
	case entry.Attributes.IsSymlink():
		r.typ = fileinfo.TypeLink
	case entry.Attributes.IsDir():
		r.typ = fileinfo.TypeDir
	case entry.Attributes != nil:
		r.typ = fileinfo.TypeFile
	}

	return writePlain(w, r)
}

func writePlain(w io.Writer, r row) error {
	size := "-"
	if r.attrs != nil {
		size = strconv.FormatInt(r.attrs.Size, 10)
	}

	line := r.typ.String() + "\t" + size + "\t" + r.path
	if r.target != "" {
		line += "\t" + r.target
	}

	if _, err := fmt.Fprintln(w, line); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}

	return nil
}
