package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/render"
)

// Format is an export file type.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatSVG      Format = "svg"
	FormatPNG      Format = "png"
)

// AllFormats is the default snapshot bundle.
var AllFormats = []Format{FormatJSON, FormatMarkdown, FormatSVG, FormatPNG}

// ParseFormat accepts a format name or a file extension with or without the dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// FormatFromPath picks the format from the path extension, defaulting to svg
// for unknown extensions.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return FormatSVG
}

// SnapshotOptions configures a multi-format export of the current view.
type SnapshotOptions struct {
	Dir     string
	Topic   string
	Tree    *model.Tree
	Scene   *render.Scene // required for svg and png
	Formats []Format      // defaults to AllFormats
}

// Snapshot writes one file per format concurrently and returns the paths in
// format order. The first failure cancels the remaining writes.
func Snapshot(ctx context.Context, opts SnapshotOptions) ([]string, error) {
	if opts.Tree == nil {
		return nil, errors.New("no tree to export")
	}
	formats := opts.Formats
	if len(formats) == 0 {
		formats = AllFormats
	}

	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(len(formats))

	for i, f := range formats {
		path := filepath.Join(opts.Dir, Slug(opts.Topic)+"."+string(f))
		paths[i] = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeFileAtomic(path, func(w io.Writer) error {
				return writeFormat(w, f, opts)
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// SaveImage renders scene to path, choosing SVG or PNG by extension.
func SaveImage(path string, scene *render.Scene) error {
	format := FormatFromPath(path)
	if format != FormatPNG && format != FormatSVG {
		return fmt.Errorf("unsupported image format %q", format)
	}
	return writeFileAtomic(path, func(w io.Writer) error {
		return writeFormat(w, format, SnapshotOptions{Scene: scene})
	})
}

func writeFormat(w io.Writer, f Format, opts SnapshotOptions) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, opts.Tree.Concept())
	case FormatMarkdown:
		return WriteMarkdown(w, opts.Tree, opts.Topic)
	case FormatSVG, FormatPNG:
		if opts.Scene == nil {
			return fmt.Errorf("%s export needs a rendered scene", f)
		}
		if f == FormatSVG {
			return render.WriteSVG(w, opts.Scene)
		}
		return render.WritePNG(w, opts.Scene)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}
