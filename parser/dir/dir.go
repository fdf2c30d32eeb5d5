// Package dir implements the directory-listing subsystem of §4.M2:
// it shares the Input/tracker plumbing with every other format, so it
// lives alongside the text-format parsers even though its source
// bytes are a path, not document text. src is the directory path
// (as UTF-8 bytes); Parse opens it, iterates non-dot entries, and
// builds an array of Path maps.
package dir

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/lambda-doc/lambda/datetime"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() {
	input.Register("dir", Parse)
}

// sniffThreshold is the stat-size cutoff above which a regular file's
// leading bytes are read via mmap instead of a full os.ReadFile, for
// BOM sniffing without paying for a full read of a large file.
const sniffThreshold = 1 << 20 // 1 MiB

// sniffLen is how many leading bytes are inspected for a BOM.
const sniffLen = 4

// Parse lists the directory named by src, skipping dot-entries, and
// returns an AnyType array of Path maps: `name`, `base` (joined base
// URL), `size`, `mtime`, `is_dir`, `is_link`, `mode`, and — for
// regular files large enough to be worth memory-mapping rather than
// fully reading — a `bom` string naming any detected byte-order mark.
func Parse(ctx *input.Context, src []byte) item.Item {
	path := string(src)
	if path == "" {
		return item.Null
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		ctx.AddError("dir: cannot read directory %q: %v", path, err)
		ctx.Tracker.Advance(len(src))
		return item.Null
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	list := ctx.Build.NewArrayBuilder(item.AnyType)
	for _, e := range entries {
		if ctx.ShouldStopParsing() {
			break
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(path, name)
		info, err := e.Info()
		if err != nil {
			ctx.AddWarning("dir: cannot stat %q: %v", full, err)
			continue
		}
		list.Append(buildPathItem(ctx, name, full, info))
	}
	ctx.Tracker.Advance(len(src))
	return list.Final()
}

func buildPathItem(ctx *input.Context, name, full string, info os.FileInfo) item.Item {
	pm := ctx.Build.NewMapBuilder()
	pm.Put("name", ctx.Build.CreateString([]byte(name)))
	pm.Put("base", ctx.Build.CreateString([]byte(joinBase(ctx.Base, name))))
	pm.Put("size", ctx.Build.CreateInt(info.Size()))
	pm.Put("mtime", ctx.Build.CreateDateTime(datetime.FromTime(info.ModTime())))
	pm.Put("is_dir", ctx.Build.CreateBool(info.IsDir()))
	pm.Put("is_link", ctx.Build.CreateBool(info.Mode()&os.ModeSymlink != 0))
	pm.Put("mode", ctx.Build.CreateString([]byte(info.Mode().String())))

	if !info.IsDir() && info.Mode().IsRegular() {
		if bom := sniffBOM(ctx, full, info.Size()); bom != "" {
			pm.Put("bom", ctx.Build.CreateString([]byte(bom)))
		}
	}
	return pm.Final()
}

// joinBase resolves name against base the way a URL path segment is
// appended: base with exactly one trailing slash, then name.
func joinBase(base, name string) string {
	if base == "" {
		return name
	}
	return strings.TrimSuffix(base, "/") + "/" + name
}

// sniffBOM peeks at a regular file's leading bytes to detect a UTF
// byte-order mark, memory-mapping the file instead of reading it
// fully once it crosses sniffThreshold — grounded on saferwall-pe's
// mmap.Map(f, mmap.RDONLY, 0) idiom, here bounded to sniffLen bytes
// of interest rather than the whole mapped region.
func sniffBOM(ctx *input.Context, path string, size int64) string {
	if size == 0 {
		return ""
	}
	if size < sniffThreshold {
		f, err := os.Open(path)
		if err != nil {
			return ""
		}
		defer f.Close()
		buf := make([]byte, sniffLen)
		n, _ := f.Read(buf)
		return detectBOM(buf[:n])
	}

	f, err := os.Open(path)
	if err != nil {
		ctx.AddWarning("dir: cannot open %q for BOM sniff: %v", path, err)
		return ""
	}
	defer f.Close()
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		ctx.AddWarning("dir: cannot mmap %q for BOM sniff: %v", path, err)
		return ""
	}
	defer data.Unmap()
	n := sniffLen
	if int64(n) > size {
		n = int(size)
	}
	return detectBOM(data[:n])
}

func detectBOM(b []byte) string {
	switch {
	case len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		return "utf-8"
	case len(b) >= 4 && b[0] == 0xFF && b[1] == 0xFE && b[2] == 0x00 && b[3] == 0x00:
		return "utf-32le"
	case len(b) >= 4 && b[0] == 0x00 && b[1] == 0x00 && b[2] == 0xFE && b[3] == 0xFF:
		return "utf-32be"
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE:
		return "utf-16le"
	case len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF:
		return "utf-16be"
	default:
		return ""
	}
}
