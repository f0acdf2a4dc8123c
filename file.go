package upload

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const defaultMimetype = "application/octet-stream"

// extensionMimetypes is checked before content sniffing so that backends
// with blacklists see the type the remote service will infer from the name.
var extensionMimetypes = map[string]string{
	"he5":   "application/x-hdf5",
	"hdf5":  "application/x-hdf5",
	"h5":    "application/x-hdf5",
	"apk":   "application/vnd.android.package-archive",
	"jar":   "application/java-archive",
	"class": "application/java-vm",
	"exe":   "application/x-dosexec",
	"css":   "text/css",
	"csv":   "text/csv",
	"txt":   "text/plain",
	"vtt":   "text/vtt",
	"htm":   "text/html",
	"html":  "text/html",
	"apng":  "image/apng",
	"avif":  "image/avif",
	"bmp":   "image/bmp",
	"gif":   "image/gif",
	"png":   "image/png",
	"svg":   "image/svg+xml",
	"webp":  "image/webp",
	"ico":   "image/x-icon",
	"tif":   "image/tiff",
	"tiff":  "image/tiff",
	"jpg":   "image/jpeg",
	"jpeg":  "image/jpeg",
	"mp4":   "video/mp4",
	"mpeg":  "video/mpeg",
	"webm":  "video/webm",
	"mp3":   "audio/mp3",
	"mpga":  "audio/mpeg",
	"weba":  "audio/webm",
	"wav":   "audio/wave",
	"otf":   "font/otf",
	"ttf":   "font/ttf",
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"7z":    "application/x-7z-compressed",
	"atom":  "application/atom+xml",
	"pdf":   "application/pdf",
	"js":    "application/javascript",
	"mjs":   "application/javascript",
	"json":  "application/json",
	"rss":   "application/rss+xml",
	"tar":   "application/x-tar",
	"xht":   "application/xhtml+xml",
	"xhtml": "application/xhtml+xml",
	"xslt":  "application/xslt+xml",
	"xml":   "application/xml",
	"gz":    "application/gzip",
	"zip":   "application/zip",
	"wasm":  "application/wasm",
}

// File is a named blob ready to be uploaded. It is immutable and may be
// handed to several backends in turn.
type File struct {
	name     string
	content  []byte
	mimetype string
}

func NewFile(name string, content []byte) *File {
	return &File{
		name:     name,
		content:  content,
		mimetype: detectMimetype(name, content),
	}
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Content() []byte {
	return f.content
}

func (f *File) Size() int64 {
	return int64(len(f.content))
}

func (f *File) Mimetype() string {
	return f.mimetype
}

// Reader returns a fresh reader over the content for every call.
func (f *File) Reader() io.Reader {
	return bytes.NewReader(f.content)
}

func detectMimetype(name string, content []byte) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if mt, ok := extensionMimetypes[ext]; ok {
		return mt
	}

	if len(content) == 0 {
		return defaultMimetype
	}

	detected := mimetype.Detect(content).String()
	if base, _, found := strings.Cut(detected, ";"); found {
		detected = base
	}

	if detected == "" {
		return defaultMimetype
	}

	return strings.TrimSpace(detected)
}
