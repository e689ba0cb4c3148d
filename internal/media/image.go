package media

import (
	"encoding/base64"
	"strings"
)

type ImageType int

const (
	ImageTypeNone ImageType = iota
	ImageTypeDataURI
	ImageTypeURL
)

type ImageInfo struct {
	Type ImageType
	MIME string
	Src  string
}

// GetImageInfo classifies the image payload of a picture question. Uploads
// arrive as base64 data URIs, imported banks may link to an http(s) URL.
func GetImageInfo(data string) ImageInfo {
	d := strings.TrimSpace(data)
	if d == "" {
		return ImageInfo{Type: ImageTypeNone}
	}

	if strings.HasPrefix(d, "data:") {
		header, payload, ok := strings.Cut(d[len("data:"):], ",")
		if !ok {
			return ImageInfo{Type: ImageTypeNone}
		}
		mime, encoding, _ := strings.Cut(header, ";")
		if !strings.HasPrefix(mime, "image/") || encoding != "base64" {
			return ImageInfo{Type: ImageTypeNone}
		}
		if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
			return ImageInfo{Type: ImageTypeNone}
		}
		return ImageInfo{Type: ImageTypeDataURI, MIME: mime, Src: d}
	}

	lower := strings.ToLower(d)
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return ImageInfo{Type: ImageTypeURL, MIME: mimeFromExt(lower), Src: d}
	}

	return ImageInfo{Type: ImageTypeNone}
}

func mimeFromExt(link string) string {
	if idx := strings.IndexAny(link, "?#"); idx != -1 {
		link = link[:idx]
	}
	switch {
	case strings.HasSuffix(link, ".png"):
		return "image/png"
	case strings.HasSuffix(link, ".jpg"), strings.HasSuffix(link, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(link, ".gif"):
		return "image/gif"
	case strings.HasSuffix(link, ".webp"):
		return "image/webp"
	case strings.HasSuffix(link, ".svg"):
		return "image/svg+xml"
	}
	return ""
}
