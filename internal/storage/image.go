package storage

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// Extensions of the image types accepted as attachments.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a validated upload held in memory.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// ReadImage reads at most maxBytes+1 from r, rejects oversized input, and
// sniffs the content type instead of trusting the client's header.
func ReadImage(r io.Reader, maxBytes int64) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("only image files are allowed, got %s", contentType)
	}
	return &Image{Data: data, ContentType: contentType, Ext: ext}, nil
}

func (i *Image) Reader() io.Reader {
	return bytes.NewReader(i.Data)
}

func (i *Image) Size() int64 {
	return int64(len(i.Data))
}
