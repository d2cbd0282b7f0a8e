package content

import "errors"

var (
	ErrEmptyUpload        = errors.New("upload is empty")
	ErrUploadTooLarge     = errors.New("upload too large")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
	ErrMDConversion       = errors.New("could not convert MD to HTML")
	ErrReadingFile        = errors.New("could not open file")
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")
	ErrQueueFull          = errors.New("image processor queue full")
)
