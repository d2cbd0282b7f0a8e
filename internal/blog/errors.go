package blog

import "errors"

var (
	// ErrUpload wraps whatever the media host reported; nothing was persisted
	ErrUpload = errors.New("upload failed")
	// ErrTitleRequired means the post was not saved because the title was blank
	ErrTitleRequired        = errors.New("title is required")
	ErrPersist              = errors.New("could not save post")
	ErrCategoryNameRequired = errors.New("category name is required")
)
