package utils

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrUploadTooLarge 上传体积超过限制
	ErrUploadTooLarge = errors.New("upload exceeds the size limit")
	// ErrMissingFile 表单里没有文件字段
	ErrMissingFile = errors.New("no file was uploaded")
	// ErrInvalidForm 请求不是合法的 multipart 表单
	ErrInvalidForm = errors.New("invalid upload form")
)

// multipartMemory is how much of a form is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// ReadUpload reads the multipart file in field, capping the request at maxBytes.
func ReadUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, ErrUploadTooLarge
		}
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, ErrMissingFile
		}
		return "", nil, fmt.Errorf("read form file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}
