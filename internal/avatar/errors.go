package avatar

import "fmt"

// ImageDecodeError means the bytes are not a decodable image.
type ImageDecodeError struct {
	MIMEType string
	Err      error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("decode %s image: %v", e.MIMEType, e.Err)
}

func (e *ImageDecodeError) Unwrap() error {
	return e.Err
}

// EncodeError means re-encoding produced no output.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	if e.Err == nil {
		return "encode avatar: empty output"
	}
	return fmt.Sprintf("encode avatar: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// UploadError is a non-success response from the image hosting endpoint.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload avatar: status %d: %s", e.StatusCode, e.Body)
}
