package dto

// PhotoUploadRequest asks for a presigned photo upload URL.
type PhotoUploadRequest struct {
	ContentType string `json:"contentType" validate:"required"`
	FileSize    int64  `json:"fileSize" validate:"required,gt=0"`
}
