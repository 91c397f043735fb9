package media

// UploadURLRequest asks for a presigned URL to upload story media
type UploadURLRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// UploadInfo describes where and how the UI should upload a media file before
// creating the story that references it
type UploadInfo struct {
	ObjectKey   string `json:"object_key"`
	UploadURL   string `json:"upload_url"`
	MediaURL    string `json:"media_url"`
	StoryType   string `json:"story_type"`
	ExpiresAt   int64  `json:"expires_at"`
	MaxFileSize int64  `json:"max_file_size"`
	ContentType string `json:"content_type"`
}
