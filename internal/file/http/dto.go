package http

type FileUploadResponse struct {
	Message      string  `json:"message"`
	FileID       string  `json:"file_id"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

type fileIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
