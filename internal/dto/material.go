package dto

// MaterialResponse is one listed file. URL is empty when presigning failed.
type MaterialResponse struct {
	Key          string `json:"key"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	LastModified string `json:"lastModified"`
}

// UploadMaterialResponse is returned with 201.
type UploadMaterialResponse struct {
	Message string `json:"message"`
	FileKey string `json:"fileKey"`
}
