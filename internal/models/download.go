package models

// Candidate is one playable item returned by the resolver for a query.
type Candidate struct {
	Title     string `json:"title"`
	URL       string `json:"webpage_url"`
	Thumbnail string `json:"thumbnail"`
}

// DownloadResult describes a finished extraction. It lives only for the
// duration of one job and is discarded after the file is sent.
type DownloadResult struct {
	FilePath string
	Title    string
	ThumbURL string
	Size     int64
}
