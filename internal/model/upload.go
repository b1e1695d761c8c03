package model

// UploadResult is produced for every accepted upload item, in processing
// order. URL is the publicly addressable location of the stored object and
// DisplayName the original basename, used as alt text on the result page.
// Request-scoped; never persisted.
type UploadResult struct {
	URL         string `json:"url"`
	DisplayName string `json:"display_name"`
}
