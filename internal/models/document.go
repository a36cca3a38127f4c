package models

// DocumentSet maps an uploaded file name to the structured content the
// extraction service produced for it. Keys are unique per session; a
// re-upload under the same name overwrites the earlier entry.
type DocumentSet map[string]any

// ExtractionResult is the outcome of analyzing one uploaded document.
type ExtractionResult struct {
	// Filename is the upload name the content is stored under.
	Filename string `json:"filename"`

	// Text is the human-readable summary shown in the conversation log.
	Text string `json:"text"`

	// Content is the structured payload merged into the session's
	// DocumentSet. Shape varies by document type.
	Content any `json:"data"`
}
