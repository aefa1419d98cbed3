package candidates

import "time"

// FileResponse is the outward-facing representation of a candidate file.
type FileResponse struct {
	ID                 string         `json:"id"`
	ProjectID          string         `json:"projectId"`
	FileName           string         `json:"fileName"`
	MimeType           string         `json:"mimeType"`
	SizeBytes          int64          `json:"sizeBytes"`
	Status             string         `json:"status"`
	Progress           int            `json:"progress"`
	TextExtracted      bool           `json:"textExtracted"`
	TextExtractionDate *time.Time     `json:"textExtractionDate,omitempty"`
	ParsedData         map[string]any `json:"parsedData,omitempty"`
	SummaryID          string         `json:"summaryId,omitempty"`
	Error              string         `json:"error,omitempty"`
	ExtractionError    string         `json:"extractionError,omitempty"`
	UploadedAt         time.Time      `json:"uploadedAt"`
}

func toResponse(f CandidateFile) FileResponse {
	return FileResponse{
		ID:                 f.ID,
		ProjectID:          f.ProjectID,
		FileName:           f.FileName,
		MimeType:           f.MimeType,
		SizeBytes:          f.SizeBytes,
		Status:             f.Status,
		Progress:           f.Progress,
		TextExtracted:      f.TextExtracted,
		TextExtractionDate: f.TextExtractedAt,
		ParsedData:         f.ParsedData,
		SummaryID:          f.SummaryID,
		Error:              f.Error,
		ExtractionError:    f.ExtractionError,
		UploadedAt:         f.UploadedAt,
	}
}
