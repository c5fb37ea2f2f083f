package pkg

import "time"

// Appointment is the single stored booking for a patient.  It is keyed by
// PatientKey, the lower-cased patient name; a new booking for the same key
// overwrites the previous record.
type Appointment struct {
	PatientKey  string    `json:"patient_key"`
	PatientName string    `json:"patient_name"`
	WhatsApp    string    `json:"whatsapp"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// MetricResult is one pre/post measurement in a cognitive report.  Results
// are kept as an ordered slice rather than a map because the report must
// present metrics in the order the assistant produced them.
type MetricResult struct {
	Name string  `json:"name"`
	Pre  float64 `json:"pre"`
	Post float64 `json:"post"`
}

// ChatRequest represents one user turn sent to the assistant.  ThreadID is
// empty on the first turn; the response carries the id to reuse afterwards.
type ChatRequest struct {
	ThreadID string `json:"thread_id,omitempty"`
	Message  string `json:"message"`
}

// ChatResponse contains the assistant's answer for a turn.  PDFBase64 is set
// only when the turn produced a pre/post report.
type ChatResponse struct {
	ThreadID  string `json:"thread_id"`
	Answer    string `json:"answer"`
	PDFBase64 string `json:"pdf_base64,omitempty"`
}

// UploadResponse is returned by the document upload endpoint.  Warning is
// set when extraction failed; in that case nothing was added to the thread.
type UploadResponse struct {
	ThreadID string `json:"thread_id"`
	Chars    int    `json:"chars"`
	Warning  string `json:"warning,omitempty"`
}
