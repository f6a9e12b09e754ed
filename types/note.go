package types

import "time"

// Note priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Note statuses.
const (
	StatusActive   = "active"
	StatusResolved = "resolved"
	StatusArchived = "archived"
)

// Defaults applied when a note is created without the corresponding field.
const (
	DefaultPriority = PriorityMedium
	DefaultCategory = "general"
	DefaultStatus   = StatusActive
)

// Note represents a dated shift note written by one user.
// Content is an opaque rich-text markup blob, stored and returned verbatim.
type Note struct {
	// ID is the unique identifier of the note.
	ID int `json:"id" db:"id"`

	// Title is the human-readable summary line of the note.
	Title string `json:"title" db:"title"`

	// Content is the rich-text body of the note. Never sanitized or
	// interpreted by the server.
	Content string `json:"content" db:"content"`

	// Priority is one of the Priority* constants.
	Priority string `json:"priority" db:"priority"`

	// Category is a free-form tag used for grouping notes.
	Category string `json:"category" db:"category"`

	// Status is one of the Status* constants.
	Status string `json:"status" db:"status"`

	// Ticket is an optional reference to an external ticketing system.
	Ticket string `json:"ticket,omitempty" db:"ticket"`

	// ShiftDate is the calendar date of the shift the note covers.
	ShiftDate time.Time `json:"shift_date" db:"shift_date"`

	// OwnerID is the id of the user who created the note. It never
	// changes after creation. Zero when the owning account was removed.
	OwnerID int `json:"created_by" db:"created_by"`

	// OwnerName is the display name of the owner, resolved on read.
	OwnerName string `json:"created_by_name,omitempty" db:"-"`

	// Attachments are the files attached to this note, resolved on read.
	Attachments []FileAttachment `json:"attachments" db:"-"`

	// CreatedAt is the timestamp at which the note was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the note.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FileAttachment represents one uploaded file belonging to a note. The
// bytes live in the uploader's external storage namespace; this record is
// the authoritative local metadata.
type FileAttachment struct {
	// ID is the unique identifier of the attachment.
	ID int `json:"id" db:"id"`

	// NoteID is the identifier of the note this attachment belongs to.
	NoteID int `json:"note_id" db:"note_id"`

	// ObjectKey is the opaque identifier of the blob in the external
	// store, scoped to the uploader's credential.
	ObjectKey string `json:"object_key" db:"object_key"`

	// Filename is the original name of the uploaded file.
	Filename string `json:"filename" db:"filename"`

	// MimeType is the declared content type of the file.
	MimeType string `json:"mime_type" db:"mime_type"`

	// SizeBytes is the size of the file in bytes.
	SizeBytes int64 `json:"size_bytes" db:"size_bytes"`

	// UploaderID is the id of the user who performed the upload. The
	// blob is addressed with this user's storage credential, which may
	// differ from the note owner. Zero when the account was removed.
	UploaderID int `json:"uploaded_by" db:"uploaded_by"`

	// UploaderName is the display name of the uploader, resolved on read.
	UploaderName string `json:"uploaded_by_name,omitempty" db:"-"`

	// CreatedAt is the timestamp at which the attachment was recorded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
