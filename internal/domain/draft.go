package domain

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Attachment is a file handle picked by the requester. The handle is held by
// reference; contents are only read when the submission is packaged.
type Attachment interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// FileAttachment references a file on the local filesystem.
type FileAttachment struct {
	Path string
	size int64
}

// NewFileAttachment stats path and returns a handle for it.
func NewFileAttachment(path string) (*FileAttachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &FileAttachment{Path: path, size: info.Size()}, nil
}

func (f *FileAttachment) Name() string { return filepath.Base(f.Path) }

func (f *FileAttachment) Size() int64 { return f.size }

func (f *FileAttachment) Open() (io.ReadCloser, error) { return os.Open(f.Path) }

// UploadedAttachment holds a file received in a multipart request. The
// content is copied out since the request form is released with the request.
type UploadedAttachment struct {
	Filename string
	data     []byte
}

// NewUploadedAttachment reads the uploaded part into memory.
func NewUploadedAttachment(fh *multipart.FileHeader) (*UploadedAttachment, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &UploadedAttachment{Filename: filepath.Base(fh.Filename), data: data}, nil
}

func (u *UploadedAttachment) Name() string { return u.Filename }

func (u *UploadedAttachment) Size() int64 { return int64(len(u.data)) }

func (u *UploadedAttachment) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(u.data)), nil
}

// TicketDraft is the in-progress form state of a ticket.
type TicketDraft struct {
	Title       string
	Description string
	Category    Category
	Priority    TicketPriority
	Type        TicketType
	UserEmail   string
	Attachments []Attachment
}

// Reset returns every field to its empty default.
func (d *TicketDraft) Reset() {
	*d = TicketDraft{}
}

// Clone copies the draft; the attachment slice is copied, handles are shared.
func (d TicketDraft) Clone() TicketDraft {
	out := d
	if d.Attachments != nil {
		out.Attachments = append([]Attachment(nil), d.Attachments...)
	}
	return out
}

// IsEmpty reports whether all fields hold their defaults.
func (d TicketDraft) IsEmpty() bool {
	return d.Title == "" && d.Description == "" && d.Category == "" && d.Priority == "" &&
		d.Type == "" && d.UserEmail == "" && len(d.Attachments) == 0
}
