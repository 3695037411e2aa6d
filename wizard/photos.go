package wizard

import (
	"fmt"
	"os"
)

// photo admission rules
const (
	// MaxPhotos is the cap on photos attached to one draft
	MaxPhotos = 5
	// MaxPhotoSize is the per-file size limit (5 MB)
	MaxPhotoSize = 5 * 1024 * 1024
)

// allowedMIMETypes are the image formats the backend accepts
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Photo is a file attached to a draft. Each photo owns a preview handle (a
// local temp file) released exactly once, on removal, teardown or rejection.
type Photo struct {
	FileName string
	MIME     string
	Size     int64

	path     string
	released bool
}

// NewPhoto wraps a downloaded file at tempPath as an attachable photo. The
// photo takes ownership of the file and removes it on Release.
func NewPhoto(fileName, mime string, size int64, tempPath string) *Photo {
	return &Photo{
		FileName: fileName,
		MIME:     mime,
		Size:     size,
		path:     tempPath,
	}
}

// Release frees the preview handle. Safe to call more than once.
func (p *Photo) Release() error {
	if p.released {
		return nil
	}
	p.released = true
	if p.path == "" {
		return nil
	}
	return os.Remove(p.path)
}

// Released reports whether the preview handle has been freed
func (p *Photo) Released() bool {
	return p.released
}

// Open opens the underlying file for upload
func (p *Photo) Open() (*os.File, error) {
	return os.Open(p.path)
}

// RejectedPhoto names one file refused at admission and why
type RejectedPhoto struct {
	FileName string
	Reason   string
}

// AttachReport summarizes one admission batch. Files beyond the cap are
// counted in OverCap as a single batch rejection, not listed one by one.
type AttachReport struct {
	Accepted int
	Rejected []RejectedPhoto
	OverCap  int
}

// Ok reports whether every file of the batch was accepted
func (r AttachReport) Ok() bool {
	return len(r.Rejected) == 0 && r.OverCap == 0
}

// Message renders the report as a French user message, empty when all accepted
func (r AttachReport) Message() string {
	if r.Ok() {
		return ""
	}
	msg := ""
	for _, rej := range r.Rejected {
		msg += fmt.Sprintf("%s : %s\n", rej.FileName, rej.Reason)
	}
	if r.OverCap > 0 {
		plural := ""
		if r.OverCap > 1 {
			plural = "s"
		}
		msg += fmt.Sprintf("%d fichier%s refusé%s : maximum %d photos par annonce.\n",
			r.OverCap, plural, plural, MaxPhotos)
	}
	return msg
}

// AttachPhotos admits a batch of photos. Files with a disallowed format or
// over the size limit are rejected individually; once the cap is reached the
// rest of the batch is refused wholesale. Rejected photos have their preview
// handles released before returning.
func (d *Draft) AttachPhotos(photos []*Photo) AttachReport {
	report := AttachReport{}

	valid := make([]*Photo, 0, len(photos))
	for _, p := range photos {
		switch {
		case !allowedMIMETypes[p.MIME]:
			report.Rejected = append(report.Rejected, RejectedPhoto{
				FileName: p.FileName,
				Reason:   "format non supporté (JPEG, PNG, WebP ou GIF uniquement)",
			})
			p.Release()
		case p.Size > MaxPhotoSize:
			report.Rejected = append(report.Rejected, RejectedPhoto{
				FileName: p.FileName,
				Reason:   "fichier trop volumineux (5 Mo maximum)",
			})
			p.Release()
		default:
			valid = append(valid, p)
		}
	}

	room := MaxPhotos - len(d.photos)
	if room < 0 {
		room = 0
	}
	if len(valid) > room {
		for _, p := range valid[room:] {
			p.Release()
		}
		report.OverCap = len(valid) - room
		valid = valid[:room]
	}

	d.photos = append(d.photos, valid...)
	report.Accepted = len(valid)
	return report
}

// Photos returns the attached photos in attachment order
func (d *Draft) Photos() []*Photo {
	out := make([]*Photo, len(d.photos))
	copy(out, d.photos)
	return out
}

// RemovePhoto detaches the photo at index, releasing its preview handle
// immediately. The remaining photos keep their relative order.
func (d *Draft) RemovePhoto(index int) error {
	if index < 0 || index >= len(d.photos) {
		return fmt.Errorf("no photo at index %d", index)
	}
	removed := d.photos[index]
	d.photos = append(d.photos[:index], d.photos[index+1:]...)
	return removed.Release()
}
