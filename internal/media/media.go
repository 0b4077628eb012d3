// Package media describes inbound media and decides whether it can become a
// video note. Everything here is pure: no platform calls, no I/O.
package media

import "strings"

// Kind is the platform content type of an inbound media message.
type Kind int

const (
	KindVideo Kind = iota
	KindAnimation
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAnimation:
		return "animation"
	case KindDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Descriptor is the semantic view of one inbound media item.
type Descriptor struct {
	FileID          string
	SizeBytes       int64
	DurationSeconds int
	WidthPx         int
	HeightPx        int
	Kind            Kind
	MimeType        string
}

// Class is the outcome of the content-type gate that runs before validation.
type Class int

const (
	// ClassConvertible media goes on to the eligibility rules.
	ClassConvertible Class = iota
	// ClassUnsupported media gets the fixed "unsupported content" notice.
	ClassUnsupported
	// ClassWebm is a container the platform cannot transcode; it gets its own explanation.
	ClassWebm
)

const (
	mimeGIF  = "image/gif"
	mimeMP4  = "video/mp4"
	mimeWebm = "video/webm"
)

// Classify routes a media message by kind and mime type.
func Classify(kind Kind, mimeType string) Class {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch kind {
	case KindVideo:
		return ClassConvertible
	case KindDocument:
		if mimeType == mimeWebm {
			return ClassWebm
		}
		// gif and mp4 documents land here too
		return ClassUnsupported
	default:
		return ClassUnsupported
	}
}

// IsAnimatedDocument reports whether a document's mime type is one the
// platform treats as an animation. Used only for logging.
func IsAnimatedDocument(mimeType string) bool {
	mimeType = strings.ToLower(mimeType)
	return mimeType == mimeGIF || mimeType == mimeMP4
}
