package customorder

import "strings"

// ImageRefKind classifies where a submitted image reference points
type ImageRefKind string

const (
	// ImageRefURL is a fetchable link
	ImageRefURL ImageRefKind = "url"
	// ImageRefEmbedded is a data URL carrying the image inline
	ImageRefEmbedded ImageRefKind = "embedded_data"
	// ImageRefBlob is a browser-session blob URL that only resolved on the
	// submitter's machine
	ImageRefBlob ImageRefKind = "ephemeral_blob"
)

// ImageRef describes one submitted image reference for staff listings
type ImageRef struct {
	Kind   ImageRefKind `json:"kind"`
	Ref    string       `json:"ref"`
	Usable bool         `json:"usable"`
}

// ClassifyImageRef reports how a submitted image reference can be used.
// Blob URLs cannot be fetched by anyone but the original submitter.
func ClassifyImageRef(ref string) ImageRef {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return ImageRef{Kind: ImageRefEmbedded, Ref: ref, Usable: true}
	case strings.HasPrefix(ref, "blob:"):
		return ImageRef{Kind: ImageRefBlob, Ref: ref, Usable: false}
	default:
		return ImageRef{Kind: ImageRefURL, Ref: ref, Usable: true}
	}
}

// ClassifyImageRefs classifies every reference of a request
func ClassifyImageRefs(refs []string) []ImageRef {
	if len(refs) == 0 {
		return nil
	}
	out := make([]ImageRef, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ClassifyImageRef(ref))
	}
	return out
}
