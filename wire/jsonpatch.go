package wire

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// EqualJSON reports whether a and b are structurally equal JSON documents.
func EqualJSON(a, b []byte) bool {
	return jsonpatch.Equal(a, b)
}

// EqualDocuments reports whether a and b have the same JSON form.
func EqualDocuments(a, b *Document) (bool, error) {
	ad, err := Marshal(a)
	if err != nil {
		return false, err
	}
	bd, err := Marshal(b)
	if err != nil {
		return false, err
	}
	return EqualJSON(ad, bd), nil
}

// MergePatch returns the RFC 7386 merge patch turning from into to.
func MergePatch(from, to *Document) ([]byte, error) {
	fd, err := Marshal(from)
	if err != nil {
		return nil, err
	}
	td, err := Marshal(to)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(fd, td)
	if err != nil {
		return nil, fmt.Errorf("could not create merge patch: %w", err)
	}
	return patch, nil
}

// ApplyMergePatch applies a merge patch produced by MergePatch to doc.
func ApplyMergePatch(doc *Document, patch []byte) (*Document, error) {
	dd, err := Marshal(doc)
	if err != nil {
		return nil, err
	}
	res, err := jsonpatch.MergePatch(dd, patch)
	if err != nil {
		return nil, fmt.Errorf("could not apply merge patch: %w", err)
	}
	return DecodeDocument(res)
}
