package document

import (
	"fmt"

	"github.com/signadot/docworker/wire"
)

// VerifyReplay rebuilds d from base, the wire form d had when it was last
// baselined, by applying d's changes, and checks the result matches d.
func VerifyReplay(base *wire.Document, d *Document) error {
	cp, err := FromWire(d.codec, base)
	if err != nil {
		return err
	}
	if err := cp.Apply(d.Changes()); err != nil {
		return err
	}
	want, got := d.ToWire(), cp.ToWire()
	eq, err := wire.EqualDocuments(want, got)
	if err != nil {
		return err
	}
	if eq {
		return nil
	}
	patch, err := wire.MergePatch(want, got)
	if err != nil {
		return fmt.Errorf("%w (no patch: %w)", ErrReplayMismatch, err)
	}
	return fmt.Errorf("%w: %s", ErrReplayMismatch, patch)
}
