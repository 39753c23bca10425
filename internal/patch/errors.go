package patch

import "errors"

var (
	// ErrMissingDelegate is returned by Call.Super when no older
	// implementation exists ("no superclass implementation").
	ErrMissingDelegate = errors.New("no superclass implementation")
	// ErrUnknownTarget is returned when a patch names a target that was never defined.
	ErrUnknownTarget = errors.New("unknown patch target")
	// ErrDuplicateTarget is returned when a target name is defined twice.
	ErrDuplicateTarget = errors.New("patch target already defined")
	// ErrUnknownMember is returned when a value override or a lookup names a
	// member the target does not have.
	ErrUnknownMember = errors.New("unknown target member")
	// ErrMemberKind is returned when a method is replaced by a value or the
	// other way around.
	ErrMemberKind = errors.New("member kind mismatch")
	// ErrDuplicateLayer is returned when a layer name is applied twice to the same target.
	ErrDuplicateLayer = errors.New("layer already applied")
	// ErrUnknownLayer is returned by Unpatch for a layer that is not on the target.
	ErrUnknownLayer = errors.New("unknown layer")
	// ErrNotTopLayer is returned by Unpatch when the layer is not the most recent one.
	ErrNotTopLayer = errors.New("layer is not the most recent one")
)
