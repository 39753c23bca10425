package model

import "errors"

var (
	// ErrUnknownModel is returned when a model name is not declared.
	ErrUnknownModel = errors.New("unknown model")
	// ErrUnresolvedRelation is returned when a relational field points at
	// an undeclared model.
	ErrUnresolvedRelation = errors.New("unresolved relation")
	// ErrUnknownField is returned when a record is asked for a field its model lacks.
	ErrUnknownField = errors.New("unknown field")
	// ErrNotRelational is returned when a scalar field is resolved as a relation.
	ErrNotRelational = errors.New("field is not relational")
	// ErrModelSealed is returned when fields are declared after the first record was created.
	ErrModelSealed = errors.New("model is sealed")
	// ErrInvalidField is returned for malformed field descriptors.
	ErrInvalidField = errors.New("invalid field")
	// ErrInvalidValue is returned when a value cannot be stored in a field.
	ErrInvalidValue = errors.New("invalid value")
)
