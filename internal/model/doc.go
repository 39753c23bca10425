// Package model holds record-class declarations and the live records built
// from them.
//
// Declarations are additive: any addon may declare fields on a model, and
// the visible field set is the union of every declaration made before the
// model's first record is created. After that the model is sealed.
//
// Relational fields name their comodel as a string. Models live in an arena
// (a slice plus a name index) and relations are resolved lazily on first
// use, so declaration order between addons does not matter. A relation
// that still points at an undeclared model fails with ErrUnresolvedRelation.
//
// Values are go-cty values. Each FieldType maps to a cty type, which is
// what defaults, Set conversion and Record.Object use.
package model
