// Package registry provides named key/value tables grouped by category.
//
// Categories are the extension points of the addon layer: "fields" maps a
// widget tag to a field component, "views" maps a view type to its
// controller, and so on. Any addon may register into any category while the
// environment boots, and later lookups find the value by tag.
//
// Re-registering an existing key is the documented way for a later addon to
// replace an earlier one's entry. Whether that happens silently, with a
// warning, or is refused unless forced is decided by the DuplicatePolicy.
package registry
