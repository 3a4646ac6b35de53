// Package pathengine flattens nested struct types into dotted property paths.
//
// Flatten walks a root type once and classifies every exported field as a
// leaf (stored in one column), a composite (struct or pointer to struct,
// recursed with a "Field." prefix) or a collection (slice or array, stored in
// its own table). Each leaf path carries accessor closures bound at flatten
// time, so reading or writing a path never re-parses the dotted name.
//
// GetValue and SetValue offer the same navigation for ad-hoc dotted paths on
// live values.
package pathengine
