package template

// MissingAction controls what happens when a placeholder references an
// output that is not present during expansion.
type MissingAction int

const (
	// MissingKeep leaves the placeholder as-is (default).
	MissingKeep MissingAction = iota

	// MissingEmpty replaces the placeholder with an empty string.
	MissingEmpty

	// MissingError causes Expand to return an UnresolvedReferenceError.
	MissingError
)

// Option configures an Expander.
type Option func(*Expander)

// WithMissingAction sets the behavior for unresolved references.
func WithMissingAction(action MissingAction) Option {
	return func(e *Expander) { e.missingAction = action }
}
