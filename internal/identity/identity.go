// Package identity models the opaque current-user input and derives the
// per-user storage namespace from it. Notes for different users sharing a
// device must never leak across namespaces.
package identity

// Identity is the externally supplied current-user signal. UserID is
// opaque; Resolved reports whether the identity provider has finished
// resolving. No load or save may run before Resolved is true.
type Identity struct {
	UserID   string
	Resolved bool
}

const (
	// namespacePrefix scopes all board namespaces in the durable store.
	namespacePrefix = "notes-"

	// AnonymousNamespace is used when identity resolved without a user.
	AnonymousNamespace = namespacePrefix + "anonymous"

	// DevelopmentNamespace is used in development mode, where identity is
	// assumed resolved without a provider.
	DevelopmentNamespace = namespacePrefix + "development"
)

// Namespace derives the durable-store namespace for id. devMode bypasses
// the identity provider entirely. The result is empty while the identity
// is unresolved, which callers must treat as "do not touch storage yet".
func Namespace(id Identity, devMode bool) string {
	if devMode {
		return DevelopmentNamespace
	}
	if !id.Resolved {
		return ""
	}
	if id.UserID == "" {
		return AnonymousNamespace
	}
	return namespacePrefix + id.UserID
}
