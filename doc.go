// Package identity implements an email+password registration and
// authentication backend: credential storage, bcrypt hashing, signed
// session tokens, and role-gated HTTP middleware.
//
// The core pieces compose left to right:
//
//	RepositoryManager -> UserProvider -> Auther -> RouteAuthenticator
//
// RepositoryManager owns the persisted user records, UserProvider turns
// credentials into an Identity, Auther issues and validates session
// tokens, and RouteAuthenticator exposes the whole thing over HTTP
// together with the handlers in http_controller.go.
package identity
