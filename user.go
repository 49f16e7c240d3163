package datanet

// User is a registered user of the lookup service. What a user can see
// or register is not stored on the user itself: it is resolved
// explicitly through the permission store.
type User struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// UserRegistration is one entry of a bulk user registration.
type UserRegistration struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// BaseURI is a registered storage location prefix (a bucket or directory
// root) under which datasets reside. The canonical form has no trailing
// slash; callers canonicalize, the stores do not.
type BaseURI struct {
	URI string `json:"base_uri"`
}

// BaseURIPermissions lists the users holding each permission edge on a
// base URI.
type BaseURIPermissions struct {
	BaseURI                      string   `json:"base_uri"`
	UsersWithSearchPermissions   []string `json:"users_with_search_permissions"`
	UsersWithRegisterPermissions []string `json:"users_with_register_permissions"`
}

type UserStore interface {
	// Get returns the user, or nil if the username is not registered.
	Get(username string) (*User, error)

	List() ([]User, error)

	// Register creates the given users, silently skipping usernames
	// that already exist. It is safe to call repeatedly with
	// overlapping lists. The skipped usernames are returned so callers
	// can log them. IsAdmin is only honored at creation: changing it
	// afterwards goes through SetAdmin.
	Register(users []UserRegistration) (skipped []string, err error)

	SetAdmin(username string, isAdmin bool) error
}

type BaseURIStore interface {
	// Get returns the base URI, or nil if it is not registered.
	Get(uri string) (*BaseURI, error)

	Register(uri string) (*BaseURI, error)

	List() ([]BaseURI, error)
}

// PermissionStore holds the two independent many-to-many edges between
// users and base URIs: search (read scope) and register (write scope).
type PermissionStore interface {
	// GrantSearch adds the search edge. Granting to an unknown user or
	// base URI is a silent no-op, not an error.
	GrantSearch(username, baseURI string) error

	// GrantRegister adds the register edge, with the same tolerance.
	GrantRegister(username, baseURI string) error

	CanSearch(username, baseURI string) (bool, error)
	CanRegister(username, baseURI string) (bool, error)

	// SearchScope returns the base URIs username holds a search grant
	// on. Unknown users get an empty scope; authentication is the
	// service's concern.
	SearchScope(username string) ([]BaseURI, error)
	RegisterScope(username string) ([]BaseURI, error)

	// Permissions returns both user lists for a base URI.
	Permissions(baseURI string) (*BaseURIPermissions, error)
}
