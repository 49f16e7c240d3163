package datanet

import (
	"fmt"

	"github.com/bobinette/datanet/errors"
)

// PermissionUpdate grants search and register permissions on a base URI
// to lists of users. Updates are additive only: edges not mentioned here
// are never revoked.
type PermissionUpdate struct {
	BaseURI                      string   `json:"base_uri"`
	UsersWithSearchPermissions   []string `json:"users_with_search_permissions"`
	UsersWithRegisterPermissions []string `json:"users_with_register_permissions"`
}

type PermissionService struct {
	users       UserStore
	baseURIs    BaseURIStore
	permissions PermissionStore
}

func NewPermissionService(users UserStore, baseURIs BaseURIStore, permissions PermissionStore) *PermissionService {
	return &PermissionService{
		users:       users,
		baseURIs:    baseURIs,
		permissions: permissions,
	}
}

// Update applies a permission update. Usernames that do not exist are
// skipped without error and returned so the caller can report them.
// The base URI itself must be registered.
func (s *PermissionService) Update(update PermissionUpdate) ([]string, error) {
	bu, err := s.baseURIs.Get(update.BaseURI)
	if err != nil {
		return nil, err
	}
	if bu == nil {
		return nil, errors.New(fmt.Sprintf("Base URI %s not registered", update.BaseURI), errors.BadRequest())
	}

	skipped := make([]string, 0)
	seen := make(map[string]bool)
	skip := func(username string) {
		if !seen[username] {
			seen[username] = true
			skipped = append(skipped, username)
		}
	}

	for _, username := range update.UsersWithSearchPermissions {
		user, err := s.users.Get(username)
		if err != nil {
			return nil, err
		}
		if user == nil {
			skip(username)
			continue
		}
		if err := s.permissions.GrantSearch(username, update.BaseURI); err != nil {
			return nil, err
		}
	}

	for _, username := range update.UsersWithRegisterPermissions {
		user, err := s.users.Get(username)
		if err != nil {
			return nil, err
		}
		if user == nil {
			skip(username)
			continue
		}
		if err := s.permissions.GrantRegister(username, update.BaseURI); err != nil {
			return nil, err
		}
	}

	return skipped, nil
}

func (s *PermissionService) CanSearch(username, baseURI string) (bool, error) {
	return s.permissions.CanSearch(username, baseURI)
}

func (s *PermissionService) CanRegister(username, baseURI string) (bool, error) {
	return s.permissions.CanRegister(username, baseURI)
}

// SearchScope resolves the base URIs username may search. Unknown users
// get a 401 error, not an empty scope.
func (s *PermissionService) SearchScope(username string) ([]BaseURI, error) {
	user, err := s.users.Get(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(fmt.Sprintf("unknown user %s", username), errors.Unauthorized())
	}

	return s.permissions.SearchScope(username)
}

// Show returns the permissions held on a base URI.
func (s *PermissionService) Show(baseURI string) (*BaseURIPermissions, error) {
	bu, err := s.baseURIs.Get(baseURI)
	if err != nil {
		return nil, err
	}
	if bu == nil {
		return nil, errors.New(fmt.Sprintf("Base URI %s not registered", baseURI), errors.BadRequest())
	}

	return s.permissions.Permissions(baseURI)
}
