package mysql

import (
	"github.com/jinzhu/gorm"

	"github.com/bobinette/datanet"
)

// PermissionStore implements datanet.PermissionStore on the mysql
// driver. The edges live in the search_permissions and
// register_permissions join tables.
type PermissionStore struct {
	driver *Driver
}

func NewPermissionStore(driver *Driver) *PermissionStore {
	return &PermissionStore{driver: driver}
}

func (s *PermissionStore) grant(association, username, baseURI string) error {
	var user User
	err := s.driver.db.Where("username = ?", username).First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		// Tolerant no-op: unknown users and base URIs are skipped, not
		// reported as errors.
		return nil
	}
	if err != nil {
		return err
	}

	var bu BaseURI
	err = s.driver.db.Where("base_uri = ?", baseURI).First(&bu).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil
	}
	if err != nil {
		return err
	}

	// Append on a many2many association only creates the edge when it
	// is missing, so grants are idempotent.
	return s.driver.db.Model(&user).Association(association).Append(&bu).Error
}

func (s *PermissionStore) GrantSearch(username, baseURI string) error {
	return s.grant("SearchBaseURIs", username, baseURI)
}

func (s *PermissionStore) GrantRegister(username, baseURI string) error {
	return s.grant("RegisterBaseURIs", username, baseURI)
}

func (s *PermissionStore) can(joinTable, username, baseURI string) (bool, error) {
	var n int
	err := s.driver.db.
		Table(joinTable).
		Joins("JOIN users ON users.id = "+joinTable+".user_id").
		Joins("JOIN base_uris ON base_uris.id = "+joinTable+".base_uri_id").
		Where("users.username = ? AND base_uris.base_uri = ?", username, baseURI).
		Count(&n).
		Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PermissionStore) CanSearch(username, baseURI string) (bool, error) {
	return s.can("search_permissions", username, baseURI)
}

func (s *PermissionStore) CanRegister(username, baseURI string) (bool, error) {
	return s.can("register_permissions", username, baseURI)
}

func (s *PermissionStore) scope(association, username string) ([]datanet.BaseURI, error) {
	var user User
	err := s.driver.db.Where("username = ?", username).First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		return make([]datanet.BaseURI, 0), nil
	}
	if err != nil {
		return nil, err
	}

	var dbBaseURIs []BaseURI
	if err := s.driver.db.Model(&user).Association(association).Find(&dbBaseURIs).Error; err != nil {
		return nil, err
	}

	baseURIs := make([]datanet.BaseURI, len(dbBaseURIs))
	for i, baseURI := range dbBaseURIs {
		baseURIs[i] = baseURI.format()
	}
	return baseURIs, nil
}

func (s *PermissionStore) SearchScope(username string) ([]datanet.BaseURI, error) {
	return s.scope("SearchBaseURIs", username)
}

func (s *PermissionStore) RegisterScope(username string) ([]datanet.BaseURI, error) {
	return s.scope("RegisterBaseURIs", username)
}

func (s *PermissionStore) usernames(joinTable, baseURI string) ([]string, error) {
	usernames := make([]string, 0)
	err := s.driver.db.
		Table(joinTable).
		Joins("JOIN users ON users.id = "+joinTable+".user_id").
		Joins("JOIN base_uris ON base_uris.id = "+joinTable+".base_uri_id").
		Where("base_uris.base_uri = ?", baseURI).
		Order("users.username").
		Pluck("users.username", &usernames).
		Error
	if err != nil {
		return nil, err
	}
	return usernames, nil
}

func (s *PermissionStore) Permissions(baseURI string) (*datanet.BaseURIPermissions, error) {
	search, err := s.usernames("search_permissions", baseURI)
	if err != nil {
		return nil, err
	}
	register, err := s.usernames("register_permissions", baseURI)
	if err != nil {
		return nil, err
	}

	return &datanet.BaseURIPermissions{
		BaseURI:                      baseURI,
		UsersWithSearchPermissions:   search,
		UsersWithRegisterPermissions: register,
	}, nil
}
