package mysql

import (
	"fmt"

	"github.com/jinzhu/gorm"

	"github.com/bobinette/datanet"
	"github.com/bobinette/datanet/errors"
)

// BaseURIStore implements datanet.BaseURIStore on the mysql driver.
// It stores URIs as given: canonicalization is the caller's job.
type BaseURIStore struct {
	driver *Driver
}

func NewBaseURIStore(driver *Driver) *BaseURIStore {
	return &BaseURIStore{driver: driver}
}

func (s *BaseURIStore) Get(uri string) (*datanet.BaseURI, error) {
	var baseURI BaseURI
	err := s.driver.db.Where("base_uri = ?", uri).First(&baseURI).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	bu := baseURI.format()
	return &bu, nil
}

func (s *BaseURIStore) Register(uri string) (*datanet.BaseURI, error) {
	baseURI := BaseURI{URI: uri}
	if err := s.driver.db.Create(&baseURI).Error; err != nil {
		if isDuplicateEntry(err) {
			return nil, errors.New(fmt.Sprintf("Base URI %s already registered", uri), errors.Conflict())
		}
		return nil, err
	}

	bu := baseURI.format()
	return &bu, nil
}

func (s *BaseURIStore) List() ([]datanet.BaseURI, error) {
	var dbBaseURIs []BaseURI
	if err := s.driver.db.Order("base_uri").Find(&dbBaseURIs).Error; err != nil {
		return nil, err
	}

	baseURIs := make([]datanet.BaseURI, len(dbBaseURIs))
	for i, baseURI := range dbBaseURIs {
		baseURIs[i] = baseURI.format()
	}
	return baseURIs, nil
}
