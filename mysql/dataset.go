package mysql

import (
	"fmt"

	"github.com/jinzhu/gorm"

	"github.com/bobinette/datanet"
	"github.com/bobinette/datanet/errors"
)

// DatasetStore implements datanet.DatasetStore on the mysql driver.
type DatasetStore struct {
	driver *Driver
}

func NewDatasetStore(driver *Driver) *DatasetStore {
	return &DatasetStore{driver: driver}
}

const datasetColumns = "datasets.uuid, datasets.uri, base_uris.base_uri, datasets.name"

func (s *DatasetStore) GetByURI(uri string) (*datanet.Dataset, error) {
	var rows []datasetRow
	err := s.driver.db.
		Table("datasets").
		Select(datasetColumns).
		Joins("JOIN base_uris ON base_uris.id = datasets.base_uri_id").
		Where("datasets.uri = ?", uri).
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	dataset := rows[0].format()
	return &dataset, nil
}

func (s *DatasetStore) Insert(dataset *datanet.Dataset) error {
	var baseURI BaseURI
	err := s.driver.db.Where("base_uri = ?", dataset.BaseURI).First(&baseURI).Error
	if gorm.IsRecordNotFoundError(err) {
		return errors.New(fmt.Sprintf("Base URI %s not registered", dataset.BaseURI), errors.BadRequest())
	}
	if err != nil {
		return err
	}

	row := Dataset{
		UUID:      dataset.UUID,
		URI:       dataset.URI,
		BaseURIID: baseURI.ID,
		Name:      dataset.Name,
	}
	if err := s.driver.db.Create(&row).Error; err != nil {
		if isDuplicateEntry(err) {
			// Concurrent registration of the same unseen URI: the
			// unique index arbitrates, the loser retries.
			return errors.New(fmt.Sprintf("dataset %s already registered", dataset.URI), errors.Conflict())
		}
		return err
	}
	return nil
}

func (s *DatasetStore) ListForBaseURI(baseURI string) ([]datanet.Dataset, error) {
	var rows []datasetRow
	err := s.driver.db.
		Table("datasets").
		Select(datasetColumns).
		Joins("JOIN base_uris ON base_uris.id = datasets.base_uri_id").
		Where("base_uris.base_uri = ?", baseURI).
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}

	datasets := make([]datanet.Dataset, len(rows))
	for i, row := range rows {
		datasets[i] = row.format()
	}
	return datasets, nil
}

// LookupByUUID is the permission-scoped lookup: one join across the
// datasets, their base URIs and the user's search edges, so an
// out-of-scope dataset never leaves the database.
func (s *DatasetStore) LookupByUUID(username, uuid string) ([]datanet.Dataset, error) {
	var rows []datasetRow
	err := s.driver.db.
		Table("datasets").
		Select(datasetColumns).
		Joins("JOIN base_uris ON base_uris.id = datasets.base_uri_id").
		Joins("JOIN search_permissions ON search_permissions.base_uri_id = base_uris.id").
		Joins("JOIN users ON users.id = search_permissions.user_id").
		Where("datasets.uuid = ? AND users.username = ?", uuid, username).
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}

	datasets := make([]datanet.Dataset, len(rows))
	for i, row := range rows {
		datasets[i] = row.format()
	}
	return datasets, nil
}

func (s *DatasetStore) Count() (int, error) {
	var n int
	if err := s.driver.db.Model(&Dataset{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
