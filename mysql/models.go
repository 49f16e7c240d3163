package mysql

import (
	"strings"

	"github.com/bobinette/datanet"
)

type User struct {
	ID       uint   `gorm:"primary_key"`
	Username string `gorm:"column:username;type:varchar(255);unique_index"`
	IsAdmin  bool   `gorm:"column:is_admin"`

	SearchBaseURIs   []BaseURI `gorm:"many2many:search_permissions;jointable_foreignkey:user_id;association_jointable_foreignkey:base_uri_id"`
	RegisterBaseURIs []BaseURI `gorm:"many2many:register_permissions;jointable_foreignkey:user_id;association_jointable_foreignkey:base_uri_id"`
}

func (u User) format() datanet.User {
	return datanet.User{
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
	}
}

type BaseURI struct {
	ID  uint   `gorm:"primary_key"`
	URI string `gorm:"column:base_uri;type:varchar(255);unique_index"`
}

func (BaseURI) TableName() string {
	return "base_uris"
}

func (b BaseURI) format() datanet.BaseURI {
	return datanet.BaseURI{URI: b.URI}
}

type Dataset struct {
	ID        uint   `gorm:"primary_key"`
	UUID      string `gorm:"column:uuid;type:char(36);index"`
	URI       string `gorm:"column:uri;type:varchar(255);unique_index"`
	BaseURIID uint   `gorm:"column:base_uri_id;index"`
	Name      string `gorm:"column:name;type:varchar(255)"`
}

// datasetRow is the shape of the admin-record queries, which join
// datasets with base_uris to carry the base URI string.
type datasetRow struct {
	UUID    string
	URI     string
	BaseURI string
	Name    string
}

func (r datasetRow) format() datanet.Dataset {
	return datanet.Dataset{
		UUID:    r.UUID,
		URI:     r.URI,
		BaseURI: r.BaseURI,
		Name:    r.Name,
	}
}

// isDuplicateEntry reports whether err is the MySQL duplicate-key error
// (1062), i.e. a unique index rejected the write.
func isDuplicateEntry(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
