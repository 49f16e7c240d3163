package mysql

import (
	"fmt"

	"github.com/jinzhu/gorm"

	"github.com/bobinette/datanet"
	"github.com/bobinette/datanet/errors"
)

// UserStore implements datanet.UserStore on the mysql driver.
type UserStore struct {
	driver *Driver
}

func NewUserStore(driver *Driver) *UserStore {
	return &UserStore{driver: driver}
}

func (s *UserStore) Get(username string) (*datanet.User, error) {
	var user User
	err := s.driver.db.Where("username = ?", username).First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u := user.format()
	return &u, nil
}

func (s *UserStore) List() ([]datanet.User, error) {
	var dbUsers []User
	if err := s.driver.db.Order("username").Find(&dbUsers).Error; err != nil {
		return nil, err
	}

	users := make([]datanet.User, len(dbUsers))
	for i, user := range dbUsers {
		users[i] = user.format()
	}
	return users, nil
}

func (s *UserStore) Register(users []datanet.UserRegistration) ([]string, error) {
	skipped := make([]string, 0)
	for _, reg := range users {
		var existing User
		err := s.driver.db.Where("username = ?", reg.Username).First(&existing).Error
		if err == nil {
			skipped = append(skipped, reg.Username)
			continue
		}
		if !gorm.IsRecordNotFoundError(err) {
			return nil, err
		}

		user := User{Username: reg.Username, IsAdmin: reg.IsAdmin}
		if err := s.driver.db.Create(&user).Error; err != nil {
			if isDuplicateEntry(err) {
				// Lost a race against a concurrent registration of the
				// same username: that is a skip, not a failure.
				skipped = append(skipped, reg.Username)
				continue
			}
			return nil, err
		}
	}
	return skipped, nil
}

func (s *UserStore) SetAdmin(username string, isAdmin bool) error {
	res := s.driver.db.Model(&User{}).Where("username = ?", username).Update("is_admin", isAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the user does not exist or the flag already had this
		// value: disambiguate before erroring.
		var user User
		err := s.driver.db.Where("username = ?", username).First(&user).Error
		if gorm.IsRecordNotFoundError(err) {
			return errors.New(fmt.Sprintf("unknown user %s", username), errors.NotFound())
		}
		return err
	}
	return nil
}
