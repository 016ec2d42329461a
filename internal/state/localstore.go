package state

import (
	"encoding/json"
	"errors"

	"socialflow/internal/models"

	"gorm.io/gorm"
)

// Persisted selection keys. Plain string/JSON values with no versioning;
// unknown or stale values are treated as absent rather than migrated.
const (
	KeyCurrentOrganization = "currentOrganizationId"
	KeyCurrentBrand        = "currentBrandId"
	KeyCompletedTours      = "socialflow_completed_tours"
	KeyIsNewUser           = "socialflow_is_new_user"
	KeyUser                = "user"
)

// LocalStore is the persisted client-state store backed by the settings
// table: the durable analog of the dashboard's local storage.
type LocalStore struct {
	db *gorm.DB
}

func NewLocalStore(db *gorm.DB) *LocalStore {
	return &LocalStore{db: db}
}

// Get returns the stored value for a key, or ok=false when absent.
func (s *LocalStore) Get(key string) (string, bool) {
	var setting models.Setting
	if err := s.db.Where("key = ?", key).First(&setting).Error; err != nil {
		return "", false
	}
	return setting.Value, true
}

// Set writes a key, last write wins.
func (s *LocalStore) Set(key, value string) error {
	return s.db.Save(&models.Setting{Key: key, Value: value}).Error
}

// Delete removes a key; deleting an absent key is not an error.
func (s *LocalStore) Delete(key string) error {
	err := s.db.Delete(&models.Setting{}, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// GetJSON unmarshals a stored JSON value into out.
func (s *LocalStore) GetJSON(key string, out interface{}) bool {
	value, ok := s.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(value), out) == nil
}

// SetJSON stores a value as JSON.
func (s *LocalStore) SetJSON(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(key, string(data))
}
