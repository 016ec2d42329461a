package state

import (
	"errors"
	"fmt"
	"sync"

	"socialflow/internal/models"

	"gorm.io/gorm"
)

// User is the serialized profile kept in the local store for session
// restore.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// AuthProvider holds the current user. Absence of a stored identity means
// logged out, never an error.
type AuthProvider struct {
	mu      sync.RWMutex
	store   *LocalStore
	current *User
}

func NewAuthProvider(store *LocalStore) *AuthProvider {
	p := &AuthProvider{store: store}
	var u User
	if store.GetJSON(KeyUser, &u) && u.ID != "" {
		p.current = &u
	}
	return p
}

// CurrentUser returns the logged-in user or nil.
func (p *AuthProvider) CurrentUser() *User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Login stores the user in memory and persists the serialized profile.
func (p *AuthProvider) Login(u User) error {
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = &u
	return p.store.SetJSON(KeyUser, u)
}

// Logout clears the in-memory user and the persisted profile and selection
// keys.
func (p *AuthProvider) Logout() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	for _, key := range []string{KeyUser, KeyCurrentOrganization, KeyCurrentBrand} {
		if err := p.store.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// OrganizationProvider holds the current organization selection and the
// organization collection. Mutations re-fetch the whole collection rather
// than patching local state, trading a round trip for consistency.
type OrganizationProvider struct {
	mu      sync.RWMutex
	db      *gorm.DB
	store   *LocalStore
	current *models.Organization
	list    []models.Organization
}

func NewOrganizationProvider(db *gorm.DB, store *LocalStore) *OrganizationProvider {
	p := &OrganizationProvider{db: db, store: store}
	p.Refresh()
	if id, ok := store.Get(KeyCurrentOrganization); ok {
		// stale selections are dropped silently
		p.Select(id)
	}
	return p
}

// Refresh reloads the organization collection. A missing table or empty
// result resets to an empty list without surfacing an error.
func (p *OrganizationProvider) Refresh() {
	var orgs []models.Organization
	if err := p.db.Order("created_at").Find(&orgs).Error; err != nil {
		orgs = nil
	}
	p.mu.Lock()
	p.list = orgs
	p.mu.Unlock()
}

// List returns the cached organization collection.
func (p *OrganizationProvider) List() []models.Organization {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Organization, len(p.list))
	copy(out, p.list)
	return out
}

// Current returns the selected organization or nil.
func (p *OrganizationProvider) Current() *models.Organization {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Select makes an organization current and persists the selection.
func (p *OrganizationProvider) Select(id string) error {
	var org models.Organization
	if err := p.db.Where("id = ?", id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("organization %s not found", id)
		}
		return err
	}
	p.mu.Lock()
	p.current = &org
	p.mu.Unlock()
	return p.store.Set(KeyCurrentOrganization, id)
}

// Create inserts an organization and re-fetches the collection.
func (p *OrganizationProvider) Create(org models.Organization) error {
	if err := p.db.Create(&org).Error; err != nil {
		return err
	}
	p.Refresh()
	return nil
}

// BrandProvider mirrors OrganizationProvider for brands, scoped to the
// current organization.
type BrandProvider struct {
	mu      sync.RWMutex
	db      *gorm.DB
	store   *LocalStore
	orgs    *OrganizationProvider
	current *models.Brand
	list    []models.Brand
}

func NewBrandProvider(db *gorm.DB, store *LocalStore, orgs *OrganizationProvider) *BrandProvider {
	p := &BrandProvider{db: db, store: store, orgs: orgs}
	p.Refresh()
	if id, ok := store.Get(KeyCurrentBrand); ok {
		p.Select(id)
	}
	return p
}

// Refresh reloads the brand collection for the current organization.
func (p *BrandProvider) Refresh() {
	var brands []models.Brand
	if org := p.orgs.Current(); org != nil {
		if err := p.db.Where("organization_id = ?", org.ID).Order("created_at").Find(&brands).Error; err != nil {
			brands = nil
		}
	}
	p.mu.Lock()
	p.list = brands
	// drop the selection if it left the collection
	if p.current != nil {
		found := false
		for i := range brands {
			if brands[i].ID == p.current.ID {
				p.current = &brands[i]
				found = true
				break
			}
		}
		if !found {
			p.current = nil
		}
	}
	p.mu.Unlock()
}

func (p *BrandProvider) List() []models.Brand {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Brand, len(p.list))
	copy(out, p.list)
	return out
}

func (p *BrandProvider) Current() *models.Brand {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Select makes a brand current and persists the selection.
func (p *BrandProvider) Select(id string) error {
	var brand models.Brand
	if err := p.db.Where("id = ?", id).First(&brand).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("brand %s not found", id)
		}
		return err
	}
	p.mu.Lock()
	p.current = &brand
	p.mu.Unlock()
	return p.store.Set(KeyCurrentBrand, id)
}

// Create inserts a brand under the current organization and re-fetches.
func (p *BrandProvider) Create(brand models.Brand) error {
	org := p.orgs.Current()
	if org == nil {
		return fmt.Errorf("no organization selected")
	}
	brand.OrganizationID = org.ID
	if err := p.db.Create(&brand).Error; err != nil {
		return err
	}
	p.Refresh()
	return nil
}
