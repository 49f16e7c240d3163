package datanet

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/bobinette/datanet/errors"
)

// InMemAdminDB is the shared state behind the in-memory admin stores,
// for tests and development. The four stores wrap it the way the mysql
// stores wrap their driver.
type InMemAdminDB struct {
	mu sync.Mutex

	users    []User
	baseURIs []BaseURI
	datasets []Dataset

	searchEdges   map[string]map[string]bool
	registerEdges map[string]map[string]bool
}

func NewInMemAdminDB() *InMemAdminDB {
	return &InMemAdminDB{
		users:         make([]User, 0),
		baseURIs:      make([]BaseURI, 0),
		datasets:      make([]Dataset, 0),
		searchEdges:   make(map[string]map[string]bool),
		registerEdges: make(map[string]map[string]bool),
	}
}

func (db *InMemAdminDB) getUser(username string) *User {
	for _, user := range db.users {
		if user.Username == username {
			u := user
			return &u
		}
	}
	return nil
}

func (db *InMemAdminDB) getBaseURI(uri string) *BaseURI {
	for _, baseURI := range db.baseURIs {
		if baseURI.URI == uri {
			bu := baseURI
			return &bu
		}
	}
	return nil
}

type InMemUserStore struct {
	DB *InMemAdminDB
}

func (s *InMemUserStore) Get(username string) (*User, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	return s.DB.getUser(username), nil
}

func (s *InMemUserStore) List() ([]User, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	users := make([]User, len(s.DB.users))
	copy(users, s.DB.users)
	return users, nil
}

func (s *InMemUserStore) Register(users []UserRegistration) ([]string, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	skipped := make([]string, 0)
	for _, reg := range users {
		if s.DB.getUser(reg.Username) != nil {
			skipped = append(skipped, reg.Username)
			continue
		}
		s.DB.users = append(s.DB.users, User{Username: reg.Username, IsAdmin: reg.IsAdmin})
	}
	return skipped, nil
}

func (s *InMemUserStore) SetAdmin(username string, isAdmin bool) error {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	for i, user := range s.DB.users {
		if user.Username == username {
			s.DB.users[i].IsAdmin = isAdmin
			return nil
		}
	}
	return errors.New(fmt.Sprintf("unknown user %s", username), errors.NotFound())
}

type InMemBaseURIStore struct {
	DB *InMemAdminDB
}

func (s *InMemBaseURIStore) Get(uri string) (*BaseURI, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	return s.DB.getBaseURI(uri), nil
}

func (s *InMemBaseURIStore) Register(uri string) (*BaseURI, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	if bu := s.DB.getBaseURI(uri); bu != nil {
		return nil, errors.New(fmt.Sprintf("Base URI %s already registered", uri), errors.Conflict())
	}

	baseURI := BaseURI{URI: uri}
	s.DB.baseURIs = append(s.DB.baseURIs, baseURI)
	return &baseURI, nil
}

func (s *InMemBaseURIStore) List() ([]BaseURI, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	baseURIs := make([]BaseURI, len(s.DB.baseURIs))
	copy(baseURIs, s.DB.baseURIs)
	return baseURIs, nil
}

type InMemDatasetStore struct {
	DB *InMemAdminDB
}

func (s *InMemDatasetStore) GetByURI(uri string) (*Dataset, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	for _, dataset := range s.DB.datasets {
		if dataset.URI == uri {
			ds := dataset
			return &ds, nil
		}
	}
	return nil, nil
}

func (s *InMemDatasetStore) Insert(dataset *Dataset) error {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	for _, ds := range s.DB.datasets {
		if ds.URI == dataset.URI {
			return errors.New(fmt.Sprintf("dataset %s already registered", dataset.URI), errors.Conflict())
		}
	}
	s.DB.datasets = append(s.DB.datasets, *dataset)
	return nil
}

func (s *InMemDatasetStore) ListForBaseURI(baseURI string) ([]Dataset, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	datasets := make([]Dataset, 0)
	for _, dataset := range s.DB.datasets {
		if dataset.BaseURI == baseURI {
			datasets = append(datasets, dataset)
		}
	}
	return datasets, nil
}

func (s *InMemDatasetStore) LookupByUUID(username, uuid string) ([]Dataset, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	scope := s.DB.searchEdges[username]

	datasets := make([]Dataset, 0)
	for _, dataset := range s.DB.datasets {
		if dataset.UUID == uuid && scope[dataset.BaseURI] {
			datasets = append(datasets, dataset)
		}
	}
	return datasets, nil
}

func (s *InMemDatasetStore) Count() (int, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	return len(s.DB.datasets), nil
}

type InMemPermissionStore struct {
	DB *InMemAdminDB
}

func (s *InMemPermissionStore) grant(edges map[string]map[string]bool, username, baseURI string) {
	if s.DB.getUser(username) == nil || s.DB.getBaseURI(baseURI) == nil {
		// Tolerant no-op, matching the relational store.
		return
	}

	if edges[username] == nil {
		edges[username] = make(map[string]bool)
	}
	edges[username][baseURI] = true
}

func (s *InMemPermissionStore) GrantSearch(username, baseURI string) error {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	s.grant(s.DB.searchEdges, username, baseURI)
	return nil
}

func (s *InMemPermissionStore) GrantRegister(username, baseURI string) error {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	s.grant(s.DB.registerEdges, username, baseURI)
	return nil
}

func (s *InMemPermissionStore) CanSearch(username, baseURI string) (bool, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	return s.DB.searchEdges[username][baseURI], nil
}

func (s *InMemPermissionStore) CanRegister(username, baseURI string) (bool, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	return s.DB.registerEdges[username][baseURI], nil
}

func (s *InMemPermissionStore) scope(edges map[string]map[string]bool, username string) []BaseURI {
	// Iterate the registration order so scopes are stable.
	scope := make([]BaseURI, 0)
	for _, baseURI := range s.DB.baseURIs {
		if edges[username][baseURI.URI] {
			scope = append(scope, baseURI)
		}
	}
	return scope
}

func (s *InMemPermissionStore) SearchScope(username string) ([]BaseURI, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	return s.scope(s.DB.searchEdges, username), nil
}

func (s *InMemPermissionStore) RegisterScope(username string) ([]BaseURI, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	return s.scope(s.DB.registerEdges, username), nil
}

func (s *InMemPermissionStore) Permissions(baseURI string) (*BaseURIPermissions, error) {
	s.DB.mu.Lock()
	defer s.DB.mu.Unlock()

	permissions := BaseURIPermissions{
		BaseURI:                      baseURI,
		UsersWithSearchPermissions:   make([]string, 0),
		UsersWithRegisterPermissions: make([]string, 0),
	}
	for _, user := range s.DB.users {
		if s.DB.searchEdges[user.Username][baseURI] {
			permissions.UsersWithSearchPermissions = append(permissions.UsersWithSearchPermissions, user.Username)
		}
		if s.DB.registerEdges[user.Username][baseURI] {
			permissions.UsersWithRegisterPermissions = append(permissions.UsersWithRegisterPermissions, user.Username)
		}
	}
	return &permissions, nil
}

// InMemDocumentStore is an in-memory DocumentStore.
type InMemDocumentStore struct {
	mu        sync.Mutex
	documents []Document
}

func NewInMemDocumentStore() *InMemDocumentStore {
	return &InMemDocumentStore{
		documents: make([]Document, 0),
	}
}

// Matches reports whether doc carries every field of query with an
// equal value.
func Matches(doc, query Document) bool {
	for key, value := range query {
		if !reflect.DeepEqual(doc[key], value) {
			return false
		}
	}
	return true
}

func (s *InMemDocumentStore) FindOne(ctx context.Context, query Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.documents {
		if Matches(doc, query) {
			return doc.Copy(), nil
		}
	}
	return nil, nil
}

func (s *InMemDocumentStore) Find(ctx context.Context, query Document) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]Document, 0)
	for _, doc := range s.documents {
		if Matches(doc, query) {
			docs = append(docs, doc.Copy())
		}
	}
	return docs, nil
}

func (s *InMemDocumentStore) Upsert(ctx context.Context, uuid, uri string, doc Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := doc.Copy()
	for i, existing := range s.documents {
		if existing.String("uuid") == uuid && existing.String("uri") == uri {
			s.documents[i] = stored
			return doc, nil
		}
	}
	s.documents = append(s.documents, stored)
	return doc, nil
}

func (s *InMemDocumentStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.documents)), nil
}

// InMemIndex is an in-memory DatasetIndex matching on substrings.
type InMemIndex struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewInMemIndex() *InMemIndex {
	return &InMemIndex{
		entries: make(map[string]string),
	}
}

func (s *InMemIndex) Index(uri, name, readme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[uri] = strings.ToLower(name + " " + readme)
	return nil
}

func (s *InMemIndex) Search(q string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q = strings.ToLower(q)
	uris := make([]string, 0)
	for uri, text := range s.entries {
		if strings.Contains(text, q) {
			uris = append(uris, uri)
		}
	}
	return uris, nil
}

func (s *InMemIndex) Delete(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, uri)
	return nil
}

func (s *InMemIndex) Close() error {
	return nil
}
