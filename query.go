package datanet

import (
	"context"
	"fmt"

	"github.com/bobinette/datanet/errors"
)

// QueryService answers list, search and lookup requests scoped to
// exactly the base URIs the requesting user holds a search grant on.
type QueryService struct {
	users       UserStore
	datasets    DatasetStore
	documents   DocumentStore
	permissions PermissionStore
	index       DatasetIndex
}

// NewQueryService creates a query service. index may be nil; free-text
// search then returns a 501 error.
func NewQueryService(
	users UserStore,
	datasets DatasetStore,
	documents DocumentStore,
	permissions PermissionStore,
	index DatasetIndex,
) *QueryService {
	return &QueryService{
		users:       users,
		datasets:    datasets,
		documents:   documents,
		permissions: permissions,
		index:       index,
	}
}

func (s *QueryService) authenticate(username string) (*User, error) {
	user, err := s.users.Get(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(fmt.Sprintf("unknown user %s", username), errors.Unauthorized())
	}
	return user, nil
}

// List returns the admin records of every dataset in the user's search
// scope. An empty scope yields an empty list, an unknown user a 401.
func (s *QueryService) List(ctx context.Context, username string) ([]Dataset, error) {
	if _, err := s.authenticate(username); err != nil {
		return nil, err
	}

	scope, err := s.permissions.SearchScope(username)
	if err != nil {
		return nil, err
	}

	datasets := make([]Dataset, 0)
	for _, baseURI := range scope {
		ds, err := s.datasets.ListForBaseURI(baseURI.URI)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds...)
	}
	return datasets, nil
}

// Search runs query against the document store once per base URI in the
// user's search scope, with base_uri pinned to that URI, and
// concatenates the results in scope order. A valid user with an empty
// scope gets an empty list, not an error.
func (s *QueryService) Search(ctx context.Context, username string, query Document) ([]Document, error) {
	if _, err := s.authenticate(username); err != nil {
		return nil, err
	}

	scope, err := s.permissions.SearchScope(username)
	if err != nil {
		return nil, err
	}

	documents := make([]Document, 0)
	for _, baseURI := range scope {
		scopedQuery := query.Copy()
		scopedQuery["base_uri"] = baseURI.URI

		docs, err := s.documents.Find(ctx, scopedQuery)
		if err != nil {
			return nil, err
		}
		documents = append(documents, docs...)
	}
	return documents, nil
}

// LookupByUUID returns the admin records matching uuid within the
// user's search scope. The scoping is part of the store join: a dataset
// outside the scope never appears, even on a UUID match.
func (s *QueryService) LookupByUUID(ctx context.Context, username, uuid string) ([]Dataset, error) {
	if _, err := s.authenticate(username); err != nil {
		return nil, err
	}

	return s.datasets.LookupByUUID(username, uuid)
}

// SearchText runs a free-text query against the dataset index and
// resolves the hits through the document store, keeping only documents
// whose base URI lies in the user's search scope.
func (s *QueryService) SearchText(ctx context.Context, username, q string) ([]Document, error) {
	if _, err := s.authenticate(username); err != nil {
		return nil, err
	}
	if s.index == nil {
		return nil, errors.New("free-text search is not enabled", errors.WithCode(501))
	}

	scope, err := s.permissions.SearchScope(username)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(scope))
	for _, baseURI := range scope {
		allowed[baseURI.URI] = true
	}

	uris, err := s.index.Search(q)
	if err != nil {
		return nil, err
	}

	documents := make([]Document, 0)
	for _, uri := range uris {
		doc, err := s.documents.FindOne(ctx, Document{"uri": uri})
		if err != nil {
			return nil, err
		}
		if doc == nil || !allowed[doc.String("base_uri")] {
			continue
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

// Count returns the number of registered admin records.
func (s *QueryService) Count(ctx context.Context) (int, error) {
	return s.datasets.Count()
}

// Readme returns the readme of the document registered at uri.
func (s *QueryService) Readme(ctx context.Context, uri string) (string, error) {
	doc, err := s.documents.FindOne(ctx, Document{"uri": uri})
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", errors.New(fmt.Sprintf("no dataset registered at %s", uri), errors.NotFound())
	}
	return doc.String("readme"), nil
}
