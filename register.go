package datanet

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobinette/datanet/errors"
	"github.com/bobinette/datanet/log"
)

// ValidateDatasetInfo checks that a registration payload is acceptable:
// all required keys present, type is "dataset" (protodatasets are
// rejected), the UUID has exactly 36 characters and the base URI is
// canonical, i.e. carries no trailing slash.
func ValidateDatasetInfo(info Document) error {
	for _, key := range RequiredKeys {
		if _, ok := info[key]; !ok {
			return errors.New(fmt.Sprintf("dataset info not valid: missing key %s", key), errors.BadRequest())
		}
	}

	if info.String("type") != "dataset" {
		return errors.New("dataset info not valid: type must be dataset", errors.BadRequest())
	}

	if len(info.String("uuid")) != 36 {
		return errors.New("dataset info not valid: uuid must have 36 characters", errors.BadRequest())
	}

	if strings.HasSuffix(info.String("base_uri"), "/") {
		return errors.New("dataset info not valid: base URI must have no trailing slash", errors.BadRequest())
	}

	return nil
}

// RegistrationService reconciles a registration across the admin store
// and the document store. There is no cross-store transaction: a failed
// document write after the admin record was created leaves a window the
// next registration of the same URI closes.
type RegistrationService struct {
	baseURIs  BaseURIStore
	datasets  DatasetStore
	documents DocumentStore
	index     DatasetIndex
	logger    log.Logger
}

// NewRegistrationService creates a registration service. index may be
// nil, in which case registrations are simply not indexed for free-text
// search.
func NewRegistrationService(
	baseURIs BaseURIStore,
	datasets DatasetStore,
	documents DocumentStore,
	index DatasetIndex,
	logger log.Logger,
) *RegistrationService {
	return &RegistrationService{
		baseURIs:  baseURIs,
		datasets:  datasets,
		documents: documents,
		index:     index,
		logger:    logger,
	}
}

// Register validates info, makes sure its base URI is registered,
// creates the admin record if the URI is unseen, and upserts the
// descriptive document under (uuid, uri). It returns the dataset URI as
// the success token. Nothing is written on a validation failure. An
// admin insert losing a duplicate-URI race surfaces as a 409 error and
// the whole registration can be retried.
func (s *RegistrationService) Register(ctx context.Context, info Document) (string, error) {
	if err := ValidateDatasetInfo(info); err != nil {
		return "", err
	}

	baseURI := info.String("base_uri")
	bu, err := s.baseURIs.Get(baseURI)
	if err != nil {
		return "", err
	}
	if bu == nil {
		return "", errors.New(fmt.Sprintf("Base URI %s not registered", baseURI), errors.BadRequest())
	}

	uri := info.String("uri")
	existing, err := s.datasets.GetByURI(uri)
	if err != nil {
		return "", err
	}
	if existing == nil {
		dataset := Dataset{
			UUID:    info.String("uuid"),
			URI:     uri,
			BaseURI: baseURI,
			Name:    info.String("name"),
		}
		if err := s.datasets.Insert(&dataset); err != nil {
			return "", err
		}
	}

	if _, err := s.documents.Upsert(ctx, info.String("uuid"), uri, info); err != nil {
		return "", err
	}

	if s.index != nil {
		// Best effort: the index can be rebuilt from the document
		// store, a failure here must not fail the registration.
		if err := s.index.Index(uri, info.String("name"), info.String("readme")); err != nil {
			s.logger.Errorf("could not index dataset %s: %v", uri, err)
		}
	}

	return uri, nil
}
