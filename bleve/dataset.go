package bleve

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DatasetIndex is the free-text index over dataset names and readmes.
// Documents are indexed under their URI, which is what Search returns.
type DatasetIndex struct {
	index bleve.Index
}

// Open opens the index at path, creating it with the dataset mapping if
// it does not exist yet.
func (s *DatasetIndex) Open(path string) error {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, indexMapping())
	}
	if err != nil {
		return err
	}

	s.index = index
	return nil
}

func (s *DatasetIndex) Close() error {
	if s.index == nil {
		return nil
	}

	return s.index.Close()
}

func indexMapping() mapping.IndexMapping {
	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = simple.Name

	readmeField := bleve.NewTextFieldMapping()
	readmeField.Analyzer = en.AnalyzerName

	datasetMapping := bleve.NewDocumentMapping()
	datasetMapping.AddFieldMappingsAt("name", nameField)
	datasetMapping.AddFieldMappingsAt("readme", readmeField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = datasetMapping
	return m
}

func (s *DatasetIndex) Index(uri, name, readme string) error {
	data := map[string]interface{}{
		"name":   name,
		"readme": readme,
	}

	return s.index.Index(uri, data)
}

func (s *DatasetIndex) Delete(uri string) error {
	return s.index.Delete(uri)
}

func (s *DatasetIndex) Search(q string) ([]string, error) {
	searchRequest := bleve.NewSearchRequest(andQ(
		query.NewMatchAllQuery(),
		s.searchNameOrReadme(q),
	))
	searchRequest.SortBy([]string{"_id"})
	searchRequest.Size = 100

	searchResults, err := s.index.Search(searchRequest)
	if err != nil {
		return nil, err
	}

	uris := make([]string, len(searchResults.Hits))
	for i, hit := range searchResults.Hits {
		uris[i] = hit.ID
	}
	return uris, nil
}

// searchNameOrReadme matches every word of queryString against the name
// or the readme of a dataset.
func (s *DatasetIndex) searchNameOrReadme(queryString string) query.Query {
	words := strings.Fields(queryString)
	if len(words) == 0 {
		return nil
	}

	qs := make([]query.Query, 0, len(words))
	for _, word := range words {
		nameQ := bleve.NewMatchQuery(word)
		nameQ.SetField("name")

		readmeQ := bleve.NewMatchQuery(word)
		readmeQ.SetField("readme")

		qs = append(qs, orQ(nameQ, readmeQ))
	}
	return andQ(qs...)
}

func andQ(qs ...query.Query) query.Query {
	ands := make([]query.Query, 0, len(qs))
	for _, q := range qs {
		if q != nil {
			ands = append(ands, q)
		}
	}

	if len(ands) == 0 {
		return nil
	}
	return query.NewConjunctionQuery(ands)
}

func orQ(qs ...query.Query) query.Query {
	ors := make([]query.Query, 0, len(qs))
	for _, q := range qs {
		if q != nil {
			ors = append(ors, q)
		}
	}

	if len(ors) == 0 {
		return nil
	}
	return query.NewDisjunctionQuery(ors)
}
