package csi

import (
	"encoding/json"
	"time"
)

// IndexPath selects the collection to search and the index used for it
type IndexPath struct {
	Namespace  string `json:"namespace"`
	Collection string `json:"collection"`
	Index      string `json:"index"`
}

// NewIndexPath creates an index path
func NewIndexPath(namespace, collection, index string) IndexPath {
	return IndexPath{Namespace: namespace, Collection: collection, Index: index}
}

// DocumentPath locates a document in the document index
type DocumentPath struct {
	Namespace  string `json:"namespace"`
	Collection string `json:"collection"`
	Name       string `json:"name"`
}

// NewDocumentPath creates a document path
func NewDocumentPath(namespace, collection, name string) DocumentPath {
	return DocumentPath{Namespace: namespace, Collection: collection, Name: name}
}

// SearchRequest is a semantic search query against an index
type SearchRequest struct {
	Query      string         `json:"query"`
	IndexPath  IndexPath      `json:"index_path"`
	MaxResults uint32         `json:"max_results"`
	MinScore   *float64       `json:"min_score" jsonschema:"nullable"`
	Filters    []SearchFilter `json:"filters" jsonschema:"nullable"`
}

// NewSearchRequest creates a search request returning a single result
func NewSearchRequest(query string, indexPath IndexPath) SearchRequest {
	return SearchRequest{
		Query:      query,
		IndexPath:  indexPath,
		MaxResults: 1,
		Filters:    []SearchFilter{},
	}
}

// WithMaxResults returns a copy of the request with the result limit set
func (r SearchRequest) WithMaxResults(maxResults uint32) SearchRequest {
	r.MaxResults = maxResults
	return r
}

// WithMinScore returns a copy of the request with a minimum relevance score
func (r SearchRequest) WithMinScore(minScore float64) SearchRequest {
	r.MinScore = &minScore
	return r
}

// WithFilters returns a copy of the request with the given filters
func (r SearchRequest) WithFilters(filters ...SearchFilter) SearchRequest {
	r.Filters = append([]SearchFilter{}, filters...)
	return r
}

// TextCursor marks a position inside a document
type TextCursor struct {
	// Item is the index of the item in the document
	Item uint32 `json:"item"`
	// Position is the offset inside the item
	Position uint32 `json:"position"`
}

// SearchResult is a single match for a search query.
// Start and End mark the matched span inside the source document.
type SearchResult struct {
	DocumentPath DocumentPath `json:"document_path"`
	Content      string       `json:"content"`
	Score        float64      `json:"score"`
	Start        TextCursor   `json:"start"`
	End          TextCursor   `json:"end"`
}

// SearchFilter restricts which documents a search considers. It is one of
// Without, WithOneOf or WithAll.
type SearchFilter interface {
	isSearchFilter()
}

// Without excludes documents matching any of the conditions
type Without []FilterCondition

// WithOneOf includes documents matching at least one of the conditions
type WithOneOf []FilterCondition

// WithAll includes documents matching every condition
type WithAll []FilterCondition

func (Without) isSearchFilter()   {}
func (WithOneOf) isSearchFilter() {}
func (WithAll) isSearchFilter()   {}

// FilterCondition is a single condition inside a SearchFilter. MetadataFilter
// is currently the only variant.
type FilterCondition interface {
	isFilterCondition()
}

// MetadataFilter compares a metadata field of the document
type MetadataFilter struct {
	Field     string
	Condition MetadataFilterCondition
}

func (MetadataFilter) isFilterCondition() {}

// NewMetadataFilter creates a metadata filter condition
func NewMetadataFilter(field string, condition MetadataFilterCondition) MetadataFilter {
	return MetadataFilter{Field: field, Condition: condition}
}

// MetadataFilterCondition is the comparison applied to a metadata field
type MetadataFilterCondition interface {
	isMetadataFilterCondition()
}

type (
	// GreaterThan matches numeric fields strictly greater than the value
	GreaterThan float64
	// GreaterThanOrEqualTo matches numeric fields greater than or equal to the value
	GreaterThanOrEqualTo float64
	// LessThan matches numeric fields strictly less than the value
	LessThan float64
	// LessThanOrEqualTo matches numeric fields less than or equal to the value
	LessThanOrEqualTo float64
	// After matches timestamps strictly after the value
	After time.Time
	// AtOrAfter matches timestamps at or after the value
	AtOrAfter time.Time
	// Before matches timestamps strictly before the value
	Before time.Time
	// AtOrBefore matches timestamps at or before the value
	AtOrBefore time.Time
	// EqualTo matches fields equal to the scalar value
	EqualTo struct{ Value MetadataFieldValue }
	// IsNull matches documents where the field is null or missing
	IsNull struct{}
)

func (GreaterThan) isMetadataFilterCondition()          {}
func (GreaterThanOrEqualTo) isMetadataFilterCondition() {}
func (LessThan) isMetadataFilterCondition()             {}
func (LessThanOrEqualTo) isMetadataFilterCondition()    {}
func (After) isMetadataFilterCondition()                {}
func (AtOrAfter) isMetadataFilterCondition()            {}
func (Before) isMetadataFilterCondition()               {}
func (AtOrBefore) isMetadataFilterCondition()           {}
func (EqualTo) isMetadataFilterCondition()              {}
func (IsNull) isMetadataFilterCondition()               {}

// MetadataFieldValue is a typed scalar compared by EqualTo
type MetadataFieldValue interface {
	isMetadataFieldValue()
}

type (
	// StringValue is a string scalar
	StringValue string
	// IntegerValue is an integer scalar
	IntegerValue int64
	// BooleanValue is a boolean scalar
	BooleanValue bool
)

func (StringValue) isMetadataFieldValue()  {}
func (IntegerValue) isMetadataFieldValue() {}
func (BooleanValue) isMetadataFieldValue() {}

// Modality is one item of a document's contents, either TextModality or
// ImageModality.
type Modality interface {
	isModality()
}

// TextModality is a span of text
type TextModality struct {
	Text string
}

// ImageModality is an opaque placeholder for an image; its data is not exposed
type ImageModality struct{}

func (TextModality) isModality()  {}
func (ImageModality) isModality() {}

// Document is a document retrieved from the document index. Metadata is nil
// when the document has none.
type Document[M any] struct {
	Path     DocumentPath `json:"path"`
	Contents []Modality   `json:"contents" jsonschema:"nullable"`
	Metadata *M           `json:"metadata" jsonschema:"nullable"`
}

// RawDocument is a document whose metadata has not been decoded yet
type RawDocument = Document[json.RawMessage]

// Text concatenates all text modalities of the document, separated by blank lines
func (d Document[M]) Text() string {
	var out string
	for _, item := range d.Contents {
		text, ok := item.(TextModality)
		if !ok {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += text.Text
	}
	return out
}
