package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for tab documents.
//
// Artist and title are the primary search targets and get term vectors
// for highlighting. Content is searchable but not stored; the full text
// lives in the SQL cache. Type and difficulty are exact-match filters.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	artistFieldMapping := bleve.NewTextFieldMapping()
	artistFieldMapping.Analyzer = simple.Name // band names shouldn't be stemmed
	artistFieldMapping.Store = true
	artistFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("artist", artistFieldMapping)

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = en.AnalyzerName
	contentFieldMapping.Store = false // too large; fetch from the tab cache
	docMapping.AddFieldMappingsAt("content", contentFieldMapping)

	// --- Keyword fields (exact match) ---

	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	typeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("type", typeFieldMapping)

	difficultyFieldMapping := bleve.NewTextFieldMapping()
	difficultyFieldMapping.Analyzer = keyword.Name
	difficultyFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("difficulty", difficultyFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	urlFieldMapping := bleve.NewTextFieldMapping()
	urlFieldMapping.Analyzer = keyword.Name
	urlFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("url", urlFieldMapping)

	// --- Numeric fields (sorting) ---

	ratingFieldMapping := bleve.NewNumericFieldMapping()
	ratingFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("rating", ratingFieldMapping)

	ratingCountFieldMapping := bleve.NewNumericFieldMapping()
	ratingCountFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("rating_count", ratingCountFieldMapping)

	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
