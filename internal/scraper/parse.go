package scraper

import (
	"bytes"
	"encoding/json/v2"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/tabstash/tabstash-server/internal/domain"
)

// storeClass marks the element whose data-content attribute carries the
// page's embedded JSON payload.
const storeClass = "js-store"

// pageStore mirrors the relevant slice of the embedded JSON.
type pageStore struct {
	Store struct {
		Page struct {
			Data pageData `json:"data"`
		} `json:"page"`
	} `json:"store"`
}

type pageData struct {
	Results []resultEntry `json:"results"`
	Tab     *tabEntry     `json:"tab"`
	TabView *tabView      `json:"tab_view"`
}

type resultEntry struct {
	ArtistName string  `json:"artist_name"`
	SongName   string  `json:"song_name"`
	Type       string  `json:"type"`
	TabURL     string  `json:"tab_url"`
	Rating     float64 `json:"rating"`
	Votes      int     `json:"votes"`
}

type tabEntry struct {
	ArtistName string  `json:"artist_name"`
	SongName   string  `json:"song_name"`
	Type       string  `json:"type"`
	TabURL     string  `json:"tab_url"`
	Difficulty string  `json:"difficulty"`
	Rating     float64 `json:"rating"`
	Votes      int     `json:"votes"`
}

type tabView struct {
	WikiTab struct {
		Content string `json:"content"`
	} `json:"wiki_tab"`
}

// extractStore locates the store element in the page and decodes its
// data-content payload.
func extractStore(page []byte) (*pageStore, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", ErrMalformed, err)
	}

	raw := findStoreContent(doc)
	if raw == "" {
		return nil, fmt.Errorf("%w: store element missing", ErrMalformed)
	}

	var store pageStore
	if err := json.Unmarshal([]byte(raw), &store); err != nil {
		return nil, fmt.Errorf("%w: decode store payload: %v", ErrMalformed, err)
	}
	return &store, nil
}

// findStoreContent walks the node tree looking for the store element and
// returns its data-content attribute. The parser unescapes HTML entities
// in attribute values, so the result is plain JSON.
func findStoreContent(n *html.Node) string {
	if n.Type == html.ElementNode {
		var isStore bool
		var content string
		for _, attr := range n.Attr {
			switch attr.Key {
			case "class":
				if hasClass(attr.Val, storeClass) {
					isStore = true
				}
			case "data-content":
				content = attr.Val
			}
		}
		if isStore && content != "" {
			return content
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findStoreContent(c); found != "" {
			return found
		}
	}
	return ""
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}

// sourceType maps an upstream type label onto a domain source type.
// Unknown labels map to plain tablature.
func sourceType(upstream string) domain.SourceType {
	if strings.EqualFold(strings.TrimSpace(upstream), "chords") {
		return domain.SourceTypeChords
	}
	return domain.SourceTypeTab
}

// contentMarkup matches the upstream's [tab]/[ch] style markers.
var contentMarkup = regexp.MustCompile(`\[/?(?:tab|ch)\]`)

// cleanContent strips upstream markup markers from tab text.
func cleanContent(content string) string {
	return contentMarkup.ReplaceAllString(content, "")
}
