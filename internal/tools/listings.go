package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Listing is one curated mentorship program or community platform.
type Listing struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// ListingSource serves query-filtered listings from a curated JSON file.
type ListingSource struct {
	name   string
	path   string
	header string
	footer string
}

// NewMentorshipSource reads mentorship programs from dataDir.
func NewMentorshipSource(dataDir string) *ListingSource {
	return &ListingSource{
		name:   "mentorship programs",
		path:   filepath.Join(dataDir, "mentorship_links.json"),
		header: "**Mentorship Programs and Resources**\n\n",
		footer: "\n\nFollow the links above to access these mentorship opportunities.",
	}
}

// NewCommunitySource reads community platforms from dataDir.
func NewCommunitySource(dataDir string) *ListingSource {
	return &ListingSource{
		name:   "communities",
		path:   filepath.Join(dataDir, "community_links.json"),
		header: "**Communities Worth Joining**\n\n",
		footer: "",
	}
}

// Lookup filters listings by query over title and description and renders
// them. Load failures and empty matches come back as user-facing notes.
func (s *ListingSource) Lookup(query string) string {
	listings, err := s.load()
	if err != nil {
		return fmt.Sprintf("Error loading %s data: %v", s.name, err)
	}

	query = sanitizeQuery(query)
	if terms := queryTerms(query); len(terms) > 0 {
		filtered := listings[:0:0]
		for _, l := range listings {
			haystack := strings.ToLower(l.Title + " " + l.Description)
			for _, term := range terms {
				if strings.Contains(haystack, term) {
					filtered = append(filtered, l)
					break
				}
			}
		}
		if len(filtered) == 0 {
			return fmt.Sprintf("No %s found for %q", s.name, query)
		}
		listings = filtered
	}

	rendered := make([]string, 0, len(listings))
	for _, l := range listings {
		rendered = append(rendered, fmt.Sprintf("**%s**\n- %s\n- [%s](%s)", l.Title, l.Description, l.URL, l.URL))
	}
	return s.header + strings.Join(rendered, "\n\n") + s.footer
}

// queryTerms reduces free-form query text to the words worth matching
// against listing titles and descriptions. Short words and filler that
// show up in almost every prompt are dropped so a full sentence still
// narrows the catalog instead of matching nothing.
func queryTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?\"'")
		if len(w) < 4 || listingStopwords[w] {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

var listingStopwords = map[string]bool{
	"find": true, "want": true, "need": true, "looking": true,
	"please": true, "help": true, "with": true, "some": true,
	"about": true, "show": true, "give": true, "have": true,
	"that": true, "this": true, "what": true, "where": true,
}

func (s *ListingSource) load() ([]Listing, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var listings []Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(s.path), err)
	}
	return listings, nil
}
