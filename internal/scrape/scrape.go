// Package scrape provides CSS-selector scraping primitives for the
// HTML-backed catalog adapters. An adapter declares an ordered list of
// selector strategies; the first strategy that yields at least one row wins.
package scrape

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/arguspanoptes/argus-server/internal/errors"
)

// Strategy names one way of locating holdings rows in a catalog page.
// Rows selects the per-holding container; the column selectors are applied
// relative to each row. Strategies are ordered from most to least specific.
type Strategy struct {
	Name       string
	Rows       string
	Branch     string
	CallNumber string
	Status     string
	Collection string
}

// Row is the raw text extracted for one holding before normalization.
type Row struct {
	Branch     string
	CallNumber string
	Status     string
	Collection string
	Strategy   string
}

// Parse loads an HTML document for strategy application.
func Parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "malformed HTML document")
	}
	return doc, nil
}

// Apply tries each strategy in order and returns the rows produced by the
// first one that matches. A page with no matching strategy yields no rows
// and no error; the catalog may legitimately hold no copies.
func Apply(doc *goquery.Document, strategies []Strategy) []Row {
	for _, st := range strategies {
		rows := applyOne(doc, st)
		if len(rows) > 0 {
			return rows
		}
	}
	return nil
}

func applyOne(doc *goquery.Document, st Strategy) []Row {
	var rows []Row
	doc.Find(st.Rows).Each(func(_ int, sel *goquery.Selection) {
		row := Row{
			Branch:     Text(sel, st.Branch),
			CallNumber: Text(sel, st.CallNumber),
			Status:     Text(sel, st.Status),
			Collection: Text(sel, st.Collection),
			Strategy:   st.Name,
		}
		// A row without both a branch and a status is selector noise.
		if row.Branch == "" && row.Status == "" {
			return
		}
		rows = append(rows, row)
	})
	return rows
}

// Text extracts collapsed text for a child selector, or "" when the
// selector is empty or matches nothing.
func Text(sel *goquery.Selection, childSelector string) string {
	if childSelector == "" {
		return ""
	}
	return Collapse(sel.Find(childSelector).First().Text())
}

// whitespacePattern collapses runs of whitespace, including the non-breaking
// spaces common in server-rendered catalog tables.
var whitespacePattern = regexp.MustCompile(`[\s\x{00a0}]+`)

// Collapse trims a scraped string and collapses internal whitespace.
func Collapse(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
