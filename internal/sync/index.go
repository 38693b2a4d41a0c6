package sync

import (
	log "github.com/sirupsen/logrus"

	"github.com/notisync/notisync/internal/notion"
)

// PropertyNames maps event fields to destination property names. Title is
// discovered from the database schema, the rest come from configuration.
// Location may be empty, in which case locations are not synced.
type PropertyNames struct {
	Title    string
	Identity string
	Date     string
	Location string
}

// Row is one destination page the engine may write to
type Row struct {
	PageID   string
	Identity string
	Title    string
	Date     *notion.DateValue
	Location string
}

// Index maps identities to destination rows for one pass
type Index struct {
	props      PropertyNames
	rows       map[string]Row
	Duplicates int
}

// BuildIndex scans the page listing and indexes rows by identity. Pages
// whose identity property is unreadable or empty are left out and
// therefore never touched: that is what keeps the sync away from rows a
// human created. When two pages share an identity the first one wins and
// the duplicate goes stale; repairing that is not the engine's call.
func BuildIndex(pages []notion.Page, props PropertyNames) *Index {
	ix := &Index{
		props: props,
		rows:  make(map[string]Row, len(pages)),
	}

	for _, page := range pages {
		identity := page.Properties[props.Identity].PlainText()
		if identity == "" {
			log.WithField("page", page.ID).Debug("page has no identity, ignored")
			continue
		}

		if existing, ok := ix.rows[identity]; ok {
			log.WithFields(log.Fields{
				"identity":  identity,
				"page":      existing.PageID,
				"duplicate": page.ID,
			}).Warn("duplicate identity in destination, first page wins")
			ix.Duplicates++
			continue
		}

		row := Row{
			PageID:   page.ID,
			Identity: identity,
			Title:    page.Properties[props.Title].PlainText(),
		}
		if value := page.Properties[props.Date]; value.Date != nil {
			row.Date = value.Date
		}
		if props.Location != "" {
			row.Location = page.Properties[props.Location].PlainText()
		}
		ix.rows[identity] = row
	}

	return ix
}

// Lookup returns the row for an identity, if any
func (ix *Index) Lookup(identity string) (Row, bool) {
	row, ok := ix.rows[identity]
	return row, ok
}

// Len returns the number of indexed rows
func (ix *Index) Len() int {
	return len(ix.rows)
}
