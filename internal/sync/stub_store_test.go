package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"github.com/notisync/notisync/internal/notion"
)

// stubStore is an in-memory Store that persists pages across passes.
// The executor writes concurrently, hence the mutex.
type stubStore struct {
	mu         gosync.Mutex
	idProperty string
	pages      []notion.Page
	listErr    error
	createErr  map[string]error // keyed by identity
	updateErr  map[string]error // keyed by page ID
	creates    int
	updates    int
	lists      int
}

func newStubStore(idProperty string) *stubStore {
	return &stubStore{
		idProperty: idProperty,
		createErr:  map[string]error{},
		updateErr:  map[string]error{},
	}
}

func (s *stubStore) ListPages(ctx context.Context) ([]notion.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]notion.Page(nil), s.pages...), nil
}

func (s *stubStore) CreatePage(ctx context.Context, properties notion.Properties) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	identity := propertyText(properties[s.idProperty])
	if err := s.createErr[identity]; err != nil {
		return "", err
	}
	id := fmt.Sprintf("page-%d", len(s.pages)+1)
	s.pages = append(s.pages, pageFromProperties(id, properties))
	return id, nil
}

func (s *stubStore) UpdatePage(ctx context.Context, pageID string, properties notion.Properties) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if err := s.updateErr[pageID]; err != nil {
		return err
	}
	for i := range s.pages {
		if s.pages[i].ID != pageID {
			continue
		}
		updated := pageFromProperties(pageID, properties)
		for name, value := range updated.Properties {
			s.pages[i].Properties[name] = value
		}
		return nil
	}
	return fmt.Errorf("page %s not found", pageID)
}

// pageByIdentity finds a stored page by its identity property; page order
// is not deterministic under concurrent creates
func (s *stubStore) pageByIdentity(identity string) (notion.Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, page := range s.pages {
		if page.Properties[s.idProperty].PlainText() == identity {
			return page, true
		}
	}
	return notion.Page{}, false
}

// pageFromProperties turns a write payload into the page the API would
// return for it
func pageFromProperties(id string, properties notion.Properties) notion.Page {
	page := notion.Page{ID: id, Properties: map[string]notion.PropertyValue{}}
	for name, value := range properties {
		switch v := value.(type) {
		case notion.TitleValue:
			page.Properties[name] = notion.PropertyValue{Type: "title", Title: v.Title}
		case notion.TextValue:
			page.Properties[name] = notion.PropertyValue{Type: "rich_text", RichText: v.RichText}
		case notion.DateProp:
			page.Properties[name] = notion.PropertyValue{Type: "date", Date: v.Date}
		}
	}
	return page
}

func propertyText(value any) string {
	switch v := value.(type) {
	case notion.TitleValue:
		return notion.PropertyValue{Title: v.Title}.PlainText()
	case notion.TextValue:
		return notion.PropertyValue{RichText: v.RichText}.PlainText()
	}
	return ""
}
