package notion

import "strings"

// Database represents a Notion database and its schema
type Database struct {
	ID         string                    `json:"id"`
	Title      []RichText                `json:"title,omitempty"`
	Properties map[string]PropertyConfig `json:"properties,omitempty"`
}

// PropertyConfig describes one property in a database schema
type PropertyConfig struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// TitleProperty returns the name of the database's title property.
// Every Notion database has exactly one property of type "title".
func (d *Database) TitleProperty() (string, bool) {
	for name, prop := range d.Properties {
		if prop.Type == "title" {
			return name, true
		}
	}
	return "", false
}

// Page represents a Notion page (one row of a database)
type Page struct {
	ID         string                   `json:"id"`
	Properties map[string]PropertyValue `json:"properties"`
}

// PropertyValue is a property value as returned by the API
type PropertyValue struct {
	ID       string     `json:"id,omitempty"`
	Type     string     `json:"type,omitempty"`
	Title    []RichText `json:"title,omitempty"`
	RichText []RichText `json:"rich_text,omitempty"`
	Date     *DateValue `json:"date,omitempty"`
}

// PlainText returns the concatenated plain text of a title or rich_text value
func (v PropertyValue) PlainText() string {
	spans := v.Title
	if len(spans) == 0 {
		spans = v.RichText
	}
	var sb strings.Builder
	for _, span := range spans {
		sb.WriteString(span.PlainText)
	}
	return sb.String()
}

// RichText is a single rich text span
type RichText struct {
	Type      string `json:"type,omitempty"`
	Text      *Text  `json:"text,omitempty"`
	PlainText string `json:"plain_text,omitempty"`
}

// Text is the content of a text span
type Text struct {
	Content string `json:"content"`
}

// DateValue is a Notion date property value. Start and End are either
// date-only ("2006-01-02") or RFC 3339 date-times.
type DateValue struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	TimeZone string `json:"time_zone,omitempty"`
}

// Properties is the property payload sent when creating or updating a page
type Properties map[string]any

// TitleValue payload for writing a title property
type TitleValue struct {
	Title []RichText `json:"title"`
}

// TextValue payload for writing a rich_text property. An empty rich_text
// array clears the property, so zero values are encoded, not omitted.
type TextValue struct {
	RichText []RichText `json:"rich_text"`
}

// DateProp payload for writing a date property
type DateProp struct {
	Date *DateValue `json:"date"`
}

// NewTitle builds a title property value
func NewTitle(text string) TitleValue {
	return TitleValue{Title: richText(text)}
}

// NewText builds a rich_text property value; an empty string clears it
func NewText(text string) TextValue {
	return TextValue{RichText: richText(text)}
}

// NewDate builds a date property value
func NewDate(date DateValue) DateProp {
	return DateProp{Date: &date}
}

func richText(text string) []RichText {
	if text == "" {
		return []RichText{}
	}
	return []RichText{
		{
			Type:      "text",
			Text:      &Text{Content: text},
			PlainText: text,
		},
	}
}
