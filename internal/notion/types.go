// Package notion talks to the hosted content database: query, retrieve and
// create over its HTTP API, plus the mapping from its property bags into
// normalized posts.
package notion

import "time"

// RichText is one fragment of a title or rich_text property.
type RichText struct {
	PlainText string `json:"plain_text"`
}

// Option is a select / multi_select / status value.
type Option struct {
	Name string `json:"name"`
}

// DateValue is a date property payload.
type DateValue struct {
	Start string `json:"start"`
}

// FileRef points at a hosted or external file.
type FileRef struct {
	URL string `json:"url"`
}

// File is one entry of a files property.
type File struct {
	Name     string   `json:"name"`
	File     *FileRef `json:"file,omitempty"`
	External *FileRef `json:"external,omitempty"`
}

// Property is the union of the property types the blog consumes. The upstream
// schema is not contractually fixed, so every accessor treats absence as
// empty rather than an error.
type Property struct {
	Type        string     `json:"type"`
	Title       []RichText `json:"title,omitempty"`
	RichText    []RichText `json:"rich_text,omitempty"`
	Select      *Option    `json:"select,omitempty"`
	MultiSelect []Option   `json:"multi_select,omitempty"`
	Status      *Option    `json:"status,omitempty"`
	URL         string     `json:"url,omitempty"`
	Checkbox    bool       `json:"checkbox,omitempty"`
	Date        *DateValue `json:"date,omitempty"`
	Files       []File     `json:"files,omitempty"`
}

// Page is a single record of the content database.
type Page struct {
	ID             string              `json:"id"`
	CreatedTime    time.Time           `json:"created_time"`
	LastEditedTime time.Time           `json:"last_edited_time"`
	PublicURL      string              `json:"public_url"`
	Properties     map[string]Property `json:"properties"`
}

// SelectOptions holds the configured options of a select-like database
// property, used to derive tag facets without scanning pages.
type SelectOptions struct {
	Options []Option `json:"options"`
}

// DatabaseProperty is a property definition on the database itself.
type DatabaseProperty struct {
	Type        string         `json:"type"`
	MultiSelect *SelectOptions `json:"multi_select,omitempty"`
	Select      *SelectOptions `json:"select,omitempty"`
}

// Database is the schema-side view of the content database.
type Database struct {
	ID         string                      `json:"id"`
	Properties map[string]DatabaseProperty `json:"properties"`
}

// queryRequest is the body of a database query call.
type queryRequest struct {
	Filter   Filter `json:"filter,omitempty"`
	Sorts    []Sort `json:"sorts,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// Sort orders query results by a property.
type Sort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

// queryResponse is the envelope of a database query call.
type queryResponse struct {
	Results []Page `json:"results"`
}

// apiError is the error body the API returns on non-2xx responses.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
