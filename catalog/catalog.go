// Package catalog provides lookup over the day's recorded video clips.
//
// The catalog is a JSON file produced by the recording pipeline: an array
// of entries keyed by video ID, each carrying the provider-side file URI
// used for multimodal analysis plus session metadata that helps the model
// pick relevant clips.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Entry describes one recorded clip.
type Entry struct {
	// ID is the stable identifier the workflow selects and reports by.
	ID string `json:"id"`

	// URI is the provider-side media location (e.g. a Gemini Files API
	// URI) handed to the analysis model.
	URI string `json:"uri"`

	// MIMEType describes the media. Defaults to "video/mp4" when empty.
	MIMEType string `json:"mime_type,omitempty"`

	// SessionType names the activity recorded, e.g. "free play",
	// "outdoor", "lunch".
	SessionType string `json:"session_type"`

	// Start and End bound the clip within the day, e.g. "10:15".
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	// Description is a short human summary used in selection prompts.
	Description string `json:"description,omitempty"`
}

// Catalog is an immutable, ordered set of entries. Order follows the
// catalog file, which the recording pipeline writes chronologically;
// fallback selection relies on that.
type Catalog struct {
	entries []Entry
	byID    map[string]Entry
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw JSON. Entries without an ID are
// rejected; duplicate IDs keep the first occurrence.
func Parse(data []byte) (*Catalog, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byID:    make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog: entry with empty id")
		}
		if _, dup := c.byID[e.ID]; dup {
			continue
		}
		if e.MIMEType == "" {
			e.MIMEType = "video/mp4"
		}
		c.entries = append(c.entries, e)
		c.byID[e.ID] = e
	}
	return c, nil
}

// List returns all entries in catalog order. The returned slice is shared;
// callers must not modify it.
func (c *Catalog) List() []Entry {
	return c.entries
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Get returns the entry for an ID.
func (c *Catalog) Get(id string) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Has reports whether an ID exists in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// URI returns the media location for an ID, or "" when unknown.
func (c *Catalog) URI(id string) string {
	return c.byID[id].URI
}

// IDs returns all IDs in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}

// PromptListing renders the catalog as a compact listing for selection
// prompts, one clip per line.
func (c *Catalog) PromptListing() string {
	var sb strings.Builder
	for _, e := range c.entries {
		sb.WriteString("- ")
		sb.WriteString(e.ID)
		sb.WriteString(" (")
		sb.WriteString(e.SessionType)
		if e.Start != "" {
			sb.WriteString(", ")
			sb.WriteString(e.Start)
			if e.End != "" {
				sb.WriteString("-")
				sb.WriteString(e.End)
			}
		}
		sb.WriteString(")")
		if e.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(e.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
