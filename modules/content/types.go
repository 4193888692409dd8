package content

import (
	"bytes"
	"encoding/json"
)

// Section is a named block of page content. Content is arbitrary JSON
// whose shape depends on Name.
type Section struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Content  json.RawMessage `json:"content"`
	IsPublic bool            `json:"isPublic"`
}

// SectionInsert creates a section. IsPublic defaults to true.
type SectionInsert struct {
	Name     string          `json:"name"`
	Content  json.RawMessage `json:"content"`
	IsPublic *bool           `json:"isPublic,omitempty"`
}

// SectionPatch changes only the fields present in the request.
type SectionPatch struct {
	Name     Optional[string]          `json:"name"`
	Content  Optional[json.RawMessage] `json:"content"`
	IsPublic Optional[bool]            `json:"isPublic"`
}

// Project is a portfolio entry. Projects are listed by Order.
type Project struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Link        *string `json:"link"`
	Order       int     `json:"order"`
}

// ProjectInsert creates a project. A nil Order takes the next value of the
// project order sequence.
type ProjectInsert struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Link        *string `json:"link,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// ProjectPatch changes only the fields present in the request. An explicit
// null link clears it.
type ProjectPatch struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	ImageURL    Optional[string] `json:"imageUrl"`
	Link        Optional[string] `json:"link"`
	Order       Optional[int]    `json:"order"`
}

// Optional distinguishes an absent JSON field from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a set Optional holding no value.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// present reports whether o carries a non-null value.
func (o Optional[T]) present() bool {
	return o.Set && o.Value != nil
}

func (s Section) apply(p SectionPatch) Section {
	if p.Name.present() {
		s.Name = *p.Name.Value
	}
	if p.Content.present() {
		s.Content = cloneRaw(*p.Content.Value)
	}
	if p.IsPublic.present() {
		s.IsPublic = *p.IsPublic.Value
	}
	return s
}

func (p Project) apply(patch ProjectPatch) Project {
	if patch.Title.present() {
		p.Title = *patch.Title.Value
	}
	if patch.Description.present() {
		p.Description = *patch.Description.Value
	}
	if patch.ImageURL.present() {
		p.ImageURL = *patch.ImageURL.Value
	}
	if patch.Link.Set {
		p.Link = cloneString(patch.Link.Value)
	}
	if patch.Order.present() {
		p.Order = *patch.Order.Value
	}
	return p
}

func (s Section) clone() Section {
	s.Content = cloneRaw(s.Content)
	return s
}

func (p Project) clone() Project {
	p.Link = cloneString(p.Link)
	return p
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
