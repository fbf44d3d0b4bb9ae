// Package outline holds the editable presentation outline and its slides
package outline

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

const (
	TypeTitle     = "title"
	TypeContent   = "content"
	TypeSection   = "section"
	TypeQuote     = "quote"
	TypeTwoColumn = "two-column"
)

// KnownTypes are the slide types with a dedicated variant.
var KnownTypes = mapset.NewSet(TypeTitle, TypeContent, TypeSection, TypeQuote, TypeTwoColumn)

// RestrictableTypes can be offered to the backend as an allow-list. Title
// slides are always generated.
var RestrictableTypes = []string{TypeContent, TypeSection, TypeQuote, TypeTwoColumn}

// Slide is one of TitleSlide, ContentSlide, SectionSlide, QuoteSlide,
// TwoColumnSlide or UnknownSlide.
type Slide interface {
	Type() string
	Header() *Base
	clone() Slide
}

// Base carries the fields every slide has.
type Base struct {
	Number int
	Title  string
}

func (b *Base) Header() *Base { return b }

type TitleSlide struct {
	Base
	Subtitle string
}

type ContentSlide struct {
	Base
	Bullets []string
}

type SectionSlide struct {
	Base
}

type QuoteSlide struct {
	Base
	Text   string
	Author string
}

type Column struct {
	Title  string
	Points []string
}

type TwoColumnSlide struct {
	Base
	Left  Column
	Right Column
}

// UnknownSlide keeps a slide whose type this client does not know. Fields
// holds every JSON member other than slide_number, type and title.
type UnknownSlide struct {
	Base
	TypeName string
	Fields   map[string]any
}

func (*TitleSlide) Type() string     { return TypeTitle }
func (*ContentSlide) Type() string   { return TypeContent }
func (*SectionSlide) Type() string   { return TypeSection }
func (*QuoteSlide) Type() string     { return TypeQuote }
func (*TwoColumnSlide) Type() string { return TypeTwoColumn }
func (s *UnknownSlide) Type() string { return s.TypeName }

func (s *TitleSlide) clone() Slide {
	c := *s
	return &c
}

func (s *ContentSlide) clone() Slide {
	c := *s
	c.Bullets = slices.Clone(s.Bullets)
	return &c
}

func (s *SectionSlide) clone() Slide {
	c := *s
	return &c
}

func (s *QuoteSlide) clone() Slide {
	c := *s
	return &c
}

func (s *TwoColumnSlide) clone() Slide {
	c := *s
	c.Left.Points = slices.Clone(s.Left.Points)
	c.Right.Points = slices.Clone(s.Right.Points)
	return &c
}

func (s *UnknownSlide) clone() Slide {
	c := *s
	// values are decoded JSON; nested containers are rebuilt through a
	// marshal round trip so the copy shares nothing with the original
	if s.Fields != nil {
		data, err := json.Marshal(s.Fields)
		if err == nil {
			var fields map[string]any
			if err := json.Unmarshal(data, &fields); err == nil {
				c.Fields = fields
			}
		}
		if c.Fields == nil {
			c.Fields = maps.Clone(s.Fields)
		}
	}
	return &c
}

// wireSlide is the snake_case JSON form shared by every slide type.
type wireSlide struct {
	SlideNumber       int      `json:"slide_number"`
	Type              string   `json:"type"`
	Title             string   `json:"title"`
	Subtitle          *string  `json:"subtitle,omitempty"`
	BulletPoints      []string `json:"bullet_points,omitempty"`
	QuoteText         *string  `json:"quote_text,omitempty"`
	QuoteAuthor       *string  `json:"quote_author,omitempty"`
	ColumnLeftTitle   *string  `json:"column_left_title,omitempty"`
	ColumnLeftPoints  []string `json:"column_left_points,omitempty"`
	ColumnRightTitle  *string  `json:"column_right_title,omitempty"`
	ColumnRightPoints []string `json:"column_right_points,omitempty"`
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *TitleSlide) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSlide{
		SlideNumber: s.Number,
		Type:        TypeTitle,
		Title:       s.Title,
		Subtitle:    strPtr(s.Subtitle),
	})
}

func (s *ContentSlide) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSlide{
		SlideNumber:  s.Number,
		Type:         TypeContent,
		Title:        s.Title,
		BulletPoints: s.Bullets,
	})
}

func (s *SectionSlide) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSlide{
		SlideNumber: s.Number,
		Type:        TypeSection,
		Title:       s.Title,
	})
}

func (s *QuoteSlide) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSlide{
		SlideNumber: s.Number,
		Type:        TypeQuote,
		Title:       s.Title,
		QuoteText:   strPtr(s.Text),
		QuoteAuthor: strPtr(s.Author),
	})
}

func (s *TwoColumnSlide) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSlide{
		SlideNumber:       s.Number,
		Type:              TypeTwoColumn,
		Title:             s.Title,
		ColumnLeftTitle:   strPtr(s.Left.Title),
		ColumnLeftPoints:  s.Left.Points,
		ColumnRightTitle:  strPtr(s.Right.Title),
		ColumnRightPoints: s.Right.Points,
	})
}

func (s *UnknownSlide) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(s.Fields)+3)
	for k, v := range s.Fields {
		obj[k] = v
	}
	obj["slide_number"] = s.Number
	obj["type"] = s.TypeName
	obj["title"] = s.Title
	return json.Marshal(obj)
}

// DecodeSlide decodes one slide object into its variant.
func DecodeSlide(data []byte) (Slide, error) {
	var w wireSlide
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode slide: %w", err)
	}
	if w.Type == "" {
		return nil, fmt.Errorf("decode slide: missing type")
	}

	base := Base{Number: w.SlideNumber, Title: w.Title}
	switch w.Type {
	case TypeTitle:
		return &TitleSlide{Base: base, Subtitle: strVal(w.Subtitle)}, nil
	case TypeContent:
		return &ContentSlide{Base: base, Bullets: w.BulletPoints}, nil
	case TypeSection:
		return &SectionSlide{Base: base}, nil
	case TypeQuote:
		return &QuoteSlide{Base: base, Text: strVal(w.QuoteText), Author: strVal(w.QuoteAuthor)}, nil
	case TypeTwoColumn:
		return &TwoColumnSlide{
			Base:  base,
			Left:  Column{Title: strVal(w.ColumnLeftTitle), Points: w.ColumnLeftPoints},
			Right: Column{Title: strVal(w.ColumnRightTitle), Points: w.ColumnRightPoints},
		}, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode slide: %w", err)
	}
	delete(fields, "slide_number")
	delete(fields, "type")
	delete(fields, "title")
	if len(fields) == 0 {
		fields = nil
	}
	return &UnknownSlide{Base: base, TypeName: w.Type, Fields: fields}, nil
}

// Slides is an ordered slide list; the order is the export order.
type Slides []Slide

func (s *Slides) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Slides, 0, len(raw))
	for i, r := range raw {
		slide, err := DecodeSlide(r)
		if err != nil {
			return fmt.Errorf("slide %d: %w", i, err)
		}
		out = append(out, slide)
	}
	*s = out
	return nil
}
