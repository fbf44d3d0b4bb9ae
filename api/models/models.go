// Package models tracks all api models for request and responses
package models

import (
	"github.com/aouyang1/pptmaker/outline"
	"github.com/aouyang1/pptmaker/store"
)

// Backend wire types

type OutlineRequest struct {
	Topic             string   `json:"topic"`
	NumSlides         int      `json:"num_slides"`
	Tone              *string  `json:"tone,omitempty"`
	AllowedSlideTypes []string `json:"allowed_slide_types,omitempty"`
}

type OutlineResponse struct {
	Status   string            `json:"status"`
	Outline  outline.Outline   `json:"outline"`
	Metadata *outline.Metadata `json:"metadata,omitempty"`
}

type PresentationRequest struct {
	PresentationTitle string         `json:"presentation_title"`
	Slides            outline.Slides `json:"slides"`
	Template          string         `json:"template"`
}

type BackendErrorResponse struct {
	Detail string `json:"detail"`
}

type SettingsResponse struct {
	Status   string                `json:"status"`
	Settings store.PaywallSettings `json:"settings"`
}

// Local api types

type ErrorResponse struct {
	Error string `json:"error"`
}

type InputRequest struct {
	Topic              *string                `json:"topic,omitempty"`
	NumSlides          *int                   `json:"num_slides,omitempty"`
	Tone               *outline.ToneSelection `json:"tone,omitempty"`
	SlideTypeMode      *string                `json:"slide_type_mode,omitempty"`
	SelectedSlideTypes []string               `json:"selected_slide_types,omitempty"`
}

type HistoryEntry struct {
	Name       string `json:"name"`
	CreatedAt  int64  `json:"created_at"`
	Size       int64  `json:"size"`
	HasOutline bool   `json:"has_outline"`
}

type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

type UsageResponse struct {
	Premium           bool `json:"premium"`
	OutlineCount      int  `json:"outline_count"`
	OutlineLimit      int  `json:"outline_limit"`
	OutlinesLeft      int  `json:"outlines_left"`
	PresentationCount int  `json:"presentation_count"`
	PresentationLimit int  `json:"presentation_limit"`
	PresentationsLeft int  `json:"presentations_left"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
