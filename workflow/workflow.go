// Package workflow sequences topic entry, outline generation and editing,
// template selection and presentation generation
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aouyang1/pptmaker/api/models"
	"github.com/aouyang1/pptmaker/outline"
	mapset "github.com/deckarep/golang-set/v2"
)

const (
	MinSlides     = 5
	MaxSlides     = 20
	DefaultSlides = 8
)

const loadFailedMessage = "Could not load outline data for this presentation"

var (
	// ErrNotReady is returned when an action's guard does not hold.
	ErrNotReady = errors.New("action not available in the current state")
	// ErrSave wraps local persistence failures that happen after the
	// backend has already produced a file.
	ErrSave = errors.New("failed to save presentation")
	// ErrHistory is returned when a saved presentation has no usable outline.
	ErrHistory = errors.New(loadFailedMessage)

	errEmptyOutline = errors.New("backend returned no outline")
)

type SlideTypeMode string

const (
	SlideTypesDynamic SlideTypeMode = "dynamic"
	SlideTypesCustom  SlideTypeMode = "custom"
)

type Outliner interface {
	RequestOutline(ctx context.Context, req models.OutlineRequest) (*outline.Outline, error)
}

type Renderer interface {
	RequestPresentationFile(ctx context.Context, title string, slides outline.Slides, templateID string) ([]byte, error)
}

// Library persists rendered files and their outlines.
type Library interface {
	FilenameFrom(title string) string
	Save(data []byte, filename string) (string, error)
	SaveOutlineSidecar(o *outline.Outline, forPath string) error
	LoadOutlineSidecar(forPath string) (*outline.Outline, error)
}

type Config struct {
	// SendDefaultTone sends outline.DefaultTone when no tone was chosen
	// instead of leaving the field off the request.
	SendDefaultTone bool
}

// Controller is the presentation workflow state machine. Its methods are
// safe to call from several goroutines; network calls run without the lock
// held, and the in-flight flags keep two generations of the same kind from
// overlapping.
type Controller struct {
	outliner Outliner
	renderer Renderer
	library  Library
	cfg      Config

	mu sync.Mutex

	topic         string
	numSlides     int
	tone          outline.ToneSelection
	slideTypeMode SlideTypeMode
	selectedTypes mapset.Set[string]

	outline           *outline.Outline
	outlineReady      bool
	generatingOutline bool

	template outline.Template

	generatingPresentation bool
	generatedFile          string
	showSuccess            bool

	errMsg string
}

func New(outliner Outliner, renderer Renderer, library Library, cfg Config) *Controller {
	return &Controller{
		outliner:      outliner,
		renderer:      renderer,
		library:       library,
		cfg:           cfg,
		numSlides:     DefaultSlides,
		tone:          outline.ToneSelection{Mode: outline.ToneDefault},
		slideTypeMode: SlideTypesDynamic,
		selectedTypes: mapset.NewSet(outline.RestrictableTypes...),
		template:      outline.DefaultTemplate(),
	}
}

// Inputs

func (c *Controller) SetTopic(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topic = topic
}

// SetSlideCount clamps n to MinSlides..MaxSlides.
func (c *Controller) SetSlideCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.numSlides = min(max(n, MinSlides), MaxSlides)
}

// SetTone stores the tone choice as given; an incomplete custom tone only
// blocks outline generation.
func (c *Controller) SetTone(t outline.ToneSelection) error {
	switch t.Mode {
	case outline.ToneDefault, outline.TonePreset, outline.ToneCustom:
	case "":
		t.Mode = outline.ToneDefault
	default:
		return fmt.Errorf("unknown tone mode %q", t.Mode)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tone = t
	return nil
}

func (c *Controller) SetSlideTypeMode(mode SlideTypeMode) error {
	if mode != SlideTypesDynamic && mode != SlideTypesCustom {
		return fmt.Errorf("unknown slide type mode %q", mode)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slideTypeMode = mode
	return nil
}

func (c *Controller) SetSelectedSlideTypes(types []string) error {
	selected := mapset.NewSet[string]()
	allowed := mapset.NewSet(outline.RestrictableTypes...)
	for _, t := range types {
		if !allowed.Contains(t) {
			return fmt.Errorf("slide type %q cannot be selected", t)
		}
		selected.Add(t)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedTypes = selected
	return nil
}

func (c *Controller) SelectTemplate(id string) error {
	t, ok := outline.TemplateByID(id)
	if !ok {
		return fmt.Errorf("unknown template %q", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.template = t
	return nil
}

// Predicates

func (c *Controller) CanGenerateOutline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canGenerateOutline()
}

func (c *Controller) canGenerateOutline() bool {
	if strings.TrimSpace(c.topic) == "" || c.generatingOutline {
		return false
	}
	if c.slideTypeMode == SlideTypesCustom && c.selectedTypes.Cardinality() == 0 {
		return false
	}
	return c.tone.Valid()
}

func (c *Controller) CanGeneratePresentation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canGeneratePresentation()
}

func (c *Controller) canGeneratePresentation() bool {
	return c.outline != nil && !c.generatingPresentation
}

// CurrentStep is 1 without an outline, 2 with an outline but no file and 3
// once a file has been generated.
func (c *Controller) CurrentStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentStep()
}

func (c *Controller) currentStep() int {
	switch {
	case c.outline == nil:
		return 1
	case c.generatedFile == "":
		return 2
	default:
		return 3
	}
}

// Error returns the message of the last failure, or "".
func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
}

// Outline returns a copy of the current outline, or nil.
func (c *Controller) Outline() *outline.Outline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outline.Clone()
}

// Transitions

// GenerateOutline requests an outline for the current inputs. It returns
// ErrNotReady when CanGenerateOutline is false; otherwise the backend error,
// whose message is also kept for Error.
func (c *Controller) GenerateOutline(ctx context.Context) (err error) {
	c.mu.Lock()
	if !c.canGenerateOutline() {
		c.mu.Unlock()
		return ErrNotReady
	}
	c.generatingOutline = true
	c.errMsg = ""
	req := c.outlineRequest()
	c.mu.Unlock()

	var generated *outline.Outline
	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.generatingOutline = false
		switch {
		case err != nil:
			c.errMsg = err.Error()
		case generated != nil:
			c.outline = generated
			c.outlineReady = true
		}
	}()

	generated, err = c.outliner.RequestOutline(ctx, req)
	if err == nil && generated == nil {
		err = errEmptyOutline
	}
	if err != nil {
		slog.Warn("outline generation failed", "topic", req.Topic, "error", err)
		return err
	}
	slog.Info("outline generated", "topic", req.Topic, "slides", len(generated.Slides))
	return nil
}

func (c *Controller) outlineRequest() models.OutlineRequest {
	req := models.OutlineRequest{
		Topic:     strings.TrimSpace(c.topic),
		NumSlides: c.numSlides,
		Tone:      c.tone.Wire(c.cfg.SendDefaultTone),
	}
	if c.slideTypeMode == SlideTypesCustom {
		req.AllowedSlideTypes = c.selectedTypes.ToSlice()
		sort.Strings(req.AllowedSlideTypes)
	}
	return req
}

// UpdateSlide replaces the slide at index. Out of range indexes are ignored.
func (c *Controller) UpdateSlide(index int, slide outline.Slide) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outline == nil {
		return false
	}
	return c.outline.Replace(index, slide)
}

// RemoveSlide deletes the slide at index and renumbers the rest. Out of
// range indexes are ignored.
func (c *Controller) RemoveSlide(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outline == nil {
		return false
	}
	return c.outline.Remove(index)
}

// GeneratePresentation renders the current outline with the selected
// template, saves the file and its outline sidecar. It returns ErrNotReady
// when CanGeneratePresentation is false. Failures after the backend call
// wrap ErrSave.
func (c *Controller) GeneratePresentation(ctx context.Context) (err error) {
	c.mu.Lock()
	if !c.canGeneratePresentation() {
		c.mu.Unlock()
		return ErrNotReady
	}
	c.generatingPresentation = true
	c.errMsg = ""
	snapshot := c.outline.Clone()
	templateID := c.template.ID
	c.mu.Unlock()

	var path string
	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.generatingPresentation = false
		switch {
		case err != nil:
			c.errMsg = err.Error()
		case path != "":
			c.generatedFile = path
			c.showSuccess = true
			if c.outline != nil {
				c.outline.Template = templateID
			}
		}
	}()

	data, err := c.renderer.RequestPresentationFile(ctx, snapshot.Title, snapshot.Slides, templateID)
	if err != nil {
		slog.Warn("presentation generation failed", "title", snapshot.Title, "template", templateID, "error", err)
		return err
	}

	saved, err := c.library.Save(data, c.library.FilenameFrom(snapshot.Title))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}

	snapshot.Template = templateID
	if err := c.library.SaveOutlineSidecar(snapshot, saved); err != nil {
		return fmt.Errorf("%w: %v", ErrSave, err)
	}

	path = saved
	slog.Info("presentation generated", "path", path, "template", templateID, "slides", len(snapshot.Slides))
	return nil
}

// LoadFromHistory makes the outline saved next to path the current outline.
// When none can be read the state is left alone and ErrHistory is returned.
func (c *Controller) LoadFromHistory(path string) error {
	o, err := c.library.LoadOutlineSidecar(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Warn("unable to load outline from history", "path", path, "error", err)
		c.errMsg = loadFailedMessage
		return fmt.Errorf("%w: %v", ErrHistory, err)
	}

	c.outline = o
	c.outlineReady = true
	c.topic = ""
	c.generatedFile = ""
	c.showSuccess = false
	if t, ok := outline.TemplateByID(o.Template); ok {
		c.template = t
	}
	slog.Debug("loaded outline from history", "file", filepath.Base(path), "slides", len(o.Slides))
	return nil
}

// Reset returns to a fresh session, including the template choice.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearGenerated()
	c.template = outline.DefaultTemplate()
	c.errMsg = ""
}

// ResetAfterSuccess starts another presentation with the same template.
func (c *Controller) ResetAfterSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearGenerated()
}

func (c *Controller) clearGenerated() {
	c.topic = ""
	c.numSlides = DefaultSlides
	c.outline = nil
	c.outlineReady = false
	c.generatedFile = ""
	c.showSuccess = false
}

// Snapshot is a copy of the observable state.
type Snapshot struct {
	Topic                   string                `json:"topic"`
	NumSlides               int                   `json:"num_slides"`
	Tone                    outline.ToneSelection `json:"tone"`
	SlideTypeMode           SlideTypeMode         `json:"slide_type_mode"`
	SelectedSlideTypes      []string              `json:"selected_slide_types"`
	Outline                 *outline.Outline      `json:"outline"`
	OutlineReady            bool                  `json:"outline_ready"`
	Template                string                `json:"template"`
	GeneratingOutline       bool                  `json:"generating_outline"`
	GeneratingPresentation  bool                  `json:"generating_presentation"`
	GeneratedFile           string                `json:"generated_file,omitempty"`
	ShowSuccess             bool                  `json:"show_success"`
	Error                   string                `json:"error,omitempty"`
	CurrentStep             int                   `json:"current_step"`
	CanGenerateOutline      bool                  `json:"can_generate_outline"`
	CanGeneratePresentation bool                  `json:"can_generate_presentation"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	selected := c.selectedTypes.ToSlice()
	sort.Strings(selected)

	return Snapshot{
		Topic:                   c.topic,
		NumSlides:               c.numSlides,
		Tone:                    c.tone,
		SlideTypeMode:           c.slideTypeMode,
		SelectedSlideTypes:      selected,
		Outline:                 c.outline.Clone(),
		OutlineReady:            c.outlineReady,
		Template:                c.template.ID,
		GeneratingOutline:       c.generatingOutline,
		GeneratingPresentation:  c.generatingPresentation,
		GeneratedFile:           c.generatedFile,
		ShowSuccess:             c.showSuccess,
		Error:                   c.errMsg,
		CurrentStep:             c.currentStep(),
		CanGenerateOutline:      c.canGenerateOutline(),
		CanGeneratePresentation: c.canGeneratePresentation(),
	}
}
