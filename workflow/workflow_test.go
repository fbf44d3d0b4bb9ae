package workflow

import (
	"context"
	"errors"
	"reflect"
	"runtime"
	"sync"
	"testing"

	"github.com/aouyang1/pptmaker/api/models"
	"github.com/aouyang1/pptmaker/outline"
)

type fakeOutliner struct {
	mu    sync.Mutex
	reqs  []models.OutlineRequest
	out   *outline.Outline
	err   error
	block chan struct{}
}

func (f *fakeOutliner) RequestOutline(ctx context.Context, req models.OutlineRequest) (*outline.Outline, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.out.Clone(), nil
}

func (f *fakeOutliner) last() models.OutlineRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

type fakeRenderer struct {
	title    string
	template string
	slides   int
	err      error
}

func (f *fakeRenderer) RequestPresentationFile(ctx context.Context, title string, slides outline.Slides, templateID string) ([]byte, error) {
	f.title, f.template, f.slides = title, templateID, len(slides)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("pptx"), nil
}

type fakeLibrary struct {
	files    map[string][]byte
	sidecars map[string]*outline.Outline
	saveErr  error
	loadErr  error
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{files: map[string][]byte{}, sidecars: map[string]*outline.Outline{}}
}

func (f *fakeLibrary) FilenameFrom(title string) string { return title + ".pptx" }

func (f *fakeLibrary) Save(data []byte, filename string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	path := "/docs/" + filename
	f.files[path] = data
	return path, nil
}

func (f *fakeLibrary) SaveOutlineSidecar(o *outline.Outline, forPath string) error {
	f.sidecars[forPath] = o.Clone()
	return nil
}

func (f *fakeLibrary) LoadOutlineSidecar(forPath string) (*outline.Outline, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	o, ok := f.sidecars[forPath]
	if !ok {
		return nil, errors.New("no sidecar")
	}
	return o.Clone(), nil
}

func sampleOutline() *outline.Outline {
	return &outline.Outline{
		Title: "Deck",
		Slides: outline.Slides{
			&outline.TitleSlide{Base: outline.Base{Number: 1, Title: "Deck"}, Subtitle: "sub"},
			&outline.ContentSlide{Base: outline.Base{Number: 2, Title: "Points"}, Bullets: []string{"a", "b"}},
			&outline.QuoteSlide{Base: outline.Base{Number: 3, Title: "Q"}, Text: "t", Author: "a"},
		},
	}
}

func newController(cfg Config) (*Controller, *fakeOutliner, *fakeRenderer, *fakeLibrary) {
	o := &fakeOutliner{out: sampleOutline()}
	r := &fakeRenderer{}
	l := newFakeLibrary()
	return New(o, r, l, cfg), o, r, l
}

func TestInitialState(t *testing.T) {
	c, _, _, _ := newController(Config{})
	s := c.Snapshot()
	if s.NumSlides != DefaultSlides || s.Template != outline.DefaultTemplate().ID || s.CurrentStep != 1 {
		t.Fatalf("snapshot = %+v", s)
	}
	if s.CanGenerateOutline || s.CanGeneratePresentation {
		t.Fatal("nothing should be possible without a topic")
	}
	if !reflect.DeepEqual(s.SelectedSlideTypes, []string{"content", "quote", "section", "two-column"}) {
		t.Fatalf("selected = %v", s.SelectedSlideTypes)
	}
}

func TestSetSlideCountClamps(t *testing.T) {
	c, _, _, _ := newController(Config{})
	for _, tt := range []struct{ in, want int }{{1, 5}, {5, 5}, {12, 12}, {20, 20}, {99, 20}} {
		c.SetSlideCount(tt.in)
		if got := c.Snapshot().NumSlides; got != tt.want {
			t.Errorf("SetSlideCount(%d) -> %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCanGenerateOutline(t *testing.T) {
	c, _, _, _ := newController(Config{})

	c.SetTopic("   ")
	if c.CanGenerateOutline() {
		t.Fatal("blank topic should block")
	}
	c.SetTopic("bees")
	if !c.CanGenerateOutline() {
		t.Fatal("topic should be enough")
	}

	c.SetTone(outline.ToneSelection{Mode: outline.ToneCustom, Custom: " "})
	if c.CanGenerateOutline() {
		t.Fatal("empty custom tone should block")
	}
	c.SetTone(outline.ToneSelection{Mode: outline.ToneCustom, Custom: "wry"})
	if !c.CanGenerateOutline() {
		t.Fatal("custom tone with text should pass")
	}

	c.SetSlideTypeMode(SlideTypesCustom)
	c.SetSelectedSlideTypes(nil)
	if c.CanGenerateOutline() {
		t.Fatal("custom mode with nothing selected should block")
	}
	c.SetSelectedSlideTypes([]string{"quote"})
	if !c.CanGenerateOutline() {
		t.Fatal("custom mode with a selection should pass")
	}
}

func TestSetters_Reject(t *testing.T) {
	c, _, _, _ := newController(Config{})
	if err := c.SetSlideTypeMode("weird"); err == nil {
		t.Fatal("expected mode error")
	}
	if err := c.SetSelectedSlideTypes([]string{"title"}); err == nil {
		t.Fatal("title slides cannot be restricted")
	}
	if err := c.SelectTemplate("nope"); err == nil {
		t.Fatal("expected template error")
	}
	if err := c.SetTone(outline.ToneSelection{Mode: "loud"}); err == nil {
		t.Fatal("expected tone error")
	}
}

func TestGenerateOutline(t *testing.T) {
	c, o, _, _ := newController(Config{})
	c.SetTopic(" bees ")
	c.SetSlideCount(6)
	c.SetSlideTypeMode(SlideTypesCustom)
	c.SetSelectedSlideTypes([]string{"quote", "content"})

	if err := c.GenerateOutline(context.Background()); err != nil {
		t.Fatal(err)
	}
	req := o.last()
	if req.Topic != "bees" || req.NumSlides != 6 || req.Tone != nil {
		t.Fatalf("request = %+v", req)
	}
	if !reflect.DeepEqual(req.AllowedSlideTypes, []string{"content", "quote"}) {
		t.Fatalf("allowed = %v", req.AllowedSlideTypes)
	}

	s := c.Snapshot()
	if s.CurrentStep != 2 || !s.OutlineReady || s.GeneratingOutline || !s.CanGeneratePresentation {
		t.Fatalf("snapshot = %+v", s)
	}
	if len(s.Outline.Slides) != 3 {
		t.Fatalf("outline = %+v", s.Outline)
	}
}

func TestGenerateOutline_TonePolicy(t *testing.T) {
	tests := []struct {
		name        string
		sendDefault bool
		tone        outline.ToneSelection
		want        string
	}{
		{"default omitted", false, outline.ToneSelection{Mode: outline.ToneDefault}, ""},
		{"default sent", true, outline.ToneSelection{Mode: outline.ToneDefault}, outline.DefaultTone},
		{"preset", false, outline.ToneSelection{Mode: outline.TonePreset, Preset: "casual"}, "casual"},
		{"custom", false, outline.ToneSelection{Mode: outline.ToneCustom, Custom: " wry "}, "wry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, o, _, _ := newController(Config{SendDefaultTone: tt.sendDefault})
			c.SetTopic("bees")
			c.SetTone(tt.tone)
			if err := c.GenerateOutline(context.Background()); err != nil {
				t.Fatal(err)
			}
			got := o.last().Tone
			switch {
			case tt.want == "" && got != nil:
				t.Fatalf("tone = %q, want omitted", *got)
			case tt.want != "" && (got == nil || *got != tt.want):
				t.Fatalf("tone = %v, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateOutline_NotReady(t *testing.T) {
	c, o, _, _ := newController(Config{})
	if err := c.GenerateOutline(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v", err)
	}
	if len(o.reqs) != 0 {
		t.Fatal("backend should not be called")
	}
}

func TestGenerateOutline_Failure(t *testing.T) {
	c, o, _, _ := newController(Config{})
	o.err = errors.New("Server error: boom")
	c.SetTopic("bees")

	if err := c.GenerateOutline(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	s := c.Snapshot()
	if s.Error != "Server error: boom" || s.GeneratingOutline || s.Outline != nil || s.CurrentStep != 1 {
		t.Fatalf("snapshot = %+v", s)
	}

	c.ClearError()
	if c.Error() != "" {
		t.Fatal("error not cleared")
	}
}

func TestGenerateOutline_SingleFlight(t *testing.T) {
	c, o, _, _ := newController(Config{})
	o.block = make(chan struct{})
	c.SetTopic("bees")

	done := make(chan error)
	go func() { done <- c.GenerateOutline(context.Background()) }()

	for !c.Snapshot().GeneratingOutline {
		runtime.Gosched()
	}
	if c.CanGenerateOutline() {
		t.Fatal("guard should be false while in flight")
	}
	if err := c.GenerateOutline(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("second call err = %v", err)
	}

	close(o.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if c.Snapshot().GeneratingOutline {
		t.Fatal("flag left set")
	}
}

func TestEditOutline(t *testing.T) {
	c, _, _, _ := newController(Config{})
	if c.RemoveSlide(0) || c.UpdateSlide(0, &outline.SectionSlide{}) {
		t.Fatal("edits without an outline should be no-ops")
	}

	c.SetTopic("bees")
	c.GenerateOutline(context.Background())

	if c.RemoveSlide(7) || c.UpdateSlide(-1, &outline.SectionSlide{}) {
		t.Fatal("out of range edits should be no-ops")
	}

	updated := &outline.ContentSlide{Base: outline.Base{Number: 2, Title: "New"}, Bullets: []string{"x"}}
	if !c.UpdateSlide(1, updated) {
		t.Fatal("update failed")
	}
	if !c.RemoveSlide(0) {
		t.Fatal("remove failed")
	}

	o := c.Outline()
	if len(o.Slides) != 2 {
		t.Fatalf("slides = %d", len(o.Slides))
	}
	content := o.Slides[0].(*outline.ContentSlide)
	if content.Number != 1 || content.Title != "New" || content.Bullets[0] != "x" {
		t.Fatalf("slide 1 = %+v", content)
	}
	quote := o.Slides[1].(*outline.QuoteSlide)
	if quote.Number != 2 || quote.Text != "t" || quote.Author != "a" {
		t.Fatalf("slide 2 = %+v", quote)
	}
}

func TestGeneratePresentation(t *testing.T) {
	c, _, r, l := newController(Config{})
	if err := c.GeneratePresentation(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want not ready", err)
	}

	c.SetTopic("bees")
	c.GenerateOutline(context.Background())
	c.SelectTemplate("ocean")

	if err := c.GeneratePresentation(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r.title != "Deck" || r.template != "ocean" || r.slides != 3 {
		t.Fatalf("renderer saw %+v", r)
	}

	s := c.Snapshot()
	if s.GeneratedFile != "/docs/Deck.pptx" || !s.ShowSuccess || s.CurrentStep != 3 || s.GeneratingPresentation {
		t.Fatalf("snapshot = %+v", s)
	}
	side := l.sidecars["/docs/Deck.pptx"]
	if side == nil || side.Template != "ocean" || len(side.Slides) != 3 {
		t.Fatalf("sidecar = %+v", side)
	}
}

func TestGeneratePresentation_Failures(t *testing.T) {
	c, _, r, l := newController(Config{})
	c.SetTopic("bees")
	c.GenerateOutline(context.Background())

	r.err = errors.New("Network error: down")
	err := c.GeneratePresentation(context.Background())
	if err == nil || errors.Is(err, ErrSave) {
		t.Fatalf("err = %v", err)
	}
	if s := c.Snapshot(); s.Error != "Network error: down" || s.CurrentStep != 2 || s.GeneratingPresentation {
		t.Fatalf("snapshot = %+v", s)
	}

	r.err = nil
	l.saveErr = errors.New("disk full")
	if err := c.GeneratePresentation(context.Background()); !errors.Is(err, ErrSave) {
		t.Fatalf("err = %v, want save error", err)
	}
	if s := c.Snapshot(); s.GeneratedFile != "" || s.Error == "" {
		t.Fatalf("snapshot = %+v", s)
	}
}

func TestLoadFromHistory(t *testing.T) {
	c, _, _, l := newController(Config{})
	saved := sampleOutline()
	saved.Template = "nature"
	l.sidecars["/docs/Deck.pptx"] = saved

	c.SetTopic("old topic")
	if err := c.LoadFromHistory("/docs/Deck.pptx"); err != nil {
		t.Fatal(err)
	}
	s := c.Snapshot()
	if s.CurrentStep != 2 || !s.OutlineReady || s.Template != "nature" || s.Topic != "" {
		t.Fatalf("snapshot = %+v", s)
	}
	if !reflect.DeepEqual(s.Outline, saved) {
		t.Fatalf("outline = %+v", s.Outline)
	}
}

func TestLoadFromHistory_Missing(t *testing.T) {
	c, _, _, _ := newController(Config{})
	c.SetTopic("bees")
	c.GenerateOutline(context.Background())
	before := c.Outline()

	err := c.LoadFromHistory("/docs/None.pptx")
	if !errors.Is(err, ErrHistory) {
		t.Fatalf("err = %v", err)
	}
	if c.Error() != loadFailedMessage {
		t.Fatalf("message = %q", c.Error())
	}
	if !reflect.DeepEqual(c.Outline(), before) {
		t.Fatal("outline changed on failed load")
	}
}

func TestReset(t *testing.T) {
	c, _, _, _ := newController(Config{})
	c.SetTopic("bees")
	c.SetSlideCount(15)
	c.GenerateOutline(context.Background())
	c.SelectTemplate("ocean")
	c.GeneratePresentation(context.Background())

	c.ResetAfterSuccess()
	s := c.Snapshot()
	if s.Topic != "" || s.NumSlides != DefaultSlides || s.Outline != nil || s.GeneratedFile != "" || s.ShowSuccess {
		t.Fatalf("after success reset = %+v", s)
	}
	if s.Template != "ocean" || s.CurrentStep != 1 {
		t.Fatalf("template = %s step = %d", s.Template, s.CurrentStep)
	}

	c.Reset()
	if got := c.Snapshot().Template; got != outline.DefaultTemplate().ID {
		t.Fatalf("template = %s", got)
	}
}
