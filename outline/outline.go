package outline

// Outline is a presentation title plus its ordered slides. Template is set
// once a presentation has been rendered from it.
type Outline struct {
	Title    string `json:"presentation_title"`
	Slides   Slides `json:"slides"`
	Template string `json:"template,omitempty"`
}

// Metadata is the optional block the backend returns next to an outline.
type Metadata struct {
	Topic           string `json:"topic"`
	RequestedSlides int    `json:"requested_slides"`
	GeneratedSlides int    `json:"generated_slides"`
}

// Clone returns a deep copy.
func (o *Outline) Clone() *Outline {
	if o == nil {
		return nil
	}
	c := &Outline{Title: o.Title, Template: o.Template}
	if o.Slides != nil {
		c.Slides = make(Slides, len(o.Slides))
		for i, s := range o.Slides {
			c.Slides[i] = s.clone()
		}
	}
	return c
}

// Renumber assigns slide numbers 1..n in slide order. Only the number is
// touched; every type-specific field is left as is.
func (o *Outline) Renumber() {
	for i, s := range o.Slides {
		s.Header().Number = i + 1
	}
}

// Replace swaps the slide at index. It reports false when index is out of
// range.
func (o *Outline) Replace(index int, slide Slide) bool {
	if slide == nil || index < 0 || index >= len(o.Slides) {
		return false
	}
	o.Slides[index] = slide.clone()
	return true
}

// Remove deletes the slide at index and renumbers the rest. It reports false
// when index is out of range.
func (o *Outline) Remove(index int) bool {
	if index < 0 || index >= len(o.Slides) {
		return false
	}
	o.Slides = append(o.Slides[:index], o.Slides[index+1:]...)
	o.Renumber()
	return true
}
