package outline

type TemplateStyle string

const (
	StyleGradient  TemplateStyle = "gradient"
	StyleGeometric TemplateStyle = "geometric"
	StyleMinimal   TemplateStyle = "minimal"
	StyleClassic   TemplateStyle = "classic"
	StyleModern    TemplateStyle = "modern"
)

// Template is a design the rendering backend knows by ID.
type Template struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	PrimaryColor   string        `json:"primary_color"`
	SecondaryColor string        `json:"secondary_color"`
	AccentColor    string        `json:"accent_color"`
	Style          TemplateStyle `json:"style"`
}

// Templates is the catalog shipped with the client, in display order. The
// first entry is the default selection.
var Templates = []Template{
	{"corporate", "Corporate Professional", "Clean and professional design for business presentations", "#1E3A8A", "#3B82F6", "#F3F4F6", StyleClassic},
	{"creative", "Creative Bold", "Vibrant and eye-catching design for creative presentations", "#8B5CF6", "#EC4899", "#FBBF24", StyleGeometric},
	{"academic", "Academic Classic", "Traditional and scholarly design for academic presentations", "#1E40AF", "#FBBF24", "#FEF3C7", StyleClassic},
	{"minimal", "Minimal Modern", "Sleek and contemporary design with minimalist aesthetics", "#000000", "#10B981", "#D1D5DB", StyleMinimal},
	{"warm", "Warm & Friendly", "Inviting and approachable design with warm colors", "#F97316", "#059669", "#FEF3C7", StyleModern},
	{"tech", "Tech Startup", "Modern gradient design for technology and innovation", "#4F46E5", "#7C3AED", "#93C5FD", StyleGradient},
	{"nature", "Nature Eco", "Earth-friendly green design for environmental topics", "#166534", "#84CC16", "#FEF08A", StyleModern},
	{"luxury", "Luxury Premium", "Elegant gold and dark design for high-end presentations", "#1F2937", "#D97706", "#FDE047", StyleClassic},
	{"vibrant", "Vibrant Energy", "Bright and energetic multi-color scheme", "#DB2777", "#EA580C", "#A855F7", StyleGeometric},
	{"monochrome", "Monochrome Elegant", "Sophisticated black and white design", "#111827", "#6B7280", "#D1D5DB", StyleMinimal},
	{"sunset", "Sunset Glow", "Warm sunset colors with orange, pink, and coral", "#EF4444", "#FB923C", "#FCD34D", StyleGradient},
	{"ocean", "Ocean Blue", "Cool and calming ocean blues and teals", "#0891B2", "#0EA5E9", "#67E8F9", StyleGradient},
	{"dark", "Professional Dark", "Modern dark mode business theme", "#1E293B", "#475569", "#94A3B8", StyleModern},
	{"pastel", "Pastel Soft", "Gentle and calming pastel color scheme", "#A78BFA", "#FBCFE8", "#C4B5FD", StyleModern},
	{"retro", "Retro Vintage", "Classic 80s/90s inspired color palette", "#EC4899", "#A855F7", "#2DD4BF", StyleGeometric},
}

// DefaultTemplate is the first catalog entry.
func DefaultTemplate() Template {
	return Templates[0]
}

// TemplateByID looks a template up in the catalog.
func TemplateByID(id string) (Template, bool) {
	for _, t := range Templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}
