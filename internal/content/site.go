// Package content models the copy, product data and contact details that drive
// every page of the site. A Site is loaded once at startup from a YAML document
// and shared read-only between handlers.
package content

// Page keys used for per-route titles and descriptions.
const (
	PageHome     = "home"
	PageProduct  = "producto"
	PageContact  = "contacto"
	PageNotFound = "not-found"
	PageError    = "error"
)

// Legal document slugs. Each one is served at "/" + slug.
const (
	LegalPrivacy = "politica-de-privacidad"
	LegalTerms   = "terminos-de-servicio"
	LegalCookies = "cookies"
)

// LegalSlugs lists the legal documents every site must carry.
var LegalSlugs = []string{LegalPrivacy, LegalTerms, LegalCookies}

// Site is the full content tree of one site variant.
type Site struct {
	Variant      string              `yaml:"variant" json:"variant" validate:"required"`
	Brand        Brand               `yaml:"brand" json:"brand"`
	Nav          []Link              `yaml:"nav" json:"nav" validate:"required,min=1,dive"`
	Home         Home                `yaml:"home" json:"home"`
	Product      Product             `yaml:"product" json:"product"`
	Contact      Contact             `yaml:"contact" json:"contact"`
	ProductTypes []ProductType       `yaml:"product_types" json:"product_types" validate:"required,min=1,dive"`
	Legal        []LegalDoc          `yaml:"legal" json:"legal" validate:"dive"`
	Footer       Footer              `yaml:"footer" json:"footer"`
	Pages        map[string]PageMeta `yaml:"pages" json:"pages"`
	Relay        Relay               `yaml:"relay" json:"relay"`
	Fallback     Fallback            `yaml:"fallback" json:"fallback"`
}

// Brand identifies the company.
type Brand struct {
	Name    string `yaml:"name" json:"name" validate:"required"`
	Tagline string `yaml:"tagline" json:"tagline"`
}

// Link is a labelled navigation target.
type Link struct {
	Label string `yaml:"label" json:"label" validate:"required"`
	Href  string `yaml:"href" json:"href" validate:"required"`
}

// Home holds the landing page copy.
type Home struct {
	Badge          string    `yaml:"badge" json:"badge"`
	Headline       string    `yaml:"headline" json:"headline" validate:"required"`
	HeadlineAccent string    `yaml:"headline_accent" json:"headline_accent"`
	Lead           string    `yaml:"lead" json:"lead"`
	Actions        []Link    `yaml:"actions" json:"actions" validate:"dive"`
	Intro          Section   `yaml:"intro" json:"intro"`
	Benefits       []Benefit `yaml:"benefits" json:"benefits" validate:"dive"`
	Mission        Section   `yaml:"mission" json:"mission"`
}

// Section is a headed block of paragraphs.
type Section struct {
	Kicker     string   `yaml:"kicker" json:"kicker,omitempty"`
	Title      string   `yaml:"title" json:"title"`
	Paragraphs []string `yaml:"paragraphs" json:"paragraphs"`
}

// Benefit is one highlighted selling point.
type Benefit struct {
	Title       string `yaml:"title" json:"title" validate:"required"`
	Description string `yaml:"description" json:"description"`
}

// Product holds the product page: the spec sheet, packing process and
// sustainability notes.
type Product struct {
	Title          string     `yaml:"title" json:"title" validate:"required"`
	Lead           string     `yaml:"lead" json:"lead"`
	Summary        string     `yaml:"summary" json:"summary"`
	Slides         []Slide    `yaml:"slides" json:"slides" validate:"dive"`
	SpecSheet      []SpecItem `yaml:"spec_sheet" json:"spec_sheet" validate:"required,min=1,dive"`
	Usage          string     `yaml:"usage" json:"usage"`
	Description    string     `yaml:"description" json:"description"`
	PackingSteps   []string   `yaml:"packing_steps" json:"packing_steps"`
	Sustainability string     `yaml:"sustainability" json:"sustainability"`
	DatasheetURL   string     `yaml:"datasheet_url" json:"datasheet_url,omitempty"`
}

// Slide is one product shown in the product carousel.
type Slide struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Description string `yaml:"description" json:"description"`
	Image       string `yaml:"image" json:"image"`
}

// SpecItem is one row of the spec sheet.
type SpecItem struct {
	Label string `yaml:"label" json:"label" validate:"required"`
	Value string `yaml:"value" json:"value" validate:"required"`
}

// Contact holds the contact page copy and company details.
type Contact struct {
	Title    string          `yaml:"title" json:"title" validate:"required"`
	Lead     string          `yaml:"lead" json:"lead"`
	Country  string          `yaml:"country" json:"country"`
	Address  string          `yaml:"address" json:"address"`
	Phone    string          `yaml:"phone" json:"phone"`
	Email    string          `yaml:"email" json:"email" validate:"omitempty,email"`
	Messages ContactMessages `yaml:"messages" json:"messages"`
}

// ContactMessages are the status lines shown around the inquiry form.
type ContactMessages struct {
	Submit     string `yaml:"submit" json:"submit" validate:"required"`
	Submitting string `yaml:"submitting" json:"submitting" validate:"required"`
	Accepted   string `yaml:"accepted" json:"accepted" validate:"required"`
	Rejected   string `yaml:"rejected" json:"rejected" validate:"required"`
	Failed     string `yaml:"failed" json:"failed" validate:"required"`
}

// ProductType is one option of the product selector on the inquiry form.
type ProductType struct {
	Tag   string `yaml:"tag" json:"tag" validate:"required"`
	Label string `yaml:"label" json:"label" validate:"required"`
}

// LegalDoc is a legal page.
type LegalDoc struct {
	Slug     string    `yaml:"slug" json:"slug" validate:"required"`
	Title    string    `yaml:"title" json:"title" validate:"required"`
	Updated  string    `yaml:"updated" json:"updated"`
	Intro    string    `yaml:"intro" json:"intro"`
	Sections []Section `yaml:"sections" json:"sections"`
}

// Footer holds footer links.
type Footer struct {
	Blurb  string `yaml:"blurb" json:"blurb"`
	Social []Link `yaml:"social" json:"social" validate:"dive"`
	Legal  []Link `yaml:"legal" json:"legal" validate:"dive"`
}

// PageMeta is the document title and description of one page.
type PageMeta struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Relay configures the form relay inquiries are posted to.
type Relay struct {
	URL string `yaml:"url" json:"url" validate:"required,url"`
}

// Fallback is the copy of the page shown when rendering fails.
type Fallback struct {
	Title  string `yaml:"title" json:"title"`
	Body   string `yaml:"body" json:"body"`
	Action string `yaml:"action" json:"action"`
}

// ProductTypeTags returns the accepted product tags, default first.
func (s *Site) ProductTypeTags() []string {
	tags := make([]string, 0, len(s.ProductTypes))
	for _, pt := range s.ProductTypes {
		tags = append(tags, pt.Tag)
	}
	return tags
}

// Page returns the metadata for key, falling back to the brand name and
// tagline when the document has none.
func (s *Site) Page(key string) PageMeta {
	meta := s.Pages[key]
	if meta.Title == "" {
		meta.Title = s.Brand.Name
	}
	if meta.Description == "" {
		meta.Description = s.Brand.Tagline
	}
	return meta
}

// LegalDoc looks up a legal page by slug.
func (s *Site) LegalDoc(slug string) (LegalDoc, bool) {
	for _, doc := range s.Legal {
		if doc.Slug == slug {
			return doc, true
		}
	}
	return LegalDoc{}, false
}

// FallbackCopy returns the error page copy with defaults filled in.
func (s *Site) FallbackCopy() Fallback {
	fb := Fallback{}
	if s != nil {
		fb = s.Fallback
	}
	if fb.Title == "" {
		fb.Title = DefaultFallback.Title
	}
	if fb.Body == "" {
		fb.Body = DefaultFallback.Body
	}
	if fb.Action == "" {
		fb.Action = DefaultFallback.Action
	}
	return fb
}

// DefaultFallback is used when no site content is available at all.
var DefaultFallback = Fallback{
	Title:  "Algo salió mal",
	Body:   "Estamos trabajando para solucionarlo.",
	Action: "Recargar página",
}
