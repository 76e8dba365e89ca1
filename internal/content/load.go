package content

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/campopack/campopack-web/web"
)

// DefaultVariant is served when no variant is configured.
const DefaultVariant = "campopack"

const contentDir = "content"

// ErrUnknownVariant is returned when no embedded document matches a variant.
var ErrUnknownVariant = errors.New("content: unknown variant")

// Variants lists the embedded site variants in name order.
func Variants() ([]string, error) {
	entries, err := fs.ReadDir(web.Content, contentDir)
	if err != nil {
		return nil, fmt.Errorf("content: list variants: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// Load parses and validates the embedded document for variant. An empty
// variant selects DefaultVariant.
func Load(variant string) (*Site, error) {
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = DefaultVariant
	}
	data, err := fs.ReadFile(web.Content, path.Join(contentDir, variant+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
		}
		return nil, fmt.Errorf("content: read %s: %w", variant, err)
	}
	site, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("content: variant %s: %w", variant, err)
	}
	return site, nil
}

// LoadFile parses and validates a document from disk.
func LoadFile(filename string) (*Site, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", filename, err)
	}
	site, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("content: %s: %w", filename, err)
	}
	return site, nil
}

// Parse decodes a YAML document and validates it. Unknown keys are errors so a
// misspelt field cannot silently blank a page.
func Parse(data []byte) (*Site, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var site Site
	if err := dec.Decode(&site); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := site.Validate(); err != nil {
		return nil, err
	}
	return &site, nil
}

// Marshal renders site back to YAML.
func Marshal(site *Site) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(site); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// Validate reports every problem with the document at once.
func (s *Site) Validate() error {
	var problems []error
	if err := structValidator.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			field := strings.TrimPrefix(fe.Namespace(), "Site.")
			problems = append(problems, fmt.Errorf("%s: failed %q", field, fe.Tag()))
		}
	}

	if s.Relay.URL != "" {
		if u, err := url.Parse(s.Relay.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, fmt.Errorf("relay.url: %q is not an absolute http(s) URL", s.Relay.URL))
		}
	}

	seen := make(map[string]struct{}, len(s.ProductTypes))
	for _, pt := range s.ProductTypes {
		if _, dup := seen[pt.Tag]; dup {
			problems = append(problems, fmt.Errorf("product_types: duplicate tag %q", pt.Tag))
		}
		seen[pt.Tag] = struct{}{}
	}

	for _, slug := range LegalSlugs {
		if _, ok := s.LegalDoc(slug); !ok {
			problems = append(problems, fmt.Errorf("legal: missing document %q", slug))
		}
	}

	return errors.Join(problems...)
}
