package knowledge

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

//go:embed data/*.json
var defaultDocs embed.FS

const (
	patternsFile   = "intent_patterns.json"
	synonymsFile   = "synonyms.json"
	templatesFile  = "response_templates.json"
	complianceFile = "compliance_standards.json"
)

// Load reads the four knowledge documents and validates them. When dir is
// empty the embedded defaults are used; otherwise documents are read from
// dir. Any malformed or missing document is fatal to initialization.
func Load(dir string, logger *logging.Logger) (*Base, error) {
	if logger == nil {
		logger = logging.Default()
	}

	read := func(name string) ([]byte, error) {
		if dir == "" {
			return fs.ReadFile(defaultDocs, filepath.Join("data", name))
		}
		return os.ReadFile(filepath.Join(dir, name))
	}

	base := &Base{}
	if err := loadDoc(read, patternsFile, &base.Patterns); err != nil {
		return nil, err
	}
	if err := loadDoc(read, synonymsFile, &base.Synonyms); err != nil {
		return nil, err
	}
	if err := loadDoc(read, templatesFile, &base.Templates); err != nil {
		return nil, err
	}
	if err := loadDoc(read, complianceFile, &base.Compliance); err != nil {
		return nil, err
	}

	if err := base.Validate(); err != nil {
		return nil, err
	}

	logger.Info("knowledge base loaded",
		"patterns", len(base.Patterns.Patterns),
		"fallback_patterns", len(base.Patterns.FallbackPatterns),
		"synonyms", len(base.Synonyms.Synonyms),
		"locations", len(base.Synonyms.Locations),
		"templates", len(base.Templates.Templates),
		"standards", len(base.Compliance.Standards),
		"industries", len(base.Compliance.Industries),
	)
	return base, nil
}

func loadDoc(read func(string) ([]byte, error), name string, dst any) error {
	data, err := read(name)
	if err != nil {
		return fmt.Errorf("knowledge: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("knowledge: parse %s: %w", name, err)
	}
	return nil
}

// Validate checks document integrity. Errors here abort startup.
func (b *Base) Validate() error {
	seen := make(map[string]struct{})
	for _, set := range [][]IntentPattern{b.Patterns.Patterns, b.Patterns.FallbackPatterns} {
		for _, p := range set {
			if p.ID == "" {
				return fmt.Errorf("knowledge: pattern with empty id (intent %q)", p.Intent)
			}
			if _, dup := seen[p.ID]; dup {
				return fmt.Errorf("knowledge: duplicate pattern id %q", p.ID)
			}
			seen[p.ID] = struct{}{}
			if p.Intent == "" {
				return fmt.Errorf("knowledge: pattern %q has no target intent", p.ID)
			}
			if p.Priority < 0 {
				return fmt.Errorf("knowledge: pattern %q has negative priority", p.ID)
			}
			if _, err := regexp.Compile(p.Expression); err != nil {
				return fmt.Errorf("knowledge: pattern %q expression invalid: %w", p.ID, err)
			}
		}
	}

	for _, tbl := range [][]SynonymEntry{b.Synonyms.Synonyms, b.Synonyms.Locations} {
		for _, e := range tbl {
			if e.Canonical == "" {
				return fmt.Errorf("knowledge: synonym entry with empty canonical term (variants %v)", e.Variants)
			}
		}
	}

	for _, t := range b.Templates.Templates {
		if t.Intent == "" {
			return fmt.Errorf("knowledge: template with empty intent")
		}
		if len(t.Variants) == 0 {
			return fmt.Errorf("knowledge: template %q has no variants", t.Intent)
		}
	}

	codes := make(map[string]struct{}, len(b.Compliance.Standards))
	for _, s := range b.Compliance.Standards {
		if s.Code == "" {
			return fmt.Errorf("knowledge: standard with empty code (name %q)", s.Name)
		}
		codes[s.Code] = struct{}{}
	}
	for _, ind := range b.Compliance.Industries {
		if ind.Industry == "" {
			return fmt.Errorf("knowledge: industry requirement table with empty industry")
		}
		for _, code := range append(append([]string{}, ind.Mandatory...), ind.Recommended...) {
			if _, ok := codes[code]; !ok {
				return fmt.Errorf("knowledge: industry %q references unknown standard %q", ind.Industry, code)
			}
		}
	}
	return nil
}
