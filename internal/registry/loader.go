// Package registry loads the declarative library-system configuration: a
// directory of YAML documents, one system per file. Strings may embed
// ${ENV_VAR} placeholders resolved at load time; a file with an unresolved
// reference is skipped while other files continue to load.
package registry

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/errors"
	"github.com/arguspanoptes/argus-server/internal/logger"
)

// Defaults applied to adapter entries that omit the fields.
const (
	defaultTimeoutMs      = 10000
	defaultMaxConcurrency = 2
)

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Loader reads and validates library system documents.
type Loader struct {
	validate *validator.Validate
	log      *logger.Logger
	// getenv is swappable for tests.
	getenv func(string) string
}

// NewLoader creates a loader.
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{
		validate: validator.New(),
		log:      log,
		getenv:   os.Getenv,
	}
}

// LoadDir parses every *.yaml / *.yml document under dir. A file that fails
// to parse, validate, or resolve its secrets is logged and skipped; loading
// fails outright only when the directory is unreadable, a system id is
// duplicated, or no system loads at all.
func (l *Loader) LoadDir(dir string) ([]domain.LibrarySystem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeConfiguration, "library registry directory %s unreadable", dir)
	}

	var systems []domain.LibrarySystem
	seen := make(map[domain.LibrarySystemId]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		system, err := l.LoadFile(path)
		if err != nil {
			l.log.Warn("Skipping library system document", "file", entry.Name(), "error", err)
			continue
		}
		if prev, dup := seen[system.ID]; dup {
			return nil, errors.Configurationf("duplicate system id %q in %s and %s", system.ID, prev, entry.Name())
		}
		seen[system.ID] = entry.Name()
		systems = append(systems, *system)
	}

	if len(systems) == 0 {
		return nil, errors.Configurationf("no loadable library systems in %s", dir)
	}

	sort.Slice(systems, func(i, j int) bool { return systems[i].ID < systems[j].ID })
	return systems, nil
}

// LoadFile parses and validates a single system document.
func (l *Loader) LoadFile(path string) (*domain.LibrarySystem, error) {
	raw, err := os.ReadFile(path) //#nosec G304 -- registry paths come from operator config
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "read document")
	}

	expanded, err := l.expandPlaceholders(string(raw))
	if err != nil {
		return nil, err
	}

	var system domain.LibrarySystem
	// Enabled defaults to true; the YAML zero value would silently disable
	// every system that omits the flag.
	system.Enabled = true
	if err := yaml.Unmarshal([]byte(expanded), &system); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "parse YAML")
	}

	l.applyDefaults(&system)
	if err := l.validateSystem(&system); err != nil {
		return nil, err
	}
	return &system, nil
}

// expandPlaceholders substitutes ${ENV_VAR} references. Any reference to an
// unset variable fails the whole document.
func (l *Loader) expandPlaceholders(doc string) (string, error) {
	var missing []string
	expanded := placeholderPattern.ReplaceAllStringFunc(doc, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		value := l.getenv(name)
		if value == "" {
			missing = append(missing, name)
			return m
		}
		return value
	})
	if len(missing) > 0 {
		return "", errors.Configurationf("unresolved environment references: %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}

func (l *Loader) applyDefaults(system *domain.LibrarySystem) {
	for i := range system.Adapters {
		a := &system.Adapters[i]
		if a.TimeoutMs <= 0 {
			a.TimeoutMs = defaultTimeoutMs
		}
		if a.MaxConcurrency <= 0 {
			a.MaxConcurrency = defaultMaxConcurrency
		}
	}
}

func (l *Loader) validateSystem(system *domain.LibrarySystem) error {
	if err := l.validate.Struct(system); err != nil {
		return errors.Wrap(err, errors.CodeConfiguration, "schema validation")
	}

	branchIDs := make(map[domain.BranchId]struct{}, len(system.Branches))
	for _, b := range system.Branches {
		if _, dup := branchIDs[b.ID]; dup {
			return errors.Configurationf("branch id %q duplicated within system %q", b.ID, system.ID)
		}
		branchIDs[b.ID] = struct{}{}
	}

	for i, a := range system.Adapters {
		if !knownProtocol(a.Protocol) {
			return errors.Configurationf("adapter %d of system %q has unknown protocol %q", i, system.ID, a.Protocol)
		}
		if !strings.HasPrefix(a.BaseURL, "http://") && !strings.HasPrefix(a.BaseURL, "https://") {
			return errors.Configurationf("adapter %d of system %q baseUrl must be absolute", i, system.ID)
		}
		// Secret references must be resolvable now; a missing credential
		// discovered mid-search would surface as a confusing auth error.
		for _, ref := range []string{a.ClientKeyEnvVar, a.ClientSecretEnvVar} {
			if ref != "" && l.getenv(ref) == "" {
				return errors.Configurationf("adapter %d of system %q references unset environment variable %s", i, system.ID, ref)
			}
		}
	}
	return nil
}

func knownProtocol(p domain.Protocol) bool {
	for _, known := range domain.KnownProtocols {
		if p == known {
			return true
		}
	}
	return false
}
