package constraint

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mepd/internal/element"
)

const maxCatalogFileSize = 1024 * 1024 // 1MB

// DefaultTrayWidthRatio is the minimum cable tray width expressed as a
// multiple of the cable bend radius.
const DefaultTrayWidthRatio = 3.0

// SizeBracket maps element sizes up to MaxSizeMM to a minimum bend radius.
// A bracket with MaxSizeMM zero is open-ended and must come last.
type SizeBracket struct {
	MaxSizeMM float64 `json:"max_size_mm" koanf:"max_size_mm"`
	RadiusM   float64 `json:"radius_m" koanf:"radius_m"`
}

type ruleKey struct {
	kind   element.Kind
	system element.System
}

// Catalog resolves routing rules by element kind and system. It ships with
// built-in defaults; LoadFile overlays a YAML rule file and Watch hot-reloads
// it. Safe for concurrent readers.
type Catalog struct {
	mu        sync.RWMutex
	rules     map[ruleKey]Rule
	brackets  map[element.Kind][]SizeBracket
	trayRatio float64

	logger *zap.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(l *zap.Logger) CatalogOption {
	return func(c *Catalog) {
		c.logger = l
	}
}

// NewCatalog returns a catalog populated with the built-in rules.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		rules:     defaultRules(),
		brackets:  defaultBrackets(),
		trayRatio: DefaultTrayWidthRatio,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RuleFor returns the effective rule for (kind, system): the kind default
// overlaid with any system-specific entries.
func (c *Catalog) RuleFor(kind element.Kind, system element.System) Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rule := c.rules[ruleKey{kind: kind}]
	if system != "" {
		if override, ok := c.rules[ruleKey{kind: kind, system: system}]; ok {
			rule = Merge(rule, override)
		}
	}
	return rule
}

// BendRadiusFor returns the minimum bend radius for an element of the given
// kind and governing size, from the size bracket table. Zero means no bend
// radius constraint applies.
func (c *Catalog) BendRadiusFor(kind element.Kind, sizeMM float64) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, b := range c.brackets[kind] {
		if b.MaxSizeMM == 0 || sizeMM <= b.MaxSizeMM {
			return b.RadiusM
		}
	}
	return 0
}

// TrayWidthRatio returns the configured cable tray width ratio.
func (c *Catalog) TrayWidthRatio() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.trayRatio
}

// Resolve returns the fully resolved rule for a routing spec: the (kind,
// system) rule with the bend radius filled in from the size table when unset,
// and double-45 forced for gravity-bound systems.
func (c *Catalog) Resolve(spec element.Spec) Rule {
	rule := c.RuleFor(spec.Kind, spec.System)
	if rule.BendRadiusM == 0 {
		rule.BendRadiusM = c.BendRadiusFor(spec.Kind, spec.GoverningSizeMM())
	}
	if spec.System.GravityBound() {
		rule.RequiresDouble45 = true
	}
	if rule.MinWidthRatio == 0 && spec.Kind == element.KindCableTray {
		rule.MinWidthRatio = c.TrayWidthRatio()
	}
	return rule
}

// fileSchema is the YAML shape of a catalog override file.
type fileSchema struct {
	CableTrayMinWidthRatio float64                  `koanf:"cable_tray_min_width_ratio"`
	Rules                  []fileRule               `koanf:"rules"`
	BendRadius             map[string][]SizeBracket `koanf:"bend_radius"`
}

type fileRule struct {
	Kind             string    `koanf:"kind"`
	System           string    `koanf:"system"`
	AllowedAngles    []float64 `koanf:"allowed_angles"`
	ForbiddenAngles  []float64 `koanf:"forbidden_angles"`
	BendRadiusM      float64   `koanf:"bend_radius_m"`
	MinWidthRatio    float64   `koanf:"min_width_ratio"`
	RequiresDouble45 bool      `koanf:"requires_double_45"`
}

// Load overlays rules parsed from YAML bytes onto the built-in defaults.
func (c *Catalog) Load(data []byte) error {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}

	var file fileSchema
	if err := k.Unmarshal("", &file); err != nil {
		return fmt.Errorf("unmarshal catalog: %w", err)
	}

	rules := defaultRules()
	for _, fr := range file.Rules {
		if fr.Kind == "" {
			return fmt.Errorf("catalog rule missing kind")
		}
		key := ruleKey{kind: element.Kind(fr.Kind), system: element.System(fr.System)}
		rules[key] = Merge(rules[key], Rule{
			AllowedAngles:    fr.AllowedAngles,
			ForbiddenAngles:  fr.ForbiddenAngles,
			BendRadiusM:      fr.BendRadiusM,
			MinWidthRatio:    fr.MinWidthRatio,
			RequiresDouble45: fr.RequiresDouble45,
		})
	}

	brackets := defaultBrackets()
	for kind, bs := range file.BendRadius {
		brackets[element.Kind(kind)] = bs
	}

	ratio := c.trayRatio
	if file.CableTrayMinWidthRatio > 0 {
		ratio = file.CableTrayMinWidthRatio
	}

	c.mu.Lock()
	c.rules = rules
	c.brackets = brackets
	c.trayRatio = ratio
	c.mu.Unlock()
	return nil
}

// LoadFile loads a catalog override file.
func (c *Catalog) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat catalog file: %w", err)
	}
	if info.Size() > maxCatalogFileSize {
		return fmt.Errorf("catalog file too large: %d bytes (max %d)", info.Size(), maxCatalogFileSize)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read catalog file: %w", err)
	}
	return c.Load(data)
}

// Watch reloads the catalog whenever path changes, until ctx is canceled.
// Reload failures keep the previous rules and log a warning.
func (c *Catalog) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("watch catalog file %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := c.LoadFile(path); err != nil {
					c.logger.Warn("constraint catalog reload failed",
						zap.String("path", path),
						zap.Error(err),
					)
					continue
				}
				c.logger.Info("constraint catalog reloaded", zap.String("path", path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warn("constraint catalog watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

// Merge overlays the non-zero fields of override onto base.
func Merge(base, override Rule) Rule {
	out := base
	if len(override.AllowedAngles) > 0 {
		out.AllowedAngles = override.AllowedAngles
	}
	if len(override.ForbiddenAngles) > 0 {
		out.ForbiddenAngles = override.ForbiddenAngles
	}
	if override.BendRadiusM > 0 {
		out.BendRadiusM = override.BendRadiusM
	}
	if override.MinWidthRatio > 0 {
		out.MinWidthRatio = override.MinWidthRatio
	}
	if override.RequiresDouble45 {
		out.RequiresDouble45 = true
	}
	return out
}

func defaultRules() map[ruleKey]Rule {
	rules := make(map[ruleKey]Rule)
	for _, k := range element.MEPKinds() {
		r := Rule{AllowedAngles: DefaultAllowedAngles}
		if k == element.KindCableTray {
			r.MinWidthRatio = DefaultTrayWidthRatio
		}
		rules[ruleKey{kind: k}] = r
	}

	// Gravity systems must keep falling: no single 90s on horizontal runs.
	for _, sys := range []element.System{element.SystemGravityDrainage, element.SystemSanitary} {
		rules[ruleKey{kind: element.KindPipe, system: sys}] = Rule{
			AllowedAngles:    DefaultAllowedAngles,
			RequiresDouble45: true,
		}
	}
	return rules
}

func defaultBrackets() map[element.Kind][]SizeBracket {
	pipe := []SizeBracket{
		{MaxSizeMM: 50, RadiusM: 0.10},
		{MaxSizeMM: 100, RadiusM: 0.15},
		{MaxSizeMM: 150, RadiusM: 0.25},
		{MaxSizeMM: 250, RadiusM: 0.40},
		{RadiusM: 0.60},
	}
	return map[element.Kind][]SizeBracket{
		element.KindPipe: pipe,
		element.KindConduit: {
			{MaxSizeMM: 25, RadiusM: 0.15},
			{MaxSizeMM: 50, RadiusM: 0.25},
			{RadiusM: 0.35},
		},
		element.KindDuct: {
			{MaxSizeMM: 400, RadiusM: 0.40},
			{MaxSizeMM: 800, RadiusM: 0.60},
			{RadiusM: 1.00},
		},
		element.KindCableTray: {
			{MaxSizeMM: 300, RadiusM: 0.30},
			{RadiusM: 0.60},
		},
	}
}
