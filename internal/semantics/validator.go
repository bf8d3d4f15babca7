package semantics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/mepd/internal/semantics"

// Input errors.
var (
	ErrSourceRequired       = errors.New("source type is required")
	ErrTargetRequired       = errors.New("target type is required")
	ErrRelationshipRequired = errors.New("relationship is required")
)

// ConnectionResult is the verdict for one connection check.
type ConnectionResult struct {
	Valid                bool     `json:"valid"`
	AllowedRelationships []string `json:"allowed_relationships"`
	Suggestion           string   `json:"suggestion,omitempty"`
}

// Validator answers connection validity questions. It is stateless per
// request and safe for concurrent use.
type Validator struct {
	ontology *Ontology
	tables   map[Relationship]map[typePair]struct{}
	logger   *zap.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithOntology loads a class graph. Queries prefer it over the example
// tables; any query failure falls back silently.
func WithOntology(o *Ontology) ValidatorOption {
	return func(v *Validator) {
		v.ontology = o
	}
}

// WithLogger sets the validator logger.
func WithLogger(l *zap.Logger) ValidatorOption {
	return func(v *Validator) {
		v.logger = l
	}
}

// NewValidator builds a validator backed by the built-in example tables.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		tables: exampleTables(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateConnection checks whether source may relate to target via
// relationship. Only missing inputs return an error; a disallowed pair is a
// Valid=false result carrying the relationships that would be allowed.
func (v *Validator) ValidateConnection(ctx context.Context, source, target, relationship string) (*ConnectionResult, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "semantics.validate_connection")
	defer span.End()
	span.SetAttributes(
		attribute.String("semantics.source", source),
		attribute.String("semantics.target", target),
		attribute.String("semantics.relationship", relationship),
	)

	switch {
	case source == "":
		return nil, ErrSourceRequired
	case target == "":
		return nil, ErrTargetRequired
	case relationship == "":
		return nil, ErrRelationshipRequired
	}

	rel := Relationship(relationship)
	valid := v.query(ctx, rel, source, target)

	res := &ConnectionResult{Valid: valid}
	if !valid {
		res.AllowedRelationships = v.AllowedRelationships(source, target)
		if len(res.AllowedRelationships) > 0 {
			res.Suggestion = fmt.Sprintf("%s and %s do not support %q; try: %s",
				source, target, relationship, strings.Join(res.AllowedRelationships, ", "))
		}
	}
	span.SetAttributes(attribute.Bool("semantics.valid", valid))
	return res, nil
}

// query prefers the ontology and falls back to the example tables on any
// query failure.
func (v *Validator) query(ctx context.Context, rel Relationship, source, target string) bool {
	if v.ontology != nil {
		srcClass, srcOK := ClassMap[source]
		dstClass, dstOK := ClassMap[target]
		if srcOK && dstOK {
			ok, err := v.ontology.Allows(rel, srcClass, dstClass)
			if err == nil {
				return ok
			}
			v.logger.Debug("ontology query failed, using example tables",
				zap.String("source", source),
				zap.String("target", target),
				zap.String("relationship", string(rel)),
				zap.Error(err),
			)
		}
	}

	_, ok := v.tables[rel][typePair{source: source, target: target}]
	return ok
}

// AllowedRelationships enumerates every relationship whose example table
// contains the exact (source, target) pair, sorted for stable output.
func (v *Validator) AllowedRelationships(source, target string) []string {
	var rels []string
	for rel, pairs := range v.tables {
		if _, ok := pairs[typePair{source: source, target: target}]; ok {
			rels = append(rels, string(rel))
		}
	}
	sort.Strings(rels)
	return rels
}
