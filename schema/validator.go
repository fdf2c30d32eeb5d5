package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/lambda-doc/lambda/item"
	"github.com/lambda-doc/lambda/reader"
)

// Options configures a Validator's stop conditions and strictness
// (§4.U3).
type Options struct {
	StrictMode         bool // unknown map/attr fields are errors
	AllowUnknownFields bool // overrides StrictMode's unknown-field check
	MaxDepth           int  // 0 uses DefaultMaxDepth
	TimeoutMs          int  // 0 means unlimited
	MaxErrors          int  // 0 means unlimited
	ShowSuggestions    bool
	ShowContext        bool
}

// DefaultMaxDepth is the validator's recursion ceiling (§4.U3).
const DefaultMaxDepth = 100

// DefaultOptions returns the zero-value options with MaxDepth resolved to
// DefaultMaxDepth.
func DefaultOptions() Options { return Options{MaxDepth: DefaultMaxDepth} }

// ValidationError is one entry of a ValidationResult. Code names the kind
// of failure (missing_field, null_value, type_mismatch, tag_mismatch,
// content_length, occurrence, union, unknown_field, undefined_type,
// undefined_function, cyclic_type, max_depth, timeout); Path is a
// dotted/bracketed locator such as "$.person.tags[2]".
type ValidationError struct {
	Path    string
	Code    string
	Message string
}

// ValidationResult is the outcome of a Validate call: spec.md's "linked
// list of errors" is rendered as a plain Go slice, the idiomatic
// replacement named in SPEC_FULL.md §9.1.
type ValidationResult struct {
	Valid      bool
	ErrorCount int
	Errors     []ValidationError
}

// Validator compiles and holds named schema types, and validates items
// against them (§4.U3). It never mutates the Type trees it holds.
type Validator struct {
	types map[string]Type
	opts  Options
}

// NewValidator creates an empty Validator with DefaultOptions.
func NewValidator() *Validator {
	return &Validator{types: make(map[string]Type), opts: DefaultOptions()}
}

// SetStrictMode toggles unknown-field rejection.
func (v *Validator) SetStrictMode(strict bool) { v.opts.StrictMode = strict }

// SetMaxErrors overrides the error-count stop condition. 0 means
// unlimited.
func (v *Validator) SetMaxErrors(n int) { v.opts.MaxErrors = n }

// Options returns the validator's current options.
func (v *Validator) Options() Options { return v.opts }

// SetOptions replaces the validator's options wholesale.
func (v *Validator) SetOptions(o Options) { v.opts = o }

// LoadSchema compiles schemaText and registers its named types. It
// recognizes two dialects: the native grammar of loader.go (a sequence of
// "type Name = ..." declarations), and — when the text looks like a JSON
// object — a JSON-Schema-flavored dialect translated through
// jsonschema.go. namedType, if non-empty, must resolve to a declared type
// after loading (for the JSON-Schema dialect, which declares exactly one
// anonymous type, namedType is required and names that type).
func (v *Validator) LoadSchema(schemaText []byte, namedType string) error {
	if looksLikeJSONSchema(schemaText) {
		t, err := fromJSONSchemaText(schemaText)
		if err != nil {
			return err
		}
		if namedType == "" {
			return fmt.Errorf("schema: a named type is required to register a JSON Schema document")
		}
		v.types[namedType] = t
		return nil
	}

	defs, err := parseNative(schemaText)
	if err != nil {
		return err
	}
	for name, t := range defs {
		v.types[name] = t
	}
	if namedType != "" {
		if _, ok := v.types[namedType]; !ok {
			return fmt.Errorf("schema: named type %q was not declared in the schema text", namedType)
		}
	}
	return nil
}

// Validate validates it against the named type, auto-detecting a format
// hint via DetectInputFormat.
func (v *Validator) Validate(it item.Item, typeName string) ValidationResult {
	return v.ValidateWithFormat(it, typeName, "")
}

// ValidateWithFormat validates it against the named type under an
// explicit format hint ("xml", "html", or "" for none/auto-detect),
// applying the format-aware unwrap phase of §4.U3 before walking.
func (v *Validator) ValidateWithFormat(it item.Item, typeName, formatHint string) ValidationResult {
	t, ok := v.types[typeName]
	if !ok {
		return ValidationResult{
			Valid: false, ErrorCount: 1,
			Errors: []ValidationError{{Path: "$", Code: "undefined_type", Message: fmt.Sprintf("unknown type %q", typeName)}},
		}
	}
	if formatHint == "" {
		formatHint = DetectInputFormat(it)
	}
	root := unwrapForFormat(it, formatHint)

	st := newState(v.opts, v.types)
	st.validateType(root, t)
	return st.result()
}

// DetectInputFormat inspects the root item's shape to pick a default
// format hint when the caller did not supply one (§4.U3).
func DetectInputFormat(it item.Item) string {
	r := reader.Of(it)
	if !r.IsElement() {
		return ""
	}
	switch r.AsElement().TagName() {
	case "document":
		return "xml"
	case "html":
		return "html"
	default:
		return ""
	}
}

// unwrapForFormat implements §4.U3's format-aware unwrap: for "xml",
// descend into a <document> wrapper's first child; for "html", descend
// from <html> to its <body> child when present.
func unwrapForFormat(it item.Item, format string) item.Item {
	r := reader.Of(it)
	switch format {
	case "xml":
		if r.IsElement() && r.AsElement().TagName() == "document" {
			el := r.AsElement()
			if el.ChildCount() > 0 {
				return el.ChildAt(0)
			}
		}
	case "html":
		if r.IsElement() && r.AsElement().TagName() == "html" {
			el := r.AsElement()
			for i := 0; i < el.ChildCount(); i++ {
				child := reader.Of(el.ChildAt(i))
				if child.IsElement() && child.AsElement().TagName() == "body" {
					return el.ChildAt(i)
				}
			}
		}
	}
	return it
}

// state is the mutable walk state of one Validate call: the deferred-pop
// path/depth guards of §4.U3's PathScope/DepthScope become a plain slice
// and counter mutated by push/pop closures called via defer.
type state struct {
	opts     Options
	registry map[string]Type

	errors   []ValidationError
	path     []string
	depth    int
	start    time.Time
	timedOut bool
}

func newState(opts Options, registry map[string]Type) *state {
	if opts.MaxDepth == 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &state{opts: opts, registry: registry, start: time.Now()}
}

func (s *state) result() ValidationResult {
	return ValidationResult{Valid: len(s.errors) == 0, ErrorCount: len(s.errors), Errors: s.errors}
}

func (s *state) pushPath(seg string) func() {
	s.path = append(s.path, seg)
	return func() { s.path = s.path[:len(s.path)-1] }
}

func (s *state) pathString() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range s.path {
		if strings.HasPrefix(seg, "[") {
			b.WriteString(seg)
		} else {
			b.WriteByte('.')
			b.WriteString(seg)
		}
	}
	return b.String()
}

func (s *state) addError(code, format string, args ...any) {
	s.errors = append(s.errors, ValidationError{Path: s.pathString(), Code: code, Message: fmt.Sprintf(format, args...)})
}

// shouldStop checks the stop conditions of §4.U3: max_errors reached, or
// wall clock past timeout_ms (sampled once per recursion, recording
// exactly one timeout error the first time it trips).
func (s *state) shouldStop() bool {
	if s.opts.MaxErrors > 0 && len(s.errors) >= s.opts.MaxErrors {
		return true
	}
	if s.opts.TimeoutMs > 0 && time.Since(s.start) > time.Duration(s.opts.TimeoutMs)*time.Millisecond {
		if !s.timedOut {
			s.timedOut = true
			s.addError("timeout", "validation exceeded %dms", s.opts.TimeoutMs)
		}
		return true
	}
	return false
}

// validateType is the mutually recursive walk, keyed on the concrete
// Type (the Go type switch standing in for the source's type_id switch).
func (s *state) validateType(it item.Item, t Type) {
	if s.shouldStop() {
		return
	}
	if s.depth >= s.opts.MaxDepth {
		s.addError("max_depth", "maximum validation depth %d exceeded", s.opts.MaxDepth)
		return
	}
	s.depth++
	defer func() { s.depth-- }()

	switch tt := t.(type) {
	case Primitive:
		s.validatePrimitive(it, tt)
	case Array:
		s.validateArray(it, tt)
	case Map:
		s.validateMap(it, tt)
	case Elmt:
		s.validateElmt(it, tt)
	case Unary:
		s.validateOccurrence(it, tt)
	case Binary:
		s.validateBinaryType(it, tt)
	case Func:
		s.validateFunc(it, tt)
	case SysFunc:
		s.validateSysFunc(it, tt)
	case TypeRef:
		s.validateBaseType(it, tt)
	default:
		s.addError("internal", "unrecognized schema type %T", t)
	}
}

func (s *state) validatePrimitive(it item.Item, p Primitive) {
	r := reader.Of(it)
	var ok bool
	switch p.Tag {
	case item.AnyType:
		ok = true
	case item.TagNull:
		ok = r.IsNull()
	case item.TagBool:
		ok = r.IsBool()
	case item.TagInt56, item.TagInt64:
		ok = r.IsInt()
	case item.TagFloat64:
		ok = r.IsFloat()
	case item.TagDecimal:
		ok = it.Tag() == item.TagDecimal
	case item.TagString:
		ok = r.IsString()
	case item.TagSymbol:
		ok = r.IsSymbol()
	case item.TagDateTime:
		ok = r.IsDateTime()
	case item.TagBinary:
		ok = it.Tag() == item.TagBinary
	}
	if !ok {
		s.addError("type_mismatch", "expected %s, found %s", primitiveName(p), it.Tag())
	}
}

func (s *state) validateArray(it item.Item, a Array) {
	r := reader.Of(it)
	if !r.IsArray() && !r.IsList() {
		s.addError("type_mismatch", "expected array, found %s", it.Tag())
		return
	}
	arr := r.AsArray()
	if a.Length >= 0 && arr.Length() != a.Length {
		s.addError("length_mismatch", "expected array of length %d, found %d", a.Length, arr.Length())
	}
	for i, v := range arr.Items() {
		pop := s.pushPath(fmt.Sprintf("[%d]", i))
		s.validateType(v, a.Elem)
		pop()
		if s.shouldStop() {
			return
		}
	}
}

// fieldSource abstracts over a MapReader and an ElementReader's
// attributes so validateFields can walk either without duplicating the
// missing/null/unknown logic.
type fieldSource interface {
	has(name string) bool
	get(name string) item.Item
	keys() []string
}

type mapFieldSource struct{ r reader.MapReader }

func (m mapFieldSource) has(name string) bool      { return m.r.Has(name) }
func (m mapFieldSource) get(name string) item.Item { return m.r.Get(name) }
func (m mapFieldSource) keys() []string {
	var ks []string
	for k := range m.r.Keys() {
		ks = append(ks, k)
	}
	return ks
}

type attrFieldSource struct{ r reader.ElementReader }

func (a attrFieldSource) has(name string) bool      { return a.r.HasAttr(name) }
func (a attrFieldSource) get(name string) item.Item { return a.r.GetAttr(name) }
func (a attrFieldSource) keys() []string {
	var ks []string
	for k := range a.r.Attrs() {
		ks = append(ks, k)
	}
	return ks
}

// validateFields walks the shape of §4.U3's "Maps" rule: missing +
// non-optional is missing_field; present + null + non-optional is
// null_value; otherwise recurse. In strict mode, fields the source
// carries but the type does not declare are unknown_field.
func (s *state) validateFields(src fieldSource, fields []Field) {
	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		declared[f.Name] = true
		pop := s.pushPath(f.Name)
		switch {
		case !src.has(f.Name):
			if !f.Optional {
				s.addError("missing_field", "missing required field %q", f.Name)
			}
		case reader.Of(src.get(f.Name)).IsNull():
			if !f.Optional {
				s.addError("null_value", "field %q is null", f.Name)
			}
		default:
			s.validateType(src.get(f.Name), f.Type)
		}
		pop()
		if s.shouldStop() {
			return
		}
	}
	if s.opts.StrictMode && !s.opts.AllowUnknownFields {
		for _, k := range src.keys() {
			if !declared[k] {
				s.addError("unknown_field", "unexpected field %q", k)
			}
		}
	}
}

func (s *state) validateMap(it item.Item, m Map) {
	r := reader.Of(it)
	if !r.IsMap() {
		s.addError("type_mismatch", "expected map, found %s", it.Tag())
		return
	}
	s.validateFields(mapFieldSource{r.AsMap()}, m.Fields)
}

func (s *state) validateElmt(it item.Item, e Elmt) {
	r := reader.Of(it)
	if !r.IsElement() {
		s.addError("type_mismatch", "expected element <%s>, found %s", e.Tag, it.Tag())
		return
	}
	el := r.AsElement()
	if el.TagName() != e.Tag {
		s.addError("tag_mismatch", "expected <%s>, found <%s>", e.Tag, el.TagName())
	}
	s.validateFields(attrFieldSource{el}, e.Fields)
	if s.shouldStop() {
		return
	}
	if e.ContentLength > 0 && el.ChildCount() != e.ContentLength {
		s.addError("content_length", "expected %d children, found %d", e.ContentLength, el.ChildCount())
	}
}

// validateOccurrence implements §4.U3's occurrence semantics: a
// container's element count is checked against [min,max] and then every
// element is recursively validated against the operand; a scalar is
// treated as a collection of length 1. An array whose own ElemType is
// already a narrow primitive (e.g. a parser-produced typed int array)
// needs no extra fast path here — each element is still a plain
// item.Item and validates identically to a general array's elements.
func (s *state) validateOccurrence(it item.Item, u Unary) {
	r := reader.Of(it)
	var count int
	var get func(int) item.Item
	if r.IsArray() || r.IsList() {
		arr := r.AsArray()
		count = arr.Length()
		get = arr.Get
	} else {
		count = 1
		get = func(int) item.Item { return it }
	}

	if count < u.MinCount || (u.MaxCount >= 0 && count > u.MaxCount) {
		s.addError("occurrence", "expected %s occurrences, found %d", occurrenceRange(u), count)
		return
	}
	for i := 0; i < count; i++ {
		pop := s.pushPath(fmt.Sprintf("[%d]", i))
		s.validateType(get(i), u.Operand)
		pop()
		if s.shouldStop() {
			return
		}
	}
}

func occurrenceRange(u Unary) string {
	if u.MaxCount < 0 {
		return fmt.Sprintf("at least %d", u.MinCount)
	}
	if u.MinCount == u.MaxCount {
		return fmt.Sprintf("exactly %d", u.MinCount)
	}
	return fmt.Sprintf("between %d and %d", u.MinCount, u.MaxCount)
}

// validateBinaryType implements §4.U3's union/intersection/exclusion
// semantics over the two arms of a Binary node.
func (s *state) validateBinaryType(it item.Item, b Binary) {
	switch b.Op {
	case Union:
		s.validateUnion(it, []Type{b.Left, b.Right})
	case Intersect:
		left := s.tryType(it, b.Left)
		right := s.tryType(it, b.Right)
		s.errors = append(s.errors, left...)
		s.errors = append(s.errors, right...)
	case Exclude:
		s.errors = append(s.errors, s.tryType(it, b.Left)...)
		if s.shouldStop() {
			return
		}
		if len(s.tryType(it, b.Right)) == 0 {
			s.addError("exclusion", "value must not match the excluded type")
		}
	}
}

// validateUnion tries each arm in order, succeeding on the first match;
// otherwise it reports the arm with the fewest errors plus a summary
// error (§4.U3).
func (s *state) validateUnion(it item.Item, arms []Type) {
	var best []ValidationError
	for _, arm := range arms {
		errs := s.tryType(it, arm)
		if len(errs) == 0 {
			return
		}
		if best == nil || len(errs) < len(best) {
			best = errs
		}
	}
	s.errors = append(s.errors, best...)
	s.addError("union", "value did not match any of %d union arms", len(arms))
}

// tryType validates it against t in an isolated sub-state (sharing path,
// depth, and the wall-clock start so stop conditions still apply) and
// returns whatever errors it collected, without committing them to s.
func (s *state) tryType(it item.Item, t Type) []ValidationError {
	sub := &state{
		opts:     s.opts,
		registry: s.registry,
		path:     append([]string(nil), s.path...),
		depth:    s.depth,
		start:    s.start,
	}
	sub.validateType(it, t)
	return sub.errors
}

func (s *state) validateFunc(it item.Item, f Func) {
	if len(f.Args) == 0 {
		s.addError("undefined_function", "function %q declares no operand types", f.Name)
		return
	}
	for _, a := range f.Args {
		s.validateType(it, a)
		if s.shouldStop() {
			return
		}
	}
}

// validateSysFunc resolves the fixed set of built-in predicates this
// implementation recognizes (see DESIGN.md for the resolved open
// question on TypeSysFunc semantics, which spec.md leaves unspecified).
func (s *state) validateSysFunc(it item.Item, f SysFunc) {
	switch f.Name {
	case "any":
		// Always valid: a named escape hatch equivalent to AnyPrimitive.
	case "nonempty":
		if len(f.Args) != 1 {
			s.addError("internal", "$nonempty takes exactly one operand type")
			return
		}
		s.validateType(it, f.Args[0])
		if s.shouldStop() {
			return
		}
		if !isNonEmpty(it) {
			s.addError("nonempty", "value must not be empty")
		}
	default:
		s.addError("undefined_function", "unknown system function $%s", f.Name)
	}
}

func isNonEmpty(it item.Item) bool {
	r := reader.Of(it)
	switch {
	case r.IsString():
		return r.AsString() != ""
	case r.IsSymbol():
		return r.AsSymbol() != ""
	case r.IsArray() || r.IsList():
		return r.AsArray().Length() > 0
	case r.IsMap():
		return r.AsMap().Length() > 0
	case r.IsElement():
		return r.AsElement().ChildCount() > 0
	default:
		return true
	}
}

// validateBaseType unwraps a TypeRef chain against the registry,
// guarding against a cycle so the walk always terminates (§3.6's
// invariant).
func (s *state) validateBaseType(it item.Item, ref TypeRef) {
	seen := make(map[string]bool)
	name := ref.Name
	for {
		if seen[name] {
			s.addError("cyclic_type", "cyclic type reference %q", name)
			return
		}
		seen[name] = true
		t, ok := s.registry[name]
		if !ok {
			s.addError("undefined_type", "undefined type %q", name)
			return
		}
		if next, ok := t.(TypeRef); ok {
			name = next.Name
			continue
		}
		s.validateType(it, t)
		return
	}
}
