package schoolnet

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Record is a single API object. The vendor schema is open-ended, so records
// are kept as decoded JSON.
type Record map[string]interface{}

// String returns the field as a string, formatting numbers without exponent.
// Missing, null and empty values return "".
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		if !val {
			return ""
		}

		return "true"
	default:
		return fmt.Sprint(val)
	}
}

// Without returns a shallow copy of r minus the given top-level keys.
func (r Record) Without(keys ...string) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}

	for _, k := range keys {
		delete(out, k)
	}

	return out
}

// Payload is the normalized "data" member of an API envelope: either a
// collection or a single object.
type Payload struct {
	List   []Record
	Object Record
	IsList bool
}

// Records returns the payload as a slice, wrapping a single object.
func (p Payload) Records() []Record {
	if p.IsList {
		return p.List
	}

	if len(p.Object) == 0 {
		return []Record{}
	}

	return []Record{p.Object}
}

// RefKind selects which alias fields are consulted when resolving a Ref.
type RefKind string

const (
	RefDistrict   RefKind = "district"
	RefSchool     RefKind = "school"
	RefSection    RefKind = "section"
	RefStaff      RefKind = "staff"
	RefAssessment RefKind = "assessment"
)

// idFields lists, per kind, the fields checked in order before falling back
// to a bare id.
var idFields = map[RefKind][]string{
	RefDistrict:   {"id", "institutionId"},
	RefSchool:     {"id", "institutionId"},
	RefSection:    {"id", "sectionId"},
	RefStaff:      {"staffId", "teacher", "id"},
	RefAssessment: {"id", "instanceId"},
}

// Ref identifies a resource either by a bare id or by a record that carries
// one of the kind's id fields.
type Ref struct {
	id     string
	record Record
}

// ID returns a Ref holding a bare identifier.
func ID(id string) Ref {
	return Ref{id: id}
}

// IDFromInt returns a Ref holding a numeric identifier.
func IDFromInt(id int64) Ref {
	return Ref{id: strconv.FormatInt(id, 10)}
}

// RefFromRecord returns a Ref that resolves its id from the record's fields.
func RefFromRecord(record Record) Ref {
	return Ref{record: record}
}

// IsZero reports whether the Ref carries neither an id nor a record.
func (r Ref) IsZero() bool {
	return r.id == "" && r.record == nil
}

// Resolve returns the identifier for the given resource kind.
func (r Ref) Resolve(kind RefKind) (string, error) {
	if r.record == nil {
		if r.id == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingID, kind)
		}

		return r.id, nil
	}

	for _, field := range idFields[kind] {
		if id := r.record.String(field); id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: %s record has none of %v", ErrMissingID, kind, idFields[kind])
}

// ListOptions controls paging of list calls.
//
// With neither Limit nor Offset set, every page is fetched. Setting either one
// requests a single page unless Recursive is also true.
type ListOptions struct {
	Limit     *int
	Offset    *int
	Recursive bool
	// Query holds extra query parameters passed through unchanged.
	Query url.Values
}

// NewListOptions creates empty list options (automatic pagination).
func NewListOptions() *ListOptions {
	return &ListOptions{Query: url.Values{}}
}

// WithLimit sets the page size.
func (o *ListOptions) WithLimit(limit int) *ListOptions {
	o.Limit = &limit

	return o
}

// WithOffset sets the starting offset.
func (o *ListOptions) WithOffset(offset int) *ListOptions {
	o.Offset = &offset

	return o
}

// WithRecursive keeps paging after an explicit Limit/Offset.
func (o *ListOptions) WithRecursive(recursive bool) *ListOptions {
	o.Recursive = recursive

	return o
}

// WithQuery adds a pass-through query parameter.
func (o *ListOptions) WithQuery(key, value string) *ListOptions {
	if o.Query == nil {
		o.Query = url.Values{}
	}

	o.Query.Set(key, value)

	return o
}

// Clone returns a deep copy so callers' options are never mutated.
func (o *ListOptions) Clone() *ListOptions {
	if o == nil {
		return NewListOptions()
	}

	out := &ListOptions{Recursive: o.Recursive, Query: url.Values{}}

	if o.Limit != nil {
		limit := *o.Limit
		out.Limit = &limit
	}

	if o.Offset != nil {
		offset := *o.Offset
		out.Offset = &offset
	}

	for k, v := range o.Query {
		out.Query[k] = append([]string(nil), v...)
	}

	return out
}

// AssessmentsOptions filters the assessment list.
type AssessmentsOptions struct {
	// ModifiedSince restricts results to assessments changed on or after this day.
	ModifiedSince time.Time
	Limit         *int
	Offset        *int
}

// WriteResult reports the outcome of a write. Failures are returned here
// rather than as errors.
type WriteResult struct {
	Success bool
	// Record echoes the caller's input.
	Record Record
	Err    error
}

// MarshalJSON flattens the result into {"success": ..., <input fields>, "error": ...}.
func (w WriteResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(w.Record)+2)
	for k, v := range w.Record {
		out[k] = v
	}

	out["success"] = w.Success

	if w.Err != nil {
		out["error"] = w.Err.Error()

		if apiErr, ok := AsAPIError(w.Err); ok {
			out["statusCode"] = apiErr.StatusCode
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshalling write result: %w", err)
	}

	return data, nil
}
