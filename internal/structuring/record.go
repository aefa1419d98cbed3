package structuring

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"

	"lens-backend/internal/summaries"
)

const (
	minSuggestionConfidence = 70
	maxSuggestions          = 3
)

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchema))
	if err != nil {
		panic(fmt.Sprintf("structuring: invalid record schema: %v", err))
	}
	return schema
}

// Record is the typed view of the extraction JSON.
type Record struct {
	Name               string                        `json:"name"`
	Email              string                        `json:"email"`
	Phone              string                        `json:"phone"`
	Skills             []string                      `json:"skills"`
	Experience         []string                      `json:"experience"`
	Education          []string                      `json:"education"`
	Projects           []string                      `json:"projects"`
	Awards             []string                      `json:"awards"`
	Certifications     []string                      `json:"certifications"`
	Languages          []string                      `json:"languages"`
	Publications       []string                      `json:"publications"`
	Volunteer          []string                      `json:"volunteer"`
	SuggestedPositions []summaries.SuggestedPosition `json:"suggested_positions"`
}

// ParseRecord extracts, validates, and decodes the extraction JSON. It returns
// the decoded record and the raw object that becomes the stored parsed_data.
func ParseRecord(jsonText string) (Record, map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return Record{}, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return Record{}, nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return Record{}, nil, fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(msgs, "; "))
	}

	var rec Record
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       flattenToString,
	})
	if err != nil {
		return Record{}, nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Record{}, nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	rec.SuggestedPositions = filterSuggestions(rec.SuggestedPositions)
	raw["suggested_positions"] = rec.SuggestedPositions
	return rec, raw, nil
}

// flattenToString turns structured list entries, such as experience objects,
// into single strings so every list field stays []string.
func flattenToString(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if v[k] == nil {
				continue
			}
			s, _ := flattenToString(reflect.TypeOf(v[k]), to, v[k])
			parts = append(parts, fmt.Sprintf("%s: %v", k, s))
		}
		return strings.Join(parts, "; "), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, _ := flattenToString(reflect.TypeOf(item), to, item)
			parts = append(parts, fmt.Sprint(s))
		}
		return strings.Join(parts, ", "), nil
	}
	return data, nil
}

// filterSuggestions keeps confident suggestions, highest first, at most three.
func filterSuggestions(in []summaries.SuggestedPosition) []summaries.SuggestedPosition {
	out := make([]summaries.SuggestedPosition, 0, len(in))
	for _, s := range in {
		s.Position = strings.TrimSpace(s.Position)
		if s.Position == "" || s.Confidence < minSuggestionConfidence {
			continue
		}
		if s.Confidence > 100 {
			s.Confidence = 100
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func (r Record) toSummary() summaries.Summary {
	return summaries.Summary{
		Name:               strings.TrimSpace(r.Name),
		Email:              strings.TrimSpace(r.Email),
		Phone:              strings.TrimSpace(r.Phone),
		Skills:             r.Skills,
		Experience:         r.Experience,
		Education:          r.Education,
		Projects:           r.Projects,
		Awards:             r.Awards,
		Certifications:     r.Certifications,
		Languages:          r.Languages,
		Publications:       r.Publications,
		Volunteer:          r.Volunteer,
		SuggestedPositions: r.SuggestedPositions,
	}
}
