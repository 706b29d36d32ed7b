package patch

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ParseError reports malformed serialized patch input. Issues carries the
// individual schema violations when validation found more than one.
type ParseError struct {
	Message string
	Issues  []string
}

func (e *ParseError) Error() string {
	if len(e.Issues) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Issues, "; ")
}

// setSchema constrains the structure of the wire form; semantic rules that
// depend on the operation kind are enforced in code after unmarshaling.
const setSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "patch set",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["start_a", "start_b", "operations"],
    "additionalProperties": false,
    "properties": {
      "start_a": {"type": "integer", "minimum": 0},
      "start_b": {"type": "integer", "minimum": 0},
      "operations": {
        "type": "array",
        "minItems": 1,
        "items": {
          "type": "object",
          "required": ["op", "content"],
          "additionalProperties": false,
          "properties": {
            "op": {"type": "string", "enum": ["=", "-", "+"]},
            "content": {"type": ["string", "null"]}
          }
        }
      }
    }
  }
}`

var (
	setSchemaLoader     gojsonschema.JSONLoader
	setSchemaLoaderOnce sync.Once
)

func loadSetSchema() gojsonschema.JSONLoader {
	setSchemaLoaderOnce.Do(func() {
		setSchemaLoader = gojsonschema.NewStringLoader(setSchema)
	})
	return setSchemaLoader
}

type wireOp struct {
	Op      string  `json:"op"`
	Content *string `json:"content"`
}

type wireHunk struct {
	StartA     int      `json:"start_a"`
	StartB     int      `json:"start_b"`
	Operations []wireOp `json:"operations"`
}

// Encode serializes the Set to its JSON wire form: an array of hunk objects,
// each holding its anchors and ordered operations. Content is a string for
// "-" and "+" operations and null for "=", consistently in both directions.
func (s Set) Encode() ([]byte, error) {
	hunks := make([]wireHunk, len(s))
	for i, h := range s {
		ops := make([]wireOp, len(h.Edits))
		for j, e := range h.Edits {
			op := wireOp{Op: string(e.Op)}
			if e.Op != OpEqual {
				content := e.Content
				op.Content = &content
			}
			ops[j] = op
		}
		hunks[i] = wireHunk{StartA: h.StartA, StartB: h.StartB, Operations: ops}
	}
	return json.MarshalIndent(hunks, "", "  ")
}

// Decode parses JSON produced by Encode back into a Set. Malformed input is
// rejected with a *ParseError rather than silently truncated: the payload is
// validated against the embedded schema first, then unmarshaled and checked
// semantically (content rules per operation, ascending non-overlapping
// anchors). Decode(Encode(s)) is structurally equal to s for every valid Set.
func Decode(data []byte) (Set, error) {
	if err := validateWire(data); err != nil {
		return nil, err
	}
	var hunks []wireHunk
	if err := json.Unmarshal(data, &hunks); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("decode patch set: %v", err)}
	}
	var set Set
	for i, wh := range hunks {
		edits := make([]Edit, len(wh.Operations))
		for j, wo := range wh.Operations {
			op := Op(wo.Op)
			switch op {
			case OpEqual:
				if wo.Content != nil {
					return nil, &ParseError{Message: fmt.Sprintf("hunk %d operation %d: %q must not carry content", i, j, wo.Op)}
				}
				edits[j] = Edit{Op: op}
			case OpDelete, OpInsert:
				if wo.Content == nil {
					return nil, &ParseError{Message: fmt.Sprintf("hunk %d operation %d: %q requires content", i, j, wo.Op)}
				}
				edits[j] = Edit{Op: op, Content: *wo.Content}
			default:
				return nil, &ParseError{Message: fmt.Sprintf("hunk %d operation %d: unknown op %q", i, j, wo.Op)}
			}
		}
		set = append(set, Hunk{StartA: wh.StartA, StartB: wh.StartB, Edits: edits})
	}
	if err := set.Validate(); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid patch set: %v", err)}
	}
	return set, nil
}

func validateWire(data []byte) error {
	result, err := gojsonschema.Validate(loadSetSchema(), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &ParseError{Message: fmt.Sprintf("parse patch set: %v", err)}
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return &ParseError{Message: "patch set failed schema validation", Issues: issues}
}

// WriteFile persists the Set to path in its JSON wire form.
func (s Set) WriteFile(path string) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadFile loads a Set previously written with WriteFile. I/O errors are
// returned as-is; malformed content surfaces as *ParseError.
func ReadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
