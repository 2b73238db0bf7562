package cms

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "firmsync/internal/common/errors"
)

// entrySchema is checked against every outbound payload before it leaves the
// process. The meta struct already pins field names at compile time; the
// schema catches shape regressions at the boundary.
const entrySchema = `{
	"type": "object",
	"required": ["title", "slug", "content", "status", "meta"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"slug": {"type": "string", "minLength": 1},
		"content": {"type": "string", "minLength": 1},
		"status": {"type": "string", "enum": ["publish", "draft"]},
		"meta": {
			"type": "object",
			"required": ["_verification_state", "_is_verified", "_locations"],
			"properties": {
				"_verification_state": {"type": "string", "enum": ["pending", "verified", "rejected"]},
				"_is_verified": {"type": "boolean"},
				"_locations": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["address", "is_active", "verification_state", "is_verified"]
					}
				}
			}
		}
	}
}`

var entrySchemaLoader = gojsonschema.NewStringLoader(entrySchema)

func validateEntry(entry *Entry) error {
	doc, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("marshal entry: %v", err))
	}

	result, err := gojsonschema.Validate(entrySchemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("schema check: %v", err))
	}
	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}
	return apperrors.NewValidationError(strings.Join(messages, "; "))
}
