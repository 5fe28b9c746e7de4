package codec

import (
	"encoding/json"

	"github.com/dball/lazyattrs/internal/attrset"
	"github.com/invopop/jsonschema"
)

// JSONSchema describes the JSON encoding of a snapshot.
func JSONSchema() (schema *jsonschema.Schema) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema = reflector.Reflect(&attrset.Snapshot{})
	schema.Title = "attribute set snapshot"
	return
}

// JSONSchemaDocument is the JSON schema as a generic document.
func JSONSchemaDocument() (doc map[string]any, err error) {
	data, err := json.Marshal(JSONSchema())
	if err != nil {
		return
	}
	err = json.Unmarshal(data, &doc)
	return
}
