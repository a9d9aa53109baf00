package model

import (
	jsoniter "github.com/json-iterator/go"
)

// JSON is the codec shared by the data file and request bodies.
// Numbers decode as json.Number so opaque fields keep their exact text.
var JSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// DocumentIndent is the indentation used when writing the data file.
const DocumentIndent = "    "

// Clone returns a deep copy of the document by round-tripping it through JSON.
func (d *Document) Clone() (*Document, error) {
	data, err := JSON.Marshal(d)
	if err != nil {
		return nil, err
	}

	var out Document
	if err := JSON.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	out.Normalize()

	return &out, nil
}
