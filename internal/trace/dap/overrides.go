package dap

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// WithOverrides returns l with every top-level key of the JSON object
// overrides written into its arguments. Keys may be dotted paths, which
// reach into nested objects.
func (l Launch) WithOverrides(overrides string) (Launch, error) {
	if overrides == "" {
		return l, nil
	}
	if !gjson.Valid(overrides) {
		return l, fmt.Errorf("launch overrides are not valid JSON")
	}
	parsed := gjson.Parse(overrides)
	if !parsed.IsObject() {
		return l, fmt.Errorf("launch overrides must be a JSON object")
	}

	args := []byte(l.Args)
	if len(args) == 0 {
		args = []byte("{}")
	}
	var err error
	parsed.ForEach(func(key, value gjson.Result) bool {
		args, err = sjson.SetRawBytes(args, key.String(), []byte(value.Raw))
		return err == nil
	})
	if err != nil {
		return l, fmt.Errorf("apply launch overrides: %w", err)
	}
	l.Args = json.RawMessage(args)
	return l, nil
}
