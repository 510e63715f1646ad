package finance

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// decodeList accepts either a bare JSON array or a paginated
// {"results": [...]} envelope. Any other shape yields an empty list.
func decodeList[T any](data json.RawMessage) ([]T, error) {
	items := []T{}
	if data == nil {
		return items, nil
	}

	root := gjson.ParseBytes(data)
	var raw string
	switch {
	case root.IsArray():
		raw = root.Raw
	case root.Get("results").IsArray():
		raw = root.Get("results").Raw
	default:
		return items, nil
	}

	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}
	return items, nil
}
