package repositories

import "encoding/json"

// Records are stored as JSON. The dataset is small and a readable encoding
// keeps cmd/viewer and manual badger inspection trivial.
func encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
