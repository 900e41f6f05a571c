package store

import "encoding/json"

// encodeFlatMap/decodeFlatMap serialise a flattened commit tree for the
// bbolt cache. JSON is enough here: this is an internal cache format,
// independent of the on-disk index's own format.
func encodeFlatMap(m map[string]string) []byte {
	raw, err := json.Marshal(m)
	if err != nil {
		// m is always a map[string]string; marshalling cannot fail.
		panic(err)
	}
	return raw
}

func decodeFlatMap(raw []byte) (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
