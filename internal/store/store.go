// Package store persists raw flight-search response bodies so a run can be
// re-parsed without querying the API again.
//
// Both backends use the same encoding: a JSON array of body strings in
// request order.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when nothing has been saved.
var ErrNotFound = errors.New("no saved responses")

func encode(bodies []string) ([]byte, error) {
	if bodies == nil {
		bodies = []string{}
	}
	data, err := json.Marshal(bodies)
	if err != nil {
		return nil, fmt.Errorf("failed to encode responses: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]string, error) {
	var bodies []string
	if err := json.Unmarshal(data, &bodies); err != nil {
		return nil, fmt.Errorf("failed to decode responses: %w", err)
	}
	return bodies, nil
}
