package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// envelope wraps every structured blob with a schema version.
type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// SaveJSON writes v under key as a versioned blob.
func SaveJSON(ctx context.Context, repo Repository, key string, version int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	b, err := json.Marshal(envelope{Version: version, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return repo.Set(ctx, key, b)
}

// LoadJSON reads the blob under key into dest. It returns the stored version
// and found=false when the key is absent.
//
// Blobs without an envelope (version 0) are decoded as the bare object.
// Unknown fields are ignored, so newer blobs load with what this build knows.
func LoadJSON(ctx context.Context, repo Repository, key string, dest any) (version int, found bool, err error) {
	b, err := repo.Get(ctx, key)
	if err != nil {
		return 0, false, err
	}
	if b == nil {
		return 0, false, nil
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return 0, true, fmt.Errorf("decode %s: %w", key, err)
	}

	payload := []byte(env.Data)
	if env.Version == 0 && len(env.Data) == 0 {
		payload = b
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return env.Version, true, fmt.Errorf("decode %s: %w", key, err)
	}
	return env.Version, true, nil
}
