// Package json provides a high-performance JSON serialization wrapper.
// It uses sonic on amd64/arm64 and falls back to encoding/json elsewhere.
package json

import (
	stdjson "encoding/json"
	"runtime"

	"github.com/bytedance/sonic"
)

var (
	// Marshal encodes v into JSON bytes.
	Marshal func(v any) ([]byte, error)

	// Unmarshal decodes JSON bytes into v.
	Unmarshal func(data []byte, v any) error

	usingSonic bool
)

func init() {
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		api := sonic.ConfigStd
		Marshal = api.Marshal
		Unmarshal = api.Unmarshal
		usingSonic = true
		return
	}
	Marshal = stdjson.Marshal
	Unmarshal = stdjson.Unmarshal
}

// MarshalToString encodes v and returns the JSON text.
func MarshalToString(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsUsingSonic returns true if sonic is being used for JSON operations.
func IsUsingSonic() bool {
	return usingSonic
}
