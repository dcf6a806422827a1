package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lookboard/backend/internal/domain"
)

// stripCodeFence removes a surrounding ```json fence, which some models add
// even in JSON mode
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeAIJSON parses a model answer into v. Any failure is ErrMalformedAIResponse.
func decodeAIJSON(raw string, v interface{}) error {
	body := stripCodeFence(raw)
	if body == "" {
		return fmt.Errorf("%w: empty body", domain.ErrMalformedAIResponse)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedAIResponse, err)
	}
	return nil
}

// decodeCached turns a cache value back into v. The memory cache hands back
// raw JSON; other implementations may return the original value.
func decodeCached(value interface{}, v interface{}) error {
	var data []byte
	switch val := value.(type) {
	case json.RawMessage:
		data = val
	case []byte:
		data = val
	case string:
		data = []byte(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return err
		}
		data = encoded
	}
	return json.Unmarshal(data, v)
}
