package cart

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

func newItemID() string {
	return uuid.NewString()
}

// sameAttributes compares attribute maps on their JSON encoding, which sorts
// keys and renders int 2 and a reloaded float64(2) identically.
func sameAttributes(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	ea, errA := json.Marshal(a)
	eb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}
