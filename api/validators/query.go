package validators

import (
	"net/http"
	"regexp"

	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
)

const maxInstanceLen = 64

var instancePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParseInstance reads the cart instance from ?instance=. Blank yields "".
func ParseInstance(r *http.Request) (string, error) {
	raw := SanitizeString(r.URL.Query().Get("instance"), 0)
	if raw == "" {
		return "", nil
	}
	if len(raw) > maxInstanceLen || !instancePattern.MatchString(raw) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "instance must be alphanumeric").
			WithDetails(map[string]any{"field": "instance", "max_length": maxInstanceLen})
	}
	return raw, nil
}
