package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/herb-sales-ledger/pkg/errors"
)

// ParseQueryEnum returns the trimmed query value, the default when absent, or
// a validation error when the value is not one of allowed.
func ParseQueryEnum(r *http.Request, key, defaultVal string, allowed ...string) (string, error) {
	raw := strings.ToLower(SanitizeString(r.URL.Query().Get(key), 32))
	if raw == "" {
		return defaultVal, nil
	}
	for _, candidate := range allowed {
		if raw == candidate {
			return raw, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter has an unsupported value").
		WithDetails(map[string]any{"field": key, "allowed": allowed})
}
