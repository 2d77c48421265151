// Package authz decides whether an authenticated identity may perform an
// action on a module: allow, deny, or defer into the approval workflow.
package authz

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/clubdesk/clubdesk/internal/content"
)

// ErrMalformedMatrix indicates a permission matrix that is not a well-formed
// closed mapping of known modules to known actions.
var ErrMalformedMatrix = errors.New("authz: malformed permission matrix")

// NormalizeMatrix parses a permission matrix at the read boundary. It accepts
// an already-typed mapping, a generic JSON object, or a JSON-encoded string
// (legacy rows stored the matrix as text). Unknown modules or actions make the
// whole matrix malformed; callers fail closed on that.
func NormalizeMatrix(raw any) (map[string]map[string]bool, error) {
	switch v := raw.(type) {
	case nil:
		return nil, ErrMalformedMatrix
	case map[string]map[string]bool:
		if err := validateMatrix(v); err != nil {
			return nil, err
		}
		return v, nil
	case string:
		var decoded map[string]map[string]bool
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMatrix, err)
		}
		return NormalizeMatrix(decoded)
	case []byte:
		var decoded map[string]map[string]bool
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMatrix, err)
		}
		return NormalizeMatrix(decoded)
	case map[string]any:
		decoded := make(map[string]map[string]bool, len(v))
		for module, actions := range v {
			inner, ok := actions.(map[string]any)
			if !ok {
				return nil, ErrMalformedMatrix
			}
			grants := make(map[string]bool, len(inner))
			for action, granted := range inner {
				b, ok := granted.(bool)
				if !ok {
					return nil, ErrMalformedMatrix
				}
				grants[action] = b
			}
			decoded[module] = grants
		}
		return NormalizeMatrix(decoded)
	default:
		return nil, ErrMalformedMatrix
	}
}

func validateMatrix(m map[string]map[string]bool) error {
	for module, actions := range m {
		if _, ok := content.ParseModule(module); !ok {
			return fmt.Errorf("%w: unknown module %q", ErrMalformedMatrix, module)
		}
		for action := range actions {
			if _, ok := content.ParseAction(action); !ok {
				return fmt.Errorf("%w: unknown action %q", ErrMalformedMatrix, action)
			}
		}
	}
	return nil
}

// EmptyMatrix returns a matrix with every grant set to false.
func EmptyMatrix() map[string]map[string]bool {
	m := make(map[string]map[string]bool, len(content.Modules()))
	for _, module := range content.Modules() {
		grants := make(map[string]bool, len(content.Actions()))
		for _, action := range content.Actions() {
			grants[string(action)] = false
		}
		m[string(module)] = grants
	}
	return m
}
