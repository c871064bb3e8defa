package webapi

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jmespath/go-jmespath"
)

// evalAny returns the raw value selected by the JMESPath expression, or nil
// when the expression does not match anything.
func evalAny(expression string, payload any) (any, error) {
	v, err := jmespath.Search(expression, payload)
	if err != nil {
		return nil, fmt.Errorf("jmespath: %w", err)
	}
	return v, nil
}

// evalString coerces the selection to string; other primitives are JSON
// encoded. A missing or null selection is the empty string.
func evalString(expression string, payload any) (string, error) {
	v, err := evalAny(expression, payload)
	if err != nil || v == nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
