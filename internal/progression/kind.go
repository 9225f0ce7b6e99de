package progression

import (
	"fmt"
	"strings"
)

// Kind identifies a progression model variant.
type Kind string

const (
	KindExponential Kind = "exponential"
	KindLinear      Kind = "linear"
)

// Kinds returns the registered model kinds in display order.
func Kinds() []Kind {
	return []Kind{KindExponential, KindLinear}
}

// ParseKind resolves a model tag case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindExponential, KindLinear:
		return k, nil
	}
	return "", &Error{
		Kind:  KindUnknownModel,
		Field: "model_type",
		Msg:   fmt.Sprintf("unknown model type: %s. Available: %s", s, kindList()),
	}
}

func (k Kind) String() string { return string(k) }

// Equation returns the LaTeX form of the kind's progression curve.
func (k Kind) Equation() string {
	switch k {
	case KindExponential:
		return `M(n) = T - (T - S) \cdot a^{n/b}`
	case KindLinear:
		return `M(n) = \min(S + \frac{a \cdot n}{b}, T)`
	}
	return ""
}

func kindList() string {
	kinds := Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
