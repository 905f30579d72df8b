// Package deeplink reads and writes the shareable ?property= and ?seller=
// links.
package deeplink

import (
	"net/url"
	"strings"
)

const (
	ParamProperty = "property"
	ParamSeller   = "seller"
)

type Kind string

const (
	KindNone     Kind = ""
	KindProperty Kind = "property"
	KindSeller   Kind = "seller"
)

// Target is the view a link points at.
type Target struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// Parse reads the target from query. A property link wins over a seller
// link when both are present.
func Parse(query url.Values) Target {
	if id := strings.TrimSpace(query.Get(ParamProperty)); id != "" {
		return Target{Kind: KindProperty, ID: id}
	}
	if id := strings.TrimSpace(query.Get(ParamSeller)); id != "" {
		return Target{Kind: KindSeller, ID: id}
	}
	return Target{}
}

// Build returns base pointing at target. The other link parameter is
// removed; unrelated parameters are kept. KindNone clears both.
func Build(base string, target Target) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Del(ParamProperty)
	q.Del(ParamSeller)
	switch target.Kind {
	case KindProperty:
		q.Set(ParamProperty, target.ID)
	case KindSeller:
		q.Set(ParamSeller, target.ID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
