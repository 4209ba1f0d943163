// Package address holds the pure URI helpers used by frames: fragment
// splitting, same-resource comparison and navigation parameter resolution.
//
// A nil *url.URL is the null address. None of the helpers mutate their
// arguments.
package address

import (
	"net/url"
	"strings"
)

// Parse parses an absolute or relative address.
func Parse(s string) (*url.URL, error) {
	return url.Parse(s)
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// SplitFragment returns u without its fragment, and the fragment itself.
// An empty fragment means u had none.
func SplitFragment(u *url.URL) (*url.URL, string) {
	if u == nil {
		return nil, ""
	}
	if u.Fragment == "" && u.RawFragment == "" {
		return u, ""
	}
	base := *u
	base.Fragment = ""
	base.RawFragment = ""
	return &base, u.Fragment
}

// RemoveFragment returns u without its fragment.
func RemoveFragment(u *url.URL) *url.URL {
	base, _ := SplitFragment(u)
	return base
}

// Fragment returns the fragment of u, empty if none.
func Fragment(u *url.URL) string {
	_, fragment := SplitFragment(u)
	return fragment
}

// Key returns the cache key of u: its string form without fragment.
func Key(u *url.URL) string {
	if u == nil {
		return ""
	}
	return RemoveFragment(u).String()
}

// SameBase reports whether a and b name the same resource. Nil never
// matches, not even another nil.
func SameBase(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return Key(a) == Key(b)
}

// Equal reports whether a and b are identical addresses, fragment included.
func Equal(a, b *url.URL) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// ResolveTarget converts a navigation parameter into an address. It accepts
// *url.URL, url.URL and strings; any other shape yields (nil, false).
func ResolveTarget(v any) (*url.URL, bool) {
	switch t := v.(type) {
	case *url.URL:
		if t == nil {
			return nil, false
		}
		return t, true
	case url.URL:
		return &t, true
	case string:
		u, err := url.Parse(t)
		if err != nil {
			return nil, false
		}
		return u, true
	default:
		return nil, false
	}
}

var unsafeSchemes = []string{"data:", "javascript:", "mailto:", "tel:", "vbscript:"}

// Resolve resolves href found in the content at base into an absolute
// address. Unsafe and unparsable links yield (nil, false).
func Resolve(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, false
	}
	lower := strings.ToLower(href)
	for _, scheme := range unsafeSchemes {
		if strings.HasPrefix(lower, scheme) {
			return nil, false
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	if base == nil {
		return ref, true
	}
	return base.ResolveReference(ref), true
}
