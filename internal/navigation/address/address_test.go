package address

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFragment(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		base     string
		fragment string
	}{
		{"no fragment", "doc://about", "doc://about", ""},
		{"fragment", "doc://about#section2", "doc://about", "section2"},
		{"path and query", "https://example.com/a/b?q=1#top", "https://example.com/a/b?q=1", "top"},
		{"relative", "/pages/intro.html#part", "/pages/intro.html", "part"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := MustParse(tt.in)
			base, fragment := SplitFragment(u)
			require.NotNil(t, base)
			assert.Equal(t, tt.base, base.String())
			assert.Equal(t, tt.fragment, fragment)
			assert.Equal(t, tt.in, u.String(), "input must not be mutated")
		})
	}

	t.Run("nil", func(t *testing.T) {
		base, fragment := SplitFragment(nil)
		assert.Nil(t, base)
		assert.Empty(t, fragment)
	})
}

func TestSameBase(t *testing.T) {
	about := MustParse("doc://about")
	aboutSection := MustParse("doc://about#section2")
	home := MustParse("doc://home")

	assert.True(t, SameBase(about, aboutSection))
	assert.True(t, SameBase(aboutSection, about))
	assert.False(t, SameBase(about, home))
	assert.False(t, SameBase(nil, about))
	assert.False(t, SameBase(about, nil))
	assert.False(t, SameBase(nil, nil))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.True(t, Equal(MustParse("doc://a#x"), MustParse("doc://a#x")))
	assert.False(t, Equal(MustParse("doc://a#x"), MustParse("doc://a#y")))
	assert.False(t, Equal(MustParse("doc://a"), nil))
}

func TestResolveTarget(t *testing.T) {
	ptr := MustParse("doc://home")

	tests := []struct {
		name  string
		in    any
		want  string
		valid bool
	}{
		{"pointer", ptr, "doc://home", true},
		{"value", *ptr, "doc://home", true},
		{"absolute string", "doc://about#s", "doc://about#s", true},
		{"relative string", "pages/intro", "pages/intro", true},
		{"nil pointer", (*url.URL)(nil), "", false},
		{"int", 42, "", false},
		{"nil", nil, "", false},
		{"malformed", "%zz://bad", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := ResolveTarget(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				require.NotNil(t, u)
				assert.Equal(t, tt.want, u.String())
			} else {
				assert.Nil(t, u)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	base := MustParse("https://example.com/docs/index.html")

	u, ok := Resolve(base, "guide.html#start")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/docs/guide.html#start", u.String())

	u, ok = Resolve(base, "/root")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/root", u.String())

	for _, href := range []string{"", "javascript:alert(1)", "DATA:text/plain,x", "mailto:a@b.c"} {
		_, ok := Resolve(base, href)
		assert.False(t, ok, href)
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "doc://about", Key(MustParse("doc://about#x")))
	assert.Equal(t, "", Key(nil))
}
