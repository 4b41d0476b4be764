package scheme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/routemesh/core"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		path   string
		params core.Params
	}{
		{
			name:   "host and path",
			raw:    "myapp://user/profile?id=42",
			path:   "/user/profile",
			params: core.Params{"id": "42"},
		},
		{
			name:   "host only",
			raw:    "myapp://login",
			path:   "/login",
			params: core.Params{},
		},
		{
			name:   "booleans any case",
			raw:    "myapp://settings?dark=TRUE&beta=false&name=True%20Story",
			path:   "/settings",
			params: core.Params{"dark": true, "beta": false, "name": "True Story"},
		},
		{
			name:   "last value wins",
			raw:    "myapp://search?q=a&q=b",
			path:   "/search",
			params: core.Params{"q": "b"},
		},
		{
			name:   "empty value",
			raw:    "myapp://search?q=",
			path:   "/search",
			params: core.Params{"q": ""},
		},
		{
			name:   "scheme case-insensitive",
			raw:    "MyApp://home",
			path:   "/home",
			params: core.Params{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := Parse(tt.raw, "myapp")
			require.NoError(t, err)
			assert.Equal(t, tt.path, link.Path)
			assert.Equal(t, tt.params, link.Params)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	p := NewParser("myapp://")
	assert.Equal(t, "myapp", p.Scheme())

	for _, raw := range []string{
		"otherapp://home",
		"https://example.com",
		"myapp:/home",
		"",
		"myapp://home?bad=%zz",
	} {
		_, err := p.Parse(raw)
		assert.ErrorIs(t, err, core.ErrInvalidURL, raw)
	}

	_, err := Parse("myapp://home", "")
	assert.ErrorIs(t, err, core.ErrInvalidURL)
}

func TestParser_Accepts(t *testing.T) {
	p := NewParser("myapp")
	assert.True(t, p.Accepts("myapp://x"))
	assert.True(t, p.Accepts("MYAPP://x"))
	assert.False(t, p.Accepts("myap://x"))
	assert.False(t, p.Accepts("my"))
}
