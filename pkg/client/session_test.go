package client

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionJar_Fingerprint(t *testing.T) {
	u, err := url.Parse("https://api.nomadcafes.app/api")
	require.NoError(t, err)

	jar, err := newSessionJar()
	require.NoError(t, err)

	assert.Empty(t, jar.Fingerprint(u), "no cookies, no fingerprint")

	jar.SetCookies(u, []*http.Cookie{
		{Name: "refresh_token", Value: "r1", Path: "/"},
		{Name: "access_token", Value: "a1", Path: "/"},
	})
	first := jar.Fingerprint(u)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, jar.Fingerprint(u), "fingerprint is stable")

	jar.SetCookies(u, []*http.Cookie{{Name: "access_token", Value: "a2", Path: "/"}})
	assert.NotEqual(t, first, jar.Fingerprint(u), "new token, new fingerprint")

	jar.Reset()
	assert.Empty(t, jar.Cookies(u))
	assert.Empty(t, jar.Fingerprint(u))
}

func TestSessionJar_FingerprintIgnoresCookieOrder(t *testing.T) {
	u, err := url.Parse("https://api.nomadcafes.app/")
	require.NoError(t, err)

	a, err := newSessionJar()
	require.NoError(t, err)
	b, err := newSessionJar()
	require.NoError(t, err)

	a.SetCookies(u, []*http.Cookie{{Name: "x", Value: "1", Path: "/"}, {Name: "y", Value: "2", Path: "/"}})
	b.SetCookies(u, []*http.Cookie{{Name: "y", Value: "2", Path: "/"}, {Name: "x", Value: "1", Path: "/"}})

	assert.Equal(t, a.Fingerprint(u), b.Fingerprint(u))
}
