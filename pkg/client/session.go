package client

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/publicsuffix"
)

// sessionJar is a cookie jar that can be reset when the session expires.
type sessionJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newSessionJar() (*sessionJar, error) {
	jar, err := newCookieJar()
	if err != nil {
		return nil, err
	}
	return &sessionJar{jar: jar}, nil
}

func newCookieJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

// SetCookies implements http.CookieJar.
func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

// Reset drops every stored cookie.
func (j *sessionJar) Reset() {
	jar, err := newCookieJar()
	if err != nil {
		return
	}

	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}

// Fingerprint hashes the cookies that would be sent to u. It is empty when
// there is no session.
func (j *sessionJar) Fingerprint(u *url.URL) string {
	cookies := j.Cookies(u)
	if len(cookies) == 0 {
		return ""
	}

	sort.Slice(cookies, func(a, b int) bool {
		return cookies[a].Name < cookies[b].Name
	})

	h := xxhash.New()
	for _, c := range cookies {
		_, _ = h.WriteString(c.Name)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(c.Value)
		_, _ = h.WriteString(";")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
