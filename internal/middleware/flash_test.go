package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlashes(t *testing.T) {
	sessionManager := scs.New()
	flashes := NewFlashes(sessionManager)

	handler := sessionManager.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/add" {
			flashes.Add(r.Context(), "scores are tied")
			flashes.Add(r.Context(), "round 2 drawn")
			return
		}
		w.Write([]byte(strings.Join(flashes.Pop(r.Context()), "|")))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/add", nil))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	show := func() string {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Body.String()
	}

	assert.Equal(t, "scores are tied|round 2 drawn", show())
	assert.Equal(t, "", show(), "notices are shown once")
}
