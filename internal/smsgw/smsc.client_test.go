package smsgw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+77071234567":      "+77071234567",
		"87071234567":       "+77071234567",
		"8 (707) 123-45-67": "+77071234567",
		"7071234567":        "+77071234567",
		"123":               "123",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizePhone(input), "input %q", input)
	}
}

func TestSend(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`{"id": 12345, "cnt": 1}`))
	}))
	defer srv.Close()

	c := NewClient("login", "secret", "Atlas Save", srv.URL, zap.NewNop())
	err := c.Send(context.Background(), "87071234567", "тестовое сообщение")
	require.NoError(t, err)

	assert.Equal(t, "login", gotQuery["login"])
	assert.Equal(t, "secret", gotQuery["psw"])
	assert.Equal(t, "+77071234567", gotQuery["phones"])
	assert.Equal(t, "тестовое сообщение", gotQuery["mes"])
	assert.Equal(t, "3", gotQuery["fmt"])
	assert.Equal(t, "Atlas Save", gotQuery["sender"])
}

func TestSendGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "invalid number", "error_code": 7}`))
	}))
	defer srv.Close()

	c := NewClient("login", "secret", "Atlas Save", srv.URL, zap.NewNop())
	err := c.Send(context.Background(), "87071234567", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid number")
}

func TestSendMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway busy</html>"))
	}))
	defer srv.Close()

	c := NewClient("login", "secret", "Atlas Save", srv.URL, zap.NewNop())
	assert.Error(t, c.Send(context.Background(), "87071234567", "hi"))
}
