package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"foodrescue/internal/gateway/metrics"
	"foodrescue/pkg/requestcontext"
)

type ClientSuite struct {
	suite.Suite
	server  *httptest.Server
	handler http.HandlerFunc
	token   string
	metrics *metrics.Metrics
	client  *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.token = ""
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handler(w, r)
	}))
	s.metrics = metrics.New(prometheus.NewRegistry())

	client, err := New(s.server.URL+"/api/v1/",
		WithTokenSource(TokenFunc(func(context.Context) string { return s.token })),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.client = client
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) respond(status int, body string) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (s *ClientSuite) TestSuccessDecodesBody() {
	s.respond(http.StatusOK, `{"id":7,"title":"Bread"}`)

	var out struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	err := s.client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/donor/history"}, &out)

	s.Require().NoError(err)
	s.Equal(7, out.ID)
	s.Equal("Bread", out.Title)
}

func (s *ClientSuite) TestNoContent() {
	s.Run("map output is empty", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}
		out := map[string]any{}
		err := s.client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/logout"}, &out)
		s.Require().NoError(err)
		s.Empty(out)
	})

	s.Run("slice output keeps zero value", func() {
		var out []string
		err := s.client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/ngo/food/available"}, &out)
		s.Require().NoError(err)
		s.Nil(out)
	})

	s.Run("empty 200 body counts as no content", func() {
		s.respond(http.StatusOK, "")
		out := map[string]any{"stale": true}
		err := s.client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/ping"}, &out)
		s.Require().NoError(err)
		s.Equal(map[string]any{"stale": true}, out)
	})
}

func (s *ClientSuite) TestRejectionMessages() {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"detail string", http.StatusUnauthorized, `{"detail":"Invalid credentials"}`, "Invalid credentials"},
		{"message field", http.StatusBadRequest, `{"message":"Bad input"}`, "Bad input"},
		{"error field", http.StatusConflict, `{"error":"Already claimed"}`, "Already claimed"},
		{"detail wins over message", http.StatusBadRequest, `{"message":"second","detail":"first"}`, "first"},
		{"validation list", http.StatusUnprocessableEntity,
			`{"detail":[{"loc":["body","email"],"msg":"field required"},{"msg":"value is not a valid email"}]}`,
			"field required; value is not a valid email"},
		{"repeated validation messages collapse", http.StatusUnprocessableEntity,
			`{"detail":[{"loc":["body","email"],"msg":"Field required"},{"loc":["body","name"],"msg":"Field required"}]}`,
			"Field required"},
		{"detail is passed through untouched", http.StatusUnauthorized, `{"detail":"  Invalid credentials "}`, "  Invalid credentials "},
		{"zero detail is skipped", http.StatusBadRequest, `{"detail":0,"message":"X"}`, "X"},
		{"false detail is skipped", http.StatusBadRequest, `{"detail":false,"error":"Y"}`, "Y"},
		{"empty detail is skipped", http.StatusBadRequest, `{"detail":"","message":"Z"}`, "Z"},
		{"numeric detail", http.StatusBadRequest, `{"detail":42}`, "42"},
		{"falls back to status text", http.StatusNotFound, `{"unexpected":1}`, "Not Found"},
		{"array body falls back to status text", http.StatusForbidden, `[]`, "Forbidden"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.respond(tc.status, tc.body)
			err := s.client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}, nil)

			var gwErr *Error
			s.Require().ErrorAs(err, &gwErr)
			s.Equal(tc.message, gwErr.Error())
			s.Equal(tc.status, gwErr.Status)
		})
	}
}

func (s *ClientSuite) TestUnparseableBody() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>upstream down</html>")
	}

	err := s.client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/admin/users"}, nil)

	s.Require().Error(err)
	s.Contains(err.Error(), "502")
	s.Equal("Server error: 502 Bad Gateway", err.Error())
	s.Equal(http.StatusBadGateway, StatusCode(err))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Failures.WithLabelValues(metrics.FailureMalformed)))
}

func (s *ClientSuite) TestUnparseableSuccessBody() {
	s.respond(http.StatusOK, "not json")

	var out map[string]any
	err := s.client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}, &out)

	s.Require().Error(err)
	s.Equal("Server error: 200 OK", err.Error())
}

func (s *ClientSuite) TestBearerHeader() {
	var got string
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}

	s.Run("attached when a session exists", func() {
		s.token = "tok-123"
		s.Require().NoError(s.client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}, nil))
		s.Equal("Bearer tok-123", got)
	})

	s.Run("omitted when anonymous", func() {
		s.token = ""
		s.Require().NoError(s.client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}, nil))
		s.Empty(got)
	})

	s.Run("omitted for session-establishing calls", func() {
		s.token = "tok-123"
		s.Require().NoError(s.client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/token", Anonymous: true}, nil))
		s.Empty(got)
	})
}

func (s *ClientSuite) TestFormEncoding() {
	var contentType string
	var form url.Values
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		s.Require().NoError(r.ParseForm())
		form = r.PostForm
		w.WriteHeader(http.StatusNoContent)
	}

	body := url.Values{"username": {"a@b.com"}, "password": {"secret"}}
	err := s.client.Do(context.Background(), Request{
		Method:    http.MethodPost,
		Path:      "/auth/token",
		Body:      body,
		Encoding:  EncodingForm,
		Anonymous: true,
	}, nil)

	s.Require().NoError(err)
	s.Equal("application/x-www-form-urlencoded", contentType)
	s.Equal("a@b.com", form.Get("username"))
	s.Equal("secret", form.Get("password"))
}

func (s *ClientSuite) TestJSONBodyAndQuery() {
	var contentType, requestID, rawQuery, path string
	var payload []byte
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		requestID = r.Header.Get(headerRequestID)
		rawQuery = r.URL.RawQuery
		path = r.URL.Path
		payload, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}

	err := s.client.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/auth/otp/request",
		Query:  url.Values{"email": {"a@b.com"}},
		Body:   map[string]string{"k": "v"},
	}, nil)

	s.Require().NoError(err)
	s.Equal("/api/v1/auth/otp/request", path)
	s.Equal("email=a%40b.com", rawQuery)
	s.Equal("application/json", contentType)
	s.JSONEq(`{"k":"v"}`, string(payload))
	s.NotEmpty(requestID)
}

func (s *ClientSuite) TestInvocationIDsFromContext() {
	var requestID, correlationID string
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get(headerRequestID)
		correlationID = r.Header.Get(headerCorrelationID)
		w.WriteHeader(http.StatusNoContent)
	}
	ctx := requestcontext.WithCorrelationID(context.Background(), "corr-1")
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	err := s.client.Do(ctx, Request{Method: http.MethodGet, Path: "/admin/users"}, nil)

	s.Require().NoError(err)
	s.Equal("req-1", requestID)
	s.Equal("corr-1", correlationID)
}

func (s *ClientSuite) TestNoBodyHasNoContentType() {
	var contentType string
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}

	s.Require().NoError(s.client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}, nil))
	s.Empty(contentType)
}

func (s *ClientSuite) TestMetricsRecordRoute() {
	s.respond(http.StatusOK, `{}`)

	err := s.client.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/ngo/food/claim/12",
		Route:  "/ngo/food/claim/{id}",
	}, nil)

	s.Require().NoError(err)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Requests.WithLabelValues(http.MethodPost, "/ngo/food/claim/{id}", "2xx")))
}

func TestNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	client, err := New(base)
	require.NoError(t, err)

	err = client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}, nil)

	require.Error(t, err)
	assert.Equal(t, NetworkMessage, err.Error())
	assert.True(t, IsNetwork(err))
	assert.Equal(t, 0, StatusCode(err))
	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.NotNil(t, errors.Unwrap(gwErr))
}

func TestNew(t *testing.T) {
	t.Run("defaults base url", func(t *testing.T) {
		client, err := New("")
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, client.BaseURL())
	})

	t.Run("rejects non-http scheme", func(t *testing.T) {
		_, err := New("ftp://example.com")
		require.Error(t, err)
	})
}

func TestFormBodyMustBeValues(t *testing.T) {
	client, err := New("http://127.0.0.1:1")
	require.NoError(t, err)

	err = client.Do(context.Background(), Request{
		Method:   http.MethodPost,
		Path:     "/auth/token",
		Body:     map[string]string{"username": "x"},
		Encoding: EncodingForm,
	}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "url.Values")
}
