package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "aieni/pkg/domain-errors"
	"aieni/pkg/platform/circuit"
)

type ClientSuite struct {
	suite.Suite
	ctx context.Context
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *ClientSuite) server(h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	s.T().Cleanup(srv.Close)
	return New(srv.URL + "/api/")
}

func (s *ClientSuite) TestSubmit() {
	s.Run("decodes the created id", func() {
		c := s.server(func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/api/register", r.URL.Path)
			s.Equal("application/json", r.Header.Get("Content-Type"))
			var body map[string]string
			s.NoError(json.NewDecoder(r.Body).Decode(&body))
			s.Equal("Speaker", body["registrationType"])
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"REG-42"}`))
		})

		res, err := c.Submit(s.ctx, EndpointRegister, map[string]string{"registrationType": "Speaker"})

		s.Require().NoError(err)
		s.Equal("REG-42", res.ID)
	})

	s.Run("any non-2xx status is a transport error", func() {
		for _, status := range []int{http.StatusBadRequest, http.StatusConflict, http.StatusInternalServerError} {
			c := s.server(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", status)
			})

			_, err := c.Submit(s.ctx, EndpointRegister, struct{}{})

			s.True(dErrors.HasCode(err, dErrors.CodeTransport), "status %d", status)
			s.Equal("backend request failed", err.Error())
		}
	})

	s.Run("network failure is a transport error", func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		_, err := New(srv.URL).Submit(s.ctx, EndpointRegister, struct{}{})

		s.True(dErrors.HasCode(err, dErrors.CodeTransport))
	})
}

func (s *ClientSuite) TestSubmitForm() {
	c := s.server(func(w http.ResponseWriter, r *http.Request) {
		s.Require().NoError(r.ParseMultipartForm(1 << 20))
		s.JSONEq(`{"fullName":"Dr. Lisa Chen"}`, r.FormValue("data"))
		f, hdr, err := r.FormFile("word_file")
		s.Require().NoError(err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		s.Equal("paper.docx", hdr.Filename)
		s.Equal("docx bytes", string(data))
		_, _ = w.Write([]byte(`{"id":"ABS-1"}`))
	})

	res, err := c.SubmitForm(s.ctx, EndpointSubmitAbstract,
		map[string]string{"fullName": "Dr. Lisa Chen"},
		&File{Field: "word_file", Name: "paper.docx", ContentType: "application/msword", Data: []byte("docx bytes")})

	s.Require().NoError(err)
	s.Equal("ABS-1", res.ID)
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) { return nil, errors.New("dial tcp: refused") }

func (s *ClientSuite) TestLogin() {
	s.Run("returns token", func() {
		c := s.server(func(w http.ResponseWriter, r *http.Request) {
			var creds Credentials
			s.NoError(json.NewDecoder(r.Body).Decode(&creds))
			s.Equal("admin@eaic.ae", creds.Email)
			_, _ = w.Write([]byte(`{"token":"remote-token"}`))
		})

		res, err := c.Login(s.ctx, EndpointLogin, Credentials{Email: "admin@eaic.ae", Password: "x"})

		s.Require().NoError(err)
		s.Equal("remote-token", res.Token)
	})

	s.Run("rejected credentials are a plain backend failure", func() {
		c := s.server(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		})
		_, err := c.Login(s.ctx, EndpointLogin, Credentials{Email: "admin@eaic.ae", Password: "wrong"})
		s.True(dErrors.HasCode(err, dErrors.CodeTransport))
	})

	s.Run("custom doer failure", func() {
		_, err := New("http://backend", WithHTTPClient(failingDoer{})).Login(s.ctx, EndpointLogin, Credentials{})
		s.True(dErrors.HasCode(err, dErrors.CodeTransport))
	})
}

func (s *ClientSuite) TestBreaker() {
	b := circuit.New("backend", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))
	failing := New("http://backend", WithHTTPClient(failingDoer{}), WithBreaker(b))

	s.NoError(failing.Health(s.ctx))
	_, _ = failing.Submit(s.ctx, EndpointRegister, struct{}{})
	_, _ = failing.Submit(s.ctx, EndpointRegister, struct{}{})
	s.ErrorIs(failing.Health(s.ctx), circuit.ErrOpen)

	healthy := s.server(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"token":"t"}`))
	})
	healthy.breaker = b
	_, err := healthy.Login(s.ctx, EndpointLogin, Credentials{})
	s.Require().NoError(err)
	s.NoError(healthy.Health(s.ctx), "a successful call closes the circuit")
}

func (s *ClientSuite) TestNonSuccessStatusesAreUniform() {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway} {
		s.Run(http.StatusText(status), func() {
			b := circuit.New("backend", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1))
			c := s.server(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", status)
			})
			c.breaker = b

			_, err := c.Submit(s.ctx, EndpointSubmitAbstract, struct{}{})

			s.True(dErrors.HasCode(err, dErrors.CodeTransport))
			s.Equal("backend request failed", err.Error())
			s.ErrorIs(c.Health(s.ctx), circuit.ErrOpen)
		})
	}
}
