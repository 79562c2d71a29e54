package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HTTPClientSuite struct {
	suite.Suite
	mux      *http.ServeMux
	server   *httptest.Server
	metrics  *Metrics
	client   *HTTPClient
	lastAuth string
}

func TestHTTPClientSuite(t *testing.T) {
	suite.Run(t, new(HTTPClientSuite))
}

func (s *HTTPClientSuite) SetupTest() {
	s.mux = http.NewServeMux()
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastAuth = r.Header.Get("Authorization")
		s.mux.ServeHTTP(w, r)
	}))
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.client = NewHTTPClient(s.server.URL+"/", "secret-token", WithMetrics(s.metrics))
}

func (s *HTTPClientSuite) TearDownTest() {
	s.server.Close()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *HTTPClientSuite) TestListRegions() {
	s.mux.HandleFunc("GET /provincia", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"Lazio"},{"id":"R12","name":"Lombardia"}]`))
	})

	regions, err := s.client.ListRegions(context.Background())

	s.Require().NoError(err)
	s.Equal([]Region{{ID: "1", Name: "Lazio"}, {ID: "R12", Name: "Lombardia"}}, regions)
	s.Equal("Bearer secret-token", s.lastAuth)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Calls.WithLabelValues(opListRegions, "ok")))
}

func (s *HTTPClientSuite) TestListDistricts() {
	s.mux.HandleFunc("GET /provincia/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("R12", r.PathValue("id"))
		writeJSON(w, []map[string]string{{"codiceComune": "C045", "name": "Milano"}})
	})

	districts, err := s.client.ListDistricts(context.Background(), "R12")

	s.Require().NoError(err)
	s.Equal([]District{{Code: "C045", Name: "Milano"}}, districts)
}

func (s *HTTPClientSuite) TestNonSuccessStatusIsUnavailable() {
	s.mux.HandleFunc("GET /provincia/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})

	_, err := s.client.ListDistricts(context.Background(), "7")

	s.Require().ErrorIs(err, ErrUnavailable)
	var de *Error
	s.Require().ErrorAs(err, &de)
	s.Equal(CategoryStatus, de.Category)
	s.Equal(http.StatusUnauthorized, de.StatusCode)
	s.Equal(RegionID("7"), de.RegionID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Calls.WithLabelValues(opListDistricts, string(CategoryStatus))))
}

func (s *HTTPClientSuite) TestMalformedBodyIsUnavailable() {
	s.mux.HandleFunc("GET /provincia", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"`))
	})

	_, err := s.client.ListRegions(context.Background())

	s.Require().ErrorIs(err, ErrUnavailable)
	var de *Error
	s.Require().ErrorAs(err, &de)
	s.Equal(CategoryBadData, de.Category)
}

func (s *HTTPClientSuite) TestMissingTokenSendsNoAuthorization() {
	s.mux.HandleFunc("GET /provincia", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []Region{})
	})
	client := NewHTTPClient(s.server.URL, "")

	_, err := client.ListRegions(context.Background())

	s.Require().NoError(err)
	s.Empty(s.lastAuth)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPClient(url, "t").ListRegions(context.Background())

	require.ErrorIs(t, err, ErrUnavailable)
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CategoryTransport, de.Category)
}

func TestCanceledContextIsCategorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []Region{})
	}))
	defer server.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPClient(server.URL, "t").ListRegions(ctx)

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CategoryCanceled, de.Category)
}
