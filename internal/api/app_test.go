package api

import (
	"dsclient/internal/metrics"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

type RouterTestSuite struct {
	suite.Suite

	reg *prometheus.Registry
	srv *httptest.Server
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	s.reg = prometheus.NewRegistry()
	m := metrics.New(s.reg)
	m.HandleCreated("standard", "v1")
	s.srv = httptest.NewServer(Router(s.reg))
}

func (s *RouterTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *RouterTestSuite) TestHealthCheck() {
	resp, err := http.Get(s.srv.URL + "/health")
	s.Require().NoError(err)
	defer func() {
		_ = resp.Body.Close()
	}()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *RouterTestSuite) TestMetrics() {
	resp, err := http.Get(s.srv.URL + "/metrics")
	s.Require().NoError(err)
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), `dsclient_handles_created_total{generation="v1",kind="standard"} 1`)
}

func (s *RouterTestSuite) TestInterruptible() {
	stop, done := RunServerInterruptible("127.0.0.1:0", s.reg)
	stop <- struct{}{}
	s.NoError(<-done)
}
