package webapi

import (
	"context"
	"dsclient/internal/flags"
	"dsclient/internal/types"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ClientTestSuite struct {
	suite.Suite

	ctx     context.Context
	srv     *httptest.Server
	mux     *http.ServeMux
	src     *flags.StaticSource
	flags   *flags.Provider
	client  *Client
	lastReq *http.Request
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.mux = http.NewServeMux()
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastReq = r
		s.mux.ServeHTTP(w, r)
	}))
	s.src = flags.NewStaticSource()
	s.flags = flags.NewProvider(flags.WithSource(s.src))
	s.client = NewClient(s.srv.URL+"/", s.flags, WithAPIKey("secret"))
}

func (s *ClientTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *ClientTestSuite) TestIsApiAccessEnabled() {
	s.mux.HandleFunc("/v1/universes/7/api-access", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"enabled":true}`))
	})
	ok, err := Probe{Client: s.client, UniverseID: 7}.IsApiAccessEnabled(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("secret", s.lastReq.Header.Get(APIKeyHdrName))
}

func (s *ClientTestSuite) TestIsApiAccessEnabledHTTPError() {
	s.mux.HandleFunc("/v1/universes/7/api-access", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	_, err := s.client.IsApiAccessEnabled(s.ctx, 7)
	var f *types.Failure
	s.Require().ErrorAs(err, &f)
	s.Equal("403: forbidden", f.Reason)
}

func (s *ClientTestSuite) TestBuildListURL() {
	t := s.client.BuildListURL(7, "a b", 25)
	u, err := url.Parse(t.URL)
	s.Require().NoError(err)
	s.Equal("/v1/universes/7/standard-datastores", u.Path)
	s.Equal("a b", u.Query().Get("prefix"))
	s.Equal("25", u.Query().Get("limit"))
	s.Equal(int64(7), t.UniverseID)

	t = s.client.BuildListURL(7, "", 0)
	s.Equal(s.srv.URL+"/v1/universes/7/standard-datastores", t.URL)
}

func (s *ClientTestSuite) TestFetchPageDefaultPaths() {
	s.mux.HandleFunc("/v1/universes/7/standard-datastores", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			_, _ = w.Write([]byte(`{"datastores":[{"name":"a","createdTime":1,"updatedTime":2}],"nextPageCursor":"c1"}`))
			return
		}
		_, _ = w.Write([]byte(`{"datastores":[{"name":"b"}],"nextPageCursor":""}`))
	})
	target := s.client.BuildListURL(7, "", 10)

	page, err := s.client.FetchPage(s.ctx, target, "")
	s.Require().NoError(err)
	s.Equal([]types.StoreInfo{{Name: "a", CreatedTime: 1, UpdatedTime: 2}}, page.Stores)
	s.Equal("c1", page.NextCursor)

	page, err = s.client.FetchPage(s.ctx, target, "c1")
	s.Require().NoError(err)
	s.Equal("c1", s.lastReq.URL.Query().Get("cursor"))
	s.Equal("10", s.lastReq.URL.Query().Get("limit"))
	s.Equal([]types.StoreInfo{{Name: "b"}}, page.Stores)
	s.Empty(page.NextCursor)
}

func (s *ClientTestSuite) TestFetchPageCustomPaths() {
	s.src.SetString(StringListEntriesPath, "data.items")
	s.src.SetString(StringListCursorPath, "data.next")
	s.mux.HandleFunc("/v1/universes/7/standard-datastores", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"items":[{"name":"x"}],"next":null}}`))
	})

	page, err := s.client.FetchPage(s.ctx, s.client.BuildListURL(7, "", 0), "")
	s.Require().NoError(err)
	s.Equal([]types.StoreInfo{{Name: "x"}}, page.Stores)
	s.Empty(page.NextCursor)
}

func (s *ClientTestSuite) TestFetchPageMissingEntries() {
	s.mux.HandleFunc("/v1/universes/7/standard-datastores", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	page, err := s.client.FetchPage(s.ctx, s.client.BuildListURL(7, "", 0), "")
	s.Require().NoError(err)
	s.Empty(page.Stores)
	s.Empty(page.NextCursor)
}

func (s *ClientTestSuite) TestFetchPageMalformedEntries() {
	s.mux.HandleFunc("/v1/universes/7/standard-datastores", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"datastores":"nope"}`))
	})
	_, err := s.client.FetchPage(s.ctx, s.client.BuildListURL(7, "", 0), "")
	s.ErrorIs(err, types.ErrDataStoreAccess)
}

func (s *ClientTestSuite) TestStaticProbe() {
	ok, err := StaticProbe(true).IsApiAccessEnabled(s.ctx)
	s.NoError(err)
	s.True(ok)
	ok, _ = StaticProbe(false).IsApiAccessEnabled(s.ctx)
	s.False(ok)
}

func (s *ClientTestSuite) TestEvalString() {
	obj := map[string]any{"n": 42.0, "s": "x", "z": nil}
	v, err := evalString("s", obj)
	s.NoError(err)
	s.Equal("x", v)
	v, err = evalString("n", obj)
	s.NoError(err)
	s.Equal("42", v)
	v, err = evalString("z", obj)
	s.NoError(err)
	s.Empty(v)
	_, err = evalString("[", obj)
	s.Error(err)
}
