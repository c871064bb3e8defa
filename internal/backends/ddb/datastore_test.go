package ddb

import (
	"context"
	"dsclient/internal/types"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/suite"
)

const testTableName = "dsclient_test"

// DDBTestSuite needs a local DynamoDB (moto, localstack) at TEST_DDB_ENDPOINT.
type DDBTestSuite struct {
	suite.Suite

	ctx      context.Context
	data     *DataStore
	settings *SettingsStore
}

func TestDDBTestSuite(t *testing.T) {
	suite.Run(t, new(DDBTestSuite))
}

func (s *DDBTestSuite) SetupSuite() {
	endpoint := os.Getenv("TEST_DDB_ENDPOINT")
	if endpoint == "" {
		s.T().Skip("TEST_DDB_ENDPOINT not set")
	}
	s.ctx = context.Background()
	awsCfg, err := config.LoadDefaultConfig(s.ctx)
	if err != nil {
		s.FailNow("Failed to load AWS config", err)
	}
	cli := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		if o.Region == "" {
			o.Region = "us-east-1"
		}
		o.Credentials = credentials.NewStaticCredentialsProvider("test", "test", "")
	})
	s.settings = NewSettingsStore(testTableName, cli)
	s.data = NewDataStore(testTableName, cli)
}

func (s *DDBTestSuite) SetupTest() {
	s.Require().NoError(s.settings.ClearAll(s.ctx))
}

func (s *DDBTestSuite) ref(name string) types.StoreRef {
	return types.StoreRef{UniverseID: 1, Name: name, Scope: "global", Kind: types.KindStandard}
}

func (s *DDBTestSuite) TestCASLifecycle() {
	ref := s.ref("scores")

	e, ver, err := s.data.Load(s.ctx, ref, "global/k")
	s.NoError(err)
	s.Nil(e)
	s.Zero(ver)

	ok, err := s.data.UpsertCAS(s.ctx, ref, "global/k", 0, types.Entry{Value: []byte(`1`), CreatedAt: 10, UpdatedAt: 10})
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.data.UpsertCAS(s.ctx, ref, "global/k", 0, types.Entry{Value: []byte(`2`)})
	s.NoError(err)
	s.False(ok)

	ok, err = s.data.UpsertCAS(s.ctx, ref, "global/k", 1, types.Entry{Value: []byte(`2`), CreatedAt: 10, UpdatedAt: 20})
	s.Require().NoError(err)
	s.True(ok)

	e, ver, err = s.data.Load(s.ctx, ref, "global/k")
	s.Require().NoError(err)
	s.Equal(int64(2), ver)
	s.Equal([]byte(`2`), e.Value)
	s.Equal(int64(10), e.CreatedAt)

	ok, err = s.data.UpsertCAS(s.ctx, ref, "global/k", 1, types.Entry{Value: []byte(`3`)})
	s.NoError(err)
	s.False(ok)

	e, err = s.data.Delete(s.ctx, ref, "global/k")
	s.Require().NoError(err)
	s.Equal([]byte(`2`), e.Value)
	e, err = s.data.Delete(s.ctx, ref, "global/k")
	s.NoError(err)
	s.Nil(e)
}

func (s *DDBTestSuite) TestListingPagesByPrefix() {
	for _, name := range []string{"alpha", "alps", "alto", "beta"} {
		ok, err := s.data.UpsertCAS(s.ctx, s.ref(name), "global/k", 0, types.Entry{Value: []byte(`1`), CreatedAt: 5, UpdatedAt: 6})
		s.Require().NoError(err)
		s.Require().True(ok)
	}

	target := types.ListTarget{UniverseID: 1, Prefix: "al", PageSize: 2}
	page, err := s.data.FetchPage(s.ctx, target, "")
	s.Require().NoError(err)
	s.Len(page.Stores, 2)
	s.Equal("alpha", page.Stores[0].Name)
	s.NotEmpty(page.NextCursor)

	var names []string
	for _, st := range page.Stores {
		names = append(names, st.Name)
	}
	for page.NextCursor != "" {
		page, err = s.data.FetchPage(s.ctx, target, page.NextCursor)
		s.Require().NoError(err)
		for _, st := range page.Stores {
			names = append(names, st.Name)
		}
	}
	s.Equal([]string{"alpha", "alps", "alto"}, names)
}

func (s *DDBTestSuite) TestSettingsRoundTrip() {
	in := types.NewSettings()
	in.Flags["DataStoresV2Enabled"] = true
	in.LogLevels["DataStore"] = 6
	s.Require().NoError(s.settings.PutSettings(s.ctx, in))

	got, err := s.settings.FetchSettings(s.ctx)
	s.Require().NoError(err)
	s.True(got.Flags["DataStoresV2Enabled"])
	s.Equal(6, got.LogLevels["DataStore"])
}
