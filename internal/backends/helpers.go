package backends

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"dsclient/internal/backends/ddb"
	"dsclient/internal/backends/file"
	"dsclient/internal/ports"
	"dsclient/internal/types"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	redisbackend "dsclient/internal/backends/redis"
)

const (
	DefaultDDBTable  = "dsclient"
	DefaultDDBRegion = "us-east-1"
)

const AmazonRootCA1PEM = `-----BEGIN CERTIFICATE-----
MIIDQTCCAimgAwIBAgITBmyfz5m/jAo54vB4ikPmljZbyjANBgkqhkiG9w0BAQsF
ADA5MQswCQYDVQQGEwJVUzEPMA0GA1UEChMGQW1hem9uMRkwFwYDVQQDExBBbWF6
b24gUm9vdCBDQSAxMB4XDTE1MDUyNjAwMDAwMFoXDTM4MDExNzAwMDAwMFowOTEL
MAkGA1UEBhMCVVMxDzANBgNVBAoTBkFtYXpvbjEZMBcGA1UEAxMQQW1hem9uIFJv
b3QgQ0EgMTCCASIwDQYJKoZIhvcNAQEBBQADggEPADCCAQoCggEBALJ4gHHKeNXj
ca9HgFB0fW7Y14h29Jlo91ghYPl0hAEvrAIthtOgQ3pOsqTQNroBvo3bSMgHFzZM
9O6II8c+6zf1tRn4SWiw3te5djgdYZ6k/oI2peVKVuRF4fn9tBb6dNqcmzU5L/qw
IFAGbHrQgLKm+a/sRxmPUDgH3KKHOVj4utWp+UhnMJbulHheb4mjUcAwhmahRWa6
VOujw5H5SNz/0egwLX0tdHA114gk957EWW67c4cX8jJGKLhD+rcdqsq08p8kDi1L
93FcXmn/6pUCyziKrlA4b9v7LWIbxcceVOF34GfID5yHI9Y/QCB/IIDEgEw+OyQm
jgSubJrIqg0CAwEAAaNCMEAwDwYDVR0TAQH/BAUwAwEB/zAOBgNVHQ8BAf8EBAMC
AYYwHQYDVR0OBBYEFIQYzIU07LwMlJQuCFmcx7IQTgoIMA0GCSqGSIb3DQEBCwUA
A4IBAQCY8jdaQZChGsV2USggNiMOruYou6r4lK5IpDB/G/wkjUu0yKGX9rbxenDI
U5PMCCjjmCXPI6T53iHTfIUJrU6adTrCC2qJeHZERxhlbI1Bjjt/msv0tadQ1wUs
N+gDS63pYaACbvXy8MWy7Vu33PqUXHeeE6V/Uq2V8viTO96LXFvKWlJbYK8U90vv
o/ufQJVtMVT8QtPHRh8jrdkPSHCa2XV4cdFyQzR1bldZwgJcJmApzyMZFo6IQ6XU
5MsI+yMRQ+hDKXJioaldXgjUkK642M4UwtBV8ob2xJNDd2ZhwLnoQdeXeGADbkpy
rqXRfboQnoZsG4q5WTP468SQvvG5
-----END CERTIFICATE-----`

// DataBackend bundles the data backend with its listing side; both backends
// implement ports.PageFetcher over their store index.
type DataBackend interface {
	ports.DataBackend
	ports.PageFetcher
}

// Clients lazily builds and shares the Redis and DynamoDB clients a config
// needs, so the data and settings backends reuse one connection.
type Clients struct {
	cfg   types.AppConfig
	redis *redis.Client
	ddb   *dynamodb.Client
}

func NewClients(cfg types.AppConfig) *Clients {
	return &Clients{cfg: cfg}
}

// DataBackendFromConfig constructs the data backend named by cfg.DataBackend.
func (c *Clients) DataBackendFromConfig(ctx context.Context) (DataBackend, error) {
	switch c.cfg.DataBackend {
	case types.BackendRedis:
		cli, err := c.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return redisbackend.NewDataStore(cli), nil
	case types.BackendDDB:
		cli, err := c.ddbClient(ctx)
		if err != nil {
			return nil, err
		}
		return ddb.NewDataStore(c.ddbTable(), cli), nil
	default:
		return nil, types.Err(types.ErrInvalidBackend, nil, "unknown data backend %q", c.cfg.DataBackend)
	}
}

// SettingsSourceFromConfig constructs the runtime variable source named by
// cfg.SettingsBackend. It returns nil for "none" (and the empty value), which
// leaves the flags provider on registered defaults.
func (c *Clients) SettingsSourceFromConfig(ctx context.Context) (ports.SettingsSource, error) {
	switch c.cfg.SettingsBackend {
	case types.BackendNone, "":
		return nil, nil
	case types.BackendFile:
		return file.NewSettingsFile(c.cfg.SettingsFile), nil
	case types.BackendRedis:
		cli, err := c.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return redisbackend.NewSettingsStore(cli), nil
	case types.BackendDDB:
		cli, err := c.ddbClient(ctx)
		if err != nil {
			return nil, err
		}
		return ddb.NewSettingsStore(c.ddbTable(), cli), nil
	default:
		return nil, types.Err(types.ErrInvalidBackend, nil, "unknown settings backend %q", c.cfg.SettingsBackend)
	}
}

func (c *Clients) ddbTable() string {
	if c.cfg.DDB.Table == "" {
		return DefaultDDBTable
	}
	return c.cfg.DDB.Table
}

// ddbClient creates a DynamoDB client. A configured endpoint is used for local
// testing with static credentials.
func (c *Clients) ddbClient(ctx context.Context) (*dynamodb.Client, error) {
	if c.ddb != nil {
		return c.ddb, nil
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	ddbCfg := c.cfg.DDB
	c.ddb = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if ddbCfg.Region != "" {
			o.Region = ddbCfg.Region
		}
		if ddbCfg.Endpoint != "" {
			// This is used for testing only locally
			o.BaseEndpoint = aws.String(ddbCfg.Endpoint)
			if o.Region == "" {
				o.Region = DefaultDDBRegion
			}
			o.Credentials = credentials.NewStaticCredentialsProvider(
				getenv("AWS_ACCESS_KEY_ID", "x"),
				getenv("AWS_SECRET_ACCESS_KEY", "x"),
				"",
			)
		}
	})
	return c.ddb, nil
}

// redisClient creates a Redis client and checks the connection.
func (c *Clients) redisClient(ctx context.Context) (*redis.Client, error) {
	if c.redis != nil {
		return c.redis, nil
	}
	rc := c.cfg.Redis
	host := rc.Host
	if host == "" {
		host = "localhost"
	}
	port := rc.Port
	if port == "" {
		port = "6379"
	}

	var tlsConfig *tls.Config
	if rc.TLS {
		// Create a CA certificate pool and add our CA certificate
		caCerts := x509.NewCertPool()
		if !caCerts.AppendCertsFromPEM([]byte(AmazonRootCA1PEM)) {
			return nil, fmt.Errorf("failed to retrieve CA certificate")
		}
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    caCerts,
		}
	}

	cli := redis.NewClient(&redis.Options{
		Addr:      fmt.Sprintf("%s:%s", host, port),
		Username:  rc.User,
		Password:  rc.Pass,
		DB:        rc.DBNum,
		TLSConfig: tlsConfig,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	c.redis = cli
	return cli, nil
}

// Close releases the Redis connection, if one was opened.
func (c *Clients) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// getenv retrieves the value of the environment variable named by the key.
func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// IndexURLs builds listing targets for the backends' own store index. The URL
// is informational; the backends read UniverseID, Prefix and PageSize.
type IndexURLs struct{}

func (IndexURLs) BuildListURL(universeID int64, prefix string, pageSize int) types.ListTarget {
	return types.ListTarget{
		URL:        fmt.Sprintf("index://%d?prefix=%s&limit=%d", universeID, prefix, pageSize),
		UniverseID: universeID,
		Prefix:     prefix,
		PageSize:   pageSize,
	}
}
