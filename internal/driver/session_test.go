package driver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltamig/deltamig/internal/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendScylla
	cfg.Hosts = []string{"10.0.0.1:9042", "10.0.0.2:9042"}
	cfg.Consistency = "local_quorum"
	cfg.Username = "cassandra"
	cfg.Password = "secret"

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.Hosts, opts.Hosts)
	assert.Equal(t, "deltamig", opts.Keyspace)
	assert.Equal(t, gocql.LocalQuorum, opts.Consistency)
	assert.Equal(t, 30*time.Second, opts.SchemaTimeout)
	assert.Equal(t, 3, opts.Retries)
	assert.Nil(t, opts.SSL)
}

func TestOptionsFromConfig_SSLIsCopied(t *testing.T) {
	cfg := config.Default()
	cfg.SSL = config.SSLConfig{Enabled: true, CACert: "/ca.pem"}

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, opts.SSL)

	cfg.SSL.CACert = "/other.pem"
	assert.Equal(t, "/ca.pem", opts.SSL.CACert)
}

func TestOptionsFromConfig_InvalidConsistency(t *testing.T) {
	cfg := config.Default()
	cfg.Consistency = "most"

	_, err := OptionsFromConfig(cfg)
	assert.Error(t, err)
}

func TestOptions_Cluster(t *testing.T) {
	opts := Options{
		Hosts:           []string{"localhost:9042"},
		Consistency:     gocql.One,
		Timeout:         5 * time.Second,
		ConnectTimeout:  2 * time.Second,
		ProtocolVersion: 4,
		Retries:         7,
		Username:        "user",
		Password:        "pass",
	}

	cluster, err := opts.cluster()
	require.NoError(t, err)

	assert.Equal(t, gocql.One, cluster.Consistency)
	assert.Equal(t, gocql.Serial, cluster.SerialConsistency)
	assert.Equal(t, 5*time.Second, cluster.Timeout)
	assert.Equal(t, 4, cluster.ProtoVersion)
	assert.Equal(t, gocql.PasswordAuthenticator{Username: "user", Password: "pass"}, cluster.Authenticator)

	policy, ok := cluster.RetryPolicy.(*gocql.ExponentialBackoffRetryPolicy)
	require.True(t, ok)
	assert.Equal(t, 7, policy.NumRetries)
	assert.Nil(t, cluster.SslOpts)
}

func TestOptions_Cluster_BadCACert(t *testing.T) {
	dir := t.TempDir()
	caPath := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(caPath, []byte("not a certificate"), 0644))

	opts := Options{Hosts: []string{"localhost"}, SSL: &config.SSLConfig{Enabled: true, CACert: caPath}}
	_, err := opts.cluster()
	assert.ErrorContains(t, err, "no certificates found")

	opts.SSL.CACert = filepath.Join(dir, "missing.pem")
	_, err = opts.cluster()
	assert.ErrorContains(t, err, "failed to read CA cert")
}

func TestOptions_Cluster_SkipVerify(t *testing.T) {
	opts := Options{Hosts: []string{"localhost"}, SSL: &config.SSLConfig{Enabled: true, SkipVerify: true}}

	cluster, err := opts.cluster()
	require.NoError(t, err)
	require.NotNil(t, cluster.SslOpts)
	assert.True(t, cluster.SslOpts.Config.InsecureSkipVerify)
}
