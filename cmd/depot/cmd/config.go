package cmd

import (
	"fmt"
	"os/user"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/starworks/depot/pkg/catalog"
	"github.com/starworks/depot/pkg/core"
	"github.com/starworks/depot/pkg/dlogger"
	"github.com/starworks/depot/pkg/storage"
	"github.com/starworks/depot/pkg/storage/localfs"
	"github.com/starworks/depot/pkg/storage/sthree"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	// bug in viper? Need to keep names of fields the same as the serialized names..
	Catalog     string `json:"catalog" yaml:"catalog"`         // Path to the catalog database
	Store       string `json:"store" yaml:"store"`             // Blob backend: localfs or s3
	Path        string `json:"path" yaml:"path"`               // Object directory for the localfs backend
	Bucket      string `json:"bucket" yaml:"bucket"`           // Bucket for the s3 backend
	Region      string `json:"region" yaml:"region"`           // Region for the s3 backend
	Endpoint    string `json:"endpoint" yaml:"endpoint"`       // Endpoint override for S3-compatible stores
	Contributor string `json:"contributor" yaml:"contributor"` // Identity recorded on created entries
	ChunkSize   int64  `json:"chunksize" yaml:"chunksize"`     // Hashing chunk size in bytes
	Concurrency int    `json:"concurrency" yaml:"concurrency"` // Parallel blob fetches during export
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *CLIConfig) contributor() string {
	if c.Contributor != "" {
		return c.Contributor
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "anonymous"
}

func (c *CLIConfig) blobStore() (storage.Store, error) {
	switch c.Store {
	case "", "localfs":
		return localfs.New(afero.NewBasePathFs(afero.NewOsFs(), c.Path))
	case "s3":
		if c.Bucket == "" {
			return nil, fmt.Errorf("s3 store requires a bucket")
		}
		awsConfig := aws.NewConfig()
		if c.Region != "" {
			awsConfig = awsConfig.WithRegion(c.Region)
		}
		if c.Endpoint != "" {
			awsConfig = awsConfig.WithEndpoint(c.Endpoint).WithS3ForcePathStyle(true)
		}
		return sthree.New(sthree.Bucket(c.Bucket), sthree.AWSConfig(awsConfig)), nil
	default:
		return nil, fmt.Errorf("unknown blob store %q", c.Store)
	}
}

// mkEngine assembles the engine from the effective configuration. The
// returned closer releases the catalog.
func (c *CLIConfig) mkEngine() (*core.Engine, func() error, error) {
	logger, err := dlogger.GetLogger(depotFlags.root.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("set log level: %w", err)
	}
	cat, err := catalog.New(c.Catalog, catalog.Logger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog %s: %w", c.Catalog, err)
	}
	blobs, err := c.blobStore()
	if err != nil {
		_ = cat.Close()
		return nil, nil, err
	}

	opts := []core.Option{
		core.Logger(logger),
		core.Contributor(c.contributor()),
	}
	if c.ChunkSize > 0 {
		opts = append(opts, core.ChunkSize(c.ChunkSize))
	}
	if c.Concurrency > 0 {
		opts = append(opts, core.ExportConcurrency(c.Concurrency))
	}
	return core.New(cat, blobs, opts...), cat.Close, nil
}
