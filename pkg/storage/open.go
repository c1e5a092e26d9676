package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures the client Open builds for s3:// locations.
type S3Options struct {
	// Endpoint overrides the service endpoint, e.g. an R2 or MinIO URL.
	// Path-style addressing is used when set.
	Endpoint string
	// Region defaults to "auto" when empty.
	Region string
	// AccessKey and SecretKey are static credentials. When both are empty
	// requests are sent unsigned.
	AccessKey string
	SecretKey string
}

// Open returns the Store for a location:
//
//	/srv/assets             local directory
//	file:///srv/assets      local directory
//	s3://bucket/prefix      S3-compatible bucket, configured by opts
func Open(location string, opts S3Options) (Store, error) {
	if location == "" {
		return nil, fmt.Errorf("storage: empty location")
	}
	if !strings.Contains(location, "://") {
		return NewLocal(location)
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("storage: parse %q: %w", location, err)
	}
	switch u.Scheme {
	case "file":
		return NewLocal(u.Host + u.Path)
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("storage: %q has no bucket", location)
		}
		return NewS3(NewS3Client(opts), u.Host, u.Path), nil
	}
	return nil, fmt.Errorf("storage: unsupported scheme %q", u.Scheme)
}

// NewS3Client builds an S3 client from static options without consulting
// shared AWS configuration files.
func NewS3Client(opts S3Options) *s3.Client {
	region := opts.Region
	if region == "" {
		region = "auto"
	}
	o := s3.Options{Region: region}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		creds := aws.Credentials{
			AccessKeyID:     opts.AccessKey,
			SecretAccessKey: opts.SecretKey,
			Source:          "whisperedge",
		}
		o.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
	} else {
		o.Credentials = aws.AnonymousCredentials{}
	}
	return s3.New(o)
}
