package storage

import (
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		location string
		want     string
		wantErr  bool
	}{
		{location: dir, want: "file://" + filepath.ToSlash(dir)},
		{location: "file://" + dir, want: "file://" + filepath.ToSlash(dir)},
		{location: "s3://models", want: "s3://models"},
		{location: "s3://models/whisper/tiny.en", want: "s3://models/whisper/tiny.en"},
		{location: "s3:///nobucket", wantErr: true},
		{location: "gs://bucket", wantErr: true},
		{location: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			s, err := Open(tt.location, S3Options{Endpoint: "http://127.0.0.1:9000", AccessKey: "k", SecretKey: "s"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.String() != tt.want {
				t.Fatalf("String() = %q, want %q", s.String(), tt.want)
			}
		})
	}
}

func TestNewS3ClientRegion(t *testing.T) {
	c := NewS3Client(S3Options{})
	if got := c.Options().Region; got != "auto" {
		t.Fatalf("Region = %q, want auto", got)
	}
	c = NewS3Client(S3Options{Region: "us-east-1", Endpoint: "https://r2.example.com"})
	o := c.Options()
	if o.Region != "us-east-1" || !o.UsePathStyle || o.BaseEndpoint == nil || *o.BaseEndpoint != "https://r2.example.com" {
		t.Fatalf("options = region %q path-style %v endpoint %v", o.Region, o.UsePathStyle, o.BaseEndpoint)
	}
}
