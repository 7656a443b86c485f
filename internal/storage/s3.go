package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const s3Method = "s3"

// s3API is the slice of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store persists blocks as objects in a bucket, namespaced by an optional
// key prefix. Stored paths map 1:1 onto object keys so addresses round-trip
// through ParseAddress back into reads.
type S3Store struct {
	namespace string
	bucket    string
	prefix    string
	client    s3API
}

// S3Options configures an S3Store. Client overrides the default AWS client,
// mainly for tests.
type S3Options struct {
	Namespace string
	Bucket    string
	Prefix    string
	Client    s3API
}

// NewS3Store builds a store over a bucket. Without an explicit client the
// ambient AWS configuration (env, shared config, instance role) is used;
// configuration failures abort construction.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage: s3 store requires a bucket")
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	client := opts.Client
	if client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage: load aws config: %w", err)
		}
		client = s3.NewFromConfig(cfg)
	}
	return &S3Store{
		namespace: opts.Namespace,
		bucket:    opts.Bucket,
		prefix:    strings.Trim(opts.Prefix, "/"),
		client:    client,
	}, nil
}

func (s *S3Store) Method() string { return s3Method }

func (s *S3Store) Address(path string) string {
	return BuildAddress(s.namespace, s3Method, path)
}

func (s *S3Store) Write(ctx context.Context, path string, v any) (StorageRecord, error) {
	b, err := CanonicalBytes(v)
	if err != nil {
		return StorageRecord{}, err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
		Body:   bytes.NewReader(b),
	})
	if err != nil {
		return StorageRecord{}, &IOError{Method: s3Method, Op: "write", Path: path, Err: err}
	}
	return StorageRecord{
		Path:    path,
		Address: s.Address(path),
		Hash:    ContentHash(b),
		Size:    len(b),
	}, nil
}

func (s *S3Store) Read(ctx context.Context, address string) ([]byte, bool, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, false, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(addr.Local)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, false, nil
		}
		return nil, false, &IOError{Method: s3Method, Op: "read", Path: addr.Local, Err: err}
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, &IOError{Method: s3Method, Op: "read", Path: addr.Local, Err: err}
	}
	return b, true, nil
}

func (s *S3Store) Exists(ctx context.Context, address string) (bool, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(addr.Local)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, &IOError{Method: s3Method, Op: "exists", Path: addr.Local, Err: err}
	}
	return true, nil
}

func (s *S3Store) Delete(ctx context.Context, address string) error {
	addr, err := ParseAddress(address)
	if err != nil {
		return err
	}
	// DeleteObject succeeds for absent keys, which matches best-effort
	// delete semantics.
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(addr.Local)),
	})
	if err != nil {
		return &IOError{Method: s3Method, Op: "delete", Path: addr.Local, Err: err}
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var token *string
		for {
			out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(s.bucket),
				Prefix:            aws.String(s.key(prefix)),
				ContinuationToken: token,
			})
			if err != nil {
				yield("", &IOError{Method: s3Method, Op: "list", Path: prefix, Err: err})
				return
			}
			for _, obj := range out.Contents {
				if !yield(s.trimKey(aws.ToString(obj.Key)), nil) {
					return
				}
			}
			if out.NextContinuationToken == nil {
				return
			}
			token = out.NextContinuationToken
		}
	}
}

func (s *S3Store) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

func (s *S3Store) trimKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, s.prefix+"/")
}
