package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Object tag values marking an upload's lifecycle.
const (
	lifecycleTag       = "lifecycle"
	lifecycleTemp      = "TEMP"
	lifecyclePermanent = "PERMANENT"
)

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	GetObjectTagging(ctx context.Context, in *s3.GetObjectTaggingInput, opts ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error)
	PutObjectTagging(ctx context.Context, in *s3.PutObjectTaggingInput, opts ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3ClientConfig describes how to reach the bucket.
type S3ClientConfig struct {
	Region string

	// Endpoint overrides the AWS endpoint (MinIO, LocalStack). Setting it
	// switches to path-style addressing.
	Endpoint string

	AccessKey string
	SecretKey string
}

// NewS3Client builds an S3 client with static credentials.
func NewS3Client(cfg S3ClientConfig) *s3.Client {
	opts := s3.Options{
		Region: cfg.Region,
	}
	if cfg.AccessKey != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			Source:          "folio",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil }))
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// S3Store stores uploads in an S3 bucket.
//
//	client := upload.NewS3Client(upload.S3ClientConfig{Region: "ap-northeast-2", ...})
//	store := upload.NewS3Store(client, "devfolio-images", "editor/", 10<<20)
type S3Store struct {
	api       s3API
	presign   presigner
	bucket    string
	prefix    string
	baseURL   string
	maxSize   int64
	urlExpiry time.Duration
}

// S3Option configures an S3Store.
type S3Option func(*S3Store)

// WithPublicURL sets the URL prefix references are built from, e.g. a CDN.
func WithPublicURL(base string) S3Option {
	return func(s *S3Store) {
		if base != "" && !strings.HasSuffix(base, "/") {
			base += "/"
		}
		s.baseURL = base
	}
}

// WithPresignedURLs makes references presigned GET URLs valid for expiry,
// for buckets that are not publicly readable.
func WithPresignedURLs(expiry time.Duration) S3Option {
	return func(s *S3Store) { s.urlExpiry = expiry }
}

// NewS3Store creates an S3 upload store. Keys are stored under prefix.
// maxSize of 0 means no limit.
func NewS3Store(client *s3.Client, bucket, prefix string, maxSize int64, opts ...S3Option) *S3Store {
	s := newS3Store(client, s3.NewPresignClient(client), bucket, prefix, maxSize)
	region := client.Options().Region
	if ep := client.Options().BaseEndpoint; ep != nil {
		s.baseURL = strings.TrimSuffix(*ep, "/") + "/" + bucket + "/"
	} else {
		s.baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", bucket, region)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newS3Store(api s3API, p presigner, bucket, prefix string, maxSize int64) *S3Store {
	return &S3Store{
		api:     api,
		presign: p,
		bucket:  bucket,
		prefix:  prefix,
		maxSize: maxSize,
	}
}

// Save uploads r as a temporary object.
func (s *S3Store) Save(ctx context.Context, key, contentType string, size int64, r io.Reader) (*File, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return nil, ErrTooLarge
	}

	var buf bytes.Buffer
	n, err := limitCopy(&buf, r, s.maxSize)
	if err != nil {
		return nil, err
	}

	objectKey := s.prefix + key
	now := time.Now().UTC()
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(n),
		Tagging:       aws.String(lifecycleTag + "=" + lifecycleTemp),
		Metadata: map[string]string{
			"upload-time": now.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("s3 upload failed: %w", err)
	}

	ref, err := s.ref(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	return &File{
		Key:         objectKey,
		ContentType: contentType,
		Size:        n,
		URL:         ref,
		CreatedAt:   now,
	}, nil
}

// Claim retags the object behind ref as permanent.
func (s *S3Store) Claim(ctx context.Context, ref string) (*File, error) {
	objectKey, ok := s.Key(ref)
	if !ok {
		return nil, ErrNotFound
	}

	head, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	_, err = s.api.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
		Tagging: &types.Tagging{TagSet: []types.Tag{
			{Key: aws.String(lifecycleTag), Value: aws.String(lifecyclePermanent)},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("s3 retag failed: %w", err)
	}

	f := &File{
		Key:         objectKey,
		ContentType: aws.ToString(head.ContentType),
		Size:        aws.ToInt64(head.ContentLength),
		URL:         ref,
		Claimed:     true,
	}
	if head.LastModified != nil {
		f.CreatedAt = *head.LastModified
	}
	return f, nil
}

// Cleanup deletes objects under the prefix that are older than maxAge and
// not tagged permanent.
func (s *S3Store) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var expired []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		for _, obj := range page.Contents {
			if obj.Key != nil && obj.LastModified != nil && obj.LastModified.Before(cutoff) {
				expired = append(expired, *obj.Key)
			}
		}
	}

	removed := 0
	for _, key := range expired {
		permanent, err := s.permanent(ctx, key)
		if err != nil || permanent {
			continue
		}
		_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Key returns the object key behind ref. Both plain and presigned
// references are accepted.
func (s *S3Store) Key(ref string) (string, bool) {
	if s.baseURL != "" {
		if rest, ok := strings.CutPrefix(ref, s.baseURL); ok {
			rest, _, _ = strings.Cut(rest, "?")
			if p, err := url.PathUnescape(rest); err == nil {
				rest = p
			}
			return rest, rest != "" && strings.HasPrefix(rest, s.prefix)
		}
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, "/")
	key = strings.TrimPrefix(key, s.bucket+"/")
	if key == "" || !strings.HasPrefix(key, s.prefix) {
		return "", false
	}
	return key, true
}

func (s *S3Store) ref(ctx context.Context, objectKey string) (string, error) {
	if s.urlExpiry <= 0 {
		return s.baseURL + objectKey, nil
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.urlExpiry))
	if err != nil {
		return "", fmt.Errorf("s3 presign failed: %w", err)
	}
	return req.URL, nil
}

func (s *S3Store) permanent(ctx context.Context, key string) (bool, error) {
	out, err := s.api.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, err
	}
	for _, tag := range out.TagSet {
		if aws.ToString(tag.Key) == lifecycleTag {
			return aws.ToString(tag.Value) == lifecyclePermanent, nil
		}
	}
	return false, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}
