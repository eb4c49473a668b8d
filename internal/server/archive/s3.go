// Package archive uploads trimmed content versions to S3-compatible storage.
// Sensitive fields are sealed with the envelope cipher before upload, so the
// bucket never holds more plaintext than the database does.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/draftkeeper/internal/cryptox"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/google/uuid"
)

// SensitiveFields are sealed in every archived record.
var SensitiveFields = []string{"name", "body"}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type S3Archiver struct {
	client putObjectAPI
	bucket string
	cipher *cryptox.Cipher
	now    func() time.Time
}

// New builds an archiver from static credentials. An empty Endpoint uses the
// regular AWS endpoint resolution; a custom one (MinIO) switches to
// path-style addressing.
func New(ctx context.Context, opts Options, c *cryptox.Cipher) (*S3Archiver, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is not set")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, opts.Bucket, c), nil
}

func NewWithClient(client putObjectAPI, bucket string, c *cryptox.Cipher) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, cipher: c, now: time.Now}
}

// ObjectKey returns a fresh key grouping archives by node and day.
func (a *S3Archiver) ObjectKey(contentID, projectID string) string {
	d := a.now().UTC()
	return fmt.Sprintf("versions/%s/%s/%d/%02d/%02d/%v.json", projectID, contentID, d.Year(), d.Month(), d.Day(), uuid.New())
}

// Archive writes vs as one JSON array object.
func (a *S3Archiver) Archive(ctx context.Context, contentID, projectID string, vs []*models.ContentVersion) error {
	if len(vs) == 0 {
		return nil
	}

	records := make([]cryptox.Record, 0, len(vs))
	for _, v := range vs {
		sealed, err := a.cipher.EncryptObject(toRecord(v), SensitiveFields)
		if err != nil {
			return fmt.Errorf("seal version %s: %w", v.VersionID, err)
		}
		records = append(records, sealed)
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal versions: %w", err)
	}

	key := a.ObjectKey(contentID, projectID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func toRecord(v *models.ContentVersion) cryptox.Record {
	rec := cryptox.Record{
		"versionId": v.VersionID,
		"contentId": v.ContentID,
		"projectId": v.ProjectID,
		"name":      v.Name,
		"category":  v.Category,
		"body":      v.Body,
		"createdAt": v.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if v.AuthorID != nil {
		rec["authorId"] = *v.AuthorID
	}
	if v.Meta != nil {
		rec["meta"] = v.Meta
	}
	return rec
}
