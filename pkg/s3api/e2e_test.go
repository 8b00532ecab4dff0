package s3api

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/shelf/pkg/catalog/memory"
	"github.com/marmos91/shelf/pkg/gateway"
)

// newE2EClient runs the authenticated server and returns an official SDK
// client pointed at it.
func newE2EClient(t *testing.T) (*s3.Client, string) {
	t.Helper()
	root := t.TempDir()
	gw, err := gateway.New(root, memory.New())
	require.NoError(t, err)

	server := httptest.NewServer(NewRouter(gw, Config{
		AccessKey: testAccessKey,
		SecretKey: testSecretKey,
	}, nil))
	t.Cleanup(server.Close)

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(testAccessKey, testSecretKey, "")),
		// The server does not speak aws-chunked uploads or flexible
		// checksum trailers; keep the SDK on plain signed requests.
		awsconfig.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
		awsconfig.WithResponseChecksumValidation(aws.ResponseChecksumValidationWhenRequired),
	)
	require.NoError(t, err)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(server.URL)
		o.UsePathStyle = true
	})
	return client, root
}

func TestE2EObjectLifecycle(t *testing.T) {
	client, _ := newE2EClient(t)
	ctx := context.Background()

	put, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String("docs"),
		Key:      aws.String("reports/q3.txt"),
		Body:     bytes.NewReader([]byte("quarterly numbers")),
		Metadata: map[string]string{"author": "finance"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, aws.ToString(put.ETag))

	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String("docs"),
		Key:    aws.String("reports/q3.txt"),
	})
	require.NoError(t, err)
	require.EqualValues(t, 17, aws.ToInt64(head.ContentLength))
	require.Equal(t, "finance", head.Metadata["author"])

	got, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String("docs"),
		Key:    aws.String("reports/q3.txt"),
	})
	require.NoError(t, err)
	body, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	require.NoError(t, got.Body.Close())
	require.Equal(t, "quarterly numbers", string(body))
	require.Equal(t, aws.ToString(put.ETag), aws.ToString(got.ETag))

	ranged, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String("docs"),
		Key:    aws.String("reports/q3.txt"),
		Range:  aws.String("bytes=0-8"),
	})
	require.NoError(t, err)
	body, err = io.ReadAll(ranged.Body)
	require.NoError(t, err)
	require.NoError(t, ranged.Body.Close())
	require.Equal(t, "quarterly", string(body))
	require.Equal(t, "bytes 0-8/17", aws.ToString(ranged.ContentRange))

	_, err = client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String("docs"),
		Key:    aws.String("reports/missing.txt"),
	})
	var noSuchKey *types.NoSuchKey
	require.ErrorAs(t, err, &noSuchKey)
}

func TestE2EListing(t *testing.T) {
	client, _ := newE2EClient(t)
	ctx := context.Background()

	for _, key := range []string{"logs/a.log", "logs/b.log", "readme.txt"} {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String("docs"),
			Key:    aws.String(key),
			Body:   strings.NewReader("content of " + key),
		})
		require.NoError(t, err)
	}

	list, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String("docs"),
		Prefix: aws.String("logs/"),
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, aws.ToInt32(list.KeyCount))
	require.Len(t, list.Contents, 2)
	require.Equal(t, "logs/a.log", aws.ToString(list.Contents[0].Key))
	require.False(t, aws.ToBool(list.IsTruncated))

	buckets, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	require.NoError(t, err)
	require.Len(t, buckets.Buckets, 1)
	require.Equal(t, "docs", aws.ToString(buckets.Buckets[0].Name))

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String("docs")})
	require.NoError(t, err)
	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String("absent")})
	require.Error(t, err)
}

func TestE2EMultipart(t *testing.T) {
	client, root := newE2EClient(t)
	ctx := context.Background()

	// Multipart never creates buckets; seed the directory.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "videos"), 0o755))

	create, err := client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String("videos"),
		Key:    aws.String("movie.mp4"),
	})
	require.NoError(t, err)
	uploadID := aws.ToString(create.UploadId)
	require.NotEmpty(t, uploadID)

	var completed []types.CompletedPart
	for i, content := range []string{"hello ", "world"} {
		part, err := client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String("videos"),
			Key:        aws.String("movie.mp4"),
			UploadId:   aws.String(uploadID),
			PartNumber: aws.Int32(int32(i + 1)),
			Body:       strings.NewReader(content),
		})
		require.NoError(t, err)
		completed = append(completed, types.CompletedPart{
			ETag:       part.ETag,
			PartNumber: aws.Int32(int32(i + 1)),
		})
	}

	parts, err := client.ListParts(ctx, &s3.ListPartsInput{
		Bucket:   aws.String("videos"),
		Key:      aws.String("movie.mp4"),
		UploadId: aws.String(uploadID),
	})
	require.NoError(t, err)
	require.Len(t, parts.Parts, 2)
	require.EqualValues(t, 6, aws.ToInt64(parts.Parts[0].Size))

	complete, err := client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String("videos"),
		Key:             aws.String("movie.mp4"),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	require.NoError(t, err)
	require.Equal(t, `"5eb63bbbe01eeed093cb22bb8f5acdc3"`, aws.ToString(complete.ETag))

	got, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String("videos"),
		Key:    aws.String("movie.mp4"),
	})
	require.NoError(t, err)
	body, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	require.NoError(t, got.Body.Close())
	require.Equal(t, "hello world", string(body))
}

func TestE2EAbortMultipart(t *testing.T) {
	client, root := newE2EClient(t)
	ctx := context.Background()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "videos"), 0o755))

	create, err := client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String("videos"),
		Key:    aws.String("movie.mp4"),
	})
	require.NoError(t, err)

	_, err = client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String("videos"),
		Key:        aws.String("movie.mp4"),
		UploadId:   create.UploadId,
		PartNumber: aws.Int32(1),
		Body:       strings.NewReader("bytes"),
	})
	require.NoError(t, err)

	_, err = client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String("videos"),
		Key:      aws.String("movie.mp4"),
		UploadId: create.UploadId,
	})
	require.NoError(t, err)

	// A fresh part upload against the destroyed registration is refused.
	_, err = client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String("videos"),
		Key:        aws.String("movie.mp4"),
		UploadId:   create.UploadId,
		PartNumber: aws.Int32(2),
		Body:       strings.NewReader("late"),
	})
	require.Error(t, err)
}
