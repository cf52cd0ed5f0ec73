package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ListPaginates(t *testing.T) {
	store := NewMemoryStore("https://cdn.example.com/portfolio")
	for i := 0; i < 5; i++ {
		store.Put(fmt.Sprintf("P1/after_images/%d.jpg", i), 10)
	}
	store.Put("P2/after_images/other.jpg", 10)

	ctx := context.Background()
	var names []string
	token := ""
	pages := 0
	for {
		page, err := store.List(ctx, "P1/after_images/", ListOptions{PageSize: 2, ContinuationToken: token})
		require.NoError(t, err)
		pages++
		for _, obj := range page.Objects {
			names = append(names, obj.Name)
		}
		if !page.Truncated {
			break
		}
		token = page.NextToken
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"0.jpg", "1.jpg", "2.jpg", "3.jpg", "4.jpg"}, names)
	assert.Equal(t, 3, store.ListCalls())
}

func TestMemoryStore_ListErr(t *testing.T) {
	store := NewMemoryStore("")
	store.SetListErr(errors.New("unavailable"))

	_, err := store.List(context.Background(), "P1/", ListOptions{})
	require.Error(t, err)
	assert.True(t, IsTemporary(err))

	store.SetListErr(nil)
	_, err = store.List(context.Background(), "P1/", ListOptions{})
	assert.NoError(t, err)
}

func TestMemoryStore_UploadAndPublicURL(t *testing.T) {
	store := NewMemoryStore("https://cdn.example.com/portfolio/")
	err := store.Upload(context.Background(), "P1/before_images/a.jpg", strings.NewReader("data"), -1, "image/jpeg")
	require.NoError(t, err)

	page, err := store.List(context.Background(), "P1/before_images/", ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Objects, 1)
	assert.Equal(t, int64(4), page.Objects[0].Size)
	assert.Equal(t, "image/jpeg", page.Objects[0].ContentType)

	assert.Equal(t, "https://cdn.example.com/portfolio/P1/before_images/a.jpg", store.PublicURL("P1/before_images/a.jpg"))
}

type fakeS3 struct {
	listInputs []*s3.ListObjectsV2Input
	listOut    *s3.ListObjectsV2Output
	listErr    error
	putInput   *s3.PutObjectInput
	putErr     error
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listInputs = append(f.listInputs, params)
	return f.listOut, f.listErr
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putInput = params
	if params.Body != nil {
		_, _ = io.Copy(io.Discard, params.Body)
	}
	return &s3.PutObjectOutput{}, f.putErr
}

func TestS3Store_List(t *testing.T) {
	modified := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fake := &fakeS3{
		listOut: &s3.ListObjectsV2Output{
			Contents: []types.Object{
				{Key: aws.String("P1/after_images/a.jpg"), Size: aws.Int64(12), LastModified: &modified},
				{Key: aws.String("P1/after_images/.emptyFolderPlaceholder"), Size: aws.Int64(0)},
			},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("tok-2"),
		},
	}
	store := newS3StoreWithClient(fake, "portfolio", "")

	page, err := store.List(context.Background(), "P1/after_images/", ListOptions{PageSize: 100, ContinuationToken: "tok-1"})
	require.NoError(t, err)

	require.Len(t, fake.listInputs, 1)
	in := fake.listInputs[0]
	assert.Equal(t, "portfolio", aws.ToString(in.Bucket))
	assert.Equal(t, "P1/after_images/", aws.ToString(in.Prefix))
	assert.Equal(t, int32(100), aws.ToInt32(in.MaxKeys))
	assert.Equal(t, "tok-1", aws.ToString(in.ContinuationToken))

	require.Len(t, page.Objects, 2)
	assert.Equal(t, "a.jpg", page.Objects[0].Name)
	assert.Equal(t, int64(12), page.Objects[0].Size)
	assert.Equal(t, modified, page.Objects[0].LastModified)
	assert.True(t, page.Truncated)
	assert.Equal(t, "tok-2", page.NextToken)
}

func TestS3Store_ListErrorClassified(t *testing.T) {
	fake := &fakeS3{listErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}}
	store := newS3StoreWithClient(fake, "portfolio", "")

	_, err := store.List(context.Background(), "P1/", ListOptions{})
	require.Error(t, err)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ErrorTypeAccessDenied, se.Type)
	assert.False(t, IsTemporary(err))
}

func TestS3Store_Upload(t *testing.T) {
	fake := &fakeS3{}
	store := newS3StoreWithClient(fake, "portfolio", "https://cdn.example.com")

	err := store.Upload(context.Background(), "P1/after_images/a.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	require.NotNil(t, fake.putInput)
	assert.Equal(t, "P1/after_images/a.png", aws.ToString(fake.putInput.Key))
	assert.Equal(t, int64(3), aws.ToInt64(fake.putInput.ContentLength))
	assert.Equal(t, "image/png", aws.ToString(fake.putInput.ContentType))

	assert.Equal(t, "https://cdn.example.com/P1/after_images/a.png", store.PublicURL("P1/after_images/a.png"))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{&smithy.GenericAPIError{Code: "NoSuchBucket"}, ErrorTypeNotFound},
		{&smithy.GenericAPIError{Code: "SlowDown"}, ErrorTypeTemporary},
		{fmt.Errorf("wrapped: %w", &smithy.GenericAPIError{Code: "Forbidden"}), ErrorTypeAccessDenied},
		{context.DeadlineExceeded, ErrorTypeTemporary},
		{errors.New("dial tcp: connection refused"), ErrorTypeTemporary},
		{errors.New("something odd"), ErrorTypeUnknown},
		{nil, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), "%v", tt.err)
	}
}
