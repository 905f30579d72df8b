package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeS3 struct {
	objects map[string]string
	types   map[string]string
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := *in.Bucket + "/" + *in.Key
	f.objects[key] = string(body)
	if in.ContentType != nil {
		f.types[key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func TestUploadPrefixesBucket(t *testing.T) {
	client := newFakeS3()
	fs := NewWithClient(client, Options{BucketPrefix: "dev-"}, zap.NewNop())

	err := fs.Upload(context.Background(), "property-360", "u1/a.jpg", strings.NewReader("x"), "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "x", client.objects["dev-property-360/u1/a.jpg"])
	require.Equal(t, "image/jpeg", client.types["dev-property-360/u1/a.jpg"])
}

func TestUploadReplacesExisting(t *testing.T) {
	client := newFakeS3()
	fs := NewWithClient(client, Options{}, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, fs.Upload(ctx, "b", "k", strings.NewReader("first"), ""))
	require.NoError(t, fs.Upload(ctx, "b", "k", strings.NewReader("second"), ""))
	require.Equal(t, "second", client.objects["b/k"])
	require.Empty(t, client.types["b/k"])
}

func TestUploadFailure(t *testing.T) {
	client := newFakeS3()
	client.putErr = errors.New("access denied")
	fs := NewWithClient(client, Options{}, zap.NewNop())

	err := fs.Upload(context.Background(), "b", "k", strings.NewReader("x"), "")
	require.ErrorContains(t, err, "could not upload file: access denied")
	require.Empty(t, client.objects)
}

func TestPublicURL(t *testing.T) {
	fs := NewWithClient(nil, Options{PublicBaseURL: "https://cdn.test"}, zap.NewNop())
	require.Equal(t, "https://cdn.test/property-360/u1/living%20room.jpg", fs.PublicURL("property-360", "u1/living room.jpg"))

	fs = NewWithClient(nil, Options{Endpoint: "http://localhost:9000/", BucketPrefix: "p-"}, zap.NewNop())
	require.Equal(t, "http://localhost:9000/p-b/k.png", fs.PublicURL("b", "k.png"))

	fs = NewWithClient(nil, Options{Region: "eu-west-1"}, zap.NewNop())
	require.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/k.png", fs.PublicURL("b", "k.png"))
}
