package assets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

func TestDirFetcher_PutAndFetch(t *testing.T) {
	root := t.TempDir()
	d := NewDirFetcher(root)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "my_pack", "01.webp", []byte("sticker")))

	data, err := d.Fetch(ctx, "my_pack", "01.webp")
	require.NoError(t, err)
	assert.Equal(t, []byte("sticker"), data)

	_, err = os.Stat(filepath.Join(root, "my_pack", "01.webp"))
	assert.NoError(t, err)
}

func TestDirFetcher_Missing(t *testing.T) {
	d := NewDirFetcher(t.TempDir())

	_, err := d.Fetch(context.Background(), "my_pack", "nope.webp")
	assert.ErrorIs(t, err, validate.ErrAssetNotFound)
}

func TestDirFetcher_RejectsTraversal(t *testing.T) {
	d := NewDirFetcher(t.TempDir())
	ctx := context.Background()

	tests := []struct {
		pack string
		file string
	}{
		{"..", "passwd"},
		{"my_pack", "../../etc/passwd"},
		{"my_pack", `..\secret`},
		{"a/b", "01.webp"},
		{".", "01.webp"},
		{"my_pack", ""},
	}

	for _, tt := range tests {
		_, err := d.Fetch(ctx, tt.pack, tt.file)
		assert.Error(t, err, "%s/%s", tt.pack, tt.file)
		assert.NotErrorIs(t, err, validate.ErrAssetNotFound)
		assert.Error(t, d.Put(ctx, tt.pack, tt.file, []byte("x")))
	}
}

// fakeS3 is an in-memory objectAPI
type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Fetcher_PutAndFetch(t *testing.T) {
	api := newFakeS3()
	f := newS3Fetcher(api, "stickers", "packs/")
	ctx := context.Background()

	webp := []byte("RIFF\x04\x00\x00\x00WEBP")
	require.NoError(t, f.Put(ctx, "my_pack", "01.webp", webp))

	assert.Contains(t, api.objects, "stickers/packs/my_pack/01.webp")
	assert.Equal(t, "image/webp", api.types["stickers/packs/my_pack/01.webp"])

	data, err := f.Fetch(ctx, "my_pack", "01.webp")
	require.NoError(t, err)
	assert.Equal(t, webp, data)
}

func TestS3Fetcher_NoSuchKey(t *testing.T) {
	f := newS3Fetcher(newFakeS3(), "stickers", "")

	_, err := f.Fetch(context.Background(), "my_pack", "01.webp")
	assert.ErrorIs(t, err, validate.ErrAssetNotFound)
}

func TestS3Fetcher_OtherErrorsAreNotNotFound(t *testing.T) {
	api := newFakeS3()
	api.getErr = errors.New("throttled")
	f := newS3Fetcher(api, "stickers", "")

	_, err := f.Fetch(context.Background(), "my_pack", "01.webp")
	require.Error(t, err)
	assert.NotErrorIs(t, err, validate.ErrAssetNotFound)
}

func TestS3Fetcher_RejectsTraversal(t *testing.T) {
	f := newS3Fetcher(newFakeS3(), "stickers", "")

	_, err := f.Fetch(context.Background(), "my_pack", "../other/01.webp")
	assert.Error(t, err)
}
