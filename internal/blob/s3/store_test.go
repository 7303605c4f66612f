package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aieni/internal/sentinel"
)

// fakeS3 answers the path-style object requests the store issues.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

type fakeObject struct {
	body        []byte
	contentType string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// /<bucket>/<key>
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	respond := func(status int, body []byte, header http.Header) *http.Response {
		if header == nil {
			header = http.Header{}
		}
		return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(body)), Header: header, Request: req}
	}

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type")}
		return respond(http.StatusOK, nil, http.Header{"Etag": {`"etag"`}}), nil
	case http.MethodGet:
		o, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, nil), nil
		}
		return respond(http.StatusOK, o.body, http.Header{
			"Content-Length": {strconv.Itoa(len(o.body))},
			"Content-Type":   {o.contentType},
		}), nil
	case http.MethodDelete:
		delete(f.objects, key)
		return respond(http.StatusNoContent, nil, nil), nil
	}
	return respond(http.StatusNotImplemented, nil, nil), nil
}

func newFakeStore(t *testing.T) (*Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string]fakeObject{}}
	awsCfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIA", "SECRET", ""),
	}
	s := NewFromConfig(awsCfg, Config{Bucket: "aieni-abstracts", Endpoint: "https://s3.test.local", PathStyle: true},
		func(o *s3.Options) {
			o.HTTPClient = &http.Client{Transport: fake}
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		})
	return s, fake
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, fake := newFakeStore(t)
	key := "abstracts/ABS-1/paper.docx"

	require.NoError(t, s.Put(ctx, key, "application/msword", []byte("word bytes")))
	assert.Equal(t, []byte("word bytes"), fake.objects[key].body)

	obj, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer obj.Body.Close()
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "word bytes", string(body))
	assert.Equal(t, "application/msword", obj.ContentType)
	assert.Equal(t, int64(10), obj.Size)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPresignURL(t *testing.T) {
	s, _ := newFakeStore(t)

	url, err := s.PresignURL(context.Background(), "abstracts/ABS-1/paper.docx", time.Minute)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://s3.test.local/aieni-abstracts/abstracts/ABS-1/paper.docx?"))
	assert.Contains(t, url, "X-Amz-Expires=60")
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
