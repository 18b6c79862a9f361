package reports

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestLocalSink_RoundTrip(t *testing.T) {
	sink := NewLocalSink(t.TempDir() + "/nested")
	ctx := context.Background()

	loc, err := sink.Put(ctx, "report.md", []byte("# hello"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	rc, err := sink.Open(ctx, loc)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "# hello" {
		t.Errorf("content = %q", got)
	}

	if _, err := sink.Open(ctx, loc+".gone"); !errors.Is(err, ErrFileMissing) {
		t.Errorf("Open(missing) error = %v, want ErrFileMissing", err)
	}
}

func TestS3Sink_RoundTrip(t *testing.T) {
	client := newFakeS3()
	sink := NewS3SinkWithClient(client, "evidence", "/reports/")
	ctx := context.Background()

	loc, err := sink.Put(ctx, "annex_iv_a_1.md", []byte("# annex"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if loc != "s3://evidence/reports/annex_iv_a_1.md" {
		t.Errorf("location = %s", loc)
	}
	if _, ok := client.objects["evidence/reports/annex_iv_a_1.md"]; !ok {
		t.Error("object not uploaded under prefix")
	}

	rc, err := sink.Open(ctx, loc)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "# annex" {
		t.Errorf("content = %q", got)
	}

	if _, err := sink.Open(ctx, "s3://evidence/reports/none.md"); !errors.Is(err, ErrFileMissing) {
		t.Errorf("Open(missing key) error = %v, want ErrFileMissing", err)
	}
	if _, err := sink.Open(ctx, "/tmp/local.md"); !errors.Is(err, ErrFileMissing) {
		t.Errorf("Open(non-s3 location) error = %v, want ErrFileMissing", err)
	}
}

func TestNewS3Sink_RequiresBucket(t *testing.T) {
	if _, err := NewS3Sink(context.Background(), S3Config{}); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}
