package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/rehab-scheduler/internal/ledger"
	"github.com/wolfman30/rehab-scheduler/internal/schedule"
	"github.com/wolfman30/rehab-scheduler/internal/therapy"
	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

func sampleBookings(t *testing.T) []ledger.Booking {
	t.Helper()
	a, err := schedule.ParseSlotKey("2024-01-01_09:00")
	require.NoError(t, err)
	b, err := schedule.ParseSlotKey("2024-01-02_13:00")
	require.NoError(t, err)
	return []ledger.Booking{
		{Key: a, Phone: "555-1234", Therapy: therapy.Physical},
		{Key: b, Phone: "555, ext \"9\"", Therapy: therapy.Speech},
	}
}

func TestRowsSplitSlotKey(t *testing.T) {
	rows := Rows(sampleBookings(t))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2024-01-01", "09:00", "PHYSICAL THERAPY", "555-1234"}, rows[0])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleBookings(t)))

	want := "Date,Time,Therapy Type,Customer Mobile\n" +
		"2024-01-01,09:00,PHYSICAL THERAPY,555-1234\n" +
		"2024-01-02,13:00,SPEECH AND LANGUAGE THERAPY,\"555, ext \"\"9\"\"\"\n"
	assert.Equal(t, want, buf.String())
}

func TestEncodeEmptyHasHeaderOnly(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "Date,Time,Therapy Type,Customer Mobile\n", string(data))
}

func TestFileSinkPut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink := NewFileSink(dir)

	loc, err := sink.Put(context.Background(), "schedule-all.csv", ContentType, []byte("x\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "schedule-all.csv"), loc)

	got, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(got))
}

func TestFileSinkUnwritableDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	sink := NewFileSink(filepath.Join(blocker, "exports"))
	_, err := sink.Put(context.Background(), "out.csv", ContentType, []byte("x"))

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Contains(t, ioErr.Location, "out.csv")
	assert.NotNil(t, errors.Unwrap(err))
}

type mockS3Client struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.bucket = *input.Bucket
	m.key = *input.Key
	m.contentType = *input.ContentType
	m.body, _ = io.ReadAll(input.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkPut(t *testing.T) {
	mock := &mockS3Client{}
	sink := NewS3Sink(mock, "clinic-exports", "/schedules/", logging.Discard())

	loc, err := sink.Put(context.Background(), "schedule-all.csv", ContentType, []byte("a,b\n"))
	require.NoError(t, err)

	assert.Equal(t, "s3://clinic-exports/schedules/schedule-all.csv", loc)
	assert.Equal(t, "clinic-exports", mock.bucket)
	assert.Equal(t, "schedules/schedule-all.csv", mock.key)
	assert.Equal(t, "text/csv", mock.contentType)
	assert.Equal(t, "a,b\n", string(mock.body))
}

func TestS3SinkFailureIsIOError(t *testing.T) {
	boom := errors.New("access denied")
	sink := NewS3Sink(&mockS3Client{err: boom}, "b", "", nil)

	_, err := sink.Put(context.Background(), "x.csv", ContentType, nil)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "s3://b/x.csv", ioErr.Location)
	assert.ErrorIs(t, err, boom)
}
