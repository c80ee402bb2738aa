package sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twscraper/pkg/normalize"
)

const rawCreatedAt = "Sun Jul 01 23:04:00 +0000 2018"

func makePosts(n int) []normalize.Post {
	createdAt := time.Date(2018, 7, 1, 23, 4, 0, 0, time.UTC)
	posts := make([]normalize.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, normalize.Post{
			ID:            int64(1_000_000 - i),
			Text:          fmt.Sprintf("post number %d, with a comma", i),
			Hashtags:      []string{},
			URLs:          []string{},
			CreatedAt:     createdAt,
			CreatedAtRaw:  rawCreatedAt,
			FavoriteCount: i,
			RetweetCount:  i / 2,
			Source:        "Twitter Web Client",
		})
	}
	if n > 0 {
		posts[0].Hashtags = []string{"NASA", "Mars"}
		posts[0].URLs = []string{"https://youtu.be/7sY7nb4O3bM"}
		posts[0].Text = "line one\nline \"two\""
		posts[0].Source = "Sprinklr"
	}
	if n > 3 {
		posts[2].Text = "first line\r\nsecond line"
		posts[3].Text = "lone\rreturn, \"quoted\" word"
	}
	return posts
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, makePosts(2)))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "id,full_text,hashtags,urls,created_at,favorite_count,retweet_count,source", lines[0])
	assert.Equal(t,
		`1000000,"line one`,
		lines[1])
	assert.Equal(t,
		`line ""two""","['NASA', 'Mars']",['https://youtu.be/7sY7nb4O3bM'],Sun Jul 01 23:04:00 +0000 2018,0,0,Sprinklr`,
		lines[2])
	assert.Equal(t,
		`999999,"post number 1, with a comma",[],[],Sun Jul 01 23:04:00 +0000 2018,1,0,Twitter Web Client`,
		lines[3])
}

func TestWriteCSVEmptyCollection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(Header, ",")+"\n", buf.String())
}

func TestWriteCSVFormatsMissingRawTimestamp(t *testing.T) {
	posts := makePosts(1)
	posts[0].CreatedAtRaw = ""

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, posts))
	assert.Contains(t, buf.String(), rawCreatedAt)
}

func TestCSVFileLineCount(t *testing.T) {
	posts := makePosts(245)
	for i := range posts {
		posts[i].Text = fmt.Sprintf("plain text %d", i)
	}

	path := filepath.Join(t.TempDir(), "nasa_tweets.csv")
	sink := &CSVFile{Path: path}
	require.NoError(t, sink.Write(context.Background(), "nasa", posts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 246, strings.Count(string(data), "\n"))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")
	assert.Equal(t, path, sink.Location())
}

func TestCSVFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "a.csv")
	require.NoError(t, (&CSVFile{Path: path}).Write(context.Background(), "a", makePosts(1)))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestCSVFileKeepsOldFileOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := (&CSVFile{Path: path}).Write(ctx, "a", makePosts(3))
	assert.ErrorIs(t, err, context.Canceled)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestReadCSVMatchesDict(t *testing.T) {
	posts := makePosts(10)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, posts))

	fromCSV, err := ReadCSV(&buf)
	require.NoError(t, err)

	want := ToDict(posts)
	require.Equal(t, want.Keys(), fromCSV.Keys())
	for _, id := range want.Keys() {
		expected, _ := want.Get(id)
		got, ok := fromCSV.Get(id)
		require.True(t, ok)
		assert.Equal(t, expected, got, "entry %s", id)
	}
}

func TestReadCSVKeepsCarriageReturns(t *testing.T) {
	posts := makePosts(1)
	posts[0].Text = "a\r\n\"b\"\r\n\r\nc\r"
	posts[0].Source = "Web\x00r"

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, posts))

	fromCSV, err := ReadCSV(&buf)
	require.NoError(t, err)

	got, ok := fromCSV.Get("1000000")
	require.True(t, ok)
	assert.Equal(t, posts[0].Text, got.Text)
	assert.Equal(t, posts[0].Source, got.Source)
}

func TestReadCSVAcceptsCRLFRecords(t *testing.T) {
	input := strings.Join(Header, ",") + "\r\n" +
		"1,\"x\r\ny\",[],[],Sun Jul 01 23:04:00 +0000 2018,0,0,web\r\n"

	fromCSV, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	got, ok := fromCSV.Get("1")
	require.True(t, ok)
	assert.Equal(t, "x\r\ny", got.Text)
	assert.Equal(t, "web", got.Source)
}

func TestReadCSVRejectsForeignHeader(t *testing.T) {
	input := "id, full_text, hashtags, urls, created_at, favorite_count, retweet_count, source\n"
	_, err := ReadCSV(strings.NewReader(input))
	assert.Error(t, err)
}

func TestReadCSVRejectsBadRow(t *testing.T) {
	input := strings.Join(Header, ",") + "\n" +
		"1,text,[],[],2018-07-01,0,0,web\n"
	_, err := ReadCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
