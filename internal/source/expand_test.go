package source

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/xmlup/internal/models"
)

func zipBytes(t *testing.T, files map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tarBytes(t *testing.T, name, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(body))}))
	_, err := tw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestIsDocument(t *testing.T) {
	assert.True(t, IsDocument("a.xml"))
	assert.True(t, IsDocument("dir/B.XML"))
	assert.True(t, IsDocument("page.htm"))
	assert.True(t, IsDocument("page.html"))
	assert.False(t, IsDocument("a.xml.gz"))
	assert.False(t, IsDocument("notes.txt"))
}

func TestExpand_PlainDocument(t *testing.T) {
	items, err := Expand(context.Background(), "a.xml", []byte("<a/>"))
	require.NoError(t, err)
	assert.Equal(t, []models.RawItem{{Name: "a.xml", Data: []byte("<a/>")}}, items)
}

func TestExpand_Zip(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"one.xml":        "<a>1</a>",
		"readme.txt":     "ignored",
		"nested/two.xml": "<a>2</a>",
	}, []string{"one.xml", "readme.txt", "nested/two.xml"})

	items, err := Expand(context.Background(), "batch.zip", data)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byName := map[string]string{}
	for _, it := range items {
		byName[it.Name] = string(it.Data)
	}
	assert.Equal(t, map[string]string{"one.xml": "<a>1</a>", "nested/two.xml": "<a>2</a>"}, byName)
}

func TestExpand_Tar(t *testing.T) {
	items, err := Expand(context.Background(), "batch.tar", tarBytes(t, "x.xml", "<x/>"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "x.xml", items[0].Name)
	assert.Equal(t, "<x/>", string(items[0].Data))
}

func TestExpand_GzipDocument(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte("<g>1</g>"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	items, err := Expand(context.Background(), "data.xml.gz", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "data.xml", items[0].Name)
	assert.Equal(t, "<g>1</g>", string(items[0].Data))
}

func TestExpand_UnknownFileYieldsNothing(t *testing.T) {
	items, err := Expand(context.Background(), "notes.txt", []byte("just some notes"))
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestExpand_CleansNames(t *testing.T) {
	data := zipBytes(t, map[string]string{"./export//a.xml": "<e/>"}, []string{"./export//a.xml"})
	items, err := Expand(context.Background(), "batch.zip", data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "export/a.xml", items[0].Name)

	items, err = Expand(context.Background(), `C:\exports\a.xml`, []byte("<a/>"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "exports/a.xml", items[0].Name)
}
