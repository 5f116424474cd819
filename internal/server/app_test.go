package server

import (
	"testing"

	"github.com/dmitrijs2005/tradehub/internal/server/blobstore"
	"github.com/dmitrijs2005/tradehub/internal/server/config"
	"github.com/dmitrijs2005/tradehub/internal/server/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentStore(t *testing.T) {
	c := &config.Config{DocumentStore: config.StoreMemory}
	s, err := newDocumentStore(c, nil)
	require.NoError(t, err)
	assert.IsType(t, &docstore.MemoryStore{}, s)

	c.DocumentStore = config.StorePostgres
	s, err = newDocumentStore(c, nil)
	require.NoError(t, err)
	assert.IsType(t, &docstore.PostgresStore{}, s)

	c.DocumentStore = "mongo"
	_, err = newDocumentStore(c, nil)
	assert.Error(t, err)
}

func TestNewBlobStore(t *testing.T) {
	c := &config.Config{}
	c.LoadDefaults()

	b, err := newBlobStore(c)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.S3Store{}, b)

	c.BlobBackend = config.BlobMinio
	b, err = newBlobStore(c)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.MinioStore{}, b)

	c.BlobBackend = config.BlobMemory
	b, err = newBlobStore(c)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.MemoryStore{}, b)

	c.BlobBackend = "ftp"
	_, err = newBlobStore(c)
	assert.Error(t, err)
}
