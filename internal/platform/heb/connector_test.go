package heb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfflineConnectorLookup(t *testing.T) {
	t.Parallel()

	c := NewOfflineConnector()

	product, err := c.Lookup(context.Background(), "chicken breast")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "chicken breast", product.Name)
	assert.Equal(t, "https://www.heb.com/search?esc=true&q=chicken+breast", product.Link)
}

func TestOfflineConnectorLookupEscapesQuery(t *testing.T) {
	t.Parallel()

	c := NewOfflineConnector()

	product, err := c.Lookup(context.Background(), "salt & pepper")
	require.NoError(t, err)
	assert.Equal(t, "https://www.heb.com/search?esc=true&q=salt+%26+pepper", product.Link)
}
