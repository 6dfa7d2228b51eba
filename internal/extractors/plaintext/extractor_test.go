package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	require.NotEmpty(t, mimeTypes)
	assert.Contains(t, mimeTypes, "text/plain")
}

func TestExtract(t *testing.T) {
	segments, err := New().Extract(context.Background(), []byte("  maintenance notes\nline two  \n"))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, 0, segments[0].Index)
	assert.Equal(t, "maintenance notes\nline two", segments[0].Text)
}

func TestExtract_Empty(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("   \n\t "))
	assert.ErrorIs(t, err, domain.ErrCorruptInput)
}

func TestExtract_InvalidUTF8(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, domain.ErrCorruptInput)
}
