package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentType(t *testing.T) {
	tests := []struct {
		in      string
		want    ContentType
		wantErr bool
	}{
		{in: "movie", want: ContentTypeMovie},
		{in: " TV ", want: ContentTypeTV},
		{in: "person", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseContentType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
	assert.False(t, ContentType("book").Valid())
}

func TestParseContentRef(t *testing.T) {
	ref, err := ParseContentRef("tv:1399")
	require.NoError(t, err)
	assert.Equal(t, ContentRef{ID: 1399, Type: ContentTypeTV}, ref)
	assert.Equal(t, "tv:1399", ref.Key())

	for _, bad := range []string{"1399", "book:1", "movie:x", "movie:0"} {
		_, err := ParseContentRef(bad)
		assert.Error(t, err, bad)
	}
}
