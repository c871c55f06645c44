package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "versioned", url: "https://res.cloudinary.com/demo/image/upload/v1712/fitsquad/progress/abc.webp", want: "fitsquad/progress/abc"},
		{name: "no version", url: "https://res.cloudinary.com/demo/image/upload/progress/abc.jpg", want: "progress/abc"},
		{name: "folder starting with v", url: "https://res.cloudinary.com/demo/image/upload/videos/abc.jpg", want: "videos/abc"},
		{name: "not cloudinary", url: "https://example.com/abc.jpg", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicIDFromURL(tt.url))
		})
	}
}
