package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("before_images")
	assert.True(t, ok)
	assert.Equal(t, CategoryBefore, c)

	c, ok = ParseCategory("after_images")
	assert.True(t, ok)
	assert.Equal(t, CategoryAfter, c)

	_, ok = ParseCategory("thumbnails")
	assert.False(t, ok)
}

func TestProject_Images(t *testing.T) {
	p := &Project{
		ID:           "P1",
		BeforeImages: `["P1/before_images/a.jpg"]`,
		AfterImages:  []string{"P1/after_images/b.jpg"},
	}

	assert.Equal(t, `["P1/before_images/a.jpg"]`, p.Images(CategoryBefore))
	assert.Equal(t, []string{"P1/after_images/b.jpg"}, p.Images(CategoryAfter))
}
