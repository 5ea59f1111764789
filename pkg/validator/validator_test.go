package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ana@acme.io"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("Ana <ana@acme.io>"))
}

func TestValidateMessage(t *testing.T) {
	assert.False(t, ValidateMessage("hi", nil).HasErrors())
	assert.False(t, ValidateMessage("", []AttachmentInput{{Type: "image", URL: "https://cdn.acme.io/a.png"}}).HasErrors())

	errs := ValidateMessage("   ", nil)
	assert.Contains(t, errs, "content")

	errs = ValidateMessage(strings.Repeat("x", MaxContentLength+1), nil)
	assert.Contains(t, errs, "content")

	errs = ValidateMessage("", []AttachmentInput{{URL: "/relative.png"}})
	assert.Contains(t, errs, "media[0]")
}

func TestValidateBulk(t *testing.T) {
	assert.True(t, ValidateBulk(nil).HasErrors())
	assert.False(t, ValidateBulk([]string{"a"}).HasErrors())
	assert.True(t, ValidateBulk(make([]string, MaxBulkItems+1)).HasErrors())
}
