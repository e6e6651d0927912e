package notice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplatesEmbedded(t *testing.T) {
	verification := loadTemplate("templates/email/verification_code.tmpl")
	assert.Contains(t, verification, "{{.Code}}")
	assert.Contains(t, verification, "{{.ValidityMinutes}}")

	reset := loadTemplate("templates/email/password_reset_code.tmpl")
	assert.Contains(t, reset, "{{.Code}}")
	assert.Contains(t, reset, "password")
}

func TestLoadTemplateMissingFile(t *testing.T) {
	assert.Empty(t, loadTemplate("templates/email/nope.tmpl"))
}
