package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultReferralCode(t *testing.T) {
	code := DefaultReferralCode(123456789)
	assert.Equal(t, "u123456789-lot", code)
	assert.NotEmpty(t, DefaultReferralCode(0))

	// Distinct Telegram IDs never collide on the unique column.
	assert.NotEqual(t, code, DefaultReferralCode(987654321))
}
