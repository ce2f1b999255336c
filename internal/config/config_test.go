package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePaymentMethods(t *testing.T) {
	methods := ParsePaymentMethods("Cash=1, Check = 2,Wire,=9,Card=x")

	assert.Equal(t, map[string]string{"Cash": "1", "Check": "2"}, methods)
	assert.Empty(t, ParsePaymentMethods(""))
}

func TestQBOBaseURL(t *testing.T) {
	sandbox := QBOConfig{Environment: "sandbox"}
	prod := QBOConfig{Environment: "Production"}

	assert.Equal(t, "https://sandbox-quickbooks.api.intuit.com", sandbox.BaseURL())
	assert.Equal(t, "https://quickbooks.api.intuit.com", prod.BaseURL())
}
