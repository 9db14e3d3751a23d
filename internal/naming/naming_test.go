package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToUpperCamel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"auth_otp", "AuthOtp"},
		{"user", "User"},
		{"AuthOtp", "AuthOtp"},
		{"order_items", "OrderItems"},
		{"user-profile", "UserProfile"},
		{"ID", "Id"},
		{"a_b", "Ab"},
		{"is_a_user", "IsAUser"},
		{"a_b_key", "AbKey"},
		{"HTTPServer", "HttpServer"},
		{"XMLHttpRequest", "XmlHttpRequest"},
		{"order_line2", "OrderLine2"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToUpperCamel(tt.in))
		})
	}
}

func TestToLowerCamel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user_id", "userId"},
		{"id", "id"},
		{"otp", "otp"},
		{"ip_address_issued_to", "ipAddressIssuedTo"},
		{"user_agent_redeemed", "userAgentRedeemed"},
		{"created_at", "createdAt"},
		{"userId", "userId"},
		{"CreatedAt", "createdAt"},
		{"is_a_user", "isAUser"},
		{"isAUser", "isAUser"},
		{"a_b_key", "aBKey"},
		{"HTTPServer", "httpServer"},
		{"XMLHttpRequest", "xmlHttpRequest"},
		{"user_ID", "userId"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToLowerCamel(tt.in))
		})
	}
}

func TestConversionIsIdempotent(t *testing.T) {
	inputs := []string{
		"auth_otp", "user_id", "a_b", "A_B_C", "HTTPServer", "x1y2", "__weird__", "already",
		"MixedCase_with_snake", "v2_api", "ID", "userID", "a-b-c", "with space", "trailing_",
		"is_a_user", "a_b_key", "XMLHttpRequest", "IsAUser",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			upper := ToUpperCamel(in)
			assert.Equal(t, upper, ToUpperCamel(upper))

			lower := ToLowerCamel(in)
			assert.Equal(t, lower, ToLowerCamel(lower))
		})
	}
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"is", "a", "user"}, Words("isAUser"))
	assert.Equal(t, []string{"http", "server"}, Words("HTTPServer"))
	assert.Equal(t, []string{"weird"}, Words("__weird__"))
	assert.Empty(t, Words(""))
}

func TestConverterOverrides(t *testing.T) {
	c := NewConverter(
		map[string]string{"api_key": "APIKey"},
		map[string]string{"user_id": "userID"},
	)

	assert.Equal(t, "userID", c.Lower("user_id"))
	assert.Equal(t, "userID", c.Lower("userID"), "override results are stable")
	assert.Equal(t, "APIKey", c.Upper("api_key"))
	assert.Equal(t, "createdAt", c.Lower("created_at"))
	assert.Equal(t, "AuthOtp", c.Upper("auth_otp"))
}

func TestConverterOverridesKeepToTheirKind(t *testing.T) {
	c := NewConverter(
		map[string]string{"user_profile": "Profile"},
		map[string]string{"user_id": "userID"},
	)

	assert.Equal(t, "UserId", c.Upper("user_id"), "field override must not rename a model")
	assert.Equal(t, "userProfile", c.Lower("user_profile"), "model override must not rename a field")
	assert.Equal(t, "userId", c.Lower("userId"))
	assert.Equal(t, "userID", c.Lower("userID"))
	assert.Equal(t, "UserId", c.Upper("userID"), "pins only apply within one kind")
}

func TestNilConverter(t *testing.T) {
	var c *Converter
	assert.Equal(t, "userId", c.Lower("user_id"))
	assert.Equal(t, "AuthOtp", c.Upper("auth_otp"))
}
