package errors

import (
	"testing"
)

func TestNewCode(t *testing.T) {
	validCodes := []string{
		"client.validation_failed",
		"client.transport_failed",
		"history.insert_failed",
		"stub.fixture_unreadable",
	}

	for _, codeStr := range validCodes {
		code, err := NewCode(codeStr)
		if err != nil {
			t.Errorf("Expected valid code '%s' to succeed, got error: %v", codeStr, err)
		}
		if code.String() != codeStr {
			t.Errorf("Expected code string '%s', got '%s'", codeStr, code.String())
		}
	}

	invalidCodes := []string{
		"invalid",                    // No dot
		"client.",                    // Ends with dot
		".validation_failed",         // Starts with dot
		"Client.validation_failed",   // Uppercase
		"client.validation-failed",   // Hyphens not allowed
		"client..validation_failed",  // Double dot
		"client.malformed_response.", // Ends with dot
		"error.query_missing",        // Contains "error"
		"client.deferred",            // Contains "err"
	}

	for _, codeStr := range invalidCodes {
		_, err := NewCode(codeStr)
		if err == nil {
			t.Errorf("Expected invalid code '%s' to fail, but it succeeded", codeStr)
		}
	}
}

func TestMustNewCode(t *testing.T) {
	code := MustNewCode("client.transport_failed")
	if code.String() != "client.transport_failed" {
		t.Errorf("Expected code 'client.transport_failed', got '%s'", code.String())
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected MustNewCode to panic with invalid code")
		}
	}()
	MustNewCode("invalid")
}

func TestCodePackageAndName(t *testing.T) {
	code := MustNewCode("client.malformed_response")

	if code.Package() != "client" {
		t.Errorf("Expected package 'client', got '%s'", code.Package())
	}

	if code.Name() != "malformed_response" {
		t.Errorf("Expected name 'malformed_response', got '%s'", code.Name())
	}
}

func TestCodeIsValid(t *testing.T) {
	if !CommonInternal.IsValid() {
		t.Error("Expected valid code to return true for IsValid()")
	}

	invalidCode := Code{value: "invalid"}
	if invalidCode.IsValid() {
		t.Error("Expected invalid code to return false for IsValid()")
	}
}

func TestCodeEquals(t *testing.T) {
	code1 := MustNewCode("client.validation_failed")
	code2 := MustNewCode("client.validation_failed")
	code3 := MustNewCode("client.transport_failed")

	if !code1.Equals(code2) {
		t.Error("Expected identical codes to be equal")
	}

	if code1.Equals(code3) {
		t.Error("Expected different codes to not be equal")
	}
}

func TestCommonCodes(t *testing.T) {
	commonCodes := []Code{
		CommonInternal,
		CommonNotFound,
		CommonValidation,
		CommonTimeout,
		CommonUnauthorized,
		CommonUnsupported,
		CommonInvalidInput,
	}

	for _, code := range commonCodes {
		if !code.IsValid() {
			t.Errorf("Common code '%s' is not valid", code.String())
		}

		if code.Package() != "common" {
			t.Errorf("Expected package 'common' for '%s', got '%s'", code.String(), code.Package())
		}
	}
}
