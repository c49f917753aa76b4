package middleware

import (
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

type quantityRequest struct {
	Quantity *float64 `json:"quantity" validate:"required"`
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest("PUT", "/api/carts/1/products/1", strings.NewReader(`{"quantity": 3}`))
	var body quantityRequest
	if err := DecodeAndValidate(req, &body); err != nil {
		t.Fatalf("valid body rejected: %v", err)
	}
	if body.Quantity == nil || *body.Quantity != 3 {
		t.Fatalf("body not decoded: %+v", body)
	}
}

func TestDecodeAndValidateMissingRequiredField(t *testing.T) {
	req := httptest.NewRequest("PUT", "/api/carts/1/products/1", strings.NewReader(`{}`))
	var body quantityRequest
	err := DecodeAndValidate(req, &body)
	if err == nil {
		t.Fatal("missing required field must be rejected")
	}
	if got := ValidationFields(err); !reflect.DeepEqual(got, []string{"quantity"}) {
		t.Fatalf("expected offending field [quantity], got %v", got)
	}
}

func TestDecodeAndValidateMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("PUT", "/api/carts/1/products/1", strings.NewReader(`{"quantity":`))
	var body quantityRequest
	if err := DecodeAndValidate(req, &body); err == nil {
		t.Fatal("malformed JSON must be rejected")
	}
}
