package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaughan-dsouza/salonbook/internal/apperr"
)

type signup struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) apperr.Error {
	t.Helper()
	var body apperr.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDecodeJSON_OK(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ana","email":"ana@x.com","password":"Secret123"}`))

	var v signup
	require.NoError(t, DecodeJSON(rec, req, &v))
	assert.Equal(t, "Ana", v.Name)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDecodeJSON_FieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","email":"nope","password":"short"}`))

	var v signup
	require.Error(t, DecodeJSON(rec, req, &v))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, apperr.CodeValidation, body.Code)

	fields := map[string]string{}
	for _, f := range body.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8 characters", fields["password"])
}

func TestDecodeJSON_Malformed(t *testing.T) {
	for name, in := range map[string]string{
		"empty":   "",
		"broken":  `{"name":`,
		"unknown": `{"name":"Ana","email":"ana@x.com","password":"Secret123","admin":true}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(in))

			var v signup
			require.Error(t, DecodeJSON(rec, req, &v))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apperr.CodeValidation, decodeBody(t, rec).Code)
		})
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, apperr.EmailExists())

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":"EMAIL_EXISTS","message":"email is already registered"}`, rec.Body.String())
}

type trimmed struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72,maxbytes=72"`
}

func (t *trimmed) Normalize() {
	t.Email = strings.ToLower(strings.TrimSpace(t.Email))
}

func TestDecodeJSON_NormalizesBeforeValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"  Ana@X.com ","password":"Secret123"}`))

	var v trimmed
	require.NoError(t, DecodeJSON(rec, req, &v))
	assert.Equal(t, "ana@x.com", v.Email)
}

func TestDecodeJSON_MaxBytes(t *testing.T) {
	// 40 runes, 80 bytes
	pw := strings.Repeat("é", 40)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"ana@x.com","password":"`+pw+`"}`))

	var v trimmed
	require.Error(t, DecodeJSON(rec, req, &v))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "password", body.Fields[0].Field)
	assert.Equal(t, "must be at most 72 bytes", body.Fields[0].Message)
}
