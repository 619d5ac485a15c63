package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type detailed struct{}

func (detailed) Error() string { return "bad fields" }
func (detailed) Details() any  { return map[string]string{"kgid": "required"} }

func TestJSONErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	JSONError(rr, http.StatusBadRequest, "kgid required", nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"error":"kgid required"}`, rr.Body.String())
}

func TestWriteErrorUsesAttachedStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, WithStatus(http.StatusUnprocessableEntity, detailed{}))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "bad fields", body.Error)
	assert.Equal(t, map[string]any{"kgid": "required"}, body.Details)
}

func TestWriteErrorDefaultsTo500(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal error: boom")
}

func TestStatusOfWrapped(t *testing.T) {
	err := Errorf(http.StatusNotFound, "employee %s not found", "42")
	wrapped := errors.Join(errors.New("context"), err)
	assert.Equal(t, http.StatusNotFound, StatusOf(wrapped))
	assert.Nil(t, WithStatus(http.StatusTeapot, nil))
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Kgid string `json:"kgid"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kgid":"1"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), r, 1<<10, &v))
	assert.Equal(t, "1", v.Kgid)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Equal(t, http.StatusBadRequest, StatusOf(DecodeJSON(httptest.NewRecorder(), r, 1<<10, &v)))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kgid":"`+strings.Repeat("x", 100)+`"}`))
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusOf(DecodeJSON(httptest.NewRecorder(), r, 16, &v)))
}
