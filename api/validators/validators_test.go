package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addPayload struct {
	BuyableType string `json:"buyable_type" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gte=1"`
}

func TestDecodeJSONBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"buyable_type":"product","quantity":2}`))
	var p addPayload
	require.NoError(t, DecodeJSONBody(r, &p))
	assert.Equal(t, 2, p.Quantity)
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0}`))
	var p addPayload
	err := DecodeJSONBody(r, &p)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Equal(t, map[string]string{"buyable_type": "is required", "quantity": "must be at least 1"}, appErr.Details())
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"buyable_type":"p","quantity":1,"buyable":{}}`))
	var p addPayload
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(r, &p), pkgerrors.CodeValidation))
}

func TestParseInstance(t *testing.T) {
	cases := map[string]struct {
		query   string
		want    string
		wantErr bool
	}{
		"absent":   {query: "", want: ""},
		"named":    {query: "?instance=wishlist", want: "wishlist"},
		"trimmed":  {query: "?instance=%20saved_1%20", want: "saved_1"},
		"bad char": {query: "?instance=a.b", wantErr: true},
		"too long": {query: "?instance=" + strings.Repeat("x", 65), wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/cart"+tc.query, nil)
			got, err := ParseInstance(r)
			if tc.wantErr {
				assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = BearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Basic abc", "Bearer ", "abc"} {
		_, err := BearerToken(h)
		assert.ErrorIs(t, err, ErrInvalidToken, h)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "abc", SanitizeString("abc", 0))
}

func TestDecodeJSONBodyRequiresSingleObject(t *testing.T) {
	var p addPayload
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &p)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"buyable_type":"p","quantity":1}{"quantity":2}`))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(r, &p), pkgerrors.CodeValidation))
}

func TestSanitizeStringDropsControlCharacters(t *testing.T) {
	assert.Equal(t, "wishlist", SanitizeString(" wish\x00list\n", 0))
	assert.Equal(t, "café", SanitizeString("cafés", 4))
}
