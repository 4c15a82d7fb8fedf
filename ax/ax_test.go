package ax

import (
	"testing"

	"github.com/santif/openid/extension"
	"github.com/santif/openid/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	emailType = "http://axschema.org/contact/email"
	nameType  = "http://axschema.org/namePerson"
)

func TestFetchRequest_Parameters(t *testing.T) {
	req := NewFetchRequest()
	require.NoError(t, req.AddAttribute("email", emailType, true, 1))
	require.NoError(t, req.AddAttribute("name", nameType, false, Unlimited))
	require.NoError(t, req.AddAttribute("nick", "http://axschema.org/namePerson/friendly", true, 3))
	req.SetUpdateURL("https://rp.example.com/update")

	assert.Equal(t, TypeURI, req.TypeURI())
	assert.Equal(t, ModeFetchRequest, req.Mode())
	assert.Equal(t, []param.Parameter{
		{Key: "mode", Value: "fetch_request"},
		{Key: "type.email", Value: emailType},
		{Key: "required", Value: "email,nick"},
		{Key: "type.name", Value: nameType},
		{Key: "count.name", Value: "unlimited"},
		{Key: "if_available", Value: "name"},
		{Key: "type.nick", Value: "http://axschema.org/namePerson/friendly"},
		{Key: "count.nick", Value: "3"},
		{Key: "update_url", Value: "https://rp.example.com/update"},
	}, req.Parameters().Parameters())

	attrs := req.Attributes()
	require.Len(t, attrs, 3)
	assert.Equal(t, Attribute{Alias: "email", TypeURI: emailType, Count: 1, Required: true}, attrs[0])
	assert.Equal(t, Attribute{Alias: "name", TypeURI: nameType, Count: Unlimited}, attrs[1])
	assert.Equal(t, 3, attrs[2].Count)
	assert.Equal(t, "https://rp.example.com/update", req.UpdateURL())
}

func TestFetchRequest_AddAttributeErrors(t *testing.T) {
	req := NewFetchRequest()
	require.NoError(t, req.AddAttribute("email", emailType, true, 1))

	assert.ErrorIs(t, req.AddAttribute("email", nameType, false, 1), ErrDuplicateAttribute)
	assert.ErrorIs(t, req.AddAttribute("mail", emailType, false, 1), ErrDuplicateAttribute)
	assert.ErrorIs(t, req.AddAttribute("", nameType, false, 1), ErrInvalidAlias)
	assert.ErrorIs(t, req.AddAttribute("a.b", nameType, false, 1), ErrInvalidAlias)
	assert.ErrorIs(t, req.AddAttribute("a,b", nameType, false, 1), ErrInvalidAlias)
	assert.ErrorIs(t, req.AddAttribute("name", nameType, false, -2), extension.ErrInvalidParameters)
}

func TestFetchResponse_Values(t *testing.T) {
	resp := NewFetchResponse()
	require.NoError(t, resp.AddAttribute("email", emailType, "jane@example.com"))
	require.NoError(t, resp.AddAttribute("name", nameType, "Jane", "J. Doe"))
	require.NoError(t, resp.AddAttribute("none", "http://axschema.org/contact/phone/default"))

	assert.Equal(t, []param.Parameter{
		{Key: "mode", Value: "fetch_response"},
		{Key: "type.email", Value: emailType},
		{Key: "value.email", Value: "jane@example.com"},
		{Key: "type.name", Value: nameType},
		{Key: "count.name", Value: "2"},
		{Key: "value.name.1", Value: "Jane"},
		{Key: "value.name.2", Value: "J. Doe"},
		{Key: "type.none", Value: "http://axschema.org/contact/phone/default"},
		{Key: "count.none", Value: "0"},
	}, resp.Parameters().Parameters())

	assert.Equal(t, []string{"jane@example.com"}, resp.Values(emailType))
	assert.Equal(t, []string{"Jane", "J. Doe"}, resp.Values(nameType))
	assert.Empty(t, resp.Values("http://axschema.org/contact/phone/default"))
	assert.Nil(t, resp.Values("urn:unknown"))
}

func TestStoreMessages(t *testing.T) {
	req := NewStoreRequest()
	require.NoError(t, req.AddAttribute("email", emailType, "jane@example.com"))
	assert.Equal(t, ModeStoreRequest, req.Mode())
	require.Len(t, req.Attributes(), 1)
	assert.Equal(t, []string{"jane@example.com"}, req.Attributes()[0].Values)

	ok := NewStoreResponse(true, "ignored")
	assert.True(t, ok.Success())
	assert.Equal(t, "", ok.ErrorMessage())

	failed := NewStoreResponse(false, "quota exceeded")
	assert.False(t, failed.Success())
	assert.Equal(t, ModeStoreResponseFailure, failed.Mode())
	assert.Equal(t, "quota exceeded", failed.ErrorMessage())
}

func TestFactory_Extension(t *testing.T) {
	factory := NewFactory()
	assert.Equal(t, TypeURI, factory.TypeURI())

	tests := []struct {
		name      string
		params    *param.List
		isRequest bool
		wantType  interface{}
		wantErr   bool
	}{
		{
			name:      "fetch request",
			params:    param.FromPairs("mode", "fetch_request", "type.email", emailType, "required", "email"),
			isRequest: true,
			wantType:  &FetchRequest{},
		},
		{
			name:     "fetch response",
			params:   param.FromPairs("mode", "fetch_response", "type.email", emailType, "value.email", "a@b.c"),
			wantType: &FetchResponse{},
		},
		{
			name:      "store request",
			params:    param.FromPairs("mode", "store_request", "type.email", emailType, "value.email", "a@b.c"),
			isRequest: true,
			wantType:  &StoreRequest{},
		},
		{
			name:     "store failure",
			params:   param.FromPairs("mode", "store_response_failure", "error", "nope"),
			wantType: &StoreResponse{},
		},
		{
			name:    "request outside authentication request",
			params:  param.FromPairs("mode", "fetch_request"),
			wantErr: true,
		},
		{
			name:      "response inside authentication request",
			params:    param.FromPairs("mode", "fetch_response"),
			isRequest: true,
			wantErr:   true,
		},
		{
			name:    "missing mode",
			params:  param.FromPairs("type.email", emailType),
			wantErr: true,
		},
		{
			name:    "unknown mode",
			params:  param.FromPairs("mode", "fetch_everything"),
			wantErr: true,
		},
		{
			name:      "undeclared required alias",
			params:    param.FromPairs("mode", "fetch_request", "type.email", emailType, "required", "email,name"),
			isRequest: true,
			wantErr:   true,
		},
		{
			name:      "bad request count",
			params:    param.FromPairs("mode", "fetch_request", "type.email", emailType, "count.email", "zero"),
			isRequest: true,
			wantErr:   true,
		},
		{
			name:    "count larger than the parameters present",
			params:  param.FromPairs("mode", "fetch_response", "type.name", nameType, "count.name", "1000000000000000"),
			wantErr: true,
		},
		{
			name:    "missing counted value",
			params:  param.FromPairs("mode", "fetch_response", "type.name", nameType, "count.name", "2", "value.name.1", "Jane"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := factory.Extension(tt.params, tt.isRequest)
			if tt.wantErr {
				assert.ErrorIs(t, err, extension.ErrInvalidParameters)
				assert.Nil(t, ext)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, ext)
			assert.Equal(t, TypeURI, ext.TypeURI())
		})
	}
}

func TestFactory_DoesNotAliasInput(t *testing.T) {
	params := param.FromPairs("mode", "fetch_response", "type.email", emailType, "value.email", "a@b.c")

	ext, err := NewFactory().Extension(params, false)
	require.NoError(t, err)

	params.Set(param.New("value.email", "changed@b.c"))
	assert.Equal(t, []string{"a@b.c"}, ext.(*FetchResponse).Values(emailType))
}
