package sreg

import (
	"testing"

	"github.com/santif/openid/extension"
	"github.com/santif/openid/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_RequestField(t *testing.T) {
	req := NewRequest()
	require.NoError(t, req.RequestField(FieldNickname, false))
	require.NoError(t, req.RequestField(FieldEmail, true))
	require.NoError(t, req.RequestField(FieldCountry, false))

	// promoting an optional field moves it to the required list
	require.NoError(t, req.RequestField(FieldNickname, true))
	// a required field is never demoted
	require.NoError(t, req.RequestField(FieldEmail, false))

	req.SetPolicyURL("https://rp.example.com/privacy")

	assert.Equal(t, []string{FieldEmail, FieldNickname}, req.RequiredFields())
	assert.Equal(t, []string{FieldCountry}, req.OptionalFields())
	assert.Equal(t, "https://rp.example.com/privacy", req.PolicyURL())
	assert.Equal(t, TypeURI, req.TypeURI())

	assert.Equal(t, []param.Parameter{
		{Key: "optional", Value: "country"},
		{Key: "required", Value: "email,nickname"},
		{Key: "policy_url", Value: "https://rp.example.com/privacy"},
	}, req.Parameters().Parameters())
}

func TestRequest_UnknownField(t *testing.T) {
	req := NewRequest()
	assert.ErrorIs(t, req.RequestField("shoe_size", true), ErrUnknownField)
	assert.Equal(t, 0, req.Parameters().Len())
}

func TestResponse(t *testing.T) {
	resp := NewResponse()
	require.NoError(t, resp.Set(FieldEmail, "jane@example.com"))
	assert.ErrorIs(t, resp.Set("shoe_size", "42"), ErrUnknownField)

	v, ok := resp.Get(FieldEmail)
	assert.True(t, ok)
	assert.Equal(t, "jane@example.com", v)

	_, ok = resp.Get(FieldDOB)
	assert.False(t, ok)
}

func TestFactory(t *testing.T) {
	factory := NewFactory()
	assert.Equal(t, TypeURI, factory.TypeURI())

	t.Run("request", func(t *testing.T) {
		ext, err := factory.Extension(param.FromPairs(
			"required", "email",
			"optional", "fullname,dob",
			"ignored", "x",
		), true)
		require.NoError(t, err)

		req, ok := ext.(*Request)
		require.True(t, ok)
		assert.Equal(t, []string{FieldEmail}, req.RequiredFields())
		assert.Equal(t, []string{FieldFullname, FieldDOB}, req.OptionalFields())
		assert.False(t, req.Parameters().Has("ignored"))
	})

	t.Run("request with unknown field", func(t *testing.T) {
		_, err := factory.Extension(param.FromPairs("required", "email,shoe_size"), true)
		assert.ErrorIs(t, err, extension.ErrInvalidParameters)
	})

	t.Run("response", func(t *testing.T) {
		ext, err := factory.Extension(param.FromPairs("email", "jane@example.com", "bogus", "x"), false)
		require.NoError(t, err)

		resp, ok := ext.(*Response)
		require.True(t, ok)
		v, _ := resp.Get(FieldEmail)
		assert.Equal(t, "jane@example.com", v)
		assert.False(t, resp.Parameters().Has("bogus"))
	})
}

func TestFields(t *testing.T) {
	fs := Fields()
	assert.Len(t, fs, 9)
	fs[0] = "mutated"
	assert.Equal(t, FieldNickname, Fields()[0])
	assert.True(t, IsField(FieldTimezone))
	assert.False(t, IsField(""))
}
