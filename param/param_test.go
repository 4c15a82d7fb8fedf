package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		param   Parameter
		wantErr error
	}{
		{name: "plain", param: New("mode", "id_res")},
		{name: "empty key", param: New("", "value")},
		{name: "value with colon", param: New("return_to", "https://rp.example.com/cb")},
		{name: "colon in key", param: New("bad:key", "v"), wantErr: ErrInvalidKey},
		{name: "newline in key", param: New("bad\nkey", "v"), wantErr: ErrInvalidKey},
		{name: "newline in value", param: New("key", "two\nlines"), wantErr: ErrInvalidValue},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.param.Validate()
			if test.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, test.param.IsValid())
				return
			}
			assert.ErrorIs(t, err, test.wantErr)
			assert.False(t, test.param.IsValid())
		})
	}
}

func TestList_SetKeepsPosition(t *testing.T) {
	l := NewList(New("a", "1"), New("b", "2"), New("c", "3"))

	l.Set(New("b", "replaced"))
	l.Set(New("d", "4"))

	assert.Equal(t, []Parameter{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "replaced"},
		{Key: "c", Value: "3"},
		{Key: "d", Value: "4"},
	}, l.Parameters())
	assert.Equal(t, 4, l.Len())
}

func TestList_Lookup(t *testing.T) {
	l := FromPairs("mode", "id_res", "ns", "http://specs.openid.net/auth/2.0", "dangling")

	p, ok := l.Get("mode")
	require.True(t, ok)
	assert.Equal(t, "id_res", p.Value)

	assert.True(t, l.Has("dangling"))
	assert.Equal(t, "", l.Value("dangling"))
	assert.False(t, l.Has("missing"))
	assert.Equal(t, "", l.Value("missing"))
}

func TestList_ZeroValueAndNil(t *testing.T) {
	var l List
	l.Set(New("k", "v"))
	assert.Equal(t, "v", l.Value("k"))

	var nilList *List
	assert.Equal(t, 0, nilList.Len())
	assert.False(t, nilList.Has("k"))
	assert.Nil(t, nilList.Parameters())
}

func TestList_ParametersIsACopy(t *testing.T) {
	l := FromPairs("k", "v")
	params := l.Parameters()
	params[0].Value = "mutated"

	assert.Equal(t, "v", l.Value("k"))
}

func TestList_ValidateAndClone(t *testing.T) {
	l := FromPairs("ok", "1", "bad", "x\ny", "later:bad", "2")
	assert.ErrorIs(t, l.Validate(), ErrInvalidValue)

	clone := l.Clone()
	clone.Set(New("ok", "changed"))
	assert.Equal(t, "1", l.Value("ok"))
	assert.Equal(t, "changed", clone.Value("ok"))
}
