package message

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/santif/openid/observability"
	"github.com/santif/openid/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Empty(t *testing.T) {
	m, err := New(quietOptions()...)
	require.NoError(t, err)

	assert.Empty(t, m.Parameters())
	assert.Empty(t, m.Extensions())
	assert.Equal(t, "", m.KeyValueForm())
	assert.Equal(t, OpenID2Namespace, m.Namespace())

	_, ok := m.Mode()
	assert.False(t, ok)
	assert.False(t, m.IsRequest())
}

func TestNewFromParameters(t *testing.T) {
	params := param.FromPairs(
		"openid.ns", OpenID2Namespace,
		"openid.mode", ModeCheckIDSetup,
		"openid.ns.ext1", testTypeURI,
		"openid.ext1.foo", "bar",
	)

	m, err := NewFromParameters(params, quietOptions()...)
	require.NoError(t, err)

	assert.Equal(t, []param.Parameter{
		{Key: "ns", Value: OpenID2Namespace},
		{Key: "mode", Value: ModeCheckIDSetup},
		{Key: "ns.ext1", Value: testTypeURI},
		{Key: "ext1.foo", Value: "bar"},
	}, m.Parameters())

	mode, ok := m.Mode()
	assert.True(t, ok)
	assert.Equal(t, ModeCheckIDSetup, mode)
	assert.True(t, m.IsRequest())

	// the bare "ns" key declares the protocol, not an extension
	assert.Equal(t, []string{testTypeURI}, m.Extensions())
}

func TestNewFromParameters_DoesNotAliasInput(t *testing.T) {
	params := param.FromPairs("mode", ModeIDRes)
	m, err := NewFromParameters(params, quietOptions()...)
	require.NoError(t, err)

	params.Set(param.New("mode", ModeCancel))
	assert.Equal(t, ModeIDRes, m.Value("mode"))
}

func TestMessage_KeyNormalization(t *testing.T) {
	m, err := New(quietOptions()...)
	require.NoError(t, err)

	require.NoError(t, m.Set("openid.mode", ModeIDRes))
	require.NoError(t, m.Set("mode", ModeCancel))

	assert.Len(t, m.Parameters(), 1)
	assert.Equal(t, ModeCancel, m.Value("openid.mode"))
	assert.True(t, m.Has("mode"))
	assert.True(t, m.Has("openid.mode"))

	p, ok := m.Parameter("openid.mode")
	require.True(t, ok)
	assert.Equal(t, param.New("mode", ModeCancel), p)

	assert.Equal(t, map[string]string{"mode": ModeCancel}, m.ParameterMap())
}

func TestMessage_ParameterMap(t *testing.T) {
	m, err := NewFromParameters(
		param.FromPairs("openid.return_to", "https://rp.example.com/", "openid.mode", ModeIDRes, "openid.assoc_handle", "h1"),
		quietOptions()...,
	)
	require.NoError(t, err)

	assert.Equal(t, []param.Parameter{
		param.New("return_to", "https://rp.example.com/"),
		param.New("mode", ModeIDRes),
		param.New("assoc_handle", "h1"),
	}, m.Parameters())
	assert.Equal(t, map[string]string{
		"mode":         ModeIDRes,
		"return_to":    "https://rp.example.com/",
		"assoc_handle": "h1",
	}, m.ParameterMap())
}

func TestMessage_RequiredFields(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		m, err := New(quietOptions(WithRequiredFields("openid.mode"))...)
		assert.ErrorIs(t, err, ErrMalformedMessage)
		assert.Nil(t, m)
	})

	t.Run("present", func(t *testing.T) {
		m, err := NewFromParameters(
			param.FromPairs("openid.mode", ModeIDRes, "openid.return_to", "https://rp.example.com/"),
			quietOptions(WithRequiredFields("openid.mode", "return_to"))...,
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"mode", "return_to"}, m.RequiredFields())
		assert.True(t, m.IsValid())

		for _, field := range m.RequiredFields() {
			assert.True(t, m.Has(field), "required field %s", field)
		}
	})
}

func TestMessage_InvalidParameter(t *testing.T) {
	tests := []struct {
		name   string
		params *param.List
	}{
		{name: "newline in key", params: param.FromPairs("bad\nkey", "v")},
		{name: "colon in key", params: param.FromPairs("bad:key", "v")},
		{name: "newline in value", params: param.FromPairs("mode", "id_res\nextra")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			m, err := NewFromParameters(tt.params, WithLogger(observability.NewTestLogger(&buf)))
			assert.ErrorIs(t, err, ErrMalformedMessage)
			assert.Nil(t, m)
			assert.Contains(t, buf.String(), "Invalid parameter")
		})
	}
}

func TestMessage_Namespace(t *testing.T) {
	m, err := NewFromParameters(param.FromPairs("ns", "http://openid.net/signon/1.1"), quietOptions()...)
	require.NoError(t, err)
	assert.Equal(t, "http://openid.net/signon/1.1", m.Namespace())
}

func TestMessage_Metrics(t *testing.T) {
	metrics := observability.NewMetrics()
	var calls = newCounter()

	opts := quietOptions(WithMetrics(metrics), WithRegistry(testRegistry(calls)))

	m, err := New(opts...)
	require.NoError(t, err)
	_, err = New(append(opts, WithRequiredFields("mode"))...)
	require.Error(t, err)

	require.NoError(t, m.AddExtension(&testExtension{typeURI: testTypeURI, params: param.FromPairs("foo", "bar")}))
	_, err = m.Extension(testTypeURI)
	require.NoError(t, err)
	_, err = m.Extension(testTypeURI)
	require.NoError(t, err)
	_, err = m.Extension("urn:unknown")
	require.Error(t, err)

	count, err := testutil.GatherAndCount(metrics.Registry(), "openid_message_messages_created_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "valid and malformed series")

	count, err = testutil.GatherAndCount(metrics.Registry(), "openid_message_extensions_added_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(metrics.Registry(), "openid_message_extension_resolutions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "created, cached and unsupported series")

	expected := `
# HELP openid_message_extensions_added_total Total number of extensions added to outbound messages
# TYPE openid_message_extensions_added_total counter
openid_message_extensions_added_total{type_uri="urn:test:ext"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "openid_message_extensions_added_total"))
}

func TestMessage_CreationLogging(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewFromParameters(param.FromPairs("mode", ModeIDRes), WithLogger(observability.NewTestLogger(&buf)))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Created message")
	assert.Contains(t, buf.String(), `mode:id_res\n`)
}
