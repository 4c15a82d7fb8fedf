package message

import (
	"errors"
	"sync/atomic"

	"github.com/santif/openid/extension"
	"github.com/santif/openid/observability"
	"github.com/santif/openid/param"
)

const testTypeURI = "urn:test:ext"

// testExtension is a minimal extension carrying arbitrary parameters
type testExtension struct {
	typeURI   string
	params    *param.List
	isRequest bool
}

func (e *testExtension) TypeURI() string         { return e.typeURI }
func (e *testExtension) Parameters() *param.List { return e.params }

// countingFactory records every Extension call in a shared counter
type countingFactory struct {
	typeURI string
	calls   *atomic.Int32
	err     error
}

func (f *countingFactory) TypeURI() string { return f.typeURI }

func (f *countingFactory) Extension(params *param.List, isRequest bool) (extension.Extension, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &testExtension{typeURI: f.typeURI, params: params, isRequest: isRequest}, nil
}

func countingConstructor(typeURI string, calls *atomic.Int32, err error) FactoryConstructor {
	return func() (extension.Factory, error) {
		return &countingFactory{typeURI: typeURI, calls: calls, err: err}, nil
	}
}

// testRegistry returns an empty registry holding a counting factory for testTypeURI
func testRegistry(calls *atomic.Int32) *Registry {
	r := NewEmptyRegistry(WithRegistryLogger(observability.NewNoOpLogger()))
	if err := r.AddFactory(countingConstructor(testTypeURI, calls, nil)); err != nil {
		panic(err)
	}
	return r
}

var errBoom = errors.New("boom")

func quietOptions(opts ...Option) []Option {
	return append([]Option{WithLogger(observability.NewNoOpLogger())}, opts...)
}

func newCounter() *atomic.Int32 {
	return new(atomic.Int32)
}
