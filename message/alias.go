package message

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/santif/openid/extension"
	"github.com/santif/openid/observability"
	"github.com/santif/openid/param"
)

const (
	// NamespaceDeclarationPrefix starts every key binding an alias to a type URI
	NamespaceDeclarationPrefix = NamespaceKey + "."

	// AliasPrefix starts every generated alias
	AliasPrefix = "ext"
)

// declaredAlias returns the alias bound by a namespace declaration key
func declaredAlias(key string) (string, bool) {
	if !strings.HasPrefix(key, NamespaceDeclarationPrefix) || len(key) == len(NamespaceDeclarationPrefix) {
		return "", false
	}
	return key[len(NamespaceDeclarationPrefix):], true
}

// bindAlias records alias -> typeURI for a namespace declaration being set
func (m *Message) bindAlias(alias, typeURI string) error {
	if current, ok := m.aliases[typeURI]; ok {
		if current == alias {
			return nil
		}
		return fmt.Errorf("%w: %s is aliased as %s", ErrDuplicateExtension, typeURI, current)
	}

	// Redeclaring an alias drops the type it was bound to
	for uri, a := range m.aliases {
		if a == alias {
			delete(m.aliases, uri)
			delete(m.extensions, uri)
		}
	}

	m.aliases[typeURI] = alias
	return nil
}

// nextAlias allocates the next free generated alias
func (m *Message) nextAlias() string {
	for {
		m.extCounter++
		alias := AliasPrefix + strconv.Itoa(m.extCounter)
		if !m.aliasInUse(alias) {
			return alias
		}
	}
}

func (m *Message) aliasInUse(alias string) bool {
	if m.params.Has(NamespaceDeclarationPrefix + alias) {
		return true
	}
	for _, a := range m.aliases {
		if a == alias {
			return true
		}
	}
	return false
}

// AddExtension adds the parameters of an extension under a newly generated alias.
// Parameter keys must not carry the alias prefix; it is generated here.
func (m *Message) AddExtension(ext extension.Extension) error {
	typeURI := ext.TypeURI()

	if m.HasExtension(typeURI) {
		return fmt.Errorf("%w: %s", ErrDuplicateExtension, typeURI)
	}

	alias := m.nextAlias()
	m.aliases[typeURI] = alias

	m.logger.Debug("Adding extension",
		observability.NewField("type_uri", typeURI),
		observability.NewField("alias", alias))

	m.params.Set(param.New(NamespaceDeclarationPrefix+alias, typeURI))

	for _, p := range ext.Parameters().Parameters() {
		key := alias
		if p.Key != "" {
			key = alias + "." + p.Key
		}
		m.params.Set(param.New(key, p.Value))
	}

	m.metrics.extensionAdded(typeURI)
	return nil
}

// HasExtension reports whether the message declares the extension type
func (m *Message) HasExtension(typeURI string) bool {
	_, ok := m.aliases[typeURI]
	return ok
}

// ExtensionAlias returns the alias bound to the extension type
func (m *Message) ExtensionAlias(typeURI string) (string, bool) {
	alias, ok := m.aliases[typeURI]
	return alias, ok
}

// Extensions returns the declared extension type URIs in sorted order
func (m *Message) Extensions() []string {
	uris := make([]string, 0, len(m.aliases))
	for uri := range m.aliases {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// extensionParams returns the parameters of an extension with the alias
// prefix removed; the bare alias key maps to the empty key
func (m *Message) extensionParams(typeURI string) *param.List {
	out := param.NewList()

	alias, ok := m.aliases[typeURI]
	if !ok {
		return out
	}

	prefix := alias + "."
	for _, p := range m.params.Parameters() {
		switch {
		case strings.HasPrefix(p.Key, prefix):
			out.Set(param.New(p.Key[len(prefix):], p.Value))
		case p.Key == alias:
			out.Set(param.New("", p.Value))
		}
	}
	return out
}

// Extension resolves the extension of the given type from the message parameters.
// The result is cached for the lifetime of the message.
func (m *Message) Extension(typeURI string) (extension.Extension, error) {
	if ext, ok := m.extensions[typeURI]; ok {
		m.metrics.resolved(typeURI, "cached")
		return ext, nil
	}

	factory, ok := m.registry.Factory(typeURI)
	if !ok {
		m.metrics.resolved(typeURI, "unsupported")
		return nil, fmt.Errorf("%w: %s", ErrExtensionNotSupported, typeURI)
	}

	mode, hasMode := m.Mode()
	if !hasMode {
		if m.strictMode {
			m.metrics.resolved(typeURI, "failed")
			return nil, fmt.Errorf("%w: cannot resolve %s", ErrMissingMode, typeURI)
		}
		m.logger.Debug("Message has no mode; resolving extension as a response",
			observability.NewField("type_uri", typeURI))
	}

	ext, err := factory.Extension(m.extensionParams(typeURI), strings.HasPrefix(mode, RequestModePrefix))
	if err != nil {
		m.metrics.resolved(typeURI, "failed")
		return nil, fmt.Errorf("resolving extension %s: %w", typeURI, err)
	}

	m.logger.Debug("Extracted extension from message", observability.NewField("type_uri", typeURI))
	m.extensions[typeURI] = ext
	m.metrics.resolved(typeURI, "created")
	return ext, nil
}
