package message

import "github.com/santif/openid/observability"

type messageMetrics struct {
	messagesCreated      observability.Counter
	extensionsAdded      observability.Counter
	extensionResolutions observability.Counter
}

func newMessageMetrics(metrics observability.Metrics) *messageMetrics {
	return &messageMetrics{
		messagesCreated: metrics.Counter("messages_created_total",
			"Total number of messages created, by validation outcome", "outcome"),
		extensionsAdded: metrics.Counter("extensions_added_total",
			"Total number of extensions added to outbound messages", "type_uri"),
		extensionResolutions: metrics.Counter("extension_resolutions_total",
			"Total number of extension lookups, by outcome", "type_uri", "outcome"),
	}
}

func (m *messageMetrics) created(outcome string) {
	m.messagesCreated.WithLabels(map[string]string{"outcome": outcome}).Inc()
}

func (m *messageMetrics) extensionAdded(typeURI string) {
	m.extensionsAdded.WithLabels(map[string]string{"type_uri": typeURI}).Inc()
}

func (m *messageMetrics) resolved(typeURI, outcome string) {
	m.extensionResolutions.WithLabels(map[string]string{"type_uri": typeURI, "outcome": outcome}).Inc()
}
