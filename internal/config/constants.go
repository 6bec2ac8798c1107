package config

const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./device-catalog.db"

	// DefaultMQTTClientID identifies the service on the broker
	DefaultMQTTClientID = "device-catalog"

	// DefaultMQTTTopicPrefix is prepended to every published topic
	DefaultMQTTTopicPrefix = "devicecatalog"
)
