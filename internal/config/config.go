package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Audit
		Global
		Database
		Tasks
		MQTT
		Devices
	}

	HTTP struct {
		Port int32
		Host string
	}
	Audit struct {
		Dir             string // Request journal directory, empty disables it
		RetentionDays   int    // Days to keep audit events (default: 30)
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	MQTT struct {
		BrokerURL   string // e.g. "tcp://localhost:1883", empty disables publishing
		ClientID    string
		TopicPrefix string
		QoS         byte
	}
	Devices struct {
		AllocatorMaxProbes int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("audit_dir", "")
	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// MQTT defaults
	v.SetDefault("mqtt_broker_url", "")
	v.SetDefault("mqtt_client_id", DefaultMQTTClientID)
	v.SetDefault("mqtt_topic_prefix", DefaultMQTTTopicPrefix)
	v.SetDefault("mqtt_qos", 1)

	// Device defaults
	v.SetDefault("allocator_max_probes", 100000)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Audit: Audit{
			Dir:             v.GetString("AUDIT_DIR"),
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		MQTT: MQTT{
			BrokerURL:   v.GetString("MQTT_BROKER_URL"),
			ClientID:    v.GetString("MQTT_CLIENT_ID"),
			TopicPrefix: v.GetString("MQTT_TOPIC_PREFIX"),
			QoS:         clampQoS(v.GetInt("MQTT_QOS")),
		},
		Devices: Devices{
			AllocatorMaxProbes: v.GetInt("ALLOCATOR_MAX_PROBES"),
		},
	}
}

// clampQoS keeps the value inside the three MQTT delivery levels.
func clampQoS(qos int) byte {
	switch {
	case qos < 0:
		return 0
	case qos > 2:
		return 2
	}
	return byte(qos)
}
