package temporalx

import (
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/envutil"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string
}

func LoadConfig() Config {
	return Config{
		Address:   envutil.Get("TEMPORAL_ADDRESS", ""),
		Namespace: envutil.Get("TEMPORAL_NAMESPACE", "dailyscan"),
		TaskQueue: envutil.Get("TEMPORAL_TASK_QUEUE", "dailyscan"),

		ClientCertPath: envutil.Get("TEMPORAL_CLIENT_CERT_PATH", ""),
		ClientKeyPath:  envutil.Get("TEMPORAL_CLIENT_KEY_PATH", ""),
		ClientCAPath:   envutil.Get("TEMPORAL_CLIENT_CA_PATH", ""),
	}
}
