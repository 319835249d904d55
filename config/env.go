package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix marks environment variables that carry configuration.
// KYK_LOG_LEVEL sets log.level, KYK_DB_BACKEND sets db.backend.
const EnvPrefix = "KYK_"

// LoadEnv collects KYK_* settings from the dotenv file at path and from
// the process environment, keyed like the config file. Process variables
// take precedence over the file. A missing file is not an error.
func LoadEnv(path string) (map[string]string, error) {
	values := make(map[string]string)

	if path != "" {
		fileVars, err := godotenv.Read(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		default:
			for k, v := range fileVars {
				if key, ok := envKey(k); ok {
					values[key] = v
				}
			}
		}
	}

	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if key, ok := envKey(k); ok {
			values[key] = v
		}
	}
	return values, nil
}

// envKey maps KYK_COINBASE_PUBKEY to coinbase.pubkey.
func envKey(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, EnvPrefix)
	if !ok || rest == "" {
		return "", false
	}
	return strings.ReplaceAll(strings.ToLower(rest), "_", "."), true
}
