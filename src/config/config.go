package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	AppDataDir          string
	SettingsPath        string
	DefaultSettingsPath string
	DatabasePath        string // overrides the settings file location when set
	LogLevel            string
	LogFilePath         string
	BackupKeep          int
}

var Cfg *AppConfig

// LoadConfig reads an optional .env file and the process environment into Cfg.
func LoadConfig() *AppConfig {
	if errEnv := godotenv.Load(); errEnv != nil && !os.IsNotExist(errEnv) {
		log.Println("Info: error loading .env file, relying on OS environment variables and defaults:", errEnv)
	}

	appData := getEnv("WG_APPDATA_DIR", defaultAppDataDir())

	Cfg = &AppConfig{
		AppDataDir:          appData,
		SettingsPath:        getEnv("WG_SETTINGS_PATH", filepath.Join(appData, "config.json")),
		DefaultSettingsPath: getEnv("WG_DEFAULT_SETTINGS", filepath.Join("resources", "default_config.json")),
		DatabasePath:        getEnv("WG_DATABASE_PATH", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFilePath:         getEnv("WG_LOG_PATH", filepath.Join(appData, "log.txt")),
		BackupKeep:          getEnvAsInt("WG_BACKUP_KEEP", 5),
	}
	if Cfg.BackupKeep < 1 {
		log.Printf("WARNING: WG_BACKUP_KEEP must be at least 1, got %d. Using 1.", Cfg.BackupKeep)
		Cfg.BackupKeep = 1
	}
	return Cfg
}

func defaultAppDataDir() string {
	if dir := os.Getenv("APPDATA"); dir != "" {
		return filepath.Join(dir, "WeeklyGiving")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "WeeklyGiving")
	}
	return "WeeklyGiving"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}
