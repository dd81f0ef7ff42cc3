package config

import (
	"os"
	"path/filepath"
)

// DaylistPath returns the root directory for daylist data.
// It uses $DAYLIST_PATH if set, otherwise defaults to ~/.daylist.
func DaylistPath() string {
	if v := os.Getenv("DAYLIST_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".daylist")
	}
	return filepath.Join(home, ".daylist")
}

// ConfigPath returns the path to the daylist config file.
func ConfigPath() string {
	return filepath.Join(DaylistPath(), "config.jsonc")
}

// TasksPath returns the path to the persisted task list.
func TasksPath() string {
	return filepath.Join(DaylistPath(), "tasks.json")
}

// BlobsPath returns the path to the attachment database.
func BlobsPath() string {
	return filepath.Join(DaylistPath(), "attachments.db")
}
