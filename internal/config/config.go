package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvServerURL  = "VOXLATE_SERVER_URL"
	EnvSpokenLang = "VOXLATE_SPOKEN_LANG"
	EnvTargetLang = "VOXLATE_TARGET_LANG"
	EnvOutputDir  = "VOXLATE_OUTPUT_DIR"

	DefaultServerURL = "http://127.0.0.1:5000"
)

// Config holds the settings that can come from the environment or a .env file.
type Config struct {
	ServerURL  string
	SpokenLang string
	TargetLang string
	OutputDir  string
}

func Default() Config {
	return Config{ServerURL: DefaultServerURL}
}

// Load layers the process environment over values read from the given .env
// files over the defaults. Missing files are skipped. With no files, ".env" in
// the working directory is tried.
func Load(lookup func(string) (string, bool), files ...string) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if len(files) == 0 {
		files = []string{".env"}
	}

	fileValues := map[string]string{}
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read env file %s: %w", file, err)
		}
		for k, v := range values {
			fileValues[k] = v
		}
	}

	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		if v, ok := fileValues[key]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := Default()
	cfg.ServerURL = get(EnvServerURL, cfg.ServerURL)
	cfg.SpokenLang = get(EnvSpokenLang, cfg.SpokenLang)
	cfg.TargetLang = get(EnvTargetLang, cfg.TargetLang)
	cfg.OutputDir = get(EnvOutputDir, cfg.OutputDir)
	return cfg, nil
}
