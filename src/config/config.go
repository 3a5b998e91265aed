package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"
	EnvFileEnvVar     = "SCREEN_SNIP_ENV"

	BackendLLM       = "llm"
	BackendTesseract = "tesseract"

	DefaultFilePrefix     = "screenshot"
	DefaultMaskOpacity    = 0.1
	DefaultMinSelection   = 10
	DefaultOCRDeadlineSec = 20
)

var DefaultOCRLanguages = []string{"chi_sim", "eng"}

// LoadOptions carry command-line overrides. Zero values leave the
// environment value in place.
type LoadOptions struct {
	APIKeyPathOverride string
	BackendOverride    string
	OutputDirOverride  string
	// EnvFile names a .env file to read instead of the usual lookup.
	EnvFile string
}

type Config struct {
	// Snipping
	OutputDir           string
	FilePrefix          string
	MaskOpacity         float64
	MinSelectionSize    int
	CaptureDisplay      int
	CopyPathToClipboard bool

	EnableFileLogging bool

	// Text extraction
	OCRBackend     string
	OCRLanguages   []string
	APIKey         string
	APIKeyPath     string
	Model          string
	Providers      []string
	OCRDeadlineSec int
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) LoadOptions.EnvFile
	// 2) .env in the application (executable) directory
	// 3) the file named by SCREEN_SNIP_ENV
	// Variables already set in the process environment win over the file.
	envPath := opts.EnvFile
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		OutputDir:           firstNonEmpty(opts.OutputDirOverride, os.Getenv("OUTPUT_DIR")),
		FilePrefix:          getEnvWithDefault("FILE_PREFIX", DefaultFilePrefix),
		MaskOpacity:         parseOpacity(os.Getenv("MASK_OPACITY")),
		MinSelectionSize:    parsePositive(os.Getenv("MIN_SELECTION_SIZE"), DefaultMinSelection),
		CaptureDisplay:      parseNonNegative(os.Getenv("CAPTURE_DISPLAY"), 0),
		CopyPathToClipboard: parseBool(os.Getenv("COPY_PATH_TO_CLIPBOARD")),
		EnableFileLogging:   parseBool(os.Getenv("ENABLE_FILE_LOGGING")),
		OCRBackend:          resolveBackend(firstNonEmpty(opts.BackendOverride, os.Getenv("OCR_BACKEND"))),
		OCRLanguages:        splitList(os.Getenv("OCR_LANGUAGES"), "+,", DefaultOCRLanguages),
		APIKey:              resolveAPIKey(apiKeyPath),
		APIKeyPath:          apiKeyPath,
		Model:               os.Getenv("MODEL"),
		Providers:           splitList(os.Getenv("PROVIDERS"), ",", nil),
		OCRDeadlineSec:      parsePositive(os.Getenv("OCR_DEADLINE_SEC"), DefaultOCRDeadlineSec),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return os.Getenv("OPENROUTER_API_KEY")
}

func resolveBackend(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case BackendTesseract:
		return BackendTesseract
	default:
		return BackendLLM
	}
}

// parseOpacity accepts values in the open interval (0,1); anything else
// falls back to the default.
func parseOpacity(v string) float64 {
	if v == "" {
		return DefaultMaskOpacity
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || !(f > 0 && f < 1) {
		return DefaultMaskOpacity
	}
	return f
}

func parsePositive(v string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
		return n
	}
	return def
}

func parseNonNegative(v string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
		return n
	}
	return def
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func splitList(v, seps string, def []string) []string {
	var out []string
	for _, item := range strings.FieldsFunc(v, func(r rune) bool { return strings.ContainsRune(seps, r) }) {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
