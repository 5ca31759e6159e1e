package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"bananalab/internal/assets"
	"bananalab/internal/blob"
	"bananalab/internal/filters"
	"bananalab/internal/logging"
	"bananalab/internal/thumbnail"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	OutputDir      string
	DatabasePath   string
	MetricsPort    string
	MetricsEnabled bool

	AssetTimeout          time.Duration
	AssetCacheCeiling     int
	AssetCacheFloor       int
	ThumbnailCacheEntries int
	PreloadBatchSize      int
	BlobCacheEntries      int

	JPEGQuality    int
	OutputFormat   thumbnail.Format
	FilterStrategy filters.Strategy
	VipsEnabled    bool
}

// LoadConfig loads and validates configuration from environment variables.
// quiet suppresses the banner for machine-readable subcommands.
func LoadConfig(quiet bool) (*Config, error) {
	if !quiet {
		printBanner()
		logSystemInfo()
	}

	cfg := &Config{
		OutputDir:             getEnv("OUTPUT_DIR", "thumbnails"),
		DatabasePath:          getEnv("DATABASE_PATH", ""),
		MetricsPort:           getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", false),
		AssetTimeout:          getEnvDuration("ASSET_TIMEOUT", assets.DefaultTimeout),
		AssetCacheCeiling:     getEnvInt("ASSET_CACHE_CEILING", assets.DefaultCeiling),
		AssetCacheFloor:       getEnvInt("ASSET_CACHE_FLOOR", assets.DefaultFloor),
		ThumbnailCacheEntries: getEnvInt("THUMBNAIL_CACHE_ENTRIES", thumbnail.DefaultCacheEntries),
		PreloadBatchSize:      getEnvInt("PRELOAD_BATCH_SIZE", assets.DefaultBatchSize),
		BlobCacheEntries:      getEnvInt("BLOB_CACHE_ENTRIES", blob.DefaultKeyedEntries),
		JPEGQuality:           getEnvInt("JPEG_QUALITY", thumbnail.DefaultQuality),
		VipsEnabled:           getEnvBool("VIPS_ENABLED", false),
	}

	format, err := thumbnail.ParseFormat(getEnv("OUTPUT_FORMAT", "jpeg"))
	if err != nil {
		logging.Warn("Invalid OUTPUT_FORMAT: %v, using jpeg", err)
		format = thumbnail.FormatJPEG
	}
	cfg.OutputFormat = format

	strategy, err := filters.ParseStrategy(getEnv("FILTER_STRATEGY", "auto"))
	if err != nil {
		logging.Warn("Invalid FILTER_STRATEGY: %v, using auto", err)
	}
	cfg.FilterStrategy = strategy

	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		logging.Warn("JPEG_QUALITY %d out of range (1-100), using default: %d", cfg.JPEGQuality, thumbnail.DefaultQuality)
		cfg.JPEGQuality = thumbnail.DefaultQuality
	}

	if cfg.OutputDir, err = filepath.Abs(cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to resolve output directory path: %w", err)
	}
	if cfg.DatabasePath != "" {
		if cfg.DatabasePath, err = filepath.Abs(cfg.DatabasePath); err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !quiet {
		cfg.logConfig()
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var problems []string
	if c.AssetTimeout <= 0 {
		problems = append(problems, "ASSET_TIMEOUT must be positive")
	}
	if c.AssetCacheFloor < 0 || c.AssetCacheCeiling <= 0 {
		problems = append(problems, "asset cache bounds must be positive")
	}
	if c.AssetCacheFloor > c.AssetCacheCeiling {
		problems = append(problems, fmt.Sprintf("ASSET_CACHE_FLOOR (%d) exceeds ASSET_CACHE_CEILING (%d)",
			c.AssetCacheFloor, c.AssetCacheCeiling))
	}
	if c.PreloadBatchSize <= 0 {
		problems = append(problems, "PRELOAD_BATCH_SIZE must be positive")
	}
	if c.ThumbnailCacheEntries <= 0 {
		problems = append(problems, "THUMBNAIL_CACHE_ENTRIES must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// AssetOptions returns the asset cache options the configuration selects.
func (c *Config) AssetOptions() assets.Options {
	return assets.Options{
		Timeout:      c.AssetTimeout,
		Ceiling:      c.AssetCacheCeiling,
		Floor:        c.AssetCacheFloor,
		MaxDimension: assets.MaxImageDimension,
		MaxPixels:    assets.MaxImagePixels,
		UseVips:      c.VipsEnabled,
	}
}

// ThumbnailOptions returns the generator options the configuration selects.
func (c *Config) ThumbnailOptions() thumbnail.Options {
	return thumbnail.Options{
		Format:    c.OutputFormat,
		Quality:   c.JPEGQuality,
		BatchSize: c.PreloadBatchSize,
		Strategy:  c.FilterStrategy,
	}
}

// EnsureOutputDir creates the output directory and checks it is writable.
func (c *Config) EnsureOutputDir() error {
	if err := ensureDirectory(c.OutputDir, "output"); err != nil {
		return fmt.Errorf("output directory error: %w", err)
	}
	if err := testWriteAccess(c.OutputDir); err != nil {
		return fmt.Errorf("output directory is not writable: %w", err)
	}
	return nil
}

func (c *Config) logConfig() {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  OUTPUT_DIR:              %s", c.OutputDir)
	logging.Info("  DATABASE_PATH:           %s", orDisabled(c.DatabasePath))
	logging.Info("  METRICS_ENABLED:         %v", c.MetricsEnabled)
	logging.Info("  METRICS_PORT:            %s", c.MetricsPort)
	logging.Info("  ASSET_TIMEOUT:           %v", c.AssetTimeout)
	logging.Info("  ASSET_CACHE_CEILING:     %d", c.AssetCacheCeiling)
	logging.Info("  ASSET_CACHE_FLOOR:       %d", c.AssetCacheFloor)
	logging.Info("  THUMBNAIL_CACHE_ENTRIES: %d", c.ThumbnailCacheEntries)
	logging.Info("  PRELOAD_BATCH_SIZE:      %d", c.PreloadBatchSize)
	logging.Info("  BLOB_CACHE_ENTRIES:      %d", c.BlobCacheEntries)
	logging.Info("  OUTPUT_FORMAT:           %s", c.OutputFormat)
	logging.Info("  JPEG_QUALITY:            %d", c.JPEGQuality)
	logging.Info("  FILTER_STRATEGY:         %s", c.FilterStrategy)
	logging.Info("  VIPS_ENABLED:            %v", c.VipsEnabled)
	logging.Info("  LOG_LEVEL:               %s", logging.GetLevel())
	logging.Info("")
}

func orDisabled(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })
	return routes, err
}

// LogHTTPRoutes logs the registered routes at debug level.
func LogHTTPRoutes(router *mux.Router, port string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("METRICS SERVER")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Listening on http://0.0.0.0:%s", port)

	if !logging.IsDebugEnabled() {
		return
	}
	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	for _, r := range routes {
		logging.Debug("    %-6s %s", r.Method, r.Path)
	}
}

// LogBatchSummary logs the outcome of a batch run.
func LogBatchSummary(pages, placeholders int, duration time.Duration) {
	logging.Info("------------------------------------------------------------")
	logging.Info("BATCH COMPLETE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Pages:        %d", pages)
	logging.Info("  Placeholders: %d", placeholders)
	logging.Info("  Duration:     %v", duration)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____                                   __          __
   / __ )____ _____  ____ _____  ____ _   / /   ____ _/ /_
  / __  / __ '/ __ \/ __ '/ __ \/ __ '/  / /   / __ '/ __ \
 / /_/ / /_/ / / / / /_/ / / / / /_/ /  / /___/ /_/ / /_/ /
/_____/\__,_/_/ /_/\__,_/_/ /_/\__,_/  /_____/\__,_/_.___/

------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}
	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  Working dir:     %s", wd)
	}
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
