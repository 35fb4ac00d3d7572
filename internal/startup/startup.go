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

	"github.com/gorilla/mux"

	"hotghost/internal/assets"
	"hotghost/internal/logging"
	"hotghost/internal/memory"
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
	Port           string
	MetricsPort    string
	MetricsEnabled bool

	AssetsDir   string
	WorkDir     string
	DatabaseDir string

	// Empty paths are looked up on PATH when the engine initializes.
	FFmpegPath  string
	FFprobePath string

	// GenerationTimeout bounds one generation; zero means unbounded.
	GenerationTimeout time.Duration
	// ResultTTL is how long an unreleased video result is held.
	ResultTTL time.Duration
	// HistoryRetention prunes older history rows; zero keeps everything.
	HistoryRetention time.Duration
	MaxUploadBytes   int64

	LogHealthChecks bool

	// Derived paths
	DatabasePath string
}

// LoadConfig prints the banner and loads configuration from the environment.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	cfg, err := load(os.Getenv)
	if err != nil {
		return nil, err
	}
	if err := prepareDirectories(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// load reads and logs the configuration without touching the filesystem.
func load(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	logSection("CONFIGURATION")

	cfg := &Config{
		Port:            env("PORT", "8080"),
		MetricsPort:     env("METRICS_PORT", "9090"),
		MetricsEnabled:  parseBool(getenv, "METRICS_ENABLED", true),
		AssetsDir:       env("ASSETS_DIR", "/assets"),
		WorkDir:         env("WORK_DIR", filepath.Join(os.TempDir(), "hotghost")),
		DatabaseDir:     env("DATABASE_DIR", "/database"),
		FFmpegPath:      getenv("FFMPEG_PATH"),
		FFprobePath:     getenv("FFPROBE_PATH"),
		LogHealthChecks: parseBool(getenv, "LOG_HEALTH_CHECKS", true),
	}
	cfg.GenerationTimeout = parseDuration(getenv, "GENERATION_TIMEOUT", 0)
	cfg.ResultTTL = parseDuration(getenv, "RESULT_TTL", 30*time.Minute)
	cfg.HistoryRetention = parseDuration(getenv, "HISTORY_RETENTION", 30*24*time.Hour)

	maxUpload := env("MAX_UPLOAD_MB", "512")
	mb, err := strconv.ParseInt(maxUpload, 10, 64)
	if err != nil || mb < 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB %q", maxUpload)
	}
	cfg.MaxUploadBytes = mb << 20

	for _, p := range []*string{&cfg.AssetsDir, &cfg.WorkDir, &cfg.DatabaseDir} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", *p, err)
		}
		*p = abs
	}
	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, "hotghost.db")

	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  ASSETS_DIR:          %s", cfg.AssetsDir)
	logging.Info("  WORK_DIR:            %s", cfg.WorkDir)
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  FFMPEG_PATH:         %s", orPath(cfg.FFmpegPath))
	logging.Info("  FFPROBE_PATH:        %s", orPath(cfg.FFprobePath))
	logging.Info("  GENERATION_TIMEOUT:  %s", orUnbounded(cfg.GenerationTimeout))
	logging.Info("  RESULT_TTL:          %s", orUnbounded(cfg.ResultTTL))
	logging.Info("  HISTORY_RETENTION:   %s", orUnbounded(cfg.HistoryRetention))
	logging.Info("  MAX_UPLOAD_MB:       %d", mb)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	return cfg, nil
}

func prepareDirectories(cfg *Config) error {
	logSection("DIRECTORY SETUP")

	if err := ensureDirectory(cfg.DatabaseDir); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(cfg.DatabaseDir); err != nil {
		return fmt.Errorf("database directory is not writable: %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	if err := ensureDirectory(cfg.WorkDir); err != nil {
		return fmt.Errorf("work directory error: %w", err)
	}
	if err := testWriteAccess(cfg.WorkDir); err != nil {
		return fmt.Errorf("work directory is not writable (required for video): %w", err)
	}
	logging.Info("  [OK] Work directory is writable")

	if info, err := os.Stat(cfg.AssetsDir); err != nil || !info.IsDir() {
		logging.Warn("  Assets directory %s is missing; logos will use placeholders and video is unavailable", cfg.AssetsDir)
	}
	return nil
}

func orPath(p string) string {
	if p == "" {
		return "(from PATH)"
	}
	return p
}

func orUnbounded(d time.Duration) string {
	if d <= 0 {
		return "unbounded"
	}
	return d.String()
}

func logSection(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// LogMemoryConfig logs the outcome of memory.ConfigureFromEnv.
func LogMemoryConfig(res memory.ConfigResult) {
	logSection("MEMORY")
	if !res.Configured {
		logging.Info("  GOMEMLIMIT not configured")
		return
	}
	logging.Info("  GOMEMLIMIT:      %s (source %s)", memory.FormatBytes(res.GoMemLimit), res.Source)
	if res.ContainerLimit > 0 {
		logging.Info("  Container limit: %s (ratio %.2f)", memory.FormatBytes(res.ContainerLimit), res.Ratio)
	}
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logSection("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogAssetStatus logs where every bundled asset resolved.
func LogAssetStatus(statuses []assets.Status) {
	logSection("ASSETS")
	for _, st := range statuses {
		switch {
		case st.Present:
			logging.Info("  [OK] %-14s %s", st.ID, st.Path)
		case st.Placeholder:
			logging.Warn("  [--] %-14s missing, placeholder will be drawn", st.ID)
		default:
			logging.Warn("  [!!] %-14s missing, video templates will fail", st.ID)
		}
	}
}

// LogEngineDeferred notes that ffmpeg is checked on the first video request.
func LogEngineDeferred() {
	logSection("TRANSCODER")
	logging.Info("  ffmpeg is located and verified on the first video generation")
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
			routes = append(routes, RouteInfo{Method: method, Path: pathTemplate, Name: route.GetName()})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes grouped by prefix at debug level.
func LogHTTPRoutes(router *mux.Router) {
	logSection("HTTP SERVER SETUP")
	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Debug("  Registered routes (%d total):", len(routes))

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		g := getRouteGroup(route.Path)
		groups[g] = append(groups[g], route)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, g := range keys {
		logging.Debug("  [%s]", g)
		for _, route := range groups[g] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "api" && rest != "" {
		sub, _, _ := strings.Cut(rest, "/")
		return "api/" + sub
	}
	if first == "" {
		return "root"
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logSection("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  API:             http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("  Press Ctrl+C to stop the server")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logSection(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs a completed shutdown step
func LogShutdownStep(step string) {
	logging.Info("  [OK] %s", step)
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	fmt.Println(`
------------------------------------------------------------
    __          __        __              __
   / /_  ____  / /_____ _/ /_  ____  _____/ /_
  / __ \/ __ \/ __/ __ '/ __ \/ __ \/ ___/ __/
 / / / / /_/ / /_/ /_/ / / / / /_/ (__  ) /_
/_/ /_/\____/\__/\__, /_/ /_/\____/____/\__/
                /____/
------------------------------------------------------------`)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	logSection("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("  Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
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

func parseBool(getenv func(string) string, key string, def bool) bool {
	value := getenv(key)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, def)
		return def
	}
	return parsed
}

func parseDuration(getenv func(string) string, key string, def time.Duration) time.Duration {
	value := getenv(key)
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, def)
		return def
	}
	return d
}
