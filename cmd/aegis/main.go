// Package main is the CLI entry point for Aegis — a local MITM proxy that
// intercepts outbound LLM traffic, classifies prompts and images against
// time and content rules tied to OS-user profiles, and blocks, warns, or
// allows accordingly.
//
// Architecture overview:
//
//	Browser/App --> Aegis Proxy (:8766, TLS-terminating) --> LLM Provider
//	                  |                                         |
//	                  +-- extract prompt/image ------------------+
//	                  |-- classify (keyword/ML/sentiment tiers)
//	                  |-- evaluate against time + content rules
//	                  |-- block/warn/allow decision
//	                  |-- audit log (hash-chained)
//	                  +-- forward (or block) to provider
//
// A second loopback port (:8767) serves the control plane — pause/resume,
// stats, audit, and a live decision feed — separately from the proxy port.
//
// CLI commands (cobra):
//
//	aegis start [-d]          - Start the proxy + control plane
//	aegis stop                - Stop a running instance
//	aegis status               - Show running status
//	aegis profile list/set     - Manage per-OS-user profiles
//	aegis rules reload         - Force a rules.yaml/community.yaml reload
//	aegis audit tail/query/verify/export - Inspect the audit log
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sujitn/aegis/internal/audit"
	"github.com/sujitn/aegis/internal/cache"
	"github.com/sujitn/aegis/internal/classifier"
	"github.com/sujitn/aegis/internal/config"
	"github.com/sujitn/aegis/internal/controlplane"
	"github.com/sujitn/aegis/internal/domainfilter"
	"github.com/sujitn/aegis/internal/metrics"
	"github.com/sujitn/aegis/internal/mitm"
	"github.com/sujitn/aegis/internal/profile"
	"github.com/sujitn/aegis/internal/ruleengine"
	"github.com/sujitn/aegis/internal/storage"
)

// Build-time variables injected via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.buildDate=2026-02-10"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ============================================================================
// Root command
// ============================================================================

var (
	configDir     string
	noTray        bool
	debugMode     bool
	logLevel      string
	showDashboard bool
	minimized     bool
)

var rootCmd = &cobra.Command{
	Use:   "aegis",
	Short: "Aegis — endpoint AI-safety gateway",
	Long: `Aegis is a local MITM proxy that intercepts outbound LLM traffic,
classifies prompts and images, and applies time + content rules tied to
per-OS-user profiles. It blocks, warns, or allows each request and keeps a
tamper-evident audit trail.

Run 'aegis start' to start the proxy and control plane.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.DefaultDir(), "Path to Aegis config and state directory")
	rootCmd.PersistentFlags().BoolVar(&noTray, "no-tray", false, "Disable the system tray icon (headless/server mode)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&showDashboard, "show-dashboard", false, "Open the control-plane dashboard on start")
	rootCmd.PersistentFlags().BoolVar(&minimized, "minimized", false, "Start minimized to tray")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(auditCmd)
}

// ============================================================================
// aegis start
// ============================================================================

var daemonMode bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Aegis proxy and control plane",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStart(cmd, args)
	},
}

func init() {
	startCmd.Flags().BoolVarP(&daemonMode, "daemon", "d", false, "Run in background mode")
}

// runStart wires every subsystem together and blocks until shutdown.
//
//  1. Handle daemon mode (re-exec as background process if -d)
//  2. Load config.yaml
//  3. Initialize CA, domain filter, classifier, profiles, rule-file
//     overrides and community rules
//  4. Initialize the audit log and file-backed store
//  5. Build the MITM handler and the control plane
//  6. Mount both on their own ports, start the config watcher
//  7. Write the PID file, block on signal/HTTP shutdown, shut down cleanly
func runStart(cmd *cobra.Command, args []string) error {
	if daemonMode && os.Getenv("AEGIS_DAEMONIZED") != "1" {
		return spawnDaemon()
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ca, err := mitm.LoadOrCreateCA(cfg.CA.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize CA: %w", err)
	}

	domains, err := domainfilter.New(domainfilter.DefaultPatterns)
	if err != nil {
		return fmt.Errorf("failed to compile domain filter: %w", err)
	}

	resultCache, err := cache.New(cache.Config{
		Backend:    cache.Backend(cfg.Cache.Backend),
		RedisAddr:  cfg.Cache.RedisAddr,
		RedisDB:    cfg.Cache.RedisDB,
		DefaultTTL: time.Duration(cfg.Cache.DefaultTTLHours) * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize classification cache: %w", err)
	}
	defer resultCache.Close()

	tieredClassifier := classifier.New(classifier.Config{
		ShortCircuitThreshold: cfg.Classifier.ShortCircuitThreshold,
		EnableML:              cfg.Classifier.EnableML,
		EnableSentiment:       cfg.Classifier.EnableSentiment,
		Sentiment:             classifier.NewSentimentClassifier(classifier.DefaultSentimentThreshold),
		ResultCache:           resultCache,
		ResultCacheTTL:        time.Duration(cfg.Cache.DefaultTTLHours) * time.Hour,
	})

	profiles, err := profile.NewManager(cfg.Profiles.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize profile manager: %w", err)
	}
	if profiles.ProfileCount() == 0 {
		profiles.AddProfile(profile.Unrestricted("Parent", profile.CurrentOSUser()))
	}

	if err := reloadRuleFiles(profiles, cfg); err != nil {
		return fmt.Errorf("failed to load rule files: %w", err)
	}

	auditLog, err := audit.New(cfg.Audit.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize audit log: %w", err)
	}
	defer auditLog.Close()
	auditLog.LogLifecycle("proxy_start", map[string]any{
		"version": version, "commit": commit, "host": cfg.Server.Host, "port": cfg.Server.Port,
	})

	store, err := storage.NewFileStore(configDir)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	protection := profile.NewProtectionManager()
	if s, ok, _ := store.GetProtectionState(); ok {
		if s == profile.Paused {
			protection.Pause(profile.Indefinite())
		} else if s == profile.Disabled {
			protection.Disable()
		}
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	ca.SetMetrics(m)

	mitmHandler := mitm.NewHandler(mitm.Options{
		CA:         ca,
		Domains:    domains,
		Classifier: tieredClassifier,
		Profiles:   profiles,
		Protection: protection,
		Audit:      auditLog,
		Metrics:    m,
	})

	cp := controlplane.New(controlplane.Options{
		Protection: protection,
		AuditLog:   auditLog,
		Store:      store,
		Registry:   registry,
	})

	watcher, err := config.NewWatcher(configDir, config.WatchTargets{
		OnWhitelistChange: func() {
			if reloadErr := reloadRuleFiles(profiles, cfg); reloadErr != nil {
				fmt.Fprintf(os.Stderr, "[aegis] Warning: failed to reload rules.yaml: %v\n", reloadErr)
			} else {
				fmt.Println("[aegis] rules.yaml reloaded")
			}
		},
		OnCommunityChange: func() {
			if reloadErr := reloadRuleFiles(profiles, cfg); reloadErr != nil {
				fmt.Fprintf(os.Stderr, "[aegis] Warning: failed to reload community.yaml: %v\n", reloadErr)
			} else {
				fmt.Println("[aegis] community.yaml reloaded")
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start config watcher: %w", err)
	}
	defer watcher.Close()

	proxyMux := http.NewServeMux()
	proxyMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","version":"%s"}`, version)
	})
	shutdownCh := make(chan struct{}, 1)
	proxyMux.HandleFunc("/shutdown", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !isLoopback(r.RemoteAddr) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"shutting_down"}`)
		select {
		case shutdownCh <- struct{}{}:
		default:
		}
	})
	proxyMux.Handle("/", mitmHandler)

	proxyAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	proxyServer := &http.Server{Addr: proxyAddr, Handler: proxyMux, ReadHeaderTimeout: 10 * time.Second}

	cpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.ControlPlane.Port)
	cpServer := &http.Server{Addr: cpAddr, Handler: cp.Handler(), ReadHeaderTimeout: 10 * time.Second}

	pidFile := filepath.Join(configDir, "aegis.pid")
	if err := writePIDFile(pidFile); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer removePIDFile(pidFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		fmt.Printf("[aegis] Proxy listening on https://%s\n", proxyAddr)
		errCh <- proxyServer.ListenAndServe()
	}()
	go func() {
		fmt.Printf("[aegis] Control plane listening on http://%s\n", cpAddr)
		errCh <- cpServer.ListenAndServe()
	}()
	if !daemonMode {
		fmt.Println("[aegis] Press Ctrl+C to stop")
	}

	select {
	case <-ctx.Done():
		fmt.Println("\n[aegis] Shutting down (signal received)...")
	case <-shutdownCh:
		fmt.Println("[aegis] Shutting down (stop command received)...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := proxyServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[aegis] Proxy shutdown error: %v\n", err)
	}
	if err := cpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[aegis] Control plane shutdown error: %v\n", err)
	}

	auditLog.LogLifecycle("proxy_stop", nil)
	if err := profiles.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "[aegis] Warning: failed to save profiles: %v\n", err)
	}

	fmt.Println("[aegis] Stopped")
	return nil
}

// reloadRuleFiles loads rules.yaml and community.yaml and applies them to
// every profile's engine. There is one rule-file pair for the whole
// install (matching spec.md's single parent-operator model), layered on
// top of each profile's own baseline engine.
func reloadRuleFiles(profiles *profile.Manager, cfg *config.Config) error {
	overrides, err := ruleengine.LoadParentOverrides(cfg.Rules.WhitelistPath)
	if err != nil {
		return err
	}
	communityRules, err := ruleengine.LoadCommunityRules(cfg.Rules.CommunityPath)
	if err != nil {
		return err
	}
	for _, p := range profiles.AllProfiles() {
		if p.Engine == nil || p.Engine.Community == nil {
			continue
		}
		p.Engine.Community.SetOverrides(overrides)
		if len(communityRules) > 0 {
			p.Engine.Community.AddRules(communityRules)
		}
	}
	return nil
}

// spawnDaemon re-executes the aegis binary as a detached background process.
func spawnDaemon() error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to find executable path: %w", err)
	}

	logPath := filepath.Join(configDir, "aegis.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	daemonArgs := []string{"start"}
	if configDir != config.DefaultDir() {
		daemonArgs = append(daemonArgs, "--config-dir", configDir)
	}

	child := exec.Command(exePath, daemonArgs...)
	child.Stdout = logFile
	child.Stderr = logFile
	child.Env = append(os.Environ(), "AEGIS_DAEMONIZED=1")

	if err := child.Start(); err != nil {
		logFile.Close()
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Printf("[aegis] Started in background (PID %d)\n", child.Process.Pid)
	fmt.Printf("[aegis] Log file: %s\n", logPath)
	fmt.Println("[aegis] Use 'aegis stop' to stop")

	if err := child.Process.Release(); err != nil {
		fmt.Fprintf(os.Stderr, "[aegis] Warning: failed to release child process: %v\n", err)
	}
	logFile.Close()
	return nil
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func removePIDFile(path string) { os.Remove(path) }

func isLoopback(remoteAddr string) bool {
	host := remoteAddr
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		host = remoteAddr[:idx]
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	return host == "127.0.0.1" || host == "::1" || strings.HasPrefix(host, "127.")
}

// ============================================================================
// aegis stop
// ============================================================================

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running Aegis instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStop(cmd, args)
	},
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	addr := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(addr+"/shutdown", "application/json", nil)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			fmt.Println("[aegis] Stop signal sent")
			os.Remove(filepath.Join(configDir, "aegis.pid"))
			return nil
		}
	}

	if runtime.GOOS == "windows" {
		return fmt.Errorf("aegis is not responding at %s — cannot stop", addr)
	}

	pidFile := filepath.Join(configDir, "aegis.pid")
	pidBytes, err := os.ReadFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("aegis is not running (no PID file and HTTP unreachable)")
		}
		return fmt.Errorf("failed to read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(pidBytes)))
	if err != nil {
		return fmt.Errorf("invalid PID in %s: %w", pidFile, err)
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		os.Remove(pidFile)
		return fmt.Errorf("failed to stop aegis (PID %d): %w", pid, err)
	}
	os.Remove(pidFile)
	fmt.Printf("[aegis] Sent stop signal (PID %d)\n", pid)
	return nil
}

// ============================================================================
// aegis status
// ============================================================================

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Aegis's running status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return err
		}
		addr := fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)
		client := &http.Client{Timeout: 3 * time.Second}
		resp, err := client.Get(addr)
		if err != nil {
			fmt.Println("[aegis] Not running")
			return nil
		}
		defer resp.Body.Close()
		fmt.Printf("[aegis] Running (%s)\n", addr)
		return nil
	},
}

// ============================================================================
// aegis profile list/set
// ============================================================================

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage per-OS-user protection profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return err
		}
		profiles, err := profile.NewManager(cfg.Profiles.Path)
		if err != nil {
			return err
		}
		for _, p := range profiles.AllProfiles() {
			fmt.Printf("%-20s %-12s os_user=%-12s kind=%-6s mode=%-7s enabled=%v\n",
				p.ID, p.Name, p.OSUsername, p.Kind, p.ProxyMode, p.Enabled)
		}
		return nil
	},
}

var profileSetEnabled bool

var profileSetCmd = &cobra.Command{
	Use:   "set <profile-id>",
	Short: "Enable or disable a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return err
		}
		profiles, err := profile.NewManager(cfg.Profiles.Path)
		if err != nil {
			return err
		}
		p := profiles.GetProfile(args[0])
		if p == nil {
			return fmt.Errorf("no such profile: %s", args[0])
		}
		p.Enabled = profileSetEnabled
		profiles.AddProfile(p)
		if err := profiles.Save(); err != nil {
			return err
		}
		fmt.Printf("[aegis] %s enabled=%v\n", p.ID, p.Enabled)
		return nil
	},
}

func init() {
	profileSetCmd.Flags().BoolVar(&profileSetEnabled, "enabled", true, "Whether the profile is enabled")
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileSetCmd)
}

// ============================================================================
// aegis rules reload
// ============================================================================

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage content rule files",
}

var rulesReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Force a reload of rules.yaml and community.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return err
		}
		profiles, err := profile.NewManager(cfg.Profiles.Path)
		if err != nil {
			return err
		}
		if err := reloadRuleFiles(profiles, cfg); err != nil {
			return err
		}
		fmt.Println("[aegis] Rule files reloaded")
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesReloadCmd)
}

// ============================================================================
// aegis audit tail/query/verify/export
// ============================================================================

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the tamper-evident audit log",
}

var auditTailLimit int

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent audit entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return err
		}
		a, err := audit.New(cfg.Audit.DataDir)
		if err != nil {
			return err
		}
		defer a.Close()
		entries, err := a.Tail(auditTailLimit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			printAuditEntry(e)
		}
		return nil
	},
}

var (
	auditQueryAgent    string
	auditQueryDecision string
	auditQuerySince    string
	auditQueryLimit    int
)

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the audit log with filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return err
		}
		a, err := audit.New(cfg.Audit.DataDir)
		if err != nil {
			return err
		}
		defer a.Close()
		entries, err := a.Query(audit.QueryParams{
			Agent: auditQueryAgent, Decision: auditQueryDecision, Since: auditQuerySince, Limit: auditQueryLimit,
		})
		if err != nil {
			return err
		}
		for _, e := range entries {
			printAuditEntry(e)
		}
		return nil
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit log's hash chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return err
		}
		a, err := audit.New(cfg.Audit.DataDir)
		if err != nil {
			return err
		}
		defer a.Close()
		result, err := a.VerifyChain()
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		if !result.Valid {
			return fmt.Errorf("audit chain is broken at entry %d", result.BrokenAt)
		}
		return nil
	},
}

var auditExportFormat string

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(filepath.Join(configDir, "config.yaml"))
		if err != nil {
			return err
		}
		a, err := audit.New(cfg.Audit.DataDir)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Export(os.Stdout, auditExportFormat)
	},
}

func init() {
	auditTailCmd.Flags().IntVarP(&auditTailLimit, "limit", "n", 20, "Number of recent entries to show")

	auditQueryCmd.Flags().StringVar(&auditQueryAgent, "agent", "", "Filter by profile ID")
	auditQueryCmd.Flags().StringVar(&auditQueryDecision, "decision", "", "Filter by decision (allow/warn/block)")
	auditQueryCmd.Flags().StringVar(&auditQuerySince, "since", "", "Entries since duration (e.g. 1h, 24h) or ISO timestamp")
	auditQueryCmd.Flags().IntVar(&auditQueryLimit, "limit", 50, "Maximum entries to return")

	auditExportCmd.Flags().StringVar(&auditExportFormat, "format", "jsonl", "Export format: csv, json, jsonl")

	auditCmd.AddCommand(auditTailCmd)
	auditCmd.AddCommand(auditQueryCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditExportCmd)
}

func printAuditEntry(e audit.Entry) {
	fmt.Printf("[%s] seq=%d profile=%-12s service=%-24s decision=%-6s rule=%s\n",
		e.Timestamp, e.Seq, e.Agent, e.Provider, e.Decision, e.Rule)
}
