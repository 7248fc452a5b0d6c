package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

const appName = "smartdict"

// PathResolver locates the config and data directories for the binary.
type PathResolver struct {
	executableDir string
	homeDir       string
	configDir     string
}

// NewPathResolver creates a resolver anchored at the running executable.
func NewPathResolver() (*PathResolver, error) {
	execDir, err := GetExecutableDir()
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executableDir: execDir,
		homeDir:       homeDir,
		configDir:     platformConfigDir(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s", execDir, pr.configDir)
	return pr, nil
}

func platformConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, ".config", appName)
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, appName)
		}
		return filepath.Join(homeDir, ".config", appName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	default:
		return filepath.Join(homeDir, "."+appName)
	}
}

// ConfigDir returns the platform config directory.
func (pr *PathResolver) ConfigDir() string { return pr.configDir }

// DataDirCandidates lists where a data directory named userPath may live,
// most preferred first.
func (pr *PathResolver) DataDirCandidates(userPath string) []string {
	var candidates []string
	if filepath.IsAbs(userPath) {
		return append(candidates, userPath)
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, userPath))
	}
	return append(candidates,
		filepath.Join(pr.executableDir, userPath),
		filepath.Join(filepath.Dir(pr.executableDir), "data"),
		filepath.Join(pr.configDir, "data"),
	)
}

// GetDataDir returns the first candidate holding word sources, or the first
// candidate when none do.
func (pr *PathResolver) GetDataDir(userPath string) string {
	candidates := pr.DataDirCandidates(userPath)
	for _, path := range candidates {
		if IsDataDir(path) {
			log.Debugf("Found data directory: %s", path)
			return path
		}
		log.Debugf("Data directory candidate not valid: %s", path)
	}
	return candidates[0]
}

// IsDataDir reports whether path holds chunk files or text word lists.
func IsDataDir(path string) bool {
	if stat, err := os.Stat(path); err != nil || !stat.IsDir() {
		return false
	}
	for _, pattern := range []string{"dict_*.bin", "*.txt"} {
		if matches, _ := filepath.Glob(filepath.Join(path, pattern)); len(matches) > 0 {
			return true
		}
	}
	return false
}
