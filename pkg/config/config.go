/*
Package config manages the TOML configuration of smartdict.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/smartdict/internal/utils"
	"github.com/bastiangx/smartdict/pkg/suggest"
	"github.com/charmbracelet/log"
)

const fileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Server ServerConfig `toml:"server"`
	Dict   DictConfig   `toml:"dict"`
	CLI    CliConfig    `toml:"cli"`
}

// EngineConfig holds the search bounds shared by every dictionary.
type EngineConfig struct {
	MaxWords           int    `toml:"max_words"`
	MaxWordLength      int    `toml:"max_word_length"`
	MaxAlternatives    int    `toml:"max_alternatives"`
	FallbackThreshold  int    `toml:"fallback_threshold"`
	Transparent        string `toml:"transparent"`
	ReinforceSaturates bool   `toml:"reinforce_saturates"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	MinPrefix    int  `toml:"min_prefix"`
	MaxPrefix    int  `toml:"max_prefix"`
	EnableFilter bool `toml:"enable_filter"`
	WatchConfig  bool `toml:"watch_config"`
}

// DictConfig holds the word sources and learning options.
type DictConfig struct {
	Dir           string   `toml:"dir"`
	Chunks        int      `toml:"chunks"`
	WordLists     []string `toml:"word_lists"`
	UserList      string   `toml:"user_list"`
	Learn         bool     `toml:"learn"`
	AutoAddToUser bool     `toml:"auto_add_to_user"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit    int  `toml:"default_limit"`
	Proximity       bool `toml:"proximity"`
	ShowNextLetters bool `toml:"show_next_letters"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	defaults := suggest.DefaultSettings()
	return &Config{
		Engine: EngineConfig{
			MaxWords:          defaults.MaxWords,
			MaxWordLength:     defaults.MaxWordLength,
			MaxAlternatives:   defaults.MaxAlternatives,
			FallbackThreshold: defaults.FallbackThreshold,
			Transparent:       string(defaults.Transparent),
		},
		Server: ServerConfig{
			MaxLimit:     64,
			MinPrefix:    1,
			MaxPrefix:    suggest.MaxWordLengthLimit,
			EnableFilter: true,
			WatchConfig:  true,
		},
		Dict: DictConfig{
			Dir:   "data",
			Learn: true,
		},
		CLI: CliConfig{
			DefaultLimit:    10,
			Proximity:       true,
			ShowNextLetters: true,
		},
	}
}

// Settings converts the engine section into dictionary settings.
func (c *Config) Settings() suggest.Settings {
	return suggest.Settings{
		MaxWords:           c.Engine.MaxWords,
		MaxWordLength:      c.Engine.MaxWordLength,
		MaxAlternatives:    c.Engine.MaxAlternatives,
		Transparent:        []rune(c.Engine.Transparent),
		FallbackThreshold:  c.Engine.FallbackThreshold,
		ReinforceSaturates: c.Engine.ReinforceSaturates,
	}
}

// Validate replaces out-of-range values with their defaults.
func (c *Config) Validate() {
	d := DefaultConfig()
	fix := func(name string, v *int, ok bool, def int) {
		if !ok {
			log.Warnf("Invalid %s %d, using %d", name, *v, def)
			*v = def
		}
	}
	e := &c.Engine
	fix("engine.max_words", &e.MaxWords, e.MaxWords > 0, d.Engine.MaxWords)
	fix("engine.max_word_length", &e.MaxWordLength,
		e.MaxWordLength > 0 && e.MaxWordLength <= suggest.MaxWordLengthLimit, d.Engine.MaxWordLength)
	fix("engine.max_alternatives", &e.MaxAlternatives, e.MaxAlternatives > 0, d.Engine.MaxAlternatives)
	fix("engine.fallback_threshold", &e.FallbackThreshold, e.FallbackThreshold >= 0, d.Engine.FallbackThreshold)

	s := &c.Server
	fix("server.max_limit", &s.MaxLimit, s.MaxLimit > 0, d.Server.MaxLimit)
	fix("server.min_prefix", &s.MinPrefix, s.MinPrefix >= 0, d.Server.MinPrefix)
	fix("server.max_prefix", &s.MaxPrefix, s.MaxPrefix >= s.MinPrefix, d.Server.MaxPrefix)
	fix("dict.chunks", &c.Dict.Chunks, c.Dict.Chunks >= 0, d.Dict.Chunks)
	fix("cli.default_limit", &c.CLI.DefaultLimit, c.CLI.DefaultLimit > 0, d.CLI.DefaultLimit)
}

// GetConfigDir returns the config directory with fallback priority:
// 1. the platform config dir
// 2. ~/Library/Application Support/ (macOS)
// 3. the executable dir
func GetConfigDir() (string, error) {
	pr, err := utils.NewPathResolver()
	if err == nil {
		if res := utils.CheckDirStatus(pr.ConfigDir()); res.Writable {
			return pr.ConfigDir(), nil
		}
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		macOSPath := filepath.Join(homeDir, "Library", "Application Support", "smartdict")
		if res := utils.CheckDirStatus(macOSPath); res.Writable {
			return macOSPath, nil
		}
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, fileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from the -config flag
// 2. Default path: [UserConfigDir]/smartdict/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customPath string) (*Config, string, error) {
	if customPath != "" {
		if _, statErr := os.Stat(customPath); statErr == nil {
			cfg, err := LoadConfig(customPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customPath)
				return cfg, customPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	cfg, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return cfg, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		return nil, err
	}
	if !utils.FileExists(configPath) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			return nil, err
		}
		log.Debugf("Created default config file at: %s", configPath)
		return cfg, nil
	}
	return LoadConfig(configPath)
}

// LoadConfig reads a TOML file over the defaults. A file that fails to
// decode as a whole is salvaged key by key.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	unknown, err := utils.LoadTOMLFile(configPath, cfg)
	if err != nil {
		cfg, err = tryPartialParse(configPath)
		if err != nil {
			return nil, err
		}
	}
	for _, key := range unknown {
		log.Warnf("Unknown config key %s in %s", key, configPath)
	}
	cfg.Validate()
	return cfg, nil
}

// tryPartialParse keeps every well-typed key of a file that failed strict
// decoding. A file that is not TOML at all yields the defaults.
func tryPartialParse(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	doc, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return cfg, nil
	}

	if s, ok := utils.ExtractSection(doc, "engine"); ok {
		extractEngineConfig(s, &cfg.Engine)
	}
	if s, ok := utils.ExtractSection(doc, "server"); ok {
		extractServerConfig(s, &cfg.Server)
	}
	if s, ok := utils.ExtractSection(doc, "dict"); ok {
		extractDictConfig(s, &cfg.Dict)
	}
	if s, ok := utils.ExtractSection(doc, "cli"); ok {
		extractCliConfig(s, &cfg.CLI)
	}
	return cfg, nil
}

func setInt(s utils.Section, key string, dst *int) {
	if v, ok := s.Int(key); ok {
		*dst = v
	}
}

func setBool(s utils.Section, key string, dst *bool) {
	if v, ok := s.Bool(key); ok {
		*dst = v
	}
}

func setString(s utils.Section, key string, dst *string) {
	if v, ok := s.String(key); ok {
		*dst = v
	}
}

func extractEngineConfig(s utils.Section, e *EngineConfig) {
	setInt(s, "max_words", &e.MaxWords)
	setInt(s, "max_word_length", &e.MaxWordLength)
	setInt(s, "max_alternatives", &e.MaxAlternatives)
	setInt(s, "fallback_threshold", &e.FallbackThreshold)
	setString(s, "transparent", &e.Transparent)
	setBool(s, "reinforce_saturates", &e.ReinforceSaturates)
}

func extractServerConfig(s utils.Section, server *ServerConfig) {
	setInt(s, "max_limit", &server.MaxLimit)
	setInt(s, "min_prefix", &server.MinPrefix)
	setInt(s, "max_prefix", &server.MaxPrefix)
	setBool(s, "enable_filter", &server.EnableFilter)
	setBool(s, "watch_config", &server.WatchConfig)
}

func extractDictConfig(s utils.Section, dict *DictConfig) {
	setString(s, "dir", &dict.Dir)
	setInt(s, "chunks", &dict.Chunks)
	if v, ok := s.Strings("word_lists"); ok {
		dict.WordLists = v
	}
	setString(s, "user_list", &dict.UserList)
	setBool(s, "learn", &dict.Learn)
	setBool(s, "auto_add_to_user", &dict.AutoAddToUser)
}

func extractCliConfig(s utils.Section, cli *CliConfig) {
	setInt(s, "default_limit", &cli.DefaultLimit)
	setBool(s, "proximity", &cli.Proximity)
	setBool(s, "show_next_letters", &cli.ShowNextLetters)
}

// RebuildConfigFile force creates a new config.toml at the default path
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(cfg *Config, configPath string) error {
	return utils.SaveTOMLFile(cfg, configPath)
}

// Update changes the given values and saves the config to configPath.
// Nil arguments are left unchanged.
func (c *Config) Update(configPath string, maxLimit, maxWords *int, reinforceSaturates *bool) error {
	if maxLimit != nil {
		c.Server.MaxLimit = *maxLimit
	}
	if maxWords != nil {
		c.Engine.MaxWords = *maxWords
	}
	if reinforceSaturates != nil {
		c.Engine.ReinforceSaturates = *reinforceSaturates
	}
	c.Validate()
	if configPath == "" {
		return nil
	}
	return SaveConfig(c, configPath)
}
