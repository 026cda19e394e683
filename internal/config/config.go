package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type AudioConfig struct {
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	FrameDurationMS int    `yaml:"frame_duration_ms"`
	Device          string `yaml:"device"`
}

type CaptureConfig struct {
	SilenceThreshold float64 `yaml:"silence_threshold"`
	SilenceStopMS    int     `yaml:"silence_stop_ms"`
	MaxSessionMS     int     `yaml:"max_session_ms"`
}

type HotkeyConfig struct {
	Mode    string `yaml:"mode"` // terminal, exec, none
	StopKey string `yaml:"stop_key"`
	Command string `yaml:"command"`
}

type STTConfig struct {
	Mode      string `yaml:"mode"` // native, exec, mock
	ModelPath string `yaml:"model_path"`
	ModelName string `yaml:"model_name"`
	Command   string `yaml:"command"`
	Language  string `yaml:"language"`
}

type InjectConfig struct {
	Mode    string `yaml:"mode"` // exec, clipboard, mock
	Command string `yaml:"command"`
}

type HistoryConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

type TelemetryConfig struct {
	LogLevel    string `yaml:"log_level"`
	TraceStdout bool   `yaml:"trace_stdout"`
}

type Config struct {
	AppName   string          `yaml:"app_name"`
	Audio     AudioConfig     `yaml:"audio"`
	Capture   CaptureConfig   `yaml:"capture"`
	Hotkey    HotkeyConfig    `yaml:"hotkey"`
	STT       STTConfig       `yaml:"stt"`
	Inject    InjectConfig    `yaml:"inject"`
	History   HistoryConfig   `yaml:"history"`
	Notify    NotifyConfig    `yaml:"notify"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

func Default() Config {
	return Config{
		AppName: "murmur",
		Audio: AudioConfig{
			SampleRate:      16000,
			Channels:        1,
			FrameDurationMS: 50,
		},
		Capture: CaptureConfig{
			SilenceThreshold: 0.002,
			SilenceStopMS:    1500,
			MaxSessionMS:     120000,
		},
		Hotkey: HotkeyConfig{
			Mode:    "terminal",
			StopKey: "esc",
		},
		STT: STTConfig{
			Mode:      "native",
			ModelName: "small",
			Language:  "en",
		},
		Inject: InjectConfig{
			Mode:    "exec",
			Command: "xdotool type --delay 1",
		},
		History: HistoryConfig{
			Path:          "./data/murmur-history.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
		Notify: NotifyConfig{
			Enabled: false,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			TraceStdout: false,
		},
	}
}

// Load reads the YAML config at path (if non-empty), applies MURMUR_* env
// overrides on top, and validates the result. Defaults alone are a runnable
// config; a missing file is an error only when a path was explicitly given.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.AppName, "MURMUR_APP_NAME")
	overrideInt(&cfg.Audio.SampleRate, "MURMUR_AUDIO_SAMPLE_RATE")
	overrideInt(&cfg.Audio.Channels, "MURMUR_AUDIO_CHANNELS")
	overrideInt(&cfg.Audio.FrameDurationMS, "MURMUR_AUDIO_FRAME_DURATION_MS")
	overrideString(&cfg.Audio.Device, "MURMUR_AUDIO_DEVICE")
	overrideFloat(&cfg.Capture.SilenceThreshold, "MURMUR_CAPTURE_SILENCE_THRESHOLD")
	overrideInt(&cfg.Capture.SilenceStopMS, "MURMUR_CAPTURE_SILENCE_STOP_MS")
	overrideInt(&cfg.Capture.MaxSessionMS, "MURMUR_CAPTURE_MAX_SESSION_MS")
	overrideString(&cfg.Hotkey.Mode, "MURMUR_HOTKEY_MODE")
	overrideString(&cfg.Hotkey.StopKey, "MURMUR_HOTKEY_STOP_KEY")
	overrideString(&cfg.Hotkey.Command, "MURMUR_HOTKEY_COMMAND")
	overrideString(&cfg.STT.Mode, "MURMUR_STT_MODE")
	overrideString(&cfg.STT.ModelPath, "MURMUR_STT_MODEL_PATH")
	overrideString(&cfg.STT.ModelName, "MURMUR_STT_MODEL_NAME")
	overrideString(&cfg.STT.Command, "MURMUR_STT_COMMAND")
	overrideString(&cfg.STT.Language, "MURMUR_STT_LANGUAGE")
	overrideString(&cfg.Inject.Mode, "MURMUR_INJECT_MODE")
	overrideString(&cfg.Inject.Command, "MURMUR_INJECT_COMMAND")
	overrideString(&cfg.History.Path, "MURMUR_HISTORY_PATH")
	overrideString(&cfg.History.RetentionMode, "MURMUR_HISTORY_RETENTION_MODE")
	overrideInt(&cfg.History.RetentionDays, "MURMUR_HISTORY_RETENTION_DAYS")
	overrideInt(&cfg.History.MaxSessions, "MURMUR_HISTORY_MAX_SESSIONS")
	overrideBool(&cfg.History.VacuumOnStart, "MURMUR_HISTORY_VACUUM_ON_START")
	overrideBool(&cfg.Notify.Enabled, "MURMUR_NOTIFY_ENABLED")
	overrideString(&cfg.Telemetry.LogLevel, "MURMUR_TELEMETRY_LOG_LEVEL")
	overrideBool(&cfg.Telemetry.TraceStdout, "MURMUR_TELEMETRY_TRACE_STDOUT")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.AppName == "" {
		return errors.New("app_name must not be empty")
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.Channels != 1 {
		return errors.New("audio.channels must be 1 (mono capture only)")
	}
	if cfg.Audio.FrameDurationMS < 10 || cfg.Audio.FrameDurationMS > 500 {
		return errors.New("audio.frame_duration_ms must be between 10 and 500")
	}
	if cfg.Capture.SilenceThreshold < 0 || cfg.Capture.SilenceThreshold >= 1 {
		return errors.New("capture.silence_threshold must be in [0, 1)")
	}
	if cfg.Capture.SilenceStopMS <= 0 {
		return errors.New("capture.silence_stop_ms must be positive")
	}
	if cfg.Capture.MaxSessionMS <= 0 {
		return errors.New("capture.max_session_ms must be positive")
	}
	if cfg.Capture.MaxSessionMS < cfg.Capture.SilenceStopMS {
		return errors.New("capture.max_session_ms must be >= capture.silence_stop_ms")
	}
	switch cfg.Hotkey.Mode {
	case "terminal", "exec", "none":
	default:
		return errors.New("hotkey.mode must be one of terminal|exec|none")
	}
	if cfg.Hotkey.Mode == "exec" && cfg.Hotkey.Command == "" {
		return errors.New("hotkey.command must be set when mode=exec")
	}
	if cfg.Hotkey.Mode == "terminal" && cfg.Hotkey.StopKey == "" {
		return errors.New("hotkey.stop_key must not be empty when mode=terminal")
	}
	switch cfg.STT.Mode {
	case "native", "exec", "mock":
	default:
		return errors.New("stt.mode must be one of native|exec|mock")
	}
	if cfg.STT.Mode == "exec" && cfg.STT.Command == "" {
		return errors.New("stt.command must be set when mode=exec")
	}
	if cfg.STT.Mode == "native" && cfg.STT.ModelPath == "" && cfg.STT.ModelName == "" {
		return errors.New("stt.model_path or stt.model_name must be set when mode=native")
	}
	switch cfg.Inject.Mode {
	case "exec", "clipboard", "mock":
	default:
		return errors.New("inject.mode must be one of exec|clipboard|mock")
	}
	if cfg.Inject.Mode == "exec" && cfg.Inject.Command == "" {
		return errors.New("inject.command must be set when mode=exec")
	}
	switch cfg.History.RetentionMode {
	case "ephemeral", "session", "persistent":
	default:
		return errors.New("history.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.History.RetentionMode != "ephemeral" && cfg.History.Path == "" {
		return errors.New("history.path must not be empty")
	}
	if cfg.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	return nil
}
