package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	app "lane-pilot/internal/application"
	"lane-pilot/internal/infrastructure/controller"
	"lane-pilot/internal/infrastructure/serialport"
	"lane-pilot/internal/infrastructure/vision"
)

// Бэкенды обработки изображения; по умолчанию vision.DefaultBackend
const (
	BackendNative = vision.BackendNative
	BackendGoCV   = vision.BackendGoCV
)

// Стратегии расчёта угла
const (
	PathfinderCurveFit = "curvefit"
	PathfinderHough    = "hough"
)

// Pipeline статическая конфигурация конвейера
type Pipeline struct {
	Binarizer vision.BinarizerConfig
	Rectifier vision.RectifierConfig
	Fitter    app.FitterConfig
	Geometry  app.GeometryConfig
	Drive     app.PipelineConfig
	Angle     controller.AngleMapping
	KeepState bool // разрешить слежение за прошлой аппроксимацией
}

// DefaultPipeline значения, подобранные на трассе
func DefaultPipeline() Pipeline {
	return Pipeline{
		Binarizer: vision.DefaultBinarizerConfig(),
		Rectifier: vision.DefaultRectifierConfig(),
		Fitter:    app.DefaultFitterConfig(),
		Geometry:  app.DefaultGeometryConfig(),
		Drive:     app.DefaultPipelineConfig(),
		Angle:     controller.DefaultAngleMapping(),
		KeepState: true,
	}
}

type Config struct {
	TelegramToken string

	SerialPort   string
	Serial       serialport.PortOptions
	PollInterval time.Duration

	CameraDevice   string
	Backend        string
	Pathfinder     string
	Simulate       bool
	SimulateFrames int

	Pipeline Pipeline

	backendFromEnv bool // VISION_BACKEND задан явно
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		SerialPort:    getEnv("SERIAL_PORT", "/dev/ttyACM0"),
		CameraDevice:  getEnv("CAMERA_DEVICE", "0"),
		Backend:       strings.ToLower(getEnv("VISION_BACKEND", vision.DefaultBackend)),
		Pathfinder:    strings.ToLower(getEnv("PATHFINDER", PathfinderCurveFit)),
		Serial:        serialport.DefaultPortOptions(),
		Pipeline:      DefaultPipeline(),
	}
	cfg.backendFromEnv = os.Getenv("VISION_BACKEND") != ""

	var err error
	if cfg.Serial.BaudRate, err = getEnvInt("SERIAL_BAUD", cfg.Serial.BaudRate); err != nil {
		return nil, err
	}
	if cfg.Serial.DataBits, err = getEnvInt("SERIAL_DATA_BITS", cfg.Serial.DataBits); err != nil {
		return nil, err
	}
	if cfg.Serial.StopBits, err = getEnvInt("SERIAL_STOP_BITS", cfg.Serial.StopBits); err != nil {
		return nil, err
	}
	cfg.Serial.Parity = getEnv("SERIAL_PARITY", cfg.Serial.Parity)
	if cfg.PollInterval, err = getEnvDuration("SERIAL_POLL_INTERVAL", 50*time.Millisecond); err != nil {
		return nil, err
	}

	if cfg.Pipeline.Drive.Speed, err = getEnvInt("DRIVE_SPEED", cfg.Pipeline.Drive.Speed); err != nil {
		return nil, err
	}
	if cfg.Pipeline.KeepState, err = getEnvBool("KEEP_STATE", cfg.Pipeline.KeepState); err != nil {
		return nil, err
	}
	simulate, err := getEnvBool("SIMULATE", false)
	if err != nil {
		return nil, err
	}
	if simulate {
		cfg.EnableSimulation()
	}
	if cfg.SimulateFrames, err = getEnvInt("SIMULATE_FRAMES", 300); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnableSimulation включает прогон по синтетической дороге.
// Без явного VISION_BACKEND симуляция идёт на собственной реализации, если не выбран hough.
func (c *Config) EnableSimulation() {
	c.Simulate = true
	if !c.backendFromEnv && c.Pathfinder != PathfinderHough {
		c.Backend = BackendNative
	}
}

// Validate проверяет значения, которые нельзя исправить подстановкой по умолчанию
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNative, BackendGoCV:
	default:
		return fmt.Errorf("unknown VISION_BACKEND %q: expected %s or %s", c.Backend, BackendNative, BackendGoCV)
	}
	switch c.Pathfinder {
	case PathfinderCurveFit, PathfinderHough:
	default:
		return fmt.Errorf("unknown PATHFINDER %q: expected %s or %s", c.Pathfinder, PathfinderCurveFit, PathfinderHough)
	}
	if c.Pathfinder == PathfinderHough && c.Backend != BackendGoCV {
		return fmt.Errorf("PATHFINDER=%s requires VISION_BACKEND=%s", PathfinderHough, BackendGoCV)
	}
	if c.Pipeline.Drive.Speed < 0 || c.Pipeline.Drive.Speed > 999 {
		return fmt.Errorf("DRIVE_SPEED %d out of range 0..999", c.Pipeline.Drive.Speed)
	}
	if _, err := c.Serial.Normalize(); err != nil {
		return fmt.Errorf("serial options: %w", err)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("SERIAL_POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
