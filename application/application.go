package application

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/lk2023060901/normalizer-go/pkg/config"
	"github.com/lk2023060901/normalizer-go/pkg/log"
	"github.com/lk2023060901/normalizer-go/pkg/metrics"
	"github.com/lk2023060901/normalizer-go/pkg/normalizer"
	"github.com/lk2023060901/normalizer-go/pkg/serializer"
)

const (
	defaultConfigPath = "./config.yaml"
	configPathEnv     = "NORMALIZER_CONFIG_FILE_PATH"
)

// Application 持有进程级配置，并负责初始化日志、指标与 Serializer。
type Application struct {
	cfg        *config.Config
	loggers    map[string]*log.MLogger
	normalizer *normalizer.Normalizer
	serializer *serializer.Serializer

	undoMaxProcs func()
}

func New() *Application {
	return &Application{}
}

// Run 解析命令行参数（os.Args）并加载配置文件，路径优先级：
//  1. 默认：./config.yaml（不存在时只使用默认值与环境变量）
//  2. 环境变量：NORMALIZER_CONFIG_FILE_PATH
//  3. 命令行：--config <path> 或 --config=<path>
func (a *Application) Run() error {
	path, explicit, err := resolveConfigPath(os.Args[1:])
	if err != nil {
		return err
	}
	if !explicit {
		if _, statErr := os.Stat(path); statErr != nil {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	return a.Init(cfg)
}

// Init 使用已加载的配置完成初始化。
func (a *Application) Init(cfg *config.Config) error {
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}
	if err := a.initMaxProcs(); err != nil {
		return err
	}
	if cfg.Metrics.Enabled {
		metrics.Register(metrics.GetRegisterer())
	}
	return a.initSerializer()
}

// Close 释放批量 normalize 使用的协程池，并恢复 Init 之前的 GOMAXPROCS。
func (a *Application) Close() {
	if a.normalizer != nil {
		a.normalizer.Close()
	}
	if a.undoMaxProcs != nil {
		a.undoMaxProcs()
		a.undoMaxProcs = nil
	}
}

func (a *Application) Config() *config.Config {
	return a.cfg
}

// Logger 返回配置中按名称创建的 Logger，未配置的名称回退到全局 Logger。
func (a *Application) Logger(name string) *log.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &log.MLogger{Logger: log.L()}
}

func (a *Application) Serializer() *serializer.Serializer {
	return a.serializer
}

// Serialize 是 Serializer().Serialize 的快捷方式。
func (a *Application) Serialize(ctx context.Context, value any, format, group string) ([]byte, error) {
	if a.serializer == nil {
		return nil, errors.New("application is not initialized")
	}
	return a.serializer.Serialize(ctx, value, format, group)
}

// resolveConfigPath 返回配置文件路径，explicit 表示路径来自环境变量或命令行。
func resolveConfigPath(args []string) (path string, explicit bool, err error) {
	path = defaultConfigPath

	if envPath := strings.TrimSpace(os.Getenv(configPathEnv)); envPath != "" {
		path, explicit = envPath, true
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return "", false, errors.New("missing value after --config")
			}
			path, explicit = args[i+1], true
			i++
			continue
		}
		if val, ok := strings.CutPrefix(arg, "--config="); ok && val != "" {
			path, explicit = val, true
		}
	}
	return path, explicit, nil
}

// initLogging 初始化全局 Logger 与按组件名配置的 Logger。
func (a *Application) initLogging() error {
	logCfg := a.cfg.Log
	logger, props, err := log.InitLogger(&logCfg)
	if err != nil {
		return errors.Wrap(err, "init global logger")
	}
	log.ReplaceGlobals(logger, props)

	if len(a.cfg.Logging) == 0 {
		return nil
	}
	a.loggers = make(map[string]*log.MLogger, len(a.cfg.Logging))
	for name, lc := range a.cfg.Logging {
		cfgCopy := lc
		logger, _, err := log.InitLogger(&cfgCopy)
		if err != nil {
			return errors.Wrapf(err, "init module logger %q", name)
		}
		a.loggers[name] = &log.MLogger{Logger: logger.With(log.FieldModule(name))}
	}
	return nil
}

// initMaxProcs 按容器 CPU 配额设置 GOMAXPROCS，BatchWorkers 为 0 时协程池容量随之变化。
func (a *Application) initMaxProcs() error {
	undo, err := maxprocs.Set(maxprocs.Logger(log.S().Infof))
	if err != nil {
		return errors.Wrap(err, "set GOMAXPROCS")
	}
	a.undoMaxProcs = undo
	return nil
}

func (a *Application) initSerializer() error {
	encoderOpts, err := a.cfg.Encoder.Options()
	if err != nil {
		return err
	}

	normalizerOpts := []normalizer.Option{normalizer.WithConfig(a.cfg.Normalizer)}
	serializerOpts := []serializer.Option{serializer.WithEncoderOptions(encoderOpts...)}
	if lg, ok := a.loggers["normalizer"]; ok {
		normalizerOpts = append(normalizerOpts, normalizer.WithLogger(lg))
	}
	if lg, ok := a.loggers["serializer"]; ok {
		serializerOpts = append(serializerOpts, serializer.WithLogger(lg))
	}

	a.normalizer = normalizer.New(normalizerOpts...)
	serializerOpts = append(serializerOpts, serializer.WithNormalizer(a.normalizer))
	a.serializer = serializer.New(serializerOpts...)
	return nil
}
