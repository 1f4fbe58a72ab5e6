package config

import (
	"path/filepath"

	"AirCue/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// Watch 监听 .env 文件变化并重新加载可热更新的配置项。
// 非热更新项（数据库连接等）需要重启才会生效。
// onReload 在每次成功重读后被调用，传入新的配置快照。
func Watch(cfg *Config, onReload func(*Config)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(cfg.EnvFile)
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(cfg.EnvFile)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				vals, err := godotenv.Read(target)
				if err != nil {
					logger.Warn("failed to reload env file",
						logger.ErrorField(err),
						logger.String("file", target))
					continue
				}

				if lvl, ok := vals["LOG_LEVEL"]; ok && lvl != cfg.LogLevel {
					cfg.LogLevel = lvl
					logger.SetLevel(logger.LogLevel(lvl))
				}
				if onReload != nil {
					onReload(cfg)
				}
				logger.Info("config reloaded", logger.String("file", target))

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", logger.ErrorField(err))
			}
		}
	}()

	return watcher.Close, nil
}
