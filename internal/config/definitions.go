package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/harborloop/settingsd/internal/settings"
)

// definitionSpec is the YAML shape of one setting definition.
type definitionSpec struct {
	Key         string   `yaml:"key"`
	Type        string   `yaml:"type"`
	Section     string   `yaml:"section"`
	Default     string   `yaml:"default"`
	Visible     *bool    `yaml:"visible"`
	Permission  string   `yaml:"permission"`
	Description string   `yaml:"description"`
	Options     []string `yaml:"options"`
}

type definitionFile struct {
	Settings []definitionSpec `yaml:"settings"`
}

// LoadDefinitions parses a YAML definitions file. Defaults are given in
// string form and cast through the declared type, the same path stored
// values take.
func LoadDefinitions(path string) ([]settings.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}

	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}

	defs := make([]settings.Definition, 0, len(file.Settings))
	for _, spec := range file.Settings {
		if spec.Key == "" {
			return nil, fmt.Errorf("definition with empty key in %s", path)
		}
		vt, ok := settings.TypeByName(spec.Type)
		if !ok {
			return nil, fmt.Errorf("definition %q: unknown type %q", spec.Key, spec.Type)
		}
		visible := true
		if spec.Visible != nil {
			visible = *spec.Visible
		}
		defs = append(defs, settings.Definition{
			Key:         spec.Key,
			Type:        vt,
			Section:     spec.Section,
			Visible:     visible,
			Permission:  spec.Permission,
			Description: spec.Description,
			Options:     spec.Options,
			Default:     vt.Cast(spec.Default),
		})
	}
	return defs, nil
}

// DefinitionWatcher re-registers definitions when the file changes.
// Registration is an idempotent upsert, so reloading the whole file on
// every change is safe.
type DefinitionWatcher struct {
	path     string
	registry *settings.Registry
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	stopCh   chan struct{}
	debounce time.Duration
}

// NewDefinitionWatcher watches the directory containing path. Watching the
// directory instead of the file survives editors and config-map updaters
// that replace the file by rename.
func NewDefinitionWatcher(path string, registry *settings.Registry, logger *zap.Logger) (*DefinitionWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &DefinitionWatcher{
		path:     path,
		registry: registry,
		watcher:  watcher,
		logger:   logger,
		stopCh:   make(chan struct{}),
		debounce: 200 * time.Millisecond,
	}, nil
}

// Start loads the file once, then reloads on change until Stop.
func (w *DefinitionWatcher) Start() error {
	if err := w.reload(); err != nil {
		return err
	}
	go w.loop()
	return nil
}

func (w *DefinitionWatcher) loop() {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Coalesce bursts of events into a single reload
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			if err := w.reload(); err != nil {
				w.logger.Warn("Definitions reload failed, keeping previous registrations",
					zap.String("path", w.path),
					zap.Error(err),
				)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Definitions watcher error", zap.Error(err))
		}
	}
}

func (w *DefinitionWatcher) reload() error {
	defs, err := LoadDefinitions(w.path)
	if err != nil {
		return err
	}
	for _, def := range defs {
		w.registry.Register(def)
	}
	w.logger.Info("Loaded setting definitions",
		zap.String("path", w.path),
		zap.Int("count", len(defs)),
	)
	return nil
}

// Stop ends watching. Safe to call once.
func (w *DefinitionWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}
