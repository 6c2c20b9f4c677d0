package main

import (
	"fmt"
	"io"
	"os"

	"github.com/odvcencio/objgraph/pkg/object"
	"github.com/odvcencio/objgraph/pkg/repo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// globalOptions are the persistent root flags shared by subcommands.
type globalOptions struct {
	configPath string
	logLevel   string
}

func (o *globalOptions) loadConfig() (repo.Config, error) {
	cfg := repo.DefaultConfig()
	if o != nil && o.configPath != "" {
		var err error
		cfg, err = repo.LoadConfig(o.configPath)
		if err != nil {
			return repo.Config{}, err
		}
	}
	if o != nil && o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return repo.Config{}, err
		}
	}
	return cfg, nil
}

func newLogger(cfg repo.Config, w io.Writer) (*zap.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core), nil
}

// openRepo builds an in-memory repository from the root flags, logging to
// the command's stderr.
func openRepo(cmd *cobra.Command, opts *globalOptions) (*repo.Repo, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return repo.New(cfg, logger)
}

// commitDirs snapshots each directory in order and commits it on top of
// the previous one. It returns the commit digests.
func commitDirs(r *repo.Repo, dirs []string, message string) ([]object.Hash, error) {
	commits := make([]object.Hash, 0, len(dirs))
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s: not a directory", dir)
		}
		tree, err := r.WriteSnapshot(os.DirFS(dir))
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", dir, err)
		}
		msg := message
		if msg == "" {
			msg = "snapshot " + dir
		}
		h, err := r.Commit(tree, msg)
		if err != nil {
			return nil, err
		}
		commits = append(commits, h)
	}
	return commits, nil
}
