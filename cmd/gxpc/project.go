package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gxpc/internal/config"
	"gxpc/internal/diag"
	"gxpc/internal/driver"
	"gxpc/internal/observ"
	"gxpc/internal/schema"
	"gxpc/internal/source"
)

// errDiagnostics ends a command with a non-zero status after its output has
// already told the user why.
var errDiagnostics = errors.New("diagnostics reported errors")

func errInvalidFlag(name, value, expected string) error {
	return fmt.Errorf("invalid --%s value %q (expected %s)", name, value, expected)
}

// loadProject reads --config or searches for the project file upward from
// the working directory. A missing project file is not an error.
func loadProject(cmd *cobra.Command) (*config.Project, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	p, err := config.Discover(wd)
	if errors.Is(err, config.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

type checkSetup struct {
	project *config.Project
	paths   []string
	baseDir string
	policy  diag.DefaultPolicy
	opts    driver.Options
}

// prepareCheck turns the project file and the persistent flags into driver
// options. Explicit paths win over the project's sources.
func prepareCheck(cmd *cobra.Command, args []string, timer *observ.Timer) (*checkSetup, error) {
	project, err := loadProject(cmd)
	if err != nil {
		return nil, err
	}
	flags := cmd.Root().PersistentFlags()
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return nil, err
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, err
	}

	s := &checkSetup{project: project, paths: args}
	reg := schema.Builtin()
	policy := diag.DefaultPolicy{}
	if project != nil {
		if reg, err = project.Registry(); err != nil {
			return nil, err
		}
		policy = project.Policy()
		if len(s.paths) == 0 {
			s.paths = project.Sources
		}
		s.baseDir = project.Root
	}
	if len(s.paths) == 0 {
		s.paths = []string{"."}
	}
	if s.baseDir == "" {
		if s.baseDir, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	s.baseDir = filepath.Clean(s.baseDir)

	var cache *driver.DiskCache
	if !noCache {
		cache, err = driver.OpenDiskCache("gxpc")
		if err != nil {
			// без кэша всё равно можно работать
			fmt.Fprintf(cmd.ErrOrStderr(), "gxpc: cache disabled: %v\n", err)
			cache = nil
		}
	}
	s.policy = policy
	s.opts = driver.Options{
		Registry:  reg,
		Policy:    policy,
		Jobs:      jobs,
		Cache:     cache,
		Files:     source.NewFileSetWithBase(s.baseDir),
		Timer:     timer,
		CrashDump: cmd.ErrOrStderr(),
	}
	return s, nil
}

// runPlain runs the driver without the progress view.
func runPlain(cmd *cobra.Command, s *checkSetup) (*driver.Report, error) {
	return driver.Check(cmd.Context(), s.paths, s.opts)
}
