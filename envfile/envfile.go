// Copyright (c) 2025 BVK Chaitanya

// Package envfile loads environment variables from a dotenv-style file
// before command-line flag parsing.
package envfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

type options struct {
	variableNamePrefix string

	searchCurrentDirectory bool

	scanParentDirectories bool

	overwriteIfExists bool
}

// UpdateEnv updates the current process's environment with values read from
// the named env file. By default the file is looked up in the user's home
// directory; options can redirect the search to the current directory and
// its ancestors. A missing file is not an error.
//
// Values are used verbatim. No shell escaping, expansion or # comment
// handling is performed.
func UpdateEnv(filename string, opts ...Option) error {
	if strings.ContainsRune(filename, os.PathSeparator) {
		return fmt.Errorf("file name contains path separator: %w", os.ErrInvalid)
	}
	var fopts options
	for _, v := range opts {
		if err := v.apply(&fopts); err != nil {
			return err
		}
	}

	fpaths, err := searchPaths(filename, &fopts)
	if err != nil {
		return err
	}
	for _, fpath := range fpaths {
		err := applyFile(fpath, &fopts)
		if err == nil {
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// searchPaths returns candidate file locations in lookup order.
func searchPaths(filename string, fopts *options) ([]string, error) {
	var fpaths []string
	if fopts.searchCurrentDirectory {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		fpaths = append(fpaths, filepath.Join(cwd, filename))
		if fopts.scanParentDirectories {
			last, dir := cwd, filepath.Dir(cwd)
			for dir != last {
				fpaths = append(fpaths, filepath.Join(dir, filename))
				last, dir = dir, filepath.Dir(dir)
			}
		}
	}
	if len(fpaths) == 0 {
		user, err := user.Current()
		if err != nil {
			return nil, err
		}
		if len(user.HomeDir) == 0 {
			return nil, fmt.Errorf("could not determine current user's home directory")
		}
		fpaths = append(fpaths, filepath.Join(user.HomeDir, filename))
	}
	return fpaths, nil
}

func applyFile(fpath string, fopts *options) error {
	fp, err := os.Open(fpath)
	if err != nil {
		return err
	}
	defer fp.Close()

	scanner := bufio.NewScanner(fp)
	for i := 1; scanner.Scan(); i++ {
		line := string(bytes.TrimSpace(scanner.Bytes()))
		if len(line) == 0 {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid/unrecognized variable assignment on line %d: %w", i, os.ErrInvalid)
		}
		if !variableNameRe.MatchString(key) {
			return fmt.Errorf("invalid environment variable name %q on line %d: %w", key, i, os.ErrInvalid)
		}
		key = fopts.variableNamePrefix + key
		if len(os.Getenv(key)) != 0 && !fopts.overwriteIfExists {
			continue
		}
		os.Setenv(key, value)
	}
	return scanner.Err()
}
