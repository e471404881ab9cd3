// Copyright (c) 2025 BVK Chaitanya

package envfile

import (
	"fmt"
	"os"
	"regexp"
)

type Option interface {
	apply(*options) error
}

type optionFunc func(*options) error

func (v optionFunc) apply(opts *options) error {
	return v(opts)
}

var variableNameRe = regexp.MustCompile("^[a-zA-Z][0-9a-zA-Z_]*$")

// SearchCurrentDir looks for the env file in the current directory instead
// of the home directory. When searchParentDirs is true, ancestor directories
// up to the root are also searched and the first file found wins.
func SearchCurrentDir(searchParentDirs bool) Option {
	return optionFunc(func(opts *options) error {
		opts.searchCurrentDirectory = true
		opts.scanParentDirectories = searchParentDirs
		return nil
	})
}

// VariableNamePrefix prepends the given prefix to every variable name
// defined in the env file.
func VariableNamePrefix(prefix string) Option {
	return optionFunc(func(opts *options) error {
		if !variableNameRe.MatchString(prefix) {
			return fmt.Errorf("variable name prefix has invalid characters: %w", os.ErrInvalid)
		}
		opts.variableNamePrefix = prefix
		return nil
	})
}

// OverwriteIfExists controls whether values from the env file replace
// environment variables that already have a non-empty value.
func OverwriteIfExists(overwrite bool) Option {
	return optionFunc(func(opts *options) error {
		opts.overwriteIfExists = overwrite
		return nil
	})
}
