// Package configfile binds optional YAML config files to structs.
package configfile

import (
	"os"
	"reflect"

	gconfig "github.com/gookit/config/v2"
	gyaml "github.com/gookit/config/v2/yaml"
	"github.com/gookit/goutil/envutil"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Load reads the YAML file into dst using mapstructure tags. ${VAR} and
// ${VAR | default} references in string values are expanded from the environment,
// a bare $ is kept as is. A missing file is not an error
// unless required is set. It reports whether the file was found.
func Load(name, path string, required bool, dst interface{}) (bool, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) && !required {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "config file %s cannot be read", path)
	}

	loader := gconfig.NewWithOptions(name,
		gconfig.ParseEnv,
		gconfig.Readonly,
		func(opts *gconfig.Options) {
			opts.DecoderConfig = &mapstructure.DecoderConfig{
				TagName:          "mapstructure",
				WeaklyTypedInput: true,
				DecodeHook: mapstructure.ComposeDecodeHookFunc(
					expandEnvHookFunc(),
					mapstructure.StringToTimeDurationHookFunc(),
				),
			}
		},
	)
	loader.AddDriver(gyaml.Driver)

	err = loader.LoadFiles(path)
	if err != nil {
		return true, errors.Wrap(err, "failed to load config")
	}

	err = loader.BindStruct("", dst)
	if err != nil {
		return true, errors.Wrap(err, "config binding failed")
	}

	return true, nil
}

func expandEnvHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, _ reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}

		return envutil.ParseValue(data.(string)), nil
	}
}
