package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v2"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/util/cliflags"
)

var (
	ErrUnsupportedFile = errors.New("unsupported config file")
	ErrInvalidConfig   = errors.New("invalid config")
)

type ParseOptions struct {
	// Cli is the cli.Context from urfave/cli
	Cli *cli.Context

	// CliMap is a map of cli flag names to config keys
	CliMap map[string]string

	// Defaults is a map of default values
	Defaults DefaultConfig

	// EnvPrefix is the prefix for env vars
	EnvPrefix string

	// FileName is the name of the configuration file to load. The parser
	// is picked by extension: .json, .yaml, .yml or .env.
	FileName string

	// Schema validates the merged configuration before unmarshalling.
	// Optional.
	Schema *gojsonschema.Schema

	// Log is the logger to use
	Log *zap.Logger
}

func Parse[C any](opt ParseOptions) (C, error) {
	var log *zap.Logger
	if opt.Log != nil {
		log = opt.Log
	} else {
		log = zap.NewNop()
	}

	var config C

	k := koanf.New(".")

	if opt.Defaults != nil {
		k.Load(confmap.Provider(map[string]any(opt.Defaults), "."), nil)
	}

	if opt.FileName != "" {
		if err := loadFile(k, opt.FileName, opt.EnvPrefix); err != nil {
			log.Error("error parsing file",
				zap.Error(err),
				zap.String("file", opt.FileName),
			)
			return config, err
		}
	}

	transformPrefixedEnv := func(s string) string {
		return transformEnv(s, opt.EnvPrefix)
	}

	if err := k.Load(env.Provider(opt.EnvPrefix, ".", transformPrefixedEnv), nil); err != nil {
		log.Error("error parsing env vars", zap.Error(err))
		return config, err
	}

	if opt.Cli != nil {
		transformFlag := func(s string) string {
			if opt.CliMap != nil {
				if name, ok := opt.CliMap[s]; ok {
					return name
				}
			}

			// replace - with _
			return strings.ReplaceAll(strings.ToLower(s), "-", "_")
		}

		if err := k.Load(cliflags.Provider(opt.Cli, ".", transformFlag), nil); err != nil {
			log.Error("error parsing cli flags", zap.Error(err))
			return config, err
		}
	}

	if opt.Schema != nil {
		if err := validate(opt.Schema, k.Raw()); err != nil {
			log.Error("error validating config", zap.Error(err))
			return config, err
		}
	}

	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "conf"}); err != nil {
		log.Error("error unmarshalling config", zap.Error(err))
		return config, err
	}

	return config, nil
}

func loadFile(k *koanf.Koanf, name, prefix string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return k.Load(file.Provider(name), json.Parser())
	case ".yaml", ".yml":
		return k.Load(file.Provider(name), yaml.Parser())
	case ".env":
		// dotenv keys follow the env var naming
		data, err := os.ReadFile(name)
		if err != nil {
			return err
		}

		vars, err := dotenv.Parser().Unmarshal(data)
		if err != nil {
			return err
		}

		flat := make(map[string]any, len(vars))
		for key, value := range vars {
			if prefix != "" && !strings.HasPrefix(key, prefix) {
				continue
			}
			flat[transformEnv(key, prefix)] = value
		}

		return k.Load(confmap.Provider(flat, "."), nil)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}
}

func validate(schema *gojsonschema.Schema, data map[string]any) error {
	res, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return err
	}

	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func transformEnv(s, prefix string) string {
	// pop prefix if it is set
	s = strings.TrimPrefix(s, prefix)
	// allow specifying nested env vars w/ __
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}
