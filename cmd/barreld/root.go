package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Kushal-kothari/barrel-platform/config"
	"github.com/Kushal-kothari/barrel-platform/logger"
	"github.com/Kushal-kothari/barrel-platform/store"
	_ "github.com/Kushal-kothari/barrel-platform/store/memkv"
	"github.com/Kushal-kothari/barrel-platform/supervisor"
)

// fileConfig is the on-disk shape of the --config YAML: a list of
// independently-supervised stores, each declared as a config.Obj.
type fileConfig struct {
	Stores []map[string]interface{} `yaml:"stores"`
}

// app holds the supervisors built from --config, keyed by store name.
type app struct {
	log         logger.Logger
	supervisors map[string]*supervisor.Supervisor
}

func (a *app) supervisor(name string) (*supervisor.Supervisor, error) {
	sup, ok := a.supervisors[name]
	if !ok {
		return nil, fmt.Errorf("barreld: unknown store %q", name)
	}
	return sup, nil
}

func newRootCommand() *cobra.Command {
	a := &app{log: logger.Default}

	root := &cobra.Command{
		Use:   "barreld",
		Short: "barreld drives a barrel deployment from the command line",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			v.SetEnvPrefix("BARREL")
			v.AutomaticEnv()

			path := v.GetString("config")
			cfg, err := loadFileConfig(path)
			if err != nil {
				return err
			}
			supervisors, err := buildSupervisors(cfg, a.log)
			if err != nil {
				return err
			}
			a.supervisors = supervisors
			return nil
		},
	}
	root.PersistentFlags().StringP("config", "c", "barreld.yaml", "path to the store configuration file (env BARREL_CONFIG)")

	root.AddCommand(newPutCommand(a))
	root.AddCommand(newGetCommand(a))
	root.AddCommand(newChangesCommand(a))
	root.AddCommand(newRevsDiffCommand(a))

	return root
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// No config file: a single in-memory "default" store is enough
		// to experiment with the CLI.
		return fileConfig{Stores: []map[string]interface{}{
			{"name": "default", "type": "memory"},
		}}, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("barreld: invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func buildSupervisors(cfg fileConfig, log logger.Logger) (map[string]*supervisor.Supervisor, error) {
	out := make(map[string]*supervisor.Supervisor, len(cfg.Stores))
	for _, raw := range cfg.Stores {
		obj := config.New(raw)
		name := obj.RequiredString("name")
		kv, err := store.NewKeyValue(obj)
		if err != nil {
			return nil, fmt.Errorf("barreld: store %q: %w", name, err)
		}
		out[name] = supervisor.New(store.New(kv), log.WithPrefix(fmt.Sprintf("store=%s ", name)))
	}
	return out, nil
}
