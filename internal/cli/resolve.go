package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rickgorman/testbed/internal/binding"
)

type resolvedContainer struct {
	Name        string                 `yaml:"name"`
	RuntimeName string                 `yaml:"runtime_name"`
	Image       string                 `yaml:"image"`
	Config      *binding.RuntimeConfig `yaml:"config"`
}

type resolvedScenario struct {
	Scenario    string              `yaml:"scenario"`
	Fingerprint string              `yaml:"fingerprint"`
	Containers  []resolvedContainer `yaml:"containers"`
}

func newResolveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Print the runtime configuration without starting anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, s, err := opts.load()
			if err != nil {
				return err
			}
			if err := s.Resolve(cmd.Context()); err != nil {
				return err
			}

			doc := resolvedScenario{Scenario: s.Name(), Fingerprint: f.Fingerprint}
			for _, c := range s.Containers() {
				doc.Containers = append(doc.Containers, resolvedContainer{
					Name:        c.Spec.Name,
					RuntimeName: c.RuntimeName,
					Image:       c.Spec.Image,
					Config:      c.Config,
				})
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
