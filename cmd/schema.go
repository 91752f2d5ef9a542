package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kamusis/pss-index/internal/descriptor"
	"github.com/kamusis/pss-index/internal/domain"
	"github.com/kamusis/pss-index/internal/index"
	"github.com/spf13/cobra"
)

// schemaTargets maps each document kind to a zero value of its Go type.
var schemaTargets = map[string]any{
	"index":      &index.Index{},
	"descriptor": &descriptor.Descriptor{},
	"registry":   &domain.Registry{},
}

var schemaCmd = &cobra.Command{
	Use:   "schema <" + strings.Join(schemaKinds(), "|") + ">",
	Short: "Print the JSON Schema of an index, descriptor or registry document",
	Long: `Print the JSON Schema that analysis workers and the scoring engine can use
to check the documents pssidx reads and writes.`,
	Args:              cobra.ExactArgs(1),
	ValidArgs:         schemaKinds(),
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE:              runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func schemaKinds() []string {
	kinds := make([]string, 0, len(schemaTargets))
	for k := range schemaTargets {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// generateSchema reflects the schema of the named document kind.
func generateSchema(kind string) (*jsonschema.Schema, error) {
	v, ok := schemaTargets[kind]
	if !ok {
		return nil, fmt.Errorf("unknown document %q (valid: %s)", kind, strings.Join(schemaKinds(), ", "))
	}
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v), nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	s, err := generateSchema(args[0])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
