package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuxishi/quota-provider/internal/logs"
	"github.com/yuxishi/quota-provider/internal/provider"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the resource types this provider handles",
	Run: func(cmd *cobra.Command, args []string) {
		p := provider.New("", logs.Discard())
		provider.RegisterDefaults(p, provider.Backend{}, nil, 0, logs.Discard())
		for _, t := range p.Types() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n", t.TypeName, strings.Join(t.Properties, ", "))
		}
	},
}
