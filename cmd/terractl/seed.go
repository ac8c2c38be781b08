package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/terra-energy/inspecciones/internal/services/checklists"
)

var seedChecklist string

// seedCmd loads demo data for a local installation
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo client, equipment and approved request",
	Long: `Create a demo client with one piece of equipment, a job type and an
approved inspection request. With --checklist the given YAML definition is
published for the new job type.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var def *checklists.Definition
		if seedChecklist != "" {
			f, err := os.Open(seedChecklist)
			if err != nil {
				return err
			}
			def, err = checklists.DecodeYAML(f)
			f.Close()
			if err != nil {
				return err
			}
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		sol, err := db.SeedDemo(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cliente          %s\n", sol.ClienteID)
		fmt.Fprintf(out, "equipo           %s\n", sol.EquipoID)
		fmt.Fprintf(out, "tipo inspección  %s\n", sol.TipoInspeccionID)
		fmt.Fprintf(out, "solicitud        %s (aprobada)\n", sol.ID)

		if def != nil {
			def.TipoInspeccionID = sol.TipoInspeccionID
			c, _, err := checklists.New(db, logger).Publish(cmd.Context(), def)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "checklist        %s %s (%s)\n", c.Codigo, c.Version, c.ID)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedChecklist, "checklist", "", "YAML checklist definition to publish for the demo job type")
}
