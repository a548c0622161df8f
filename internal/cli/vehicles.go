package cli

import (
	"github.com/spf13/cobra"

	"aqve/internal/entities"
	"aqve/internal/service"
)

func (a *App) vehiclesCommand() *cobra.Command {
	cmd := requireAuth(&cobra.Command{
		Use:     "vehicles",
		Aliases: []string{"vehicle"},
		Short:   "Manage your vehicles",
	})

	list := &cobra.Command{
		Use:   "list",
		Short: "List vehicles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vehicles, err := fetch(cmd.Context(), a.svc.Users.Vehicles(), service.NoKey{})
			if err != nil {
				return err
			}
			t := &table{header: []string{"", "ID", "PLATE", "NAME", "TYPE", "COLOR"}}
			for _, v := range vehicles {
				t.add(mark(v.IsDefault), v.ID, v.LicensePlate, orDash(v.Name), string(v.Type), orDash(v.Color))
			}
			return a.out.Print(vehicles, t)
		},
	}

	var (
		req     entities.CreateVehicleRequest
		vehType string
	)
	add := &cobra.Command{
		Use:   "add PLATE",
		Short: "Register a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := entities.ParseVehicleType(vehType)
			if err != nil {
				return err
			}
			req.LicensePlate, req.Type = args[0], typ
			v, err := a.svc.Users.AddVehicle().Mutate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.out.Fields(v, "ID", v.ID, "Plate", v.LicensePlate, "Type", string(v.Type), "Default", yesNo(v.IsDefault))
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "a name for the vehicle")
	add.Flags().StringVar(&req.Color, "color", "", "color")
	add.Flags().StringVar(&vehType, "type", string(entities.VehicleCar), "car, motorcycle, truck or bus")

	remove := &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Delete a vehicle",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.svc.Users.DeleteVehicle().Mutate(cmd.Context(), args[0])
			return err
		},
	}

	setDefault := &cobra.Command{
		Use:   "default ID",
		Short: "Make a vehicle the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.svc.Users.SetDefaultVehicle().Mutate(cmd.Context(), args[0])
			return err
		},
	}

	cmd.AddCommand(list, add, remove, setDefault)
	return cmd
}
