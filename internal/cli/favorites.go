package cli

import (
	"github.com/spf13/cobra"

	"aqve/internal/service"
)

func (a *App) favoritesCommand() *cobra.Command {
	cmd := requireAuth(&cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite parking lots",
	})

	list := &cobra.Command{
		Use:   "list",
		Short: "List favorite lots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			favs, err := fetch(cmd.Context(), a.svc.Users.Favorites(), service.NoKey{})
			if err != nil {
				return err
			}
			t := &table{header: []string{"LOT", "NAME", "ADDRESS", "HOURLY"}}
			for _, f := range favs {
				name, address, rate := "-", "-", "-"
				if f.ParkingLot != nil {
					name, address, rate = f.ParkingLot.Name, f.ParkingLot.Address, money(f.ParkingLot.HourlyRate)
				}
				t.add(f.ParkingLotID, name, address, rate)
			}
			return a.out.Print(favs, t)
		},
	}

	add := &cobra.Command{
		Use:   "add LOT_ID",
		Short: "Add a lot to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.svc.Users.AddFavorite().Mutate(cmd.Context(), args[0])
			return err
		},
	}

	remove := &cobra.Command{
		Use:     "remove LOT_ID",
		Aliases: []string{"rm"},
		Short:   "Remove a lot from favorites",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.svc.Users.RemoveFavorite().Mutate(cmd.Context(), args[0])
			return err
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
