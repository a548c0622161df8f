package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"aqve/internal/entities"
	"aqve/internal/service"
)

func (a *App) parkingCommand() *cobra.Command {
	cmd := requireAuth(&cobra.Command{
		Use:     "parking",
		Aliases: []string{"lots"},
		Short:   "Browse parking lots",
	})
	cmd.AddCommand(
		a.parkingListCommand(),
		a.parkingShowCommand(),
		a.parkingSlotsCommand(),
		a.parkingAvailabilityCommand(),
		a.parkingNearbyCommand(),
	)
	return cmd
}

func (a *App) printLots(lots []entities.ParkingLot) error {
	t := &table{header: []string{"ID", "NAME", "CITY", "FREE", "HOURLY", "RATING"}}
	for _, l := range lots {
		t.add(l.ID, l.Name, orDash(l.City),
			fmt.Sprintf("%d/%d", l.AvailableSlots, l.TotalSlots),
			money(l.HourlyRate),
			strconv.FormatFloat(l.Rating, 'f', 1, 64))
	}
	return a.out.Print(lots, t)
}

func (a *App) parkingListCommand() *cobra.Command {
	var filter entities.ParkingFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List parking lots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lots, err := fetch(cmd.Context(), a.svc.Parking.List(), filter)
			if err != nil {
				return err
			}
			return a.printLots(lots)
		},
	}
	cmd.Flags().StringVar(&filter.City, "city", "", "only lots in this city")
	cmd.Flags().StringVar(&filter.Search, "search", "", "match name or address")
	return cmd
}

func (a *App) parkingShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one parking lot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := fetch(cmd.Context(), a.svc.Parking.Detail(), args[0])
			if err != nil {
				return err
			}
			daily := "-"
			if l.DailyRate != nil {
				daily = money(*l.DailyRate)
			}
			return a.out.Fields(l,
				"ID", l.ID,
				"Name", l.Name,
				"Address", l.Address,
				"City", orDash(l.City),
				"Free slots", fmt.Sprintf("%d of %d", l.AvailableSlots, l.TotalSlots),
				"Hourly rate", money(l.HourlyRate),
				"Daily rate", daily,
				"Hours", orDash(l.OperatingHours),
				"Phone", orDash(l.Phone),
				"Features", orDash(strings.Join(l.Features, ", ")),
			)
		},
	}
}

func (a *App) printSlots(slots []entities.ParkingSlot, v any) error {
	t := &table{header: []string{"ID", "SLOT", "FLOOR", "STATUS", "TYPE"}}
	for _, s := range slots {
		t.add(s.ID, s.SlotNumber, strconv.Itoa(s.Floor), string(s.Status), orDash(s.Type))
	}
	return a.out.Print(v, t)
}

func (a *App) parkingSlotsCommand() *cobra.Command {
	var floor int
	cmd := &cobra.Command{
		Use:   "slots LOT_ID",
		Short: "List the slots of a lot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := service.SlotsKey{
				ParkingID: args[0],
				Floor:     floor,
				OneFloor:  cmd.Flags().Changed("floor"),
			}
			slots, err := fetch(cmd.Context(), a.svc.Parking.Slots(), key)
			if err != nil {
				return err
			}
			return a.printSlots(slots, slots)
		},
	}
	cmd.Flags().IntVar(&floor, "floor", 0, "only this floor")
	return cmd
}

func bindWindow(cmd *cobra.Command, q *entities.AvailabilityQuery) {
	f := cmd.Flags()
	f.StringVar(&q.Date, "date", "", "date as YYYY-MM-DD")
	f.StringVar(&q.StartTime, "start", "", "start time as HH:MM")
	f.IntVar(&q.Duration, "hours", 1, "duration in hours")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("start")
}

func (a *App) parkingAvailabilityCommand() *cobra.Command {
	var q entities.AvailabilityQuery
	cmd := &cobra.Command{
		Use:   "availability LOT_ID",
		Short: "List slots free for a time window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := fetch(cmd.Context(), a.svc.Parking.Availability(), service.AvailabilityKey{ParkingID: args[0], Query: q})
			if err != nil {
				return err
			}
			if err := a.printSlots(res.Slots, res); err != nil {
				return err
			}
			if a.format == formatTable {
				fmt.Fprintf(cmd.OutOrStdout(), "%d available\n", res.AvailableCount)
			}
			return nil
		},
	}
	bindWindow(cmd, &q)
	return cmd
}

func (a *App) parkingNearbyCommand() *cobra.Command {
	var q entities.NearbyQuery
	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List lots around a position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			located := cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng")
			if !located {
				return fmt.Errorf("both --lat and --lng are required")
			}
			lots, err := fetch(cmd.Context(), a.svc.Parking.Nearby(), service.NearbyKey{NearbyQuery: q, Located: true})
			if err != nil {
				return err
			}
			return a.printLots(lots)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&q.Lat, "lat", 0, "latitude")
	f.Float64Var(&q.Lng, "lng", 0, "longitude")
	f.IntVar(&q.Radius, "radius", entities.DefaultNearbyRadius, "search radius in meters")
	return cmd
}
