package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"aqve/internal/entities"
	"aqve/internal/service"
)

func (a *App) bookingsCommand() *cobra.Command {
	cmd := requireAuth(&cobra.Command{
		Use:     "bookings",
		Aliases: []string{"booking"},
		Short:   "Manage your bookings",
	})
	cmd.AddCommand(
		a.bookingsListCommand(),
		a.bookingsShowCommand(),
		a.bookingsCreateCommand(),
		a.bookingsCancelCommand(),
		a.bookingsExtendCommand(),
		a.bookingsQRCommand(),
	)
	return cmd
}

func lotName(b entities.Booking) string {
	if b.ParkingLot != nil {
		return b.ParkingLot.Name
	}
	return b.ParkingLotID
}

func slotNumber(b entities.Booking) string {
	if b.Slot != nil {
		return b.Slot.SlotNumber
	}
	return b.SlotID
}

func (a *App) printBooking(b entities.Booking) error {
	vehicle := "-"
	if b.Vehicle != nil {
		vehicle = b.Vehicle.LicensePlate
	}
	return a.out.Fields(b,
		"ID", b.ID,
		"Lot", lotName(b),
		"Slot", slotNumber(b),
		"Vehicle", vehicle,
		"When", fmt.Sprintf("%s %s-%s", b.Date, b.StartTime, b.EndTime),
		"Hours", strconv.Itoa(b.Duration),
		"Total", money(b.TotalAmount),
		"Status", string(b.Status),
		"Payment", string(b.PaymentStatus),
	)
}

func (a *App) bookingsListCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := fetch(cmd.Context(), a.svc.Bookings.List(), entities.BookingStatus(status))
			if err != nil {
				return err
			}
			t := &table{header: []string{"ID", "LOT", "SLOT", "DATE", "TIME", "TOTAL", "STATUS", "PAYMENT"}}
			for _, b := range res.Bookings {
				t.add(b.ID, lotName(b), slotNumber(b), b.Date, b.StartTime+"-"+b.EndTime,
					money(b.TotalAmount), string(b.Status), string(b.PaymentStatus))
			}
			return a.out.Print(res, t)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, confirmed, active, completed or cancelled")
	return cmd
}

func (a *App) bookingsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := fetch(cmd.Context(), a.svc.Bookings.Detail(), args[0])
			if err != nil {
				return err
			}
			return a.printBooking(b)
		},
	}
}

func (a *App) bookingsCreateCommand() *cobra.Command {
	var (
		req    entities.CreateBookingRequest
		window entities.AvailabilityQuery
	)
	cmd := &cobra.Command{
		Use:   "create LOT_ID SLOT_ID",
		Short: "Book a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ParkingLotID, req.SlotID = args[0], args[1]
			req.Date, req.StartTime, req.Duration = window.Date, window.StartTime, window.Duration
			b, err := a.svc.Bookings.Create().Mutate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.printBooking(b)
		},
	}
	bindWindow(cmd, &window)
	cmd.Flags().StringVar(&req.VehicleID, "vehicle", "", "vehicle id")
	cmd.Flags().StringVar(&req.PaymentMethodID, "pay-with", "", `payment method id, or "wallet", to pay at once`)
	return cmd
}

func (a *App) bookingsCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.svc.Bookings.Cancel().Mutate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printBooking(b)
		},
	}
}

func (a *App) bookingsExtendCommand() *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "extend ID",
		Short: "Add hours to a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.svc.Bookings.Extend().Mutate(cmd.Context(), service.ExtendVars{ID: args[0], Hours: hours})
			if err != nil {
				return err
			}
			return a.printBooking(b)
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 1, "hours to add")
	return cmd
}

func (a *App) bookingsQRCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "qr ID",
		Short: "Print the entry code of a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.api.Bookings.QRCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.out.Fields(res, "QR code", res.QRCode)
		},
	}
}
