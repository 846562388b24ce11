package cli

import (
	"fmt"
	"os"

	"butterfly/internal/models"

	"github.com/spf13/cobra"
)

// NewBookingsCommand groups booking administration.
func NewBookingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List, look up and decide bookings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List bookings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bookings, err := rootOpts.client().ListBookings(cmd.Context())
			if err != nil {
				return err
			}
			return printBookings(cmd.OutOrStdout(), rootOpts.Format, bookings)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <reference>",
		Short: "Look up a booking by its reference code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			booking, err := rootOpts.client().FindBooking(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printBooking(cmd.OutOrStdout(), rootOpts.Format, booking)
		},
	})

	cmd.AddCommand(newBookingsCreateCommand(rootOpts))

	var notes string
	status := &cobra.Command{
		Use:   "status <id> <pending|confirmed|rejected>",
		Short: "Change the status of a booking",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			booking, err := rootOpts.client().UpdateStatus(cmd.Context(), models.StatusUpdate{
				ID:         args[0],
				Status:     args[1],
				AdminNotes: notes,
			})
			if err != nil {
				return err
			}
			return printBooking(cmd.OutOrStdout(), rootOpts.Format, booking)
		},
	}
	status.Flags().StringVar(&notes, "notes", "", "admin notes recorded in the server log")
	cmd.AddCommand(status)

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Download all bookings as an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := rootOpts.client().ExportBookings(cmd.Context(), f); err != nil {
				f.Close()
				_ = os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", output)
			return nil
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "bookings.xlsx", "output file")
	cmd.AddCommand(export)

	return cmd
}

// newBookingsCreateCommand records a booking taken over the phone.
func newBookingsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var in models.BookingInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a booking on behalf of a guest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rootOpts.client().CreateBooking(cmd.Context(), in)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", resp.Message, resp.Reference)
			if resp.Booking == nil {
				return nil
			}
			return printBooking(cmd.OutOrStdout(), rootOpts.Format, resp.Booking)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&in.Name, "name", "", "guest name")
	fs.StringVar(&in.Phone, "phone", "", "guest phone")
	fs.StringVar(&in.Email, "email", "", "guest email")
	fs.StringVar(&in.Date, "date", "", "booking date, YYYY-MM-DD")
	fs.StringVar(&in.Time, "time", "", "booking time, HH:MM")
	fs.StringVar(&in.Guests, "guests", "", "number of guests")
	fs.StringVar(&in.Type, "type", models.BookingTypeTable, "table or party")
	fs.StringVar(&in.ContactMethod, "contact", "", "sms or whatsapp")
	fs.StringVar(&in.SpecialRequests, "requests", "", "special requests")
	return cmd
}
