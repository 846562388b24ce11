package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"butterfly/internal/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBookings(w io.Writer, format string, bookings []models.Booking) error {
	if format == "json" {
		return writeJSON(w, bookings)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREFERENCE\tNAME\tPHONE\tDATE\tTIME\tGUESTS\tTYPE\tSTATUS")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Reference, b.Name, b.Phone, b.Date, b.Time, b.Guests, b.Type, b.Status)
	}
	return tw.Flush()
}

func printBooking(w io.Writer, format string, b *models.Booking) error {
	if format == "json" {
		return writeJSON(w, b)
	}
	return printBookings(w, format, []models.Booking{*b})
}

func printMenu(w io.Writer, format string, items []models.MenuItem) error {
	if format == "json" {
		return writeJSON(w, items)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tAVAILABLE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\n", it.ID, it.Name, it.Category, it.Price, it.Available)
	}
	return tw.Flush()
}

func printMenuItem(w io.Writer, format string, item *models.MenuItem) error {
	if format == "json" {
		return writeJSON(w, item)
	}
	return printMenu(w, format, []models.MenuItem{*item})
}
