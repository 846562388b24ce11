package cli

import (
	"errors"
	"fmt"

	"butterfly/internal/models"
	"butterfly/internal/seed"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewMenuCommand groups menu administration.
func NewMenuCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Inspect and edit the menu",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List menu items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := rootOpts.client().ListMenu(cmd.Context())
			if err != nil {
				return err
			}
			return printMenu(cmd.OutOrStdout(), rootOpts.Format, items)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one menu item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := rootOpts.client().GetMenuItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printMenuItem(cmd.OutOrStdout(), rootOpts.Format, item)
		},
	})

	cmd.AddCommand(newMenuCreateCommand(rootOpts))
	cmd.AddCommand(newMenuUpdateCommand(rootOpts))

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip availability of a menu item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := rootOpts.client().ToggleMenuItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printMenuItem(cmd.OutOrStdout(), rootOpts.Format, item)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a menu item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := rootOpts.client().DeleteMenuItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printMenuItem(cmd.OutOrStdout(), rootOpts.Format, item)
		},
	})

	return cmd
}

// menuFlags are shared by "menu create" and "menu update".
type menuFlags struct {
	name, description, category, image string
	price                              int64
	available, veg, spicy, signature   bool
	tags                               []string
}

func (f *menuFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "dish name")
	fs.StringVar(&f.description, "description", "", "short description")
	fs.Int64Var(&f.price, "price", 0, "price in whole currency units")
	fs.StringVar(&f.category, "category", "", "menu category")
	fs.StringVar(&f.image, "image", "", "image URL")
	fs.BoolVar(&f.available, "available", true, "item can be ordered")
	fs.BoolVar(&f.veg, "veg", false, "vegetarian")
	fs.BoolVar(&f.spicy, "spicy", false, "spicy")
	fs.BoolVar(&f.signature, "signature", false, "chef's signature dish")
	fs.StringSliceVar(&f.tags, "tags", nil, "comma separated tags")
}

func (f *menuFlags) input() models.MenuItemInput {
	return models.MenuItemInput{
		Name:        f.name,
		Description: f.description,
		Price:       f.price,
		Category:    f.category,
		Image:       f.image,
		Available:   f.available,
		IsVeg:       f.veg,
		IsSpicy:     f.spicy,
		IsSignature: f.signature,
		Tags:        f.tags,
	}
}

// patch берет только явно заданные флаги и возвращает их число
func (f *menuFlags) patch(fs *pflag.FlagSet) (models.MenuItemPatch, int) {
	var p models.MenuItemPatch
	set := 0
	fs.Visit(func(fl *pflag.Flag) {
		set++
		switch fl.Name {
		case "name":
			p.Name = &f.name
		case "description":
			p.Description = &f.description
		case "price":
			p.Price = &f.price
		case "category":
			p.Category = &f.category
		case "image":
			p.Image = &f.image
		case "available":
			p.Available = &f.available
		case "veg":
			p.IsVeg = &f.veg
		case "spicy":
			p.IsSpicy = &f.spicy
		case "signature":
			p.IsSignature = &f.signature
		case "tags":
			p.Tags = &f.tags
		default:
			set--
		}
	})
	return p, set
}

func newMenuCreateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &menuFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a menu item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := rootOpts.client().CreateMenuItem(cmd.Context(), flags.input())
			if err != nil {
				return err
			}
			return printMenuItem(cmd.OutOrStdout(), rootOpts.Format, item)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newMenuUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &menuFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a menu item; unset flags keep their values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, set := flags.patch(cmd.Flags())
			if set == 0 {
				return errors.New("nothing to update: set at least one field flag")
			}
			item, err := rootOpts.client().UpdateMenuItem(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printMenuItem(cmd.OutOrStdout(), rootOpts.Format, item)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

// NewValidateMenuCommand checks a menu seed file offline.
func NewValidateMenuCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-menu <file>",
		Short: "Validate a menu seed file without contacting the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := seed.LoadMenu(args[0])
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"valid": true, "items": len(items)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d items OK\n", args[0], len(items))
			return nil
		},
	}
}

// NewPingCommand checks that the server answers.
func NewPingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Ping the API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := rootOpts.client().Ping(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}
