// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/freshmart/adminctl/internal/model"
)

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse and manage catalog products",
	}
	cmd.AddCommand(
		newProductsListCmd(),
		newProductsShowCmd(),
		newProductsCreateCmd(),
		newProductsEditCmd(),
		newProductsDeleteCmd(),
	)
	return cmd
}

func newProductsListCmd() *cobra.Command {
	var all, sync bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products in storefront order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if sync {
				if err := requireSession(cmd.Context(), a); err != nil {
					return err
				}
				if err := a.co.Refresh(cmd.Context()); err != nil {
					return err
				}
			} else if _, err := a.cat.Hydrate(cmd.Context()); err != nil {
				a.logger.Warn("failed to load catalog snapshot", "error", err)
			}

			products := a.cat.Enabled()
			if all {
				products = a.cat.Current()
			}
			if len(products) == 0 {
				fmt.Println("no products cached; run: adminctl refresh")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tTITLE\tPRICE\tUNIT\tENABLED")
			for _, p := range products {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%v\n",
					p.ID, p.Category, p.Title, p.Price, p.Unit, p.Enabled())
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include disabled products")
	cmd.Flags().BoolVar(&sync, "sync", false, "sync from the server before listing")
	return cmd
}

func newProductsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := a.cat.Hydrate(cmd.Context()); err != nil {
				a.logger.Warn("failed to load catalog snapshot", "error", err)
			}

			p, ok := a.cat.Find(args[0])
			if !ok {
				return fmt.Errorf("product %q not in the cached catalog; run: adminctl refresh", args[0])
			}

			fmt.Printf("ID:           %s\n", p.ID)
			fmt.Printf("Title:        %s\n", p.Title)
			fmt.Printf("Category:     %s\n", p.Category)
			fmt.Printf("Unit:         %s\n", p.Unit)
			fmt.Printf("Price:        %.2f (original %.2f)\n", p.Price, p.OriginPrice)
			fmt.Printf("Enabled:      %v\n", p.Enabled())
			fmt.Printf("Description:  %s\n", p.Description)
			fmt.Printf("Content:      %s\n", p.Content)
			fmt.Printf("Image:        %s\n", p.ImageURL)
			for i, u := range p.ImagesURL.URLs() {
				fmt.Printf("Image %d:      %s\n", i+1, u)
			}
			return nil
		},
	}
}

// draftFlags binds the product fields shared by create and edit.
type draftFlags struct {
	title       string
	category    string
	unit        string
	price       float64
	originPrice float64
	description string
	content     string
	image       string
	images      []string
	disabled    bool
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "product title")
	cmd.Flags().StringVar(&f.category, "category", "", "product category")
	cmd.Flags().StringVar(&f.unit, "unit", "", "selling unit, e.g. kg")
	cmd.Flags().Float64Var(&f.price, "price", 0, "selling price")
	cmd.Flags().Float64Var(&f.originPrice, "origin-price", 0, "original (pre-discount) price")
	cmd.Flags().StringVar(&f.description, "description", "", "short description")
	cmd.Flags().StringVar(&f.content, "content", "", "long-form content")
	cmd.Flags().StringVar(&f.image, "image", "", "main image URL")
	cmd.Flags().StringArrayVar(&f.images, "images", nil,
		fmt.Sprintf("secondary image URL, repeatable up to %d times", model.ImageSlotCount))
	cmd.Flags().BoolVar(&f.disabled, "disabled", false, "hide the product from the storefront")
}

// apply copies set flags onto the draft, leaving untouched fields alone so
// edit only changes what the operator named.
func (f *draftFlags) apply(cmd *cobra.Command, d *model.Draft) {
	flags := cmd.Flags()
	if flags.Changed("title") {
		d.Title = f.title
	}
	if flags.Changed("category") {
		d.Category = f.category
	}
	if flags.Changed("unit") {
		d.Unit = f.unit
	}
	if flags.Changed("price") {
		d.Price = f.price
	}
	if flags.Changed("origin-price") {
		d.OriginPrice = f.originPrice
	}
	if flags.Changed("description") {
		d.Description = f.description
	}
	if flags.Changed("content") {
		d.Content = f.content
	}
	if flags.Changed("image") {
		d.ImageURL = f.image
	}
	if flags.Changed("images") {
		d.ImagesURL = model.ImageSlots{}
		for i, u := range f.images {
			d.SetImage(i, u)
		}
	}
	if flags.Changed("disabled") {
		d.SetEnabled(!f.disabled)
	}
}

func newProductsCreateCmd() *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := requireSession(cmd.Context(), a); err != nil {
				return err
			}

			draft := model.NewDraft()
			flags.apply(cmd, draft)
			return a.co.SubmitUpsert(cmd.Context(), draft)
		},
	}

	flags.register(cmd)
	return cmd
}

func newProductsEditCmd() *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a product; only the named fields change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := requireSession(cmd.Context(), a); err != nil {
				return err
			}
			// Base the draft on the server's current record.
			if err := a.co.Refresh(cmd.Context()); err != nil {
				return err
			}

			existing, ok := a.cat.Find(args[0])
			if !ok {
				return fmt.Errorf("product %q not found", args[0])
			}

			draft := model.DraftFrom(existing)
			flags.apply(cmd, draft)
			return a.co.SubmitUpsert(cmd.Context(), draft)
		},
	}

	flags.register(cmd)
	return cmd
}

func newProductsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := requireSession(cmd.Context(), a); err != nil {
				return err
			}
			if _, err := a.cat.Hydrate(cmd.Context()); err != nil {
				a.logger.Warn("failed to load catalog snapshot", "error", err)
			}

			target, ok := a.cat.Find(args[0])
			if !ok {
				// Unknown locally; let the server decide.
				target = model.Product{ID: args[0], Title: args[0]}
			}

			a.co.RequestDeletion(target)
			if !yes && !a.term.Confirm(fmt.Sprintf("Delete product %q (%s)?", target.Title, target.ID)) {
				return a.co.CancelDeletion()
			}
			return a.co.ConfirmDeletion(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
