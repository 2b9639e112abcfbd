package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"storefront-client/internal/domain"
)

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printProducts(w io.Writer, products []domain.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, money(p.Price), p.Stock)
	}
	tw.Flush()
}

func printCart(w io.Writer, c *domain.Cart) {
	if c == nil || len(c.Items) == 0 {
		fmt.Fprintln(w, "Cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tQTY\tPRICE\tSUBTOTAL")
	for _, it := range c.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", it.ProductID, it.Quantity, money(it.Price), money(it.Subtotal))
	}
	fmt.Fprintf(tw, "\t\tTOTAL\t%s\n", money(c.TotalAmount))
	tw.Flush()
}

func printOrders(w io.Writer, orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPAID\tITEMS\tTOTAL\tCREATED")
	for _, o := range orders {
		created := ""
		if !o.CreatedAt.IsZero() {
			created = o.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", o.ID, o.Status, yesNo(o.IsPaid), len(o.OrderItems), money(o.TotalPrice), created)
	}
	tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
