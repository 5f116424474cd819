package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/models"
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.DateOnly)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printProducts(w io.Writer, ps []models.Product) {
	if len(ps) == 0 {
		fmt.Fprintln(w, "No products")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCONDITION\tCATEGORY\tLISTED")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, truncate(p.Name, 30), p.Condition, p.Category, formatDate(p.CreatedAt))
	}
	_ = tw.Flush()
}

func printProduct(w io.Writer, p *models.Product, owner *models.User) {
	fmt.Fprintf(w, "%s\n", p.Name)
	fmt.Fprintf(w, "  id:          %s\n", p.ID)
	fmt.Fprintf(w, "  condition:   %s\n", p.Condition)
	if p.Category != "" {
		fmt.Fprintf(w, "  category:    %s\n", p.Category)
	}
	if p.Description != "" {
		fmt.Fprintf(w, "  description: %s\n", strings.ReplaceAll(p.Description, "\n", "\n               "))
	}
	if p.Image != "" {
		fmt.Fprintf(w, "  image:       %s\n", p.Image)
	}
	for _, img := range p.Images {
		fmt.Fprintf(w, "               %s\n", img)
	}
	ownerName := p.UserID
	if owner != nil && owner.FullName != "" {
		ownerName = owner.FullName
		if owner.City != "" {
			ownerName += " (" + owner.City + ")"
		}
	}
	fmt.Fprintf(w, "  offered by:  %s\n", ownerName)
	fmt.Fprintf(w, "  listed:      %s\n", formatDate(p.CreatedAt))
}

func printUser(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "%s\n", u.FullName)
	fmt.Fprintf(w, "  email:   %s\n", u.Email)
	fmt.Fprintf(w, "  city:    %s\n", u.City)
	if u.ProfilePicture != "" {
		fmt.Fprintf(w, "  picture: %s\n", u.ProfilePicture)
	}
	fmt.Fprintf(w, "  member since %s\n", formatDate(u.CreatedAt))
}

func printWishlist(w io.Writer, entries []models.WishlistEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Your wishlist is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tIMAGE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.ID, e.Title, e.Image)
	}
	_ = tw.Flush()
}
