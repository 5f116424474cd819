package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/tradehub/internal/client/state"
	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/models"
)

// Conditions offered when listing a product. Free text is accepted too.
var conditions = []string{"New", "Like new", "Good", "Used"}

func (a *App) askCategory(prompt string) (string, error) {
	c, err := getSimpleText(a.reader, fmt.Sprintf("%s [%s]", prompt, strings.Join(common.Categories, ", ")), a.out)
	if err != nil {
		return "", err
	}
	if c == "" {
		return "", nil
	}
	for _, known := range common.Categories {
		if strings.EqualFold(c, known) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", c)
}

// Add lists a new product owned by the signed-in user.
func (a *App) Add(ctx context.Context) error {
	var in models.ProductInput
	var err error

	if in.Name, err = getSimpleText(a.reader, "Name", a.out); err != nil {
		return err
	}
	if in.Name == "" {
		return errors.New("name is required")
	}
	if in.Description, err = getMultiline(a.reader, "Description", a.out); err != nil {
		return err
	}
	if in.Condition, err = getSimpleText(a.reader, "Condition ["+strings.Join(conditions, ", ")+"]", a.out); err != nil {
		return err
	}
	if in.Category, err = a.askCategory("Category (empty for none)"); err != nil {
		return err
	}

	image, err := getSimpleText(a.reader, "Image file or URL (empty for none)", a.out)
	if err != nil {
		return err
	}
	if image != "" {
		if in.Image, err = a.upload(ctx, image); err != nil {
			return err
		}
	}

	p, res := a.products.Create(ctx, a.identity, in)
	if err := resultError("add product", res); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Product %s listed\n", p.ID)
	return nil
}

// List fetches the listing, optionally for one category, and prints it. On
// failure the previously cached list is printed after the error.
func (a *App) List(ctx context.Context, category string) error {
	category, err := normalizeCategory(category)
	if err != nil {
		return err
	}
	return a.fetchAndPrint(ctx, models.ProductQuery{Category: category})
}

// normalizeCategory maps user input to a known category name, ignoring case.
// An empty input and CategoryAll pass through as no filter.
func normalizeCategory(category string) (string, error) {
	if category == "" || strings.EqualFold(category, common.CategoryAll) {
		return category, nil
	}
	i := slices.IndexFunc(common.Categories, func(c string) bool { return strings.EqualFold(c, category) })
	if i < 0 {
		return "", fmt.Errorf("unknown category %q", category)
	}
	return common.Categories[i], nil
}

// Mine lists the products of the signed-in user.
func (a *App) Mine(ctx context.Context) error {
	return a.fetchAndPrint(ctx, models.ProductQuery{OwnerID: a.identity.UserID})
}

func (a *App) fetchAndPrint(ctx context.Context, q models.ProductQuery) error {
	s, res := a.products.Fetch(ctx, q)
	if err := resultError("list products", res); err != nil {
		fmt.Fprintln(a.out, "Showing cached products:")
		printProducts(a.out, s.Value)
		return err
	}
	printProducts(a.out, s.Value)
	return nil
}

// Find filters the cached listing with an expression such as
// `condition == "New" && name contains "iPhone"`. The listing is fetched
// first if nothing is cached yet.
func (a *App) Find(ctx context.Context, expr string) error {
	f, err := state.CompileFilter(expr)
	if err != nil {
		return err
	}

	list := a.products.Get().Value
	if len(list) == 0 {
		s, res := a.products.Fetch(ctx, models.ProductQuery{})
		if err := resultError("list products", res); err != nil {
			return err
		}
		list = s.Value
	}

	found, err := f.Apply(list)
	if err != nil {
		return err
	}
	printProducts(a.out, found)
	return nil
}

// Show prints one product with its owner.
func (a *App) Show(ctx context.Context, id string) error {
	p, res := a.catalog.GetProduct(ctx, id)
	if err := resultError("get product", res); err != nil {
		return err
	}
	owner, res := a.catalog.GetUser(ctx, p.UserID)
	if !res.OK() {
		owner = nil
	}
	printProduct(a.out, p, owner)
	return nil
}

// Edit prompts for each field of a product; empty answers keep the value.
func (a *App) Edit(ctx context.Context, id string) error {
	var patch models.ProductPatch

	ask := func(prompt string, dst **string) error {
		v, err := getSimpleText(a.reader, prompt+" (empty to keep)", a.out)
		if err != nil {
			return err
		}
		if v != "" {
			*dst = models.String(v)
		}
		return nil
	}

	if err := ask("Name", &patch.Name); err != nil {
		return err
	}
	if err := ask("Description", &patch.Description); err != nil {
		return err
	}
	if err := ask("Condition", &patch.Condition); err != nil {
		return err
	}
	category, err := a.askCategory("Category (empty to keep)")
	if err != nil {
		return err
	}
	if category != "" {
		patch.Category = models.String(category)
	}

	image, err := getSimpleText(a.reader, "Image file or URL (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if image != "" {
		url, err := a.upload(ctx, image)
		if err != nil {
			return err
		}
		patch.Image = models.String(url)
	}

	if patch.IsEmpty() {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	if _, res := a.products.Update(ctx, a.identity, id, patch); !res.OK() {
		return resultError("update product", res)
	}
	fmt.Fprintf(a.out, "Product %s updated\n", id)
	return nil
}

// Delete removes one of the user's products after confirmation.
func (a *App) Delete(ctx context.Context, id string) error {
	confirm, err := getSimpleText(a.reader, fmt.Sprintf("Delete product %s? (y/N)", id), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(confirm, "y") {
		return errNotConfirmed
	}

	if err := resultError("delete product", a.products.Delete(ctx, a.identity, id)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Product %s deleted\n", id)
	return nil
}

// Watch subscribes to live updates of the listing and prints a line for
// every change until Unwatch, logout or exit.
func (a *App) Watch(ctx context.Context, category string) error {
	if a.unwatch != nil {
		return errors.New("already watching; use unwatch first")
	}
	category, err := normalizeCategory(category)
	if err != nil {
		return err
	}

	stop, res := a.products.Watch(ctx, models.ProductQuery{Category: category})
	if err := resultError("watch products", res); err != nil {
		return err
	}

	updates, cancel := a.products.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		var last int64
		for s := range updates {
			switch {
			case s.Err != "":
				fmt.Fprintf(a.out, "\n[live] %s\n", s.Err)
			case s.Revision != last:
				last = s.Revision
				fmt.Fprintf(a.out, "\n[live] %d products (revision %d)\n", len(s.Value), s.Revision)
			}
		}
	}()

	a.unwatch = func() {
		stop()
		cancel()
		<-done
	}
	fmt.Fprintln(a.out, "Watching for changes")
	return nil
}

func (a *App) Unwatch(ctx context.Context) error {
	if a.unwatch == nil {
		return errors.New("not watching")
	}
	a.stopWatch()
	fmt.Fprintln(a.out, "Stopped watching")
	return nil
}

func (a *App) stopWatch() {
	if a.unwatch != nil {
		a.unwatch()
		a.unwatch = nil
	}
}
