package cli

import (
	"context"
	"fmt"
	"strconv"
)

func (a *App) Wish(ctx context.Context) error {
	s, res := a.wishlist.Load(ctx, a.identity.UserID)
	if err := resultError("load wishlist", res); err != nil {
		return err
	}
	printWishlist(a.out, s.Value)
	return nil
}

// WishAdd stores a wished item locally. The image is kept as typed.
func (a *App) WishAdd(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "What are you looking for?", a.out)
	if err != nil {
		return err
	}
	image, err := getSimpleText(a.reader, "Image URL (empty for none)", a.out)
	if err != nil {
		return err
	}

	e, res := a.wishlist.Add(ctx, a.identity.UserID, title, image)
	if err := resultError("add to wishlist", res); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added #%d to your wishlist\n", e.ID)
	return nil
}

func (a *App) WishDel(ctx context.Context, arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid wishlist id %q", arg)
	}
	if err := resultError("remove from wishlist", a.wishlist.Remove(ctx, a.identity.UserID, id)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed #%d from your wishlist\n", id)
	return nil
}
